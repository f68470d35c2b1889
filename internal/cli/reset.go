// Package cli holds administrative commands that run against the local database.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fipacademy/cronograma/internal/security"
	"github.com/fipacademy/cronograma/internal/services"
	"golang.org/x/term"
)

const temporaryPasswordAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz23456789"

var errPasswordMismatch = errors.New("passwords do not match")

type PasswordResetter interface {
	ResetPassword(ctx context.Context, email string, password string) error
}

// ResetOptions configures reset-password. Without a terminal on Stdin, or with Generate set,
// a temporary password is generated and printed.
type ResetOptions struct {
	Email    string
	Scheme   string
	Generate bool
	Stdin    *os.File
	Stdout   io.Writer
}

func RunResetPasswordCommand(ctx context.Context, resetter PasswordResetter, options ResetOptions) error {
	if options.Scheme == services.SchemeCPF {
		return errors.New("reset-password is unavailable under the cpf credential scheme")
	}
	email := services.NormalizeEmail(options.Email)
	if email == "" {
		return fmt.Errorf("invalid email address %q", options.Email)
	}
	stdout := options.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	var (
		password  string
		generated bool
		err       error
	)
	if !options.Generate && options.Stdin != nil && term.IsTerminal(int(options.Stdin.Fd())) {
		password, err = promptNewPassword(options.Stdin, stdout)
	} else {
		password, err = generateTemporaryPassword(12)
		generated = true
	}
	if err != nil {
		return err
	}

	if err := resetter.ResetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("reset password for %s: %w", email, err)
	}

	fmt.Fprintf(stdout, "Password reset for %s\n", email)
	if generated {
		fmt.Fprintf(stdout, "Temporary password: %s\n", password)
	}
	return nil
}

func promptNewPassword(stdin *os.File, stdout io.Writer) (string, error) {
	fd := int(stdin.Fd())

	fmt.Fprint(stdout, "New password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(stdout, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(stdout)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	return matchPasswords(string(first), string(second))
}

func matchPasswords(first string, second string) (string, error) {
	first = strings.TrimRight(first, "\r\n")
	second = strings.TrimRight(second, "\r\n")
	if first != second {
		return "", errPasswordMismatch
	}
	if err := services.ValidatePasswordStrength(first); err != nil {
		return "", err
	}
	return first, nil
}

// generateTemporaryPassword draws until the result satisfies the password policy.
func generateTemporaryPassword(length int) (string, error) {
	if length < 8 {
		length = 8
	}

	for {
		candidate, err := security.RandomString(length, temporaryPasswordAlphabet)
		if err != nil {
			return "", err
		}
		if services.ValidatePasswordStrength(candidate) == nil {
			return candidate, nil
		}
	}
}
