// Package i18n serves the flat pt/en message catalogs used by pages and API errors.
package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

const (
	LangPT = "pt"
	LangEN = "en"
)

type Manager struct {
	defaultLanguage string
	catalogs        map[string]map[string]string
	languages       []string
}

// NewManager loads every <lang>.json file found in localesDir.
func NewManager(defaultLanguage string, localesDir string) (*Manager, error) {
	manager, err := NewManagerFS(defaultLanguage, os.DirFS(localesDir))
	if err != nil {
		return nil, fmt.Errorf("locales %s: %w", localesDir, err)
	}
	return manager, nil
}

func NewManagerFS(defaultLanguage string, locales fs.FS) (*Manager, error) {
	entries, err := fs.ReadDir(locales, ".")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	manager := &Manager{catalogs: make(map[string]map[string]string, len(entries))}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".json" {
			continue
		}
		language := strings.ToLower(strings.TrimSuffix(entry.Name(), ".json"))

		content, err := fs.ReadFile(locales, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", language, err)
		}
		catalog := map[string]string{}
		if err := json.Unmarshal(content, &catalog); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", language, err)
		}
		if len(catalog) == 0 {
			return nil, fmt.Errorf("locale %s is empty", language)
		}

		manager.catalogs[language] = catalog
		manager.languages = append(manager.languages, language)
	}

	for _, required := range []string{LangPT, LangEN} {
		if _, ok := manager.catalogs[required]; !ok {
			return nil, fmt.Errorf("required locale %q missing", required)
		}
	}

	sort.Strings(manager.languages)
	manager.defaultLanguage = LangPT
	manager.defaultLanguage = manager.NormalizeLanguage(defaultLanguage)
	return manager, nil
}

func (manager *Manager) DefaultLanguage() string {
	return manager.defaultLanguage
}

func (manager *Manager) SupportedLanguages() []string {
	return append([]string(nil), manager.languages...)
}

// NormalizeLanguage maps tags like "pt-BR" or "en_US" onto a loaded catalog, else the default.
func (manager *Manager) NormalizeLanguage(raw string) string {
	language := baseLanguage(raw)
	if _, ok := manager.catalogs[language]; ok {
		return language
	}
	return manager.defaultLanguage
}

func (manager *Manager) DetectFromAcceptLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag, _, _ := strings.Cut(part, ";")
		language := baseLanguage(tag)
		if _, ok := manager.catalogs[language]; ok {
			return language
		}
	}
	return manager.defaultLanguage
}

// Messages returns the catalog for language layered over the default catalog.
func (manager *Manager) Messages(language string) map[string]string {
	fallback := manager.catalogs[manager.defaultLanguage]
	target := manager.catalogs[manager.NormalizeLanguage(language)]

	merged := make(map[string]string, len(fallback))
	for key, value := range fallback {
		merged[key] = value
	}
	for key, value := range target {
		merged[key] = value
	}
	return merged
}

func (manager *Manager) Translate(language string, key string) string {
	if value := strings.TrimSpace(manager.Messages(language)[key]); value != "" {
		return value
	}
	return key
}

// Toggle returns the other language of the pt/en switch.
func (manager *Manager) Toggle(language string) string {
	if manager.NormalizeLanguage(language) == LangEN {
		return LangPT
	}
	return LangEN
}

func baseLanguage(raw string) string {
	language := strings.ToLower(strings.TrimSpace(raw))
	language = strings.ReplaceAll(language, "_", "-")
	language, _, _ = strings.Cut(language, "-")
	return language
}
