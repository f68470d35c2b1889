package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fipacademy/cronograma/internal/countdown"
	"github.com/fipacademy/cronograma/internal/logging"
	"github.com/fipacademy/cronograma/internal/models"
	"github.com/fipacademy/cronograma/internal/schedule"
	"github.com/gofiber/fiber/v2"
)

var errStreamComplete = errors.New("all items released")

// scheduleItem is one catalog entry as rendered on the page and returned by the API.
type scheduleItem struct {
	Key        string              `json:"key"`
	Gated      bool                `json:"gated"`
	OffsetDays int                 `json:"offsetDays"`
	ReleaseAt  *time.Time          `json:"releaseAt,omitempty"`
	Remaining  *schedule.Remaining `json:"remaining,omitempty"`
	Released   bool                `json:"released"`
	Display    countdown.Display   `json:"-"`
}

func (handler *Handler) scheduleItems(enrollment *models.Enrollment, now time.Time) []scheduleItem {
	catalog := schedule.Catalog()
	items := make([]scheduleItem, 0, len(catalog))
	for _, item := range catalog {
		view := scheduleItem{Key: item.Key, Gated: item.Gated, OffsetDays: item.OffsetDays}
		if item.Gated {
			status := schedule.StatusFor(item, enrollment.EnrollmentDate, now, handler.location)
			releaseAt := status.ReleaseAt
			remaining := status.Remaining
			view.ReleaseAt = &releaseAt
			view.Remaining = &remaining
			view.Released = status.Released
			view.Display = countdown.Format(status)
		}
		items = append(items, view)
	}
	return items
}

func (handler *Handler) Schedule(c *fiber.Ctx) error {
	enrollment, ok := currentEnrollment(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	now := handler.now()
	return c.JSON(fiber.Map{
		"enrollmentDate": enrollment.EnrollmentDate,
		"generatedAt":    now,
		"items":          handler.scheduleItems(enrollment, now),
	})
}

// CountdownStream pushes a countdown frame every interval as Server-Sent Events.
// It stops once every item is released, and never outlives maxStreamDuration.
func (handler *Handler) CountdownStream(c *fiber.Ctx) error {
	enrollment, ok := currentEnrollment(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	state := countdown.NewViewState(enrollment.EnrollmentDate, handler.location)
	renderer := countdown.NewRenderer(state,
		countdown.WithInterval(handler.streamInterval),
		countdown.WithClock(handler.now),
	)
	logger := handler.logger.With("enrollment_id", enrollment.ID, "request_id", requestID(c))

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		closed := handler.metrics.StreamOpened()
		defer closed()

		ctx, cancel := context.WithTimeout(context.Background(), maxStreamDuration)
		defer cancel()

		err := renderer.Run(ctx, func(frame countdown.Frame) error {
			return handler.emitCountdownFrame(w, frame)
		})
		switch {
		case err == nil, errors.Is(err, errStreamComplete):
			logger.Debug("countdown stream finished")
		default:
			logger.Debug("countdown stream closed", logging.Err(err))
		}
	})
	return nil
}

func (handler *Handler) emitCountdownFrame(w *bufio.Writer, frame countdown.Frame) error {
	if err := writeSSE(w, "countdown", frame); err != nil {
		return err
	}
	done := allReleased(frame)
	if done {
		if err := writeSSE(w, "done", fiber.Map{}); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	handler.metrics.FrameSent()
	if done {
		return errStreamComplete
	}
	return nil
}

func writeSSE(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

func allReleased(frame countdown.Frame) bool {
	for _, display := range frame.Items {
		if !display.Released {
			return false
		}
	}
	return true
}
