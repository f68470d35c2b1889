// Package countdown periodically recomputes release statuses for one viewing session.
package countdown

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fipacademy/cronograma/internal/schedule"
)

const DefaultInterval = time.Second

var ErrAlreadyStarted = errors.New("countdown already started")

// ViewState is owned by a single viewing session and never shared between sessions.
type ViewState struct {
	EnrollmentDate time.Time
	Location       *time.Location
	Items          []schedule.Item

	latest Frame
}

func NewViewState(enrollmentDate time.Time, location *time.Location) *ViewState {
	if location == nil {
		location = time.UTC
	}
	return &ViewState{
		EnrollmentDate: enrollmentDate,
		Location:       location,
		Items:          schedule.GatedItems(schedule.Catalog()),
	}
}

// Latest returns the most recently computed frame.
func (state *ViewState) Latest() Frame {
	return state.latest
}

func (state *ViewState) Recompute(now time.Time) Frame {
	statuses := schedule.Statuses(state.Items, state.EnrollmentDate, now, state.Location)
	frame := Frame{
		GeneratedAt: now,
		Items:       make(map[string]Display, len(statuses)),
	}
	for _, status := range statuses {
		frame.Items[status.Key] = Format(status)
	}
	state.latest = frame
	return frame
}

type Frame struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Items       map[string]Display `json:"items"`
}

type Display struct {
	Days     int    `json:"days"`
	Hours    int    `json:"hours"`
	Minutes  string `json:"minutes"`
	Seconds  string `json:"seconds"`
	Released bool   `json:"released"`
}

func Format(status schedule.Status) Display {
	return Display{
		Days:     status.Remaining.Days,
		Hours:    status.Remaining.Hours,
		Minutes:  fmt.Sprintf("%02d", status.Remaining.Minutes),
		Seconds:  fmt.Sprintf("%02d", status.Remaining.Seconds),
		Released: status.Released,
	}
}

type Renderer struct {
	state    *ViewState
	interval time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Renderer)

func WithInterval(interval time.Duration) Option {
	return func(renderer *Renderer) {
		if interval > 0 {
			renderer.interval = interval
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(renderer *Renderer) {
		if now != nil {
			renderer.now = now
		}
	}
}

func NewRenderer(state *ViewState, options ...Option) *Renderer {
	renderer := &Renderer{
		state:    state,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, option := range options {
		option(renderer)
	}
	return renderer
}

// Run emits one frame immediately and then one per tick until ctx is done or emit fails.
// A failing emit ends the run with that error.
func (renderer *Renderer) Run(ctx context.Context, emit func(Frame) error) error {
	ticker := time.NewTicker(renderer.interval)
	defer ticker.Stop()

	if err := emit(renderer.state.Recompute(renderer.now())); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := emit(renderer.state.Recompute(renderer.now())); err != nil {
				return err
			}
		}
	}
}

// Start runs the renderer in its own goroutine until Stop is called or ctx ends.
func (renderer *Renderer) Start(ctx context.Context, emit func(Frame) error) error {
	renderer.mu.Lock()
	defer renderer.mu.Unlock()

	if renderer.cancel != nil {
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	renderer.cancel = cancel
	renderer.done = done

	go func() {
		defer close(done)
		_ = renderer.Run(runCtx, emit)
	}()
	return nil
}

// Stop cancels a started renderer and waits for its goroutine to exit.
func (renderer *Renderer) Stop() {
	renderer.mu.Lock()
	cancel := renderer.cancel
	done := renderer.done
	renderer.cancel = nil
	renderer.done = nil
	renderer.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
