// Package schedule computes when gated content unlocks for an enrollment.
//
// Every function here is pure: callers pass the current time and location.
package schedule

import "time"

// ReleaseHour is the local hour at which every gated item unlocks.
const ReleaseHour = 12

type Item struct {
	Key        string
	OffsetDays int
	Gated      bool
}

// Catalog is the fixed schedule shown to every enrolled user, in display order.
func Catalog() []Item {
	return []Item{
		{Key: "platform"},
		{Key: "k17-classes", OffsetDays: 7, Gated: true},
		{Key: "black-book", OffsetDays: 8, Gated: true},
		{Key: "futuros-tech-bonus", OffsetDays: 8, Gated: true},
		{Key: "k17-updates"},
		{Key: "secret-bonus", OffsetDays: 9, Gated: true},
		{Key: "futuros-tech-report"},
	}
}

func GatedItems(items []Item) []Item {
	gated := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Gated {
			gated = append(gated, item)
		}
	}
	return gated
}

type Remaining struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

func (remaining Remaining) IsZero() bool {
	return remaining.Days == 0 && remaining.Hours == 0 && remaining.Minutes == 0 && remaining.Seconds == 0
}

func (remaining Remaining) Duration() time.Duration {
	return time.Duration(remaining.Days)*24*time.Hour +
		time.Duration(remaining.Hours)*time.Hour +
		time.Duration(remaining.Minutes)*time.Minute +
		time.Duration(remaining.Seconds)*time.Second
}

type Status struct {
	Key       string    `json:"key"`
	Remaining Remaining `json:"remaining"`
	Released  bool      `json:"released"`
	ReleaseAt time.Time `json:"release_at"`
}

// ReleaseInstant returns 12:00:00 on the calendar day offsetDays after enrollment, in location.
func ReleaseInstant(enrollment time.Time, offsetDays int, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	local := enrollment.In(location)
	return time.Date(local.Year(), local.Month(), local.Day()+offsetDays, ReleaseHour, 0, 0, 0, location)
}

// RemainingUntil never goes negative: past the release instant every field is zero.
func RemainingUntil(release time.Time, now time.Time) Remaining {
	diff := release.Sub(now)
	if diff <= 0 {
		return Remaining{}
	}

	total := int64(diff / time.Second)
	return Remaining{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Minutes: int(total % 3600 / 60),
		Seconds: int(total % 60),
	}
}

func StatusFor(item Item, enrollment time.Time, now time.Time, location *time.Location) Status {
	release := ReleaseInstant(enrollment, item.OffsetDays, location)
	remaining := RemainingUntil(release, now)
	return Status{
		Key:       item.Key,
		Remaining: remaining,
		Released:  remaining.IsZero(),
		ReleaseAt: release,
	}
}

// Statuses evaluates every gated item of items; ungated items have no countdown.
func Statuses(items []Item, enrollment time.Time, now time.Time, location *time.Location) []Status {
	gated := GatedItems(items)
	statuses := make([]Status, 0, len(gated))
	for _, item := range gated {
		statuses = append(statuses, StatusFor(item, enrollment, now, location))
	}
	return statuses
}
