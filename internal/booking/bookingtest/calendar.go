// Package bookingtest provides an in-memory booking.CalendarService for
// tests of packages built on the booking coordinator.
package bookingtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// Calendar is a booking.CalendarService that keeps events in memory.
// Created events show up as busy in later queries.
type Calendar struct {
	mu     sync.Mutex
	busy   map[string][]scheduling.Interval
	events []booking.EventRequest

	// ListErr and CreateErr, when set, are returned by every call.
	ListErr   error
	CreateErr error
}

var _ booking.CalendarService = (*Calendar)(nil)

// NewCalendar returns an empty calendar.
func NewCalendar() *Calendar {
	return &Calendar{busy: make(map[string][]scheduling.Interval)}
}

// AddBusy marks a span of calendarID as occupied.
func (c *Calendar) AddBusy(calendarID string, iv scheduling.Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy[calendarID] = append(c.busy[calendarID], iv)
}

// ListBusyIntervals implements booking.CalendarService.
func (c *Calendar) ListBusyIntervals(ctx context.Context, calendarID string, window scheduling.Interval) ([]scheduling.Interval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ListErr != nil {
		return nil, c.ListErr
	}
	var out []scheduling.Interval
	for _, iv := range c.busy[calendarID] {
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	return out, nil
}

// CreateEvent implements booking.CalendarService.
func (c *Calendar) CreateEvent(ctx context.Context, calendarID string, req booking.EventRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.CreateErr != nil {
		return "", c.CreateErr
	}
	c.events = append(c.events, req)
	c.busy[calendarID] = append(c.busy[calendarID], scheduling.Interval{Start: req.Start, End: req.End})
	return fmt.Sprintf("evt-%d", len(c.events)), nil
}

// Events returns a copy of the created events.
func (c *Calendar) Events() []booking.EventRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]booking.EventRequest(nil), c.events...)
}
