package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/lock"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/scheduling"
)

const (
	// DefaultCallTimeout bounds each Calendar Service and Record Store call.
	DefaultCallTimeout = 10 * time.Second

	// DefaultLockTimeout bounds the wait for a calendar's commit lock.
	DefaultLockTimeout = 30 * time.Second

	// MaxCallsPerCommit is the most dependency calls one commit makes: list
	// busy, create event, create event without the attendee, append record.
	MaxCallsPerCommit = 4

	// DefaultLocation is written on every calendar event.
	DefaultLocation = "Oficina"
)

// State is a step of a single commit attempt.
type State int

const (
	// StateProposed: the request has not been validated yet.
	StateProposed State = iota
	// StateReserving: waiting for the calendar's commit lock.
	StateReserving
	// StateRevalidating: the lock is held and busy intervals are re-read.
	StateRevalidating
	// StatePersisting: the event and the record are being written.
	StatePersisting
	// StateCommitted: both the event and the record exist.
	StateCommitted
	// StateAborted: the attempt failed, see the returned error.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateProposed:
		return "proposed"
	case StateReserving:
		return "reserving"
	case StateRevalidating:
		return "revalidating"
	case StatePersisting:
		return "persisting"
	case StateCommitted:
		return "committed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Config tunes a Coordinator. Zero values select the defaults.
type Config struct {
	CallTimeout time.Duration
	LockTimeout time.Duration

	// Location is the event location. Defaults to DefaultLocation.
	Location string

	// DisableAttendeeRetry turns off the single retry without the attendee
	// after the calendar refuses the invite with KindPermissionDenied.
	DisableAttendeeRetry bool
}

// Option configures optional collaborators of a Coordinator.
type Option func(*Coordinator)

// WithLocker replaces the in-process lock, e.g. with a lock.RedisLocker
// shared by several replicas.
//
// The ledger of recently committed intervals is per process. Across
// replicas revalidation relies on the Calendar Service alone, so a calendar
// that lags behind an event another replica just created is not covered.
func WithLocker(l lock.Locker) Option {
	return func(c *Coordinator) { c.locker = l }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics records commit and slot query metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator commits bookings so that no two overlapping bookings on the
// same calendar can both succeed. Commits on one calendar are serialized;
// commits on different calendars run independently. It is safe for
// concurrent use.
type Coordinator struct {
	policy   *scheduling.BusinessHoursPolicy
	calendar CalendarService
	records  RecordStore
	config   Config

	locker  lock.Locker
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time

	// committed holds the intervals of events this process created, per
	// calendar, until they end. Revalidation treats them as busy in case the
	// Calendar Service does not list them yet.
	mu        sync.Mutex
	committed map[string][]scheduling.Interval
}

// NewCoordinator wires a coordinator. policy, calendar and records are
// required.
func NewCoordinator(policy *scheduling.BusinessHoursPolicy, calendar CalendarService, records RecordStore, config Config, opts ...Option) (*Coordinator, error) {
	if policy == nil || calendar == nil || records == nil {
		return nil, errors.New("booking: policy, calendar service and record store are required")
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultCallTimeout
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.Location == "" {
		config.Location = DefaultLocation
	}

	c := &Coordinator{
		policy:    policy,
		calendar:  calendar,
		records:   records,
		config:    config,
		locker:    lock.NewKeyedMutex(),
		logger:    slog.Default(),
		now:       time.Now,
		committed: make(map[string][]scheduling.Interval),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.WithComponent(c.logger, "booking")
	return c, nil
}

// Policy returns the business-hours policy the coordinator validates against.
func (c *Coordinator) Policy() *scheduling.BusinessHoursPolicy {
	return c.policy
}

// FindFreeSlots fetches the calendar's busy intervals for date and returns
// the free candidate slots. It takes no lock: the result is advisory and
// CommitBooking revalidates.
func (c *Coordinator) FindFreeSlots(ctx context.Context, calendarID string, date civil.Date, durationMinutes int) ([]scheduling.Slot, error) {
	if strings.TrimSpace(calendarID) == "" {
		return nil, scheduling.InvalidArgument("find_free_slots", "calendar id is required")
	}
	if !date.IsValid() {
		return nil, scheduling.InvalidArgument("find_free_slots", "invalid date %s", date)
	}

	window := c.policy.Window(date)
	var slots []scheduling.Slot
	busy, err := c.busyIntervals(ctx, calendarID, window)
	if err == nil {
		slots, err = scheduling.FindFreeSlots(c.policy, busy, date, durationMinutes)
	}
	if err != nil {
		c.metrics.RecordSlotQuery(ctx, scheduling.KindOf(err).String(), 0)
		return nil, scheduling.WithContext(err, calendarID, &window)
	}

	c.metrics.RecordSlotQuery(ctx, instrumentation.StatusSuccess, len(slots))
	c.logger.Debug("free slots computed",
		logging.Calendar(calendarID),
		slog.String("date", date.String()),
		slog.Int("duration_minutes", durationMinutes),
		slog.Int("busy", len(busy)),
		slog.Int("candidates", len(slots)))
	return slots, nil
}

// CommitBooking books slot on calendarID.
//
// The calendar's lock is held from before revalidation until the record is
// persisted, and released on every exit path. Failures are *scheduling.Error
// values:
//   - KindInvalidArgument: bad input, nothing was touched
//   - KindSlotNoLongerAvailable: the slot overlaps a busy interval, nothing was touched
//   - KindDependencyUnavailable, KindDependencyTimeout: a dependency failed
//   - KindPermissionDenied: the event could not be created
//   - KindPartialCommit: the event exists (EventID is set) but the record was
//     not persisted
//
// ctx may cancel the attempt while it waits for the lock or revalidates.
// Once event creation starts the attempt runs to completion, bounded by the
// configured call timeout.
func (c *Coordinator) CommitBooking(ctx context.Context, calendarID string, slot scheduling.Slot, details Details) (record BookingRecord, err error) {
	started := time.Now()
	iv := slot.Interval()
	logger := logging.WithCalendar(c.logger, calendarID).With(logging.Interval(iv))

	ctx, span := instrumentation.StartSpan(ctx, "booking.commit",
		instrumentation.NewSpanAttributeBuilder().
			WithCalendar(calendarID).
			WithSlot(slot.Start.Format(time.RFC3339), slot.End.Format(time.RFC3339)).
			Build()...)
	state := StateProposed

	defer func() {
		result := instrumentation.ResultCommitted
		if err != nil {
			err = scheduling.WithContext(err, calendarID, &iv)
			result = scheduling.KindOf(err).String()
			c.enter(span, logger, &state, StateAborted)
			span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithErrorKind(result).Build()...)
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		c.metrics.RecordBookingCommit(ctx, calendarID, result, time.Since(started))
		span.End()
	}()

	if err := c.validate(calendarID, slot, details); err != nil {
		return BookingRecord{}, err
	}

	c.enter(span, logger, &state, StateReserving)
	release, err := c.acquire(ctx, calendarID)
	if err != nil {
		return BookingRecord{}, err
	}
	defer release()

	c.enter(span, logger, &state, StateRevalidating)
	window := c.policy.Window(c.policy.DayOf(slot.Start))
	busy, err := c.busyIntervals(ctx, calendarID, window)
	if err != nil {
		return BookingRecord{}, err
	}
	if scheduling.OverlapsAny(iv, busy) {
		logger.Info("slot no longer available", logging.Status(scheduling.KindSlotNoLongerAvailable.String()))
		return BookingRecord{}, &scheduling.Error{
			Kind:   scheduling.KindSlotNoLongerAvailable,
			Op:     "booking.revalidate",
			Detail: "slot overlaps an existing event",
		}
	}

	// Past this point cancelling ctx would orphan half-done work.
	c.enter(span, logger, &state, StatePersisting)
	persistCtx := context.WithoutCancel(ctx)

	req := eventRequest(c.policy, c.config.Location, slot, details)
	eventID, attendeeDropped, err := c.createEvent(persistCtx, logger, calendarID, req)
	if err != nil {
		return BookingRecord{}, err
	}
	c.remember(calendarID, iv)
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithEventID(eventID).Build()...)

	record = newRecord(c.policy, calendarID, eventID, slot, details, c.now())
	record.AttendeeDropped = attendeeDropped

	var recordID string
	err = c.call(persistCtx, "record_store.append_booking", func(ctx context.Context) error {
		var err error
		recordID, err = c.records.AppendBooking(ctx, record)
		return err
	})
	if err != nil {
		logger.Error("booking event created but record not persisted, manual reconciliation required",
			logging.EventID(eventID),
			logging.Plate(record.VehiclePlate),
			logging.CustomerHash(record.Contact),
			logging.Err(err))
		return BookingRecord{}, &scheduling.Error{
			Kind:    scheduling.KindPartialCommit,
			Op:      "booking.persist",
			EventID: eventID,
			Detail:  "calendar event created but booking record not persisted",
			Err:     err,
		}
	}
	record.ID = recordID

	c.enter(span, logger, &state, StateCommitted)
	logger.Info("booking committed",
		logging.EventID(eventID),
		slog.String("record_id", recordID),
		logging.Plate(record.VehiclePlate),
		logging.CustomerHash(record.Contact),
		slog.Bool("attendee_dropped", attendeeDropped),
		logging.Status(logging.StatusSuccess))
	return record, nil
}

func (c *Coordinator) validate(calendarID string, slot scheduling.Slot, details Details) error {
	if strings.TrimSpace(calendarID) == "" {
		return scheduling.InvalidArgument("booking.validate", "calendar id is required")
	}
	if err := scheduling.ValidateSlot(c.policy, slot); err != nil {
		return err
	}
	if slot.Start.Before(c.now()) {
		return scheduling.InvalidArgument("booking.validate", "slot starts in the past")
	}
	return details.Validate()
}

func (c *Coordinator) acquire(ctx context.Context, calendarID string) (lock.Release, error) {
	lockCtx, cancel := context.WithTimeout(ctx, c.config.LockTimeout)
	defer cancel()

	waitStart := time.Now()
	release, err := c.locker.Acquire(lockCtx, calendarID)
	c.metrics.RecordLockWait(ctx, err == nil, time.Since(waitStart))
	if err != nil {
		kind := scheduling.KindDependencyUnavailable
		if errors.Is(err, lock.ErrLockTimeout) {
			kind = scheduling.KindDependencyTimeout
		}
		return nil, &scheduling.Error{Kind: kind, Op: "booking.lock", Detail: "could not acquire the calendar lock", Err: err}
	}
	return release, nil
}

// busyIntervals lists the calendar's busy spans in window plus the events
// this process committed that the calendar may not list yet.
func (c *Coordinator) busyIntervals(ctx context.Context, calendarID string, window scheduling.Interval) ([]scheduling.Interval, error) {
	var busy []scheduling.Interval
	err := c.call(ctx, "calendar.list_busy", func(ctx context.Context) error {
		var err error
		busy, err = c.calendar.ListBusyIntervals(ctx, calendarID, window)
		return err
	})
	if err != nil {
		return nil, err
	}
	return append(busy, c.recent(calendarID, window)...), nil
}

// createEvent creates the event, retrying once without the attendee when
// the invite is refused.
func (c *Coordinator) createEvent(ctx context.Context, logger *slog.Logger, calendarID string, req EventRequest) (string, bool, error) {
	create := func(req EventRequest) (string, error) {
		var eventID string
		err := c.call(ctx, "calendar.create_event", func(ctx context.Context) error {
			var err error
			eventID, err = c.calendar.CreateEvent(ctx, calendarID, req)
			return err
		})
		return eventID, err
	}

	eventID, err := create(req)
	if err == nil || req.AttendeeEmail == "" || c.config.DisableAttendeeRetry ||
		scheduling.KindOf(err) != scheduling.KindPermissionDenied {
		return eventID, false, err
	}

	logger.Warn("attendee invite refused, creating event without attendee", logging.Err(err))
	req.AttendeeEmail = ""
	eventID, err = create(req)
	return eventID, err == nil, err
}

// call runs fn with the per-call timeout and maps untyped failures into the
// error taxonomy.
func (c *Coordinator) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, c.config.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		if scheduling.KindOf(err) == scheduling.KindDependencyTimeout {
			return err
		}
		return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Detail: fmt.Sprintf("no answer within %s", c.config.CallTimeout), Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Detail: "cancelled", Err: err}
	}
	if scheduling.KindOf(err) != scheduling.KindUnknown {
		return err
	}
	return &scheduling.Error{Kind: scheduling.KindDependencyUnavailable, Op: op, Err: err}
}

func (c *Coordinator) enter(span trace.Span, logger *slog.Logger, current *State, next State) {
	logger.Debug("booking state transition", slog.String("from", current.String()), slog.String("to", next.String()))
	instrumentation.AddStateEvent(span, next.String())
	*current = next
}

func (c *Coordinator) remember(calendarID string, iv scheduling.Interval) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.committed[calendarID][:0]
	for _, b := range c.committed[calendarID] {
		if b.End.After(now) {
			kept = append(kept, b)
		}
	}
	c.committed[calendarID] = append(kept, iv)
}

func (c *Coordinator) recent(calendarID string, window scheduling.Interval) []scheduling.Interval {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []scheduling.Interval
	for _, b := range c.committed[calendarID] {
		if b.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out
}
