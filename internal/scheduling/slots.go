package scheduling

import (
	"time"

	"cloud.google.com/go/civil"
)

// Slot is a candidate appointment window. End - Start always equals
// DurationMinutes.
type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes"`
}

// Interval returns the slot as a half-open interval.
func (s Slot) Interval() Interval {
	return Interval{Start: s.Start, End: s.End}
}

// FindFreeSlots returns the candidate slots of durationMinutes on date that
// fit inside the policy's business window and do not overlap busy.
//
// busy may be unsorted and contain overlaps, duplicates and intervals outside
// business hours. The result is ordered by start time and depends only on the
// arguments. A closed day (excluded weekday or holiday) yields an empty result.
func FindFreeSlots(policy *BusinessHoursPolicy, busy []Interval, date civil.Date, durationMinutes int) ([]Slot, error) {
	const op = "find_free_slots"

	if policy == nil {
		return nil, InvalidArgument(op, "policy is required")
	}
	if !date.IsValid() {
		return nil, InvalidArgument(op, "invalid date %s", date)
	}
	if durationMinutes <= 0 {
		return nil, InvalidArgument(op, "duration must be positive, got %d minutes", durationMinutes)
	}

	window := policy.Window(date)
	duration := time.Duration(durationMinutes) * time.Minute
	if duration > window.Duration() {
		return nil, InvalidArgument(op, "duration %d minutes exceeds the business day (%s)", durationMinutes, window.Duration())
	}

	slots := []Slot{}
	if policy.IsClosed(date) {
		return slots, nil
	}

	step := policy.SlotStep()
	if step <= 0 {
		step = duration
	}

	for _, span := range FreeSpans(window, busy) {
		for start := span.Start; !start.Add(duration).After(span.End); start = start.Add(step) {
			slots = append(slots, Slot{
				Start:           start,
				End:             start.Add(duration),
				DurationMinutes: durationMinutes,
			})
		}
	}
	return slots, nil
}

// FreeSpans returns the gaps inside window left by busy, in ascending order.
// Busy intervals are clipped to the window first; those wholly outside it are
// ignored.
func FreeSpans(window Interval, busy []Interval) []Interval {
	clipped := make([]Interval, 0, len(busy))
	for _, b := range busy {
		if c, ok := b.Clip(window); ok {
			clipped = append(clipped, c)
		}
	}

	var spans []Interval
	cursor := window.Start
	for _, b := range MergeIntervals(clipped) {
		if cursor.Before(b.Start) {
			spans = append(spans, Interval{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if cursor.Before(window.End) {
		spans = append(spans, Interval{Start: cursor, End: window.End})
	}
	return spans
}

// SlotAt builds the slot starting at clock on date, as requested by a caller
// that picked a start time. It fails with KindInvalidArgument if the slot is
// not inside the business window or the day is closed.
func SlotAt(policy *BusinessHoursPolicy, date civil.Date, clock civil.Time, durationMinutes int) (Slot, error) {
	const op = "slot_at"

	if policy == nil {
		return Slot{}, InvalidArgument(op, "policy is required")
	}
	if !date.IsValid() || !clock.IsValid() {
		return Slot{}, InvalidArgument(op, "invalid date or time %s %s", date, clock)
	}
	if durationMinutes <= 0 {
		return Slot{}, InvalidArgument(op, "duration must be positive, got %d minutes", durationMinutes)
	}

	start := civil.DateTime{Date: date, Time: clock}.In(policy.Location())
	slot := Slot{
		Start:           start,
		End:             start.Add(time.Duration(durationMinutes) * time.Minute),
		DurationMinutes: durationMinutes,
	}
	if err := ValidateSlot(policy, slot); err != nil {
		return Slot{}, err
	}
	return slot, nil
}

// ValidateSlot checks the structural invariants of a proposed slot: the
// duration matches, the day is open and the slot lies inside that day's
// business window.
func ValidateSlot(policy *BusinessHoursPolicy, slot Slot) error {
	const op = "validate_slot"

	if policy == nil {
		return InvalidArgument(op, "policy is required")
	}
	iv := slot.Interval()
	if slot.DurationMinutes <= 0 || !iv.Valid() {
		return &Error{Kind: KindInvalidArgument, Op: op, Interval: &iv, Detail: "slot must have a positive duration"}
	}
	if iv.Duration() != time.Duration(slot.DurationMinutes)*time.Minute {
		return &Error{Kind: KindInvalidArgument, Op: op, Interval: &iv, Detail: "slot length does not match its duration"}
	}

	date := policy.DayOf(slot.Start)
	if policy.IsClosed(date) {
		return &Error{Kind: KindInvalidArgument, Op: op, Interval: &iv, Detail: "the workshop is closed on " + date.String()}
	}
	if !policy.Window(date).Contains(iv) {
		return &Error{Kind: KindInvalidArgument, Op: op, Interval: &iv, Detail: "slot is outside business hours"}
	}
	return nil
}
