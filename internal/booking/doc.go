// Package booking commits appointment bookings against a shared calendar.
//
// A Coordinator turns a candidate slot into a committed booking in four
// steps: it takes the calendar's lock, revalidates the slot against the
// calendar's current busy intervals, creates the calendar event and appends
// the booking record. The lock is held until the record is persisted, so
// two overlapping commits on one calendar can never both succeed.
//
// Failures are *scheduling.Error values; use errors.Is with the sentinels
// in package scheduling (scheduling.ErrSlotNoLongerAvailable, ...) or
// scheduling.KindOf to branch on them. KindPartialCommit means the event
// exists but no record was written; the error carries the event ID for
// reconciliation.
//
// CalendarService and RecordStore are implemented by packages calendar and
// records.
package booking
