// Package scheduling computes free appointment windows against a calendar.
//
// The package is pure: FindFreeSlots turns a BusinessHoursPolicy, a snapshot
// of busy intervals and a requested duration into an ordered list of candidate
// slots, without I/O or hidden state, so it is safe to call concurrently.
//
// It also defines the error taxonomy shared by the booking coordinator and
// the dependency adapters. Every failure is an *Error with a Kind:
//
//	slots, err := scheduling.FindFreeSlots(policy, busy, date, 60)
//	if scheduling.KindOf(err) == scheduling.KindInvalidArgument {
//	    // bad input, do not retry
//	}
//
// Example usage:
//
//	policy, err := scheduling.NewBusinessHoursPolicy(scheduling.DefaultPolicyConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	date, _ := scheduling.ParseDate("2026-10-20")
//	slots, err := scheduling.FindFreeSlots(policy, busy, date, 60)
package scheduling
