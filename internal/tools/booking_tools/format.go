package booking_tools

import (
	"fmt"

	"github.com/teemow/autoagenda/internal/scheduling"
)

// formatSlot renders a slot as local "HH:MM-HH:MM".
func formatSlot(slot scheduling.Slot, policy *scheduling.BusinessHoursPolicy) string {
	start := slot.Start.In(policy.Location())
	end := slot.End.In(policy.Location())
	return formatClock(start.Hour(), start.Minute()) + "-" + formatClock(end.Hour(), end.Minute())
}

func formatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}
