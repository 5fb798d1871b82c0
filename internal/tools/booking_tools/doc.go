// Package booking_tools exposes the slot finder and the booking coordinator
// as MCP tools:
//
//   - schedule_find_free_slots lists the free slots of a day
//   - schedule_commit_booking books a slot (not registered in read-only mode)
//   - schedule_vehicle_history lists the last bookings of a vehicle
//
// Failures are returned as tool error results naming the error kind and how
// to recover from it.
package booking_tools
