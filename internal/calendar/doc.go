// Package calendar adapts the Google Calendar API to booking.CalendarService.
//
// Busy intervals come from the free/busy endpoint. Events are created with
// the policy's timezone, default reminders and a fixed location; an attendee
// is invited and notified only when the booking names one.
//
// Errors are classified with google.ClassifyError. A refused attendee
// invite (403 forbiddenForServiceAccounts) becomes KindPermissionDenied so
// the coordinator can retry without the attendee.
//
// Example usage:
//
//	creds, err := google.LoadCredentials(ctx, google.Config{CredentialsFile: "key.json"})
//	if err != nil {
//	    return err
//	}
//	client, err := calendar.NewClient(ctx, calendar.Config{}, creds.ClientOptions(ctx)...)
package calendar
