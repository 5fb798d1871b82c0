// Package google resolves the service account credentials used by the
// Calendar and Sheets clients.
//
// Credentials come from a key file, inline key JSON or Application Default
// Credentials, in that order. Setting Config.Subject enables domain-wide
// delegation, which the calendar requires before a service account may
// invite attendees.
package google
