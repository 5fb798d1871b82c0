// Package records implements booking.RecordStore.
//
// Three stores are provided:
//   - MemoryStore keeps records in process memory, for tests and dry runs
//   - SQLStore persists records with gorm on SQLite, PostgreSQL or MySQL
//   - SheetStore appends one row per booking to a Google Sheets spreadsheet,
//     the layout the workshop already keeps its service log in
//
// All stores are append-only and safe for concurrent use. Plates are stored
// normalized (upper case, trimmed) and looked up the same way.
package records
