package google

// DefaultScopes are the OAuth scopes the service account is granted:
//   - Google Calendar: read busy times and create events
//   - Google Sheets: append and read booking rows
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/spreadsheets",
}
