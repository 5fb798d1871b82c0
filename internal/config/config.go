package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// Record store backends.
const (
	StoreMemory = "memory"
	StoreSQL    = "sql"
	StoreSheets = "sheets"
)

// Lock backends.
const (
	LockLocal = "local"
	LockRedis = "redis"
)

// MCP transports.
const (
	TransportStdio          = "stdio"
	TransportStreamableHTTP = "streamable-http"
)

// Config is the process configuration. Load fills it from the environment,
// BindFlags lets command-line flags override it.
type Config struct {
	// CalendarID is the calendar booked against when a caller names none.
	CalendarID string

	// DefaultDurationMinutes is used when a caller requests no duration.
	DefaultDurationMinutes int

	Policy     PolicySettings
	PolicyFile string

	Google  GoogleSettings
	Store   StoreSettings
	Lock    LockSettings
	Booking BookingSettings
	Serve   ServeSettings

	LogLevel  string
	LogFormat string
}

// PolicySettings holds the business hours in their textual form.
type PolicySettings struct {
	StartOfDay       string
	EndOfDay         string
	TimeZone         string
	SlotStepMinutes  int
	ExcludedWeekdays []string
	Holidays         []string
}

// GoogleSettings locates the service account credentials.
type GoogleSettings struct {
	CredentialsFile string
	Subject         string
}

// StoreSettings selects and configures the record store.
type StoreSettings struct {
	Backend string

	DatabaseDriver string
	DatabaseDSN    string

	SpreadsheetID string
	SheetName     string
}

// LockSettings selects and configures the per-calendar commit lock.
type LockSettings struct {
	Backend       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
	LeaseDuration time.Duration
}

// BookingSettings tunes the booking coordinator.
type BookingSettings struct {
	CallTimeout          time.Duration
	LockTimeout          time.Duration
	Location             string
	DisableAttendeeRetry bool
}

// ServeSettings configures the MCP server.
type ServeSettings struct {
	Transport string
	HTTPAddr  string

	// AuthToken, when set, is required as a bearer token on the HTTP
	// transport.
	AuthToken string

	// ReadOnly hides the tools that create bookings.
	ReadOnly bool

	MetricsEnabled bool
	MetricsAddr    string
}

// Load reads the environment and applies defaults.
func Load() *Config {
	return &Config{
		CalendarID:             getEnvOrDefault("GOOGLE_CALENDAR_ID", "primary"),
		DefaultDurationMinutes: getEnvIntOrDefault("DEFAULT_DURATION_MINUTES", scheduling.DefaultDurationMinutes),
		Policy: PolicySettings{
			StartOfDay:       getEnvOrDefault("BUSINESS_HOURS_START", "09:00"),
			EndOfDay:         getEnvOrDefault("BUSINESS_HOURS_END", "18:00"),
			TimeZone:         getEnvOrDefault("TIMEZONE", scheduling.DefaultTimeZone),
			SlotStepMinutes:  getEnvIntOrDefault("SLOT_STEP_MINUTES", 0),
			ExcludedWeekdays: getEnvListOrDefault("EXCLUDED_WEEKDAYS", nil),
			Holidays:         getEnvListOrDefault("HOLIDAYS", nil),
		},
		PolicyFile: getEnvOrDefault("POLICY_FILE", ""),
		Google: GoogleSettings{
			CredentialsFile: getEnvOrDefault("GOOGLE_APPLICATION_CREDENTIALS", ""),
			Subject:         getEnvOrDefault("GOOGLE_IMPERSONATE_SUBJECT", ""),
		},
		Store: StoreSettings{
			Backend:        getEnvOrDefault("RECORD_STORE", StoreMemory),
			DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
			DatabaseDSN:    getEnvOrDefault("DATABASE_DSN", "autoagenda.db"),
			SpreadsheetID:  getEnvOrDefault("GOOGLE_SHEET_ID", ""),
			SheetName:      getEnvOrDefault("GOOGLE_SHEET_NAME", ""),
		},
		Lock: LockSettings{
			Backend:       getEnvOrDefault("LOCK_BACKEND", LockLocal),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
			RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
			KeyPrefix:     getEnvOrDefault("LOCK_KEY_PREFIX", "autoagenda:lock:"),
			LeaseDuration: getEnvDurationOrDefault("LOCK_LEASE", 60*time.Second),
		},
		Booking: BookingSettings{
			CallTimeout:          getEnvDurationOrDefault("BOOKING_CALL_TIMEOUT", booking.DefaultCallTimeout),
			LockTimeout:          getEnvDurationOrDefault("BOOKING_LOCK_TIMEOUT", booking.DefaultLockTimeout),
			Location:             getEnvOrDefault("BOOKING_LOCATION", booking.DefaultLocation),
			DisableAttendeeRetry: getEnvBoolOrDefault("BOOKING_DISABLE_ATTENDEE_RETRY", false),
		},
		Serve: ServeSettings{
			Transport:      getEnvOrDefault("MCP_TRANSPORT", TransportStdio),
			HTTPAddr:       getEnvOrDefault("MCP_HTTP_ADDR", ":8080"),
			AuthToken:      getEnvOrDefault("MCP_AUTH_TOKEN", ""),
			ReadOnly:       getEnvBoolOrDefault("MCP_READ_ONLY", false),
			MetricsEnabled: getEnvBoolOrDefault("METRICS_ENABLED", true),
			MetricsAddr:    getEnvOrDefault("METRICS_ADDR", ":9090"),
		},
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// BindFlags registers flags whose defaults are the current values, so a
// flag given on the command line wins over the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.CalendarID, "calendar-id", c.CalendarID, "Calendar to book against")
	fs.IntVar(&c.DefaultDurationMinutes, "default-duration", c.DefaultDurationMinutes, "Default appointment length in minutes")

	fs.StringVar(&c.Policy.StartOfDay, "business-start", c.Policy.StartOfDay, "Opening time (HH:MM)")
	fs.StringVar(&c.Policy.EndOfDay, "business-end", c.Policy.EndOfDay, "Closing time (HH:MM)")
	fs.StringVar(&c.Policy.TimeZone, "timezone", c.Policy.TimeZone, "IANA timezone of the business hours")
	fs.IntVar(&c.Policy.SlotStepMinutes, "slot-step", c.Policy.SlotStepMinutes, "Minutes between candidate slot starts (0: the requested duration)")
	fs.StringSliceVar(&c.Policy.ExcludedWeekdays, "excluded-weekdays", c.Policy.ExcludedWeekdays, "Weekdays without business hours, e.g. sunday")
	fs.StringSliceVar(&c.Policy.Holidays, "holidays", c.Policy.Holidays, "Closed dates (YYYY-MM-DD)")
	fs.StringVar(&c.PolicyFile, "policy-file", c.PolicyFile, "YAML file with business hours, overriding the flags above")

	fs.StringVar(&c.Google.CredentialsFile, "credentials", c.Google.CredentialsFile, "Service account JSON key file (default: application default credentials)")
	fs.StringVar(&c.Google.Subject, "subject", c.Google.Subject, "User to impersonate with domain-wide delegation")

	fs.StringVar(&c.Store.Backend, "store", c.Store.Backend, "Record store: memory, sql or sheets")
	fs.StringVar(&c.Store.DatabaseDriver, "db-driver", c.Store.DatabaseDriver, "SQL driver: sqlite, postgres or mysql")
	fs.StringVar(&c.Store.DatabaseDSN, "db-dsn", c.Store.DatabaseDSN, "SQL data source name")
	fs.StringVar(&c.Store.SpreadsheetID, "sheet-id", c.Store.SpreadsheetID, "Spreadsheet holding the booking log")
	fs.StringVar(&c.Store.SheetName, "sheet-name", c.Store.SheetName, "Tab of the booking log (default: first tab)")

	fs.StringVar(&c.Lock.Backend, "lock", c.Lock.Backend, "Commit lock: local or redis")
	fs.StringVar(&c.Lock.RedisAddr, "redis-addr", c.Lock.RedisAddr, "Redis address for the redis lock")
	fs.IntVar(&c.Lock.RedisDB, "redis-db", c.Lock.RedisDB, "Redis database for the redis lock")
	fs.DurationVar(&c.Lock.LeaseDuration, "lock-lease", c.Lock.LeaseDuration, "Lease of a redis commit lock")

	fs.DurationVar(&c.Booking.CallTimeout, "call-timeout", c.Booking.CallTimeout, "Timeout of each calendar and record store call")
	fs.DurationVar(&c.Booking.LockTimeout, "lock-timeout", c.Booking.LockTimeout, "Maximum wait for a calendar's commit lock")
	fs.StringVar(&c.Booking.Location, "event-location", c.Booking.Location, "Location written on calendar events")

	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
}

// BindServeFlags registers the flags of the serve command.
func (c *Config) BindServeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Serve.Transport, "transport", c.Serve.Transport, "Transport type: stdio or streamable-http")
	fs.StringVar(&c.Serve.HTTPAddr, "http-addr", c.Serve.HTTPAddr, "HTTP server address (for streamable-http transport)")
	fs.StringVar(&c.Serve.AuthToken, "auth-token", c.Serve.AuthToken, "Bearer token required by the HTTP transport. Can also use MCP_AUTH_TOKEN env var.")
	fs.BoolVar(&c.Serve.ReadOnly, "read-only", c.Serve.ReadOnly, "Only offer slot search and history, no booking")
	fs.BoolVar(&c.Serve.MetricsEnabled, "metrics-enabled", c.Serve.MetricsEnabled, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	fs.StringVar(&c.Serve.MetricsAddr, "metrics-addr", c.Serve.MetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")
}

// ValidateServe checks the serve settings.
func (c *Config) ValidateServe() error {
	switch c.Serve.Transport {
	case TransportStdio, TransportStreamableHTTP:
	default:
		return fmt.Errorf("unsupported transport type: %s (supported: stdio, streamable-http)", c.Serve.Transport)
	}
	if c.Serve.Transport == TransportStreamableHTTP && c.Serve.HTTPAddr == "" {
		return fmt.Errorf("http address must not be empty")
	}
	return nil
}

// Validate checks the settings that Load cannot default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.CalendarID) == "" {
		return fmt.Errorf("calendar id must not be empty")
	}
	if c.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("default duration must be positive, got %d", c.DefaultDurationMinutes)
	}

	switch c.Store.Backend {
	case StoreMemory:
	case StoreSQL:
		if c.Store.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for the sql record store")
		}
	case StoreSheets:
		if c.Store.SpreadsheetID == "" {
			return fmt.Errorf("GOOGLE_SHEET_ID is required for the sheets record store")
		}
	default:
		return fmt.Errorf("invalid record store %q, must be one of: memory, sql, sheets", c.Store.Backend)
	}

	switch c.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if c.Lock.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis lock")
		}
		callTimeout := c.Booking.CallTimeout
		if callTimeout <= 0 {
			callTimeout = booking.DefaultCallTimeout
		}
		// The lease is renewed while held, but must still outlast a commit
		// whose renewals stall.
		if worst := booking.MaxCallsPerCommit * callTimeout; c.Lock.LeaseDuration <= worst {
			return fmt.Errorf("lock lease %s must exceed %d call timeouts (%s)", c.Lock.LeaseDuration, booking.MaxCallsPerCommit, worst)
		}
	default:
		return fmt.Errorf("invalid lock backend %q, must be one of: local, redis", c.Lock.Backend)
	}

	if c.Booking.CallTimeout < 0 || c.Booking.LockTimeout < 0 {
		return fmt.Errorf("booking timeouts must not be negative")
	}
	return nil
}

// CoordinatorConfig returns the booking coordinator settings.
func (c *Config) CoordinatorConfig() booking.Config {
	return booking.Config{
		CallTimeout:          c.Booking.CallTimeout,
		LockTimeout:          c.Booking.LockTimeout,
		Location:             c.Booking.Location,
		DisableAttendeeRetry: c.Booking.DisableAttendeeRetry,
	}
}

// getEnvOrDefault returns the value of an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}

// getEnvDurationOrDefault accepts Go durations ("45s") and bare seconds ("45").
func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated variable, dropping empty items.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
