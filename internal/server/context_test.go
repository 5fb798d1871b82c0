package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/booking/bookingtest"
	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/records"
	"github.com/teemow/autoagenda/internal/scheduling"
)

var monday = civil.Date{Year: 2026, Month: time.October, Day: 19}

func fixedClock() time.Time {
	return time.Date(2026, time.October, 18, 7, 0, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.CalendarID = "oficina"
	cfg.Store.Backend = config.StoreMemory
	cfg.Lock.Backend = config.LockLocal
	return cfg
}

func newTestContext(t *testing.T, cfg *config.Config) (*ServerContext, *bookingtest.Calendar) {
	t.Helper()
	cal := bookingtest.NewCalendar()
	sc, err := NewServerContext(context.Background(), Options{
		Config:   cfg,
		Logger:   logging.Discard().Logger(),
		Calendar: cal,
		Clock:    fixedClock,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, cal
}

func commitAt(t *testing.T, sc *ServerContext, hour int) (booking.BookingRecord, error) {
	t.Helper()
	slot, err := scheduling.SlotAt(sc.Policy(), monday, civil.Time{Hour: hour}, 60)
	require.NoError(t, err)
	return sc.Coordinator().CommitBooking(context.Background(), sc.CalendarID(""), slot, booking.Details{
		CustomerName: "Maria",
		Contact:      "+55 11 99999-0000",
		VehiclePlate: "abc1d23",
		Service:      "Revisão",
	})
}

func TestNewServerContext_Memory(t *testing.T) {
	sc, cal := newTestContext(t, testConfig())

	assert.IsType(t, &records.MemoryStore{}, sc.Records())
	assert.Empty(t, sc.HealthChecks())
	assert.Equal(t, "oficina", sc.CalendarID(""))
	assert.Equal(t, "other", sc.CalendarID("other"))
	assert.Equal(t, 60, sc.DefaultDurationMinutes())
	assert.Equal(t, "America/Sao_Paulo", sc.Policy().TimeZone())

	record, err := commitAt(t, sc, 10)
	require.NoError(t, err)
	assert.Equal(t, "evt-1", record.EventID)
	assert.Len(t, cal.Events(), 1)

	history, err := sc.Coordinator().History(context.Background(), "ABC1D23", 0)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestNewServerContext_SQLStore(t *testing.T) {
	cfg := testConfig()
	cfg.Store.Backend = config.StoreSQL
	cfg.Store.DatabaseDriver = records.DriverSQLite
	cfg.Store.DatabaseDSN = filepath.Join(t.TempDir(), "bookings.db")

	sc, _ := newTestContext(t, cfg)

	assert.IsType(t, &records.SQLStore{}, sc.Records())
	require.Contains(t, sc.HealthChecks(), "database")
	assert.NoError(t, sc.HealthChecks()["database"](context.Background()))

	_, err := commitAt(t, sc, 11)
	require.NoError(t, err)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())
	assert.Error(t, sc.HealthChecks()["database"](context.Background()), "the database is closed on shutdown")
}

func TestNewServerContext_RedisLock(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig()
	cfg.Lock.Backend = config.LockRedis
	cfg.Lock.RedisAddr = mr.Addr()

	sc, _ := newTestContext(t, cfg)
	require.Contains(t, sc.HealthChecks(), "redis")
	assert.NoError(t, sc.HealthChecks()["redis"](context.Background()))

	_, err := commitAt(t, sc, 9)
	require.NoError(t, err)
	assert.Empty(t, mr.Keys(), "the lock is released after the commit")

	_, err = commitAt(t, sc, 9)
	assert.ErrorIs(t, err, scheduling.ErrSlotNoLongerAvailable)
}

func TestNewServerContext_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		noFake  bool
		wantErr string
	}{
		{name: "invalid config", mutate: func(c *config.Config) { c.Store.Backend = "nope" }, wantErr: "invalid configuration"},
		{name: "invalid policy", mutate: func(c *config.Config) { c.Policy.StartOfDay = "25:00" }, wantErr: "invalid business hours"},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Store.Backend = config.StoreSQL; c.Store.DatabaseDriver = "oracle" }, wantErr: "oracle"},
		{
			name:    "missing credentials file",
			mutate:  func(c *config.Config) { c.Google.CredentialsFile = filepath.Join(t.TempDir(), "missing.json") },
			noFake:  true,
			wantErr: "missing.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			opts := Options{Config: cfg, Logger: logging.Discard().Logger()}
			if !tt.noFake {
				opts.Calendar = bookingtest.NewCalendar()
			}
			_, err := NewServerContext(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
