package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/logging"
)

// Supported SQL drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// SQLConfig configures an SQLStore.
type SQLConfig struct {
	Driver string
	DSN    string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Logger receives gorm's slow query and error logs.
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// bookingRow is the table layout of a booking record.
type bookingRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	CustomerID      string `gorm:"size:64"`
	CustomerName    string `gorm:"size:255;not null"`
	Contact         string `gorm:"size:255;not null"`
	VehiclePlate    string `gorm:"size:16;not null;index:idx_bookings_plate_created,priority:1"`
	VehicleModel    string `gorm:"size:128"`
	VehicleYear     int
	CurrentMileage  int
	AppointmentDate string `gorm:"size:10;not null"`
	AppointmentTime string `gorm:"size:5;not null"`
	DurationMinutes int    `gorm:"not null"`
	Service         string `gorm:"size:255;not null"`
	Notes           string `gorm:"type:text"`
	CalendarID      string `gorm:"size:255;not null"`
	EventID         string `gorm:"size:255;not null;index"`
	AttendeeDropped bool
	CreatedAt       time.Time `gorm:"not null;index:idx_bookings_plate_created,priority:2"`
}

func (bookingRow) TableName() string { return "bookings" }

// SQLStore persists booking records in a relational database.
type SQLStore struct {
	db      *gorm.DB
	metrics *instrumentation.Metrics
}

var _ booking.RecordStore = (*SQLStore)(nil)

// OpenSQL connects to the configured database and migrates the schema.
func OpenSQL(cfg SQLConfig) (*SQLStore, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case DriverMySQL:
		dialector = mysql.Open(cfg.DSN)
	case DriverSQLite, "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}

	gormLogger := logger.Discard
	if cfg.Logger != nil {
		gormLogger = logger.NewSlogLogger(logging.WithComponent(cfg.Logger, "sql"), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return NewSQLStore(db, cfg.Metrics)
}

// NewSQLStore wraps an open gorm handle and migrates the schema.
func NewSQLStore(db *gorm.DB, metrics *instrumentation.Metrics) (*SQLStore, error) {
	if err := db.AutoMigrate(&bookingRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate bookings table: %w", err)
	}
	return &SQLStore{db: db, metrics: metrics}, nil
}

// AppendBooking inserts record under a new UUID.
func (s *SQLStore) AppendBooking(ctx context.Context, record booking.BookingRecord) (id string, err error) {
	defer func(start time.Time) {
		observe(ctx, s.metrics, instrumentation.DependencySQL, instrumentation.OperationAppendBooking, start, err)
	}(time.Now())

	row := toRow(record)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", classify("sql.append_booking", fmt.Errorf("failed to insert booking: %w", err))
	}
	return row.ID, nil
}

// FindByVehiclePlate returns the plate's records, newest first.
func (s *SQLStore) FindByVehiclePlate(ctx context.Context, plate string) (out []booking.BookingRecord, err error) {
	defer func(start time.Time) {
		observe(ctx, s.metrics, instrumentation.DependencySQL, instrumentation.OperationFindByPlate, start, err)
	}(time.Now())

	var rows []bookingRow
	err = s.db.WithContext(ctx).
		Where("vehicle_plate = ?", booking.NormalizePlate(plate)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, classify("sql.find_by_plate", fmt.Errorf("failed to query bookings: %w", err))
	}

	out = make([]booking.BookingRecord, 0, len(rows))
	for _, row := range rows {
		r, err := row.toRecord()
		if err != nil {
			return nil, classify("sql.find_by_plate", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases database resources.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(r booking.BookingRecord) bookingRow {
	return bookingRow{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		CustomerName:    r.CustomerName,
		Contact:         r.Contact,
		VehiclePlate:    booking.NormalizePlate(r.VehiclePlate),
		VehicleModel:    r.VehicleModel,
		VehicleYear:     r.VehicleYear,
		CurrentMileage:  r.CurrentMileage,
		AppointmentDate: r.AppointmentDate.String(),
		AppointmentTime: fmt.Sprintf("%02d:%02d", r.AppointmentStartTime.Hour, r.AppointmentStartTime.Minute),
		DurationMinutes: r.DurationMinutes,
		Service:         r.Service,
		Notes:           r.Notes,
		CalendarID:      r.CalendarID,
		EventID:         r.EventID,
		AttendeeDropped: r.AttendeeDropped,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func (row bookingRow) toRecord() (booking.BookingRecord, error) {
	date, err := civil.ParseDate(row.AppointmentDate)
	if err != nil {
		return booking.BookingRecord{}, fmt.Errorf("booking %s: invalid date %q: %w", row.ID, row.AppointmentDate, err)
	}
	clock, err := civil.ParseTime(row.AppointmentTime + ":00")
	if err != nil {
		return booking.BookingRecord{}, fmt.Errorf("booking %s: invalid time %q: %w", row.ID, row.AppointmentTime, err)
	}
	return booking.BookingRecord{
		ID:                   row.ID,
		CustomerID:           row.CustomerID,
		CustomerName:         row.CustomerName,
		Contact:              row.Contact,
		VehiclePlate:         row.VehiclePlate,
		VehicleModel:         row.VehicleModel,
		VehicleYear:          row.VehicleYear,
		CurrentMileage:       row.CurrentMileage,
		AppointmentDate:      date,
		AppointmentStartTime: clock,
		DurationMinutes:      row.DurationMinutes,
		Service:              row.Service,
		Notes:                row.Notes,
		CalendarID:           row.CalendarID,
		EventID:              row.EventID,
		AttendeeDropped:      row.AttendeeDropped,
		CreatedAt:            row.CreatedAt,
	}, nil
}
