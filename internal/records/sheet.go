package records

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/google"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// Sheet column headers. The first twelve match the workshop's existing
// service log; the rest link a row back to its calendar event.
const (
	ColCustomerID      = "customer_id"
	ColCustomerName    = "nome_cliente"
	ColContact         = "contato"
	ColPlate           = "placa_veiculo"
	ColModel           = "modelo_veiculo"
	ColYear            = "ano_veiculo"
	ColMileage         = "km_atual"
	ColDate            = "data_agendamento"
	ColTime            = "hora_agendamento"
	ColService         = "servico_realizado"
	ColNotes           = "observacoes"
	ColTimestamp       = "timestamp"
	ColEventID         = "event_id"
	ColCalendarID      = "calendar_id"
	ColDurationMinutes = "duracao_minutos"
	ColRecordID        = "record_id"
)

// SheetColumns is the column order of a booking row.
var SheetColumns = []string{
	ColCustomerID, ColCustomerName, ColContact, ColPlate, ColModel, ColYear,
	ColMileage, ColDate, ColTime, ColService, ColNotes, ColTimestamp,
	ColEventID, ColCalendarID, ColDurationMinutes, ColRecordID,
}

// timestampLayout is the local creation time written to the sheet.
const timestampLayout = "2006-01-02 15:04:05"

// SheetConfig configures a SheetStore.
type SheetConfig struct {
	SpreadsheetID string

	// SheetName selects the tab. Empty means the first sheet.
	SheetName string

	// Location is the zone of the timestamp column. Defaults to UTC.
	Location *time.Location

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// SheetStore appends booking records to a Google Sheets spreadsheet.
type SheetStore struct {
	svc     *sheets.Service
	config  SheetConfig
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

var _ booking.RecordStore = (*SheetStore)(nil)

// NewSheetStore creates a store. Authentication is passed through opts.
func NewSheetStore(ctx context.Context, cfg SheetConfig, opts ...option.ClientOption) (*SheetStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetStore{
		svc:     svc,
		config:  cfg,
		logger:  logging.WithComponent(logger, "sheets"),
		metrics: cfg.Metrics,
	}, nil
}

func (s *SheetStore) cellRange(cells string) string {
	if s.config.SheetName == "" {
		return cells
	}
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(s.config.SheetName, "'", "''"), cells)
}

func lastColumn() string {
	return string(rune('A' + len(SheetColumns) - 1))
}

// EnsureHeader writes the header row when the sheet is empty.
func (s *SheetStore) EnsureHeader(ctx context.Context) error {
	headerRange := s.cellRange("A1:" + lastColumn() + "1")
	return google.Call(ctx, s.metrics, instrumentation.DependencySheets, "ensure_header", func(ctx context.Context) error {
		existing, err := s.svc.Spreadsheets.Values.Get(s.config.SpreadsheetID, headerRange).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to read header: %w", err)
		}
		if len(existing.Values) > 0 && len(existing.Values[0]) > 0 {
			return nil
		}

		header := make([]interface{}, len(SheetColumns))
		for i, c := range SheetColumns {
			header[i] = c
		}
		_, err = s.svc.Spreadsheets.Values.Update(s.config.SpreadsheetID, headerRange, &sheets.ValueRange{
			Values: [][]interface{}{header},
		}).ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		s.logger.Info("sheet header written", slog.String("range", headerRange))
		return nil
	})
}

// AppendBooking appends one row for record and returns its new record ID.
func (s *SheetStore) AppendBooking(ctx context.Context, record booking.BookingRecord) (string, error) {
	record.ID = uuid.NewString()
	row := s.toRow(record)

	err := google.Call(ctx, s.metrics, instrumentation.DependencySheets, instrumentation.OperationAppendBooking, func(ctx context.Context) error {
		resp, err := s.svc.Spreadsheets.Values.Append(s.config.SpreadsheetID, s.cellRange("A:"+lastColumn()), &sheets.ValueRange{
			Values: [][]interface{}{row},
		}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to append booking row: %w", err)
		}
		if resp.Updates != nil {
			s.logger.Debug("booking row appended",
				slog.String("range", resp.Updates.UpdatedRange),
				logging.EventID(record.EventID))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// FindByVehiclePlate reads the sheet and returns the plate's rows, newest
// first. Rows are matched by the header row when present, otherwise by
// position.
func (s *SheetStore) FindByVehiclePlate(ctx context.Context, plate string) ([]booking.BookingRecord, error) {
	var values [][]interface{}
	err := google.Call(ctx, s.metrics, instrumentation.DependencySheets, instrumentation.OperationFindByPlate, func(ctx context.Context) error {
		resp, err := s.svc.Spreadsheets.Values.Get(s.config.SpreadsheetID, s.cellRange("A:"+lastColumn())).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to read booking rows: %w", err)
		}
		values = resp.Values
		return nil
	})
	if err != nil {
		return nil, err
	}

	plate = booking.NormalizePlate(plate)
	index := positionalIndex()
	if len(values) > 0 {
		if header, ok := headerIndex(values[0]); ok {
			index = header
			values = values[1:]
		}
	}

	var out []booking.BookingRecord
	for i := len(values) - 1; i >= 0; i-- {
		cells := rowCells(values[i], index)
		if booking.NormalizePlate(cells[ColPlate]) != plate {
			continue
		}
		out = append(out, s.fromCells(cells))
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *SheetStore) toRow(r booking.BookingRecord) []interface{} {
	byColumn := map[string]interface{}{
		ColCustomerID:      r.CustomerID,
		ColCustomerName:    r.CustomerName,
		ColContact:         r.Contact,
		ColPlate:           booking.NormalizePlate(r.VehiclePlate),
		ColModel:           r.VehicleModel,
		ColYear:            optionalInt(r.VehicleYear),
		ColMileage:         optionalInt(r.CurrentMileage),
		ColDate:            r.AppointmentDate.String(),
		ColTime:            fmt.Sprintf("%02d:%02d", r.AppointmentStartTime.Hour, r.AppointmentStartTime.Minute),
		ColService:         r.Service,
		ColNotes:           r.Notes,
		ColTimestamp:       r.CreatedAt.In(s.config.Location).Format(timestampLayout),
		ColEventID:         r.EventID,
		ColCalendarID:      r.CalendarID,
		ColDurationMinutes: strconv.Itoa(r.DurationMinutes),
		ColRecordID:        r.ID,
	}
	row := make([]interface{}, len(SheetColumns))
	for i, c := range SheetColumns {
		row[i] = byColumn[c]
	}
	return row
}

// fromCells is lenient: rows typed in by hand may miss or garble fields,
// and history should still show them.
func (s *SheetStore) fromCells(cells map[string]string) booking.BookingRecord {
	r := booking.BookingRecord{
		ID:           cells[ColRecordID],
		CustomerID:   cells[ColCustomerID],
		CustomerName: cells[ColCustomerName],
		Contact:      cells[ColContact],
		VehiclePlate: booking.NormalizePlate(cells[ColPlate]),
		VehicleModel: cells[ColModel],
		Service:      cells[ColService],
		Notes:        cells[ColNotes],
		EventID:      cells[ColEventID],
		CalendarID:   cells[ColCalendarID],
	}
	r.VehicleYear, _ = strconv.Atoi(cells[ColYear])
	r.CurrentMileage, _ = strconv.Atoi(strings.NewReplacer(".", "", ",", "", " ", "").Replace(cells[ColMileage]))
	r.DurationMinutes, _ = strconv.Atoi(cells[ColDurationMinutes])
	if d, err := scheduling.ParseDate(cells[ColDate]); err == nil {
		r.AppointmentDate = d
	}
	if t, err := scheduling.ParseClock(cells[ColTime]); err == nil {
		r.AppointmentStartTime = t
	}
	if ts, err := time.ParseInLocation(timestampLayout, cells[ColTimestamp], s.config.Location); err == nil {
		r.CreatedAt = ts
	} else if r.AppointmentDate.IsValid() {
		r.CreatedAt = civil.DateTime{Date: r.AppointmentDate, Time: r.AppointmentStartTime}.In(s.config.Location)
	}
	return r
}

func optionalInt(v int) string {
	if v == 0 {
		return ""
	}
	return strconv.Itoa(v)
}

func positionalIndex() map[string]int {
	index := make(map[string]int, len(SheetColumns))
	for i, c := range SheetColumns {
		index[c] = i
	}
	return index
}

// headerIndex maps column names to positions when row is a header row.
func headerIndex(row []interface{}) (map[string]int, bool) {
	index := make(map[string]int, len(row))
	for i, cell := range row {
		index[strings.ToLower(strings.TrimSpace(fmt.Sprint(cell)))] = i
	}
	if _, ok := index[ColPlate]; !ok {
		return nil, false
	}
	return index, true
}

func rowCells(row []interface{}, index map[string]int) map[string]string {
	cells := make(map[string]string, len(index))
	for name, i := range index {
		if i < len(row) && row[i] != nil {
			cells[name] = strings.TrimSpace(fmt.Sprint(row[i]))
		}
	}
	return cells
}
