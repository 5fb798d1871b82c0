package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/google"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// Client wraps the Google Calendar service as a booking.CalendarService.
type Client struct {
	svc     *calendar.Service
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

var _ booking.CalendarService = (*Client)(nil)

// Config holds the optional collaborators of a Client.
type Config struct {
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// NewClient creates a Calendar client. Authentication is passed through
// opts, usually from google.Credentials.ClientOptions.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:     svc,
		logger:  logging.WithComponent(logger, "calendar"),
		metrics: cfg.Metrics,
	}, nil
}

// ListBusyIntervals queries the calendar's free/busy information for window.
// Busy spans are returned sorted by start time.
func (c *Client) ListBusyIntervals(ctx context.Context, calendarID string, window scheduling.Interval) ([]scheduling.Interval, error) {
	query := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}

	var busy []scheduling.Interval
	err := google.Call(ctx, c.metrics, instrumentation.DependencyCalendar, instrumentation.OperationListBusy, func(ctx context.Context) error {
		result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to query freebusy: %w", err)
		}

		cal, ok := result.Calendars[calendarID]
		if !ok {
			return &scheduling.Error{Kind: scheduling.KindDependencyUnavailable, Op: "calendar.list_busy", Detail: "calendar missing from freebusy response"}
		}
		if len(cal.Errors) > 0 {
			reasons := make([]string, 0, len(cal.Errors))
			for _, e := range cal.Errors {
				reasons = append(reasons, e.Reason)
			}
			return &scheduling.Error{
				Kind:   scheduling.KindDependencyUnavailable,
				Op:     "calendar.list_busy",
				Detail: "freebusy errors: " + strings.Join(reasons, ", "),
			}
		}

		busy, err = toIntervals(cal.Busy)
		return err
	})
	if err != nil {
		return nil, scheduling.WithContext(err, calendarID, &window)
	}

	c.logger.Debug("busy intervals listed",
		logging.Calendar(calendarID),
		logging.Interval(window),
		slog.Int("busy", len(busy)))
	return busy, nil
}

// CreateEvent inserts the booking's event. Attendees are invited and
// notified only when req carries an attendee email.
func (c *Client) CreateEvent(ctx context.Context, calendarID string, req booking.EventRequest) (string, error) {
	event := toEvent(req)

	var eventID string
	err := google.Call(ctx, c.metrics, instrumentation.DependencyCalendar, instrumentation.OperationCreateEvent, func(ctx context.Context) error {
		call := c.svc.Events.Insert(calendarID, event).Context(ctx)
		if req.AttendeeEmail != "" {
			call = call.SendUpdates("all")
		} else {
			call = call.SendUpdates("none")
		}

		created, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to create event: %w", err)
		}
		eventID = created.Id
		c.logger.Info("calendar event created",
			logging.Calendar(calendarID),
			logging.EventID(created.Id),
			slog.String("link", created.HtmlLink))
		return nil
	})
	if err != nil {
		iv := scheduling.Interval{Start: req.Start, End: req.End}
		return "", scheduling.WithContext(err, calendarID, &iv)
	}
	return eventID, nil
}

func toEvent(req booking.EventRequest) *calendar.Event {
	tz := req.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	event := &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: tz,
		},
		Reminders: &calendar.EventReminders{UseDefault: true},
	}
	if req.AttendeeEmail != "" {
		event.Attendees = []*calendar.EventAttendee{{Email: req.AttendeeEmail}}
	}
	return event
}

func toIntervals(periods []*calendar.TimePeriod) ([]scheduling.Interval, error) {
	out := make([]scheduling.Interval, 0, len(periods))
	for _, p := range periods {
		start, err := time.Parse(time.RFC3339, p.Start)
		if err != nil {
			return nil, fmt.Errorf("invalid busy start %q: %w", p.Start, err)
		}
		end, err := time.Parse(time.RFC3339, p.End)
		if err != nil {
			return nil, fmt.Errorf("invalid busy end %q: %w", p.End, err)
		}
		out = append(out, scheduling.Interval{Start: start, End: end})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}
