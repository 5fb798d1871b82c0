package booking_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
	"github.com/teemow/autoagenda/internal/tools/common"
)

func registerCommitTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	commitBookingTool := mcp.NewTool(ToolCommitBooking,
		mcp.WithDescription("Book an appointment. The slot is checked again against the calendar before the event is created; if it was taken meanwhile the booking fails and free slots must be searched again."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Appointment day (YYYY-MM-DD), in the business timezone"),
		),
		mcp.WithString("start_time",
			mcp.Required(),
			mcp.Description("Start time (HH:MM), in the business timezone"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description(fmt.Sprintf("Appointment length in minutes (default: %d)", sc.DefaultDurationMinutes())),
		),
		mcp.WithString("customer_name",
			mcp.Required(),
			mcp.Description("Customer name"),
		),
		mcp.WithString("contact",
			mcp.Required(),
			mcp.Description("Customer phone number or e-mail"),
		),
		mcp.WithString("vehicle_plate",
			mcp.Required(),
			mcp.Description("Vehicle licence plate"),
		),
		mcp.WithString("service",
			mcp.Required(),
			mcp.Description("Requested service, e.g. 'Troca de óleo'"),
		),
		mcp.WithString("vehicle_model",
			mcp.Description("Vehicle model"),
		),
		mcp.WithNumber("vehicle_year",
			mcp.Description("Vehicle model year"),
		),
		mcp.WithNumber("current_mileage",
			mcp.Description("Current odometer reading in km"),
		),
		mcp.WithString("notes",
			mcp.Description("Free text notes"),
		),
		mcp.WithString("customer_id",
			mcp.Description("Customer identifier in an external system"),
		),
		mcp.WithString("attendee_email",
			mcp.Description("E-mail invited to the calendar event"),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar to book on (default: the configured calendar)"),
		),
	)

	s.AddTool(commitBookingTool, common.InstrumentedToolHandler(ToolCommitBooking, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCommitBooking(ctx, request, sc)
		}))
}

func handleCommitBooking(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := common.GetCalendarFromArgs(args, sc)

	slot, err := slotFromArgs(args, sc)
	if err != nil {
		return nil, err
	}
	details, err := detailsFromArgs(args)
	if err != nil {
		return nil, err
	}

	record, err := sc.Coordinator().CommitBooking(ctx, calendarID, slot, details)
	if err != nil {
		return nil, err
	}
	common.RecordEventID(ctx, record.EventID)

	var b strings.Builder
	fmt.Fprintf(&b, "Booking confirmed for %s on %s %s, %s.\n",
		record.CustomerName, record.AppointmentDate.Weekday(), record.AppointmentDate, formatSlot(slot, sc.Policy()))
	fmt.Fprintf(&b, "Vehicle: %s\nService: %s\n", record.VehiclePlate, record.Service)
	fmt.Fprintf(&b, "Calendar event: %s\nRecord: %s\n", record.EventID, record.ID)
	if record.AttendeeDropped {
		fmt.Fprintf(&b, "\nThe calendar refused to invite %s; the event was created without the invitation.\n", details.AttendeeEmail)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func slotFromArgs(args map[string]interface{}, sc *server.ServerContext) (scheduling.Slot, error) {
	dateStr, err := common.RequireStringArg(args, "date")
	if err != nil {
		return scheduling.Slot{}, err
	}
	date, err := scheduling.ParseDate(dateStr)
	if err != nil {
		return scheduling.Slot{}, err
	}
	timeStr, err := common.RequireStringArg(args, "start_time")
	if err != nil {
		return scheduling.Slot{}, err
	}
	clock, err := scheduling.ParseClock(timeStr)
	if err != nil {
		return scheduling.Slot{}, err
	}
	duration, err := common.GetIntArg(args, "duration_minutes", sc.DefaultDurationMinutes())
	if err != nil {
		return scheduling.Slot{}, err
	}
	return scheduling.SlotAt(sc.Policy(), date, clock, duration)
}

func detailsFromArgs(args map[string]interface{}) (booking.Details, error) {
	year, err := common.GetIntArg(args, "vehicle_year", 0)
	if err != nil {
		return booking.Details{}, err
	}
	mileage, err := common.GetIntArg(args, "current_mileage", 0)
	if err != nil {
		return booking.Details{}, err
	}

	return booking.Details{
		CustomerID:     common.GetStringArg(args, "customer_id"),
		CustomerName:   common.GetStringArg(args, "customer_name"),
		Contact:        common.GetStringArg(args, "contact"),
		VehiclePlate:   common.GetStringArg(args, "vehicle_plate"),
		VehicleModel:   common.GetStringArg(args, "vehicle_model"),
		VehicleYear:    year,
		CurrentMileage: mileage,
		Service:        common.GetStringArg(args, "service"),
		Notes:          common.GetStringArg(args, "notes"),
		AttendeeEmail:  common.GetStringArg(args, "attendee_email"),
	}, nil
}
