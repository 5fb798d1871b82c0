package booking_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/server"
	"github.com/teemow/autoagenda/internal/tools/common"
)

func registerHistoryTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	vehicleHistoryTool := mcp.NewTool(ToolVehicleHistory,
		mcp.WithDescription("List the most recent bookings of a vehicle, newest first"),
		mcp.WithString("vehicle_plate",
			mcp.Required(),
			mcp.Description("Vehicle licence plate (case and surrounding spaces are ignored)"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of bookings (default: %d)", booking.DefaultHistoryLimit)),
		),
	)

	s.AddTool(vehicleHistoryTool, common.InstrumentedToolHandler(ToolVehicleHistory, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleVehicleHistory(ctx, request, sc)
		}))
}

func handleVehicleHistory(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	plate, err := common.RequireStringArg(args, "vehicle_plate")
	if err != nil {
		return nil, err
	}
	limit, err := common.GetIntArg(args, "limit", booking.DefaultHistoryLimit)
	if err != nil {
		return nil, err
	}

	records, err := sc.Coordinator().History(ctx, plate, limit)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No bookings found for vehicle %s.", booking.NormalizePlate(plate))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Last %d booking(s) of vehicle %s:\n", len(records), booking.NormalizePlate(plate))
	for i, r := range records {
		fmt.Fprintf(&b, "%d. %s %s (%d min) - %s", i+1, r.AppointmentDate, formatClock(r.AppointmentStartTime.Hour, r.AppointmentStartTime.Minute), r.DurationMinutes, r.Service)
		if r.CurrentMileage > 0 {
			fmt.Fprintf(&b, ", %d km", r.CurrentMileage)
		}
		if r.Notes != "" {
			fmt.Fprintf(&b, " [%s]", r.Notes)
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}
