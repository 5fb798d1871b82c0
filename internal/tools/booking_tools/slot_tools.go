package booking_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
	"github.com/teemow/autoagenda/internal/tools/common"
)

func registerSlotTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	findFreeSlotsTool := mcp.NewTool(ToolFindFreeSlots,
		mcp.WithDescription("List the free appointment slots of a day inside business hours. The result is advisory: a slot can still be taken before it is booked."),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Day to search (YYYY-MM-DD), in the business timezone"),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description(fmt.Sprintf("Appointment length in minutes (default: %d)", sc.DefaultDurationMinutes())),
		),
		mcp.WithString("calendar_id",
			mcp.Description("Calendar to search (default: the configured calendar)"),
		),
	)

	s.AddTool(findFreeSlotsTool, common.InstrumentedToolHandler(ToolFindFreeSlots, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindFreeSlots(ctx, request, sc)
		}))
}

func handleFindFreeSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := common.GetCalendarFromArgs(args, sc)

	dateStr, err := common.RequireStringArg(args, "date")
	if err != nil {
		return nil, err
	}
	date, err := scheduling.ParseDate(dateStr)
	if err != nil {
		return nil, err
	}
	duration, err := common.GetIntArg(args, "duration_minutes", sc.DefaultDurationMinutes())
	if err != nil {
		return nil, err
	}

	slots, err := sc.Coordinator().FindFreeSlots(ctx, calendarID, date, duration)
	if err != nil {
		return nil, err
	}

	policy := sc.Policy()
	if len(slots) == 0 {
		reason := "no free slot fits"
		if policy.IsClosed(date) {
			reason = "the business is closed"
		}
		return mcp.NewToolResultText(fmt.Sprintf("No free %d minute slots on %s (%s): %s.", duration, date, policy.TimeZone(), reason)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Free %d minute slots on %s %s (%s):\n", duration, date.Weekday(), date, policy.TimeZone())
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatSlot(slot, policy))
	}
	b.WriteString("\nBook one with " + ToolCommitBooking + " using the same date and the start time.")
	return mcp.NewToolResultText(b.String()), nil
}
