package booking_tools

import (
	"fmt"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/autoagenda/internal/server"
)

// Tool names.
const (
	ToolFindFreeSlots  = "schedule_find_free_slots"
	ToolCommitBooking  = "schedule_commit_booking"
	ToolVehicleHistory = "schedule_vehicle_history"
)

// RegisterBookingTools registers the scheduling tools with the MCP server.
// In read-only mode the booking tool is left out.
func RegisterBookingTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if sc == nil {
		return fmt.Errorf("server context is required")
	}

	registerSlotTools(s, sc)
	registerHistoryTools(s, sc)
	if !readOnly {
		registerCommitTools(s, sc)
	}
	return nil
}
