package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teemow/autoagenda/internal/scheduling"
	"github.com/teemow/autoagenda/internal/server"
)

// GetCalendarFromArgs returns the "calendar_id" argument, defaulting to the
// configured calendar.
func GetCalendarFromArgs(args map[string]interface{}, sc *server.ServerContext) string {
	return sc.CalendarID(GetStringArg(args, "calendar_id"))
}

// GetStringArg returns a trimmed string argument, or "" when it is missing
// or not a string.
func GetStringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// GetIntArg returns an integer argument. JSON numbers arrive as float64;
// numeric strings are accepted too. Missing arguments yield def.
func GetIntArg(args map[string]interface{}, key string, def int) (int, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, scheduling.InvalidArgument("tool.args", "%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return def, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, scheduling.InvalidArgument("tool.args", "%s must be a whole number, got %q", key, v)
		}
		return n, nil
	default:
		return 0, scheduling.InvalidArgument("tool.args", "%s must be a number, got %s", key, fmt.Sprintf("%T", raw))
	}
}

// RequireStringArg is GetStringArg failing with KindInvalidArgument when the
// argument is empty.
func RequireStringArg(args map[string]interface{}, key string) (string, error) {
	v := GetStringArg(args, key)
	if v == "" {
		return "", scheduling.InvalidArgument("tool.args", "%s is required", key)
	}
	return v, nil
}
