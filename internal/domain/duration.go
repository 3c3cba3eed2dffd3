package domain

import (
	"fmt"
	"strings"
)

// FormatDuration renders a non-negative number of seconds as a compact
// human string: "1d 2h", "1h 1m", "42s". Units are applied in order
// days, hours, minutes, each only when its magnitude is non-zero, and
// at most two segments are ever shown. The raw seconds segment appears
// only when no other segment was produced, so format(60) is "1m" and
// format(0) is "0s".
//
// Negative input is a caller contract violation; durations in this
// system are derived and never negative.
func FormatDuration(seconds int64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 && len(parts) < 2 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 && len(parts) < 2 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%ds", seconds))
	}
	return strings.Join(parts, " ")
}
