package timetable

import "fmt"

// ColorFor maps a course identifier to a stable pastel HSL color. Pure
// function of the identifier, so a course keeps its color across renders,
// processes and restarts. The polynomial accumulator is kept bit-for-bit
// with the previous renderer so existing timetables do not recolor.
func ColorFor(id string) string {
	h := 0
	for _, r := range id {
		h = (h*31 + int(r)) % 360
	}
	// High saturation and lightness give soft pastel backgrounds that
	// keep the cell text readable.
	return fmt.Sprintf("hsl(%d, 85%%, 85%%)", h)
}
