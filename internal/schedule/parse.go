package schedule

import (
	"regexp"
	"strconv"
	"strings"
)

// Interval is one contiguous teaching block: a weekday (0 = Monday) and an
// inclusive period range with StartPeriod ≤ EndPeriod.
type Interval struct {
	Weekday     int
	StartPeriod int
	EndPeriod   int
}

var (
	// Segment separators: a schedule string may list several meetings,
	// e.g. "周一3-4节;周三7-8节".
	segmentSplitRe = regexp.MustCompile(`[;,/]|，`)

	// Clock-time notation: "周一 08:00-09:40". Requires whitespace between
	// the weekday token and the time range.
	clockRe = regexp.MustCompile(`周([一二三四五六日天])\s+(\d{1,2}):(\d{2})\s*-\s*(\d{1,2}):(\d{2})`)

	// Period notation: "周一3-4节", "周一 第3-4节", "周一3，4节课", "周五5节".
	periodRe = regexp.MustCompile(`周([一二三四五六日天])\s*(?:第)?\s*([0-9]{1,2}(?:-[0-9]{1,2})?|[0-9]{1,2}\s*[,-]\s*[0-9]{1,2})\s*(?:节课|节)?`)
)

// ParseCourseTime parses a free-text schedule string into intervals, in
// encounter order. Unrecognizable segments contribute nothing; an empty
// result means the whole string was unparseable and the course should be
// excluded from the grid. The parser never fails hard: absence of intervals
// is the error signal, and duplicates in the source text are kept as-is.
//
// Two notations are recognized per segment, clock-time first:
//
//	周三 08:00-09:40    → endpoints resolved via the period table
//	周一3-4节           → explicit period numbers
func ParseCourseTime(text string, table *PeriodTable) []Interval {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	var results []Interval
	for _, part := range segmentSplitRe.Split(s, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if iv, ok := parseClockSegment(part, table); ok {
			results = append(results, iv)
			continue
		}
		// A colon marks clock-time notation; a segment whose clock times
		// failed to resolve must not fall through to period notation.
		if strings.Contains(part, ":") {
			continue
		}
		if iv, ok := parsePeriodSegment(part, table); ok {
			results = append(results, iv)
		}
	}
	return results
}

// parseClockSegment handles "周X HH:MM-HH:MM". Both endpoints are resolved
// through the period table. A single resolvable endpoint still yields a
// one-period interval; a resolver inversion (start period past end period)
// degrades to a single-period block at the start rather than being dropped.
func parseClockSegment(part string, table *PeriodTable) (Interval, bool) {
	m := clockRe.FindStringSubmatch(part)
	if m == nil {
		return Interval{}, false
	}
	weekday, ok := cnWeekdayMap[[]rune(m[1])[0]]
	if !ok {
		return Interval{}, false
	}

	startH, _ := strconv.Atoi(m[2])
	startM, _ := strconv.Atoi(m[3])
	endH, _ := strconv.Atoi(m[4])
	endM, _ := strconv.Atoi(m[5])

	startP, startOK := table.PeriodFromClock(startH, startM)
	endP, endOK := table.PeriodFromClock(endH, endM)

	switch {
	case startOK && endOK:
		if startP <= endP {
			return Interval{Weekday: weekday, StartPeriod: startP, EndPeriod: endP}, true
		}
		return Interval{Weekday: weekday, StartPeriod: startP, EndPeriod: startP}, true
	case startOK:
		return Interval{Weekday: weekday, StartPeriod: startP, EndPeriod: startP}, true
	case endOK:
		return Interval{Weekday: weekday, StartPeriod: endP, EndPeriod: endP}, true
	}
	return Interval{}, false
}

// parsePeriodSegment handles "周X3-4节" style notation: a dash range, a
// comma list (resolved to its min/max), or a single period number. Periods
// outside the table's range or an inverted range invalidate the segment.
func parsePeriodSegment(part string, table *PeriodTable) (Interval, bool) {
	m := periodRe.FindStringSubmatch(part)
	if m == nil {
		return Interval{}, false
	}
	weekday, ok := cnWeekdayMap[[]rune(m[1])[0]]
	if !ok {
		return Interval{}, false
	}

	spec := strings.ReplaceAll(m[2], " ", "")
	spec = strings.ReplaceAll(spec, "，", ",")

	var startP, endP int
	switch {
	case strings.Contains(spec, "-"):
		lo, hi, _ := strings.Cut(spec, "-")
		a, err1 := strconv.Atoi(lo)
		b, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return Interval{}, false
		}
		startP, endP = a, b
	case strings.Contains(spec, ","):
		var periods []int
		for _, tok := range strings.Split(spec, ",") {
			if n, err := strconv.Atoi(tok); err == nil {
				periods = append(periods, n)
			}
		}
		if len(periods) == 0 {
			return Interval{}, false
		}
		startP, endP = periods[0], periods[0]
		for _, n := range periods[1:] {
			if n < startP {
				startP = n
			}
			if n > endP {
				endP = n
			}
		}
	default:
		n, err := strconv.Atoi(spec)
		if err != nil {
			return Interval{}, false
		}
		startP, endP = n, n
	}

	if startP < table.MinPeriod() || endP > table.MaxPeriod() || startP > endP {
		return Interval{}, false
	}
	return Interval{Weekday: weekday, StartPeriod: startP, EndPeriod: endP}, true
}
