package semester

import (
	"sort"
	"strconv"
	"strings"
)

// WeekSet is a set of week numbers a course is active in. The zero value is
// not meaningful; use ParseWeekSet or NewWeekSet.
//
// An unset week range on a course record means "every week"; that state is
// kept distinct from the empty set (which matches no week at all, e.g. when
// an entirely malformed range string was stored).
type WeekSet struct {
	universal bool
	weeks     map[int]struct{}
}

// Universal returns the set matching every week.
func Universal() WeekSet {
	return WeekSet{universal: true}
}

// NewWeekSet builds a set from explicit week numbers. Non-positive values
// are ignored.
func NewWeekSet(weeks ...int) WeekSet {
	s := WeekSet{weeks: make(map[int]struct{}, len(weeks))}
	for _, w := range weeks {
		if w > 0 {
			s.weeks[w] = struct{}{}
		}
	}
	return s
}

// ParseWeekSet parses the compact week-range notation, e.g. "1-8,13,15,17".
// An empty or all-whitespace string parses to the universal set. Segments
// that fail to parse as a positive integer or an ordered lo-hi pair are
// dropped silently; real-world range strings are messy and one bad segment
// must not discard the rest.
func ParseWeekSet(text string) WeekSet {
	if strings.TrimSpace(text) == "" {
		return Universal()
	}

	s := WeekSet{weeks: make(map[int]struct{})}
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(lo))
			end, err2 := strconv.Atoi(strings.TrimSpace(hi))
			if err1 != nil || err2 != nil || start <= 0 || end < start {
				continue
			}
			for w := start; w <= end; w++ {
				s.weeks[w] = struct{}{}
			}
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil || w <= 0 {
			continue
		}
		s.weeks[w] = struct{}{}
	}
	return s
}

// IsUniversal reports whether the set matches every week.
func (s WeekSet) IsUniversal() bool { return s.universal }

// Len returns the number of weeks in a finite set, 0 for the universal set.
func (s WeekSet) Len() int { return len(s.weeks) }

// Contains reports whether the given week is in the set. The universal set
// contains every week.
func (s WeekSet) Contains(week int) bool {
	if s.universal {
		return true
	}
	_, ok := s.weeks[week]
	return ok
}

// Weeks returns the member weeks in ascending order. Nil for the universal
// and empty sets.
func (s WeekSet) Weeks() []int {
	if s.universal || len(s.weeks) == 0 {
		return nil
	}
	out := make([]int, 0, len(s.weeks))
	for w := range s.weeks {
		out = append(out, w)
	}
	sort.Ints(out)
	return out
}

// Format renders the set back into compact range notation: ascending order,
// maximal runs merged into "lo-hi", single weeks printed bare, segments
// comma-joined. The universal (and empty) set renders as "".
//
// Format is the exact inverse of ParseWeekSet for finite non-empty sets.
func (s WeekSet) Format() string {
	weeks := s.Weeks()
	if len(weeks) == 0 {
		return ""
	}
	return FormatWeeks(weeks)
}

// FormatWeeks renders an ascending list of distinct week numbers into the
// compact range notation.
func FormatWeeks(weeks []int) string {
	if len(weeks) == 0 {
		return ""
	}

	var b strings.Builder
	start, end := weeks[0], weeks[0]

	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if start == end {
			b.WriteString(strconv.Itoa(start))
		} else {
			b.WriteString(strconv.Itoa(start))
			b.WriteByte('-')
			b.WriteString(strconv.Itoa(end))
		}
	}

	for _, w := range weeks[1:] {
		if w == end+1 {
			end = w
			continue
		}
		flush()
		start, end = w, w
	}
	flush()

	return b.String()
}
