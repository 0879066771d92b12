// Package cronexpr parses the cron dialects named in the external
// interfaces: a 5-field "m h dom mon dow" expression promoted to seven
// fields by prepending seconds and appending a year wildcard, or a
// 7-field expression ("sec min hour dom mon dow year") accepted as-is.
//
// robfig/cron/v3 only understands six of those seven fields, so this
// package parses the first six with it and layers year matching on top.
package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const maxLookahead = 500

var sixFieldParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// Schedule computes future UTC trigger times for a parsed cron expression.
type Schedule struct {
	inner cron.Schedule
	year  yearSpec
}

// Parse parses expr. When sevenField is false, expr is expected to be the
// standard 5-field "m h dom mon dow" form and is promoted: a
// leading "0 " for seconds and a trailing " *" for year. When sevenField
// is true, expr must already supply all seven space-separated fields.
func Parse(expr string, sevenField bool) (*Schedule, error) {
	fields := strings.Fields(expr)

	if !sevenField {
		if len(fields) != 5 {
			return nil, fmt.Errorf("cronexpr: expected 5 fields, got %d", len(fields))
		}
		fields = append([]string{"0"}, fields...)
		fields = append(fields, "*")
	}

	if len(fields) != 7 {
		return nil, fmt.Errorf("cronexpr: expected 7 fields, got %d", len(fields))
	}

	sixField := strings.Join(fields[:6], " ")
	inner, err := sixFieldParser.Parse(sixField)
	if err != nil {
		return nil, fmt.Errorf("cronexpr: parse %q: %w", sixField, err)
	}

	year, err := parseYearSpec(fields[6])
	if err != nil {
		return nil, fmt.Errorf("cronexpr: parse year field %q: %w", fields[6], err)
	}

	return &Schedule{inner: inner, year: year}, nil
}

// Next returns the first upcoming UTC time strictly after after that
// satisfies both the six robfig/cron fields and the year field. It
// returns the zero Time if none of the first maxLookahead times matched
// by the six fields falls in a year the year field allows.
func (s *Schedule) Next(after time.Time) time.Time {
	candidate := after
	for i := 0; i < maxLookahead; i++ {
		candidate = s.inner.Next(candidate)
		if candidate.IsZero() {
			return time.Time{}
		}
		if s.year.matches(candidate.Year()) {
			return candidate.UTC()
		}
	}
	return time.Time{}
}

// yearSpec is "*" (always matches) or a set of single years/ranges, e.g.
// "2025", "2025,2027", or "2025-2030".
type yearSpec struct {
	any    bool
	ranges [][2]int
}

func (y yearSpec) matches(year int) bool {
	if y.any {
		return true
	}
	for _, r := range y.ranges {
		if year >= r[0] && year <= r[1] {
			return true
		}
	}
	return false
}

func parseYearSpec(field string) (yearSpec, error) {
	if field == "*" {
		return yearSpec{any: true}, nil
	}

	var ranges [][2]int
	for _, part := range strings.Split(field, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			loN, err := strconv.Atoi(lo)
			if err != nil {
				return yearSpec{}, fmt.Errorf("invalid range start %q", lo)
			}
			hiN, err := strconv.Atoi(hi)
			if err != nil {
				return yearSpec{}, fmt.Errorf("invalid range end %q", hi)
			}
			ranges = append(ranges, [2]int{loN, hiN})
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return yearSpec{}, fmt.Errorf("invalid year %q", part)
		}
		ranges = append(ranges, [2]int{n, n})
	}
	if len(ranges) == 0 {
		return yearSpec{}, fmt.Errorf("empty year field")
	}
	return yearSpec{ranges: ranges}, nil
}
