package valueobjects

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Pre-compiled patterns for the flexible duration grammar. First match wins.
var (
	durationSecondsRegex = regexp.MustCompile(`^(\d+)\s*s(?:econds?)?$`)
	durationMinutesRegex = regexp.MustCompile(`^(\d+)\s*m(?:in(?:utes?)?)?$`)
	durationHoursRegex   = regexp.MustCompile(`^(\d+)\s*h(?:ours?)?$`)
	durationDaysRegex    = regexp.MustCompile(`^(\d+)\s*d(?:ays?)?$`)
	durationHMSRegex     = regexp.MustCompile(`^(\d+):(\d+):(\d+)$`)
	durationHMRegex      = regexp.MustCompile(`^(\d+):(\d+)$`)
	durationBareRegex    = regexp.MustCompile(`^(\d+)$`)
)

// ParseFlexibleDuration parses the loose duration strings the extractor
// receives from the LLM: "140s", "2h", "3d", "1:30" (H:M), "1:30:45" (H:M:S)
// or a bare number of seconds. Unparseable input returns nil, never an error.
func ParseFlexibleDuration(raw string) *time.Duration {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return nil
	}

	if m := durationSecondsRegex.FindStringSubmatch(s); m != nil {
		return durationOf(m[1], time.Second)
	}
	if m := durationMinutesRegex.FindStringSubmatch(s); m != nil {
		return durationOf(m[1], time.Minute)
	}
	if m := durationHoursRegex.FindStringSubmatch(s); m != nil {
		return durationOf(m[1], time.Hour)
	}
	if m := durationDaysRegex.FindStringSubmatch(s); m != nil {
		return durationOf(m[1], 24*time.Hour)
	}
	if m := durationHMSRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		sec, _ := strconv.Atoi(m[3])
		d := time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second
		return &d
	}
	if m := durationHMRegex.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		d := time.Duration(h)*time.Hour + time.Duration(min)*time.Minute
		return &d
	}
	if m := durationBareRegex.FindStringSubmatch(s); m != nil {
		return durationOf(m[1], time.Second)
	}
	return nil
}

func durationOf(number string, unit time.Duration) *time.Duration {
	n, err := strconv.Atoi(number)
	if err != nil {
		return nil
	}
	d := time.Duration(n) * unit
	return &d
}

// FormatDuration renders a duration in the canonical seconds form understood
// by ParseFlexibleDuration, so format/parse round-trips.
func FormatDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d/time.Second))
}
