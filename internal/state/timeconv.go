package state

import (
	"fmt"
	"strconv"
	"time"
)

// Event feeds emit ISO-8601 timestamps, sometimes without a zone offset.
// Offset-less timestamps are taken as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// epochFromISO converts an ISO-8601 string to epoch seconds.
func epochFromISO(s string) (float64, error) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return float64(t.UnixNano()) / float64(time.Second), nil
		}
	}
	return 0, fmt.Errorf("invalid timestamp %q", s)
}

// isoFromEpoch renders epoch seconds as an ISO-8601 UTC string.
func isoFromEpoch(ts float64) string {
	return epochTime(ts).Format(time.RFC3339)
}

func epochTime(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}

// formatEpoch is the canonical string form for epoch-second scores stored as
// hash values and sorted-set members.
func formatEpoch(ts float64) string {
	return strconv.FormatFloat(ts, 'f', -1, 64)
}
