package utils

import (
	"strconv"
	"strings"
	"time"
)

// GenerateTrackingCode returns an operator-facing case reference of the form
// AMB-<base36 millisecond timestamp>. It is a display identifier, not a
// security token; collisions within an operational window are vanishingly
// unlikely.
func GenerateTrackingCode() string {
	return TrackingCodeFromTime(time.Now())
}

func TrackingCodeFromTime(t time.Time) string {
	return TrackingCodePrefix + strings.ToUpper(strconv.FormatInt(t.UnixMilli(), 36))
}
