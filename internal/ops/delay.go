package ops

import (
	"strconv"
	"strings"
)

// OnTimeSentinel is the legacy string stored in atraso_hhmm when an
// operation arrived on schedule. Compared case-insensitively.
const OnTimeSentinel = "NO PRAZO"

// DelayMinutes reconciles the two delay representations that coexist in
// historical data: a plain minute count and a formatted "HH:MM" string.
// The result is the greater of the two, trusting whichever source signals
// more delay. Negative minute counts clamp to zero.
func DelayMinutes(minutes *int, hhmm string) int {
	m := 0
	if minutes != nil && *minutes > 0 {
		m = *minutes
	}
	if parsed := ParseHHMM(hhmm); parsed > m {
		m = parsed
	}
	return m
}

// IsLate reports whether the reconciled delay is positive.
func IsLate(minutes *int, hhmm string) bool {
	return DelayMinutes(minutes, hhmm) > 0
}

// ParseHHMM converts "H:MM"/"HH:MM" into total minutes. The on-time
// sentinel, empty strings and anything unparseable yield zero.
func ParseHHMM(s string) int {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, OnTimeSentinel) {
		return 0
	}
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0
	}
	hours, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hours < 0 {
		return 0
	}
	mins, err := strconv.Atoi(strings.TrimSpace(m))
	if err != nil || mins < 0 || mins > 59 {
		return 0
	}
	return hours*60 + mins
}

// LatePct computes the late percentage rounded half-up to two decimals.
// A zero total yields zero rather than a division fault.
func LatePct(late, total int) float64 {
	if total == 0 {
		return 0
	}
	raw := float64(late) / float64(total) * 100
	return float64(int64(raw*100+0.5)) / 100
}
