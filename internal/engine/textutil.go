package engine

import (
	"strings"
	"time"
)

// User-Agent strings used across HTTP clients.
const (
	UserAgentBot    = "ytwatch/1.0"
	UserAgentChrome = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
)

// NormalizeText case-folds s, trims it and collapses inner whitespace runs
// to a single space, so " LINE  rider " and "line rider" compare equal.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SameDay reports whether a and b fall on the same calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// ParseUploadDate reads the calendar date at the start of s ("2006-01-02",
// "20060102" or an RFC 3339 timestamp) as midnight in loc. Only the date
// part is used: the platform reports it in its own zone and the day it
// names is the upload day.
func ParseUploadDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	var layout, part string
	switch {
	case len(s) >= 10 && s[4] == '-' && s[7] == '-':
		layout, part = "2006-01-02", s[:10]
	case len(s) == 8:
		layout, part = "20060102", s
	default:
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(layout, part, loc)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
