// Package schedule implements the time-slot calculator for On-Duty requests.
//
// The institution runs a fixed daily timetable of eight 55-minute teaching
// periods with 5-minute breaks in between. A student picks an arbitrary
// [from, to) range on the submission form; this package decomposes that
// range into the discrete periods it overlaps so that each period becomes
// its own approval record, and splits the accompanying space-separated
// subject/faculty code lists positionally across those periods.
//
// All functions are pure and safe for concurrent use.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Period is one fixed teaching slot, bounded by a closed-open [From, To)
// interval. Bounds are stored in 12-hour clock form (e.g. "09:15 AM"),
// matching what gets persisted on request records.
type Period struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// periods is the institution's daily timetable. The 5-minute breaks between
// entries belong to no period.
var periods = []Period{
	{From: "09:15 AM", To: "10:10 AM"},
	{From: "10:15 AM", To: "11:10 AM"},
	{From: "11:15 AM", To: "12:10 PM"},
	{From: "12:15 PM", To: "01:10 PM"},
	{From: "01:15 PM", To: "02:10 PM"},
	{From: "02:15 PM", To: "03:10 PM"},
	{From: "03:15 PM", To: "04:10 PM"},
	{From: "04:15 PM", To: "05:10 PM"},
}

// Periods returns a copy of the daily timetable in schedule order.
func Periods() []Period {
	out := make([]Period, len(periods))
	copy(out, periods)
	return out
}

// SlotIndex returns the position in the daily timetable of the period
// starting at from, and ok=false when from matches no period start. The
// index gives a chronological sort key for persisted records, whose
// 12-hour clock strings do not sort lexicographically ("01:15 PM" collates
// before "09:15 AM").
func SlotIndex(from string) (int, bool) {
	m, ok := parseClock(from)
	if !ok {
		return 0, false
	}
	for i, p := range periods {
		if pf, ok := parseClock(p.From); ok && pf == m {
			return i, true
		}
	}
	return 0, false
}

// clockLayouts are the accepted textual time encodings. The form historically
// posted both 12-hour ("09:15 AM") and 24-hour ("09:15") values depending on
// the browser's time input, so both must parse.
var clockLayouts = []string{"03:04 PM", "3:04 PM", "15:04"}

// parseClock converts a time-of-day string into minutes since midnight.
// It returns ok=false for empty or unparseable input.
func parseClock(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, strings.ToUpper(s)); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// Format12 normalizes a time-of-day string to 12-hour form ("03:04 PM").
// Unparseable input is returned unchanged.
func Format12(s string) string {
	m, ok := parseClock(s)
	if !ok {
		return s
	}
	return time.Date(2000, 1, 1, m/60, m%60, 0, 0, time.UTC).Format("03:04 PM")
}

// CountOverlapping returns how many timetable periods the [from, to) range
// overlaps. The test is strictly open: a period touching the range only at a
// boundary does not count. Returns 0 when either bound is absent,
// unparseable, or when from >= to.
func CountOverlapping(from, to string) int {
	return len(ExpandToSlots(from, to))
}

// ExpandToSlots returns the timetable periods overlapped by [from, to), in
// schedule order. The returned entries carry the period's own bounds, not
// the submitted range; they determine how many records a submission creates
// and which time window each record covers.
func ExpandToSlots(from, to string) []Period {
	f, okF := parseClock(from)
	t, okT := parseClock(to)
	if !okF || !okT || f >= t {
		return nil
	}

	var out []Period
	for _, p := range periods {
		pf, _ := parseClock(p.From)
		pt, _ := parseClock(p.To)
		if pf < t && pt > f {
			out = append(out, p)
		}
	}
	return out
}

// SplitCodes splits a whitespace-separated code list into tokens for
// positional assignment across expected periods.
//
// When expected > 1 the token count must equal expected exactly; the
// requester has to supply one code per overlapped period. When expected <= 1
// the whole trimmed string is passed through as a single code, whitespace
// and all.
func SplitCodes(s string, expected int) ([]string, error) {
	trimmed := strings.TrimSpace(s)
	if expected <= 1 {
		return []string{trimmed}, nil
	}
	tokens := strings.Fields(trimmed)
	if len(tokens) != expected {
		return nil, fmt.Errorf("selected %d time slots but got %d codes; enter %d codes separated by spaces", expected, len(tokens), expected)
	}
	return tokens, nil
}
