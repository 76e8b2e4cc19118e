package schedule

import (
	"time"

	"github.com/teambition/rrule-go"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// matchesDate reports whether the rule's date constraints hold on day, a
// midnight calendar date in the schedule's location. StartDate and EndDate are
// inclusive bounds. The recurrence check expands exactly one occurrence
// anchored at day and passes iff that occurrence is day itself: the question
// is "does this recurrence land on today", not a count of past occurrences.
// All constraints present must pass; absence of all three is a vacuous match.
func matchesDate(r *Rule, day time.Time) bool {
	if r.StartDate != "" {
		start, err := time.ParseInLocation(dateLayout, r.StartDate, day.Location())
		if err != nil || day.Before(start) {
			return false
		}
	}

	if r.EndDate != "" {
		end, err := time.ParseInLocation(dateLayout, r.EndDate, day.Location())
		if err != nil || day.After(end) {
			return false
		}
	}

	if r.DateRRule != "" {
		opt, err := rrule.StrToROption(r.DateRRule)
		if err != nil {
			// Unparseable recurrence cannot match; the dataset validator
			// reports these at load time.
			return false
		}

		opt.Dtstart = day
		opt.Count = 1

		rr, err := rrule.NewRRule(*opt)
		if err != nil {
			return false
		}

		occurrences := rr.All()
		if len(occurrences) == 0 || !occurrences[0].Equal(day) {
			return false
		}
	}

	return true
}

// matchesTime reports whether the rule's time-of-day constraints hold at
// hour:minute in the schedule's location. The start bound is inclusive and
// the end bound is exclusive at the minute boundary, so a rule ending at
// 17:00 no longer matches at exactly 17:00.
func matchesTime(r *Rule, hour, minute int) bool {
	if r.StartTime != "" {
		h, m, ok := parseClock(r.StartTime)
		if !ok {
			return false
		}
		if hour < h || (hour == h && minute < m) {
			return false
		}
	}

	if r.EndTime != "" {
		h, m, ok := parseClock(r.EndTime)
		if !ok {
			return false
		}
		if hour > h || (hour == h && minute >= m) {
			return false
		}
	}

	return true
}

// Matches reports whether the rule applies at now, which must already be
// localized to the schedule's timezone. Pure and side-effect-free.
func (r *Rule) Matches(now time.Time) bool {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return matchesDate(r, day) && matchesTime(r, now.Hour(), now.Minute())
}

// parseClock parses an "HH:MM" clock string.
func parseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}
