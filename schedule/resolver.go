package schedule

import "time"

// Evaluate determines whether sched is open at instant, given the full rule
// set indexed by ID and the schedule's resolved location.
//
// An emergency-closed schedule is closed unconditionally; no rules are
// consulted. Otherwise the instant is localized, every referenced rule is
// evaluated in schedule order (IDs that do not resolve are skipped), and the
// matches decide the verdict: any closed match wins over any open match, and
// the reason is taken from the first closed match in schedule-rule order. If
// only open rules match the schedule is open. If nothing matches the schedule
// defaults to closed with reason "closed" — ambiguous or empty configurations
// fail toward closed.
//
// Pure function of its inputs; safe for concurrent use.
func Evaluate(sched *Schedule, rules map[string]*Rule, loc *time.Location, instant time.Time) EvaluationResult {
	if sched.EmergencyClose {
		return EvaluationResult{IsOpen: false, ClosedReason: ReasonEmergency}
	}

	now := instant.In(loc)

	var matched []*Rule
	for _, id := range sched.Rules {
		rule, ok := rules[id]
		if !ok {
			continue
		}
		if rule.Matches(now) {
			matched = append(matched, rule)
		}
	}

	for _, rule := range matched {
		if !rule.IsOpen {
			return EvaluationResult{IsOpen: false, ClosedReason: rule.ClosedReason}
		}
	}

	if len(matched) > 0 {
		return EvaluationResult{IsOpen: true, ClosedReason: ""}
	}

	return EvaluationResult{IsOpen: false, ClosedReason: ReasonClosed}
}
