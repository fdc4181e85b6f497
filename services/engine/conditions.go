package engine

import (
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// MetricContext bundles what a condition is evaluated against. Records are
// already restricted to the condition's effective window.
type MetricContext struct {
	Records     []model.HabitCompletion
	Habits      []model.Habit
	Profile     *Profile
	WindowStart time.Time
	Now         time.Time
}

// WindowStart resolves a window to the instant it starts: midnight today,
// the most recent Sunday, the first of the month, or the Unix epoch.
func WindowStart(w model.Window, now time.Time) time.Time {
	today := model.Midnight(now)
	switch w {
	case model.WindowDaily:
		return today
	case model.WindowWeekly:
		return today.AddDate(0, 0, -int(today.Weekday()))
	case model.WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Unix(0, 0).In(now.Location())
	}
}

// EffectiveWindow is the window whose records a condition needs. Efficiency
// and consistency are always measured over the current week and month.
func EffectiveWindow(c model.Condition) model.Window {
	switch c.Kind {
	case model.KindWeeklyEfficiency:
		return model.WindowWeekly
	case model.KindMonthlyConsistency:
		return model.WindowMonthly
	}
	if c.Window == "" {
		return model.WindowTotal
	}
	return c.Window
}

// NeedsRecords reports whether evaluating c requires the completion log.
func NeedsRecords(c model.Condition) bool {
	switch c.Kind {
	case model.KindLevel, model.KindTotalXP:
		return false
	}
	return c.Kind.IsValid()
}

// ValidateCondition reports malformed conditions. An unrecognised but
// non-empty kind is not malformed: it evaluates to false.
func ValidateCondition(c model.Condition) error {
	if c.Kind == "" {
		return &EvaluationError{Reason: "condition kind is empty"}
	}
	if c.Threshold < 0 {
		return &EvaluationError{Reason: "condition threshold is negative"}
	}
	if c.Window != "" && !c.Window.IsValid() {
		return &EvaluationError{Reason: "unknown window " + string(c.Window)}
	}
	return nil
}

// Evaluate reports whether the condition is satisfied. It never panics on
// missing data; unknown kinds fail closed.
func Evaluate(c model.Condition, mc MetricContext) bool {
	value, ok := Measure(c, mc)
	return ok && value >= c.Threshold
}

// Measure returns the current value of the condition's metric. ok is false
// when the metric cannot be computed: an unknown kind, no profile for level
// and XP conditions, or no active habits for ratio conditions.
func Measure(c model.Condition, mc MetricContext) (value int, ok bool) {
	lookup := NewCategoryLookup(mc.Habits)

	switch c.Kind {
	case model.KindStreak:
		return Streak(mc.Records), true
	case model.KindLevel:
		if mc.Profile == nil {
			return 0, false
		}
		return mc.Profile.Level, true
	case model.KindCompletions:
		return CompletionCount(mc.Records), true
	case model.KindDaysActive:
		return DaysActive(mc.Records), true
	case model.KindTotalXP:
		if mc.Profile == nil {
			return 0, false
		}
		return mc.Profile.XP, true
	case model.KindCategoryCount:
		return MaxCategoryTotal(mc.Records, lookup), true
	case model.KindPerfectDays:
		if len(mc.Habits) == 0 {
			return 0, false
		}
		return PerfectDayCount(mc.Records, len(mc.Habits)), true
	case model.KindDistinctHabits:
		return DistinctHabits(mc.Records), true
	case model.KindWeeklyEfficiency:
		return WeeklyEfficiency(mc.Records, len(mc.Habits))
	case model.KindMonthlyConsistency:
		return MonthlyConsistency(mc.Records, mc.WindowStart, mc.Now)
	case model.KindCategoryVariety:
		return CategoryDiversity(mc.Records, lookup), true
	case model.KindQuickHabits:
		// The threshold doubles as the per-day habit count.
		return QuickHabitDays(mc.Records, mc.Habits, c.Threshold), true
	default:
		return 0, false
	}
}
