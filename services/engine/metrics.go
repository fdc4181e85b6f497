package engine

import (
	"math"
	"sort"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// The functions in this file are pure: they never fail, never mutate their
// input and return zero values for empty or malformed input.

const day = 24 * time.Hour

// civilDay maps t onto UTC midnight of its own calendar date so that day
// arithmetic is exact regardless of the record's location.
func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func isDone(r model.HabitCompletion) bool {
	return r.Status == model.StatusDone
}

// doneDays returns the distinct calendar days with at least one done record,
// sorted ascending.
func doneDays(records []model.HabitCompletion) []time.Time {
	seen := make(map[time.Time]struct{}, len(records))
	days := make([]time.Time, 0, len(records))
	for _, r := range records {
		if !isDone(r) {
			continue
		}
		d := civilDay(r.Date)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Streak returns the longest run of consecutive calendar days with a done
// record. Duplicate days count once.
func Streak(records []model.HabitCompletion) int {
	days := doneDays(records)
	if len(days) == 0 {
		return 0
	}

	longest, current := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == day {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return longest
}

// CompletionCount counts done records.
func CompletionCount(records []model.HabitCompletion) int {
	n := 0
	for _, r := range records {
		if isDone(r) {
			n++
		}
	}
	return n
}

// XPSum adds up the XP awarded by done records.
func XPSum(records []model.HabitCompletion) int {
	sum := 0
	for _, r := range records {
		if isDone(r) && r.XPAwarded > 0 {
			sum += r.XPAwarded
		}
	}
	return sum
}

// CategoryLookup maps a habit id to its category.
type CategoryLookup map[string]model.Category

// NewCategoryLookup indexes habits by id.
func NewCategoryLookup(habits []model.Habit) CategoryLookup {
	lookup := make(CategoryLookup, len(habits))
	for _, h := range habits {
		lookup[h.ID] = h.Category
	}
	return lookup
}

func (l CategoryLookup) categoryOf(r model.HabitCompletion) model.Category {
	if c, ok := l[r.HabitID]; ok && c != "" {
		return c
	}
	return r.Category
}

// CategoryTotals counts done records per category.
func CategoryTotals(records []model.HabitCompletion, lookup CategoryLookup) map[model.Category]int {
	totals := make(map[model.Category]int)
	for _, r := range records {
		if !isDone(r) {
			continue
		}
		if c := lookup.categoryOf(r); c != "" {
			totals[c]++
		}
	}
	return totals
}

// CategoryDiversity counts distinct categories among done records.
func CategoryDiversity(records []model.HabitCompletion, lookup CategoryLookup) int {
	return len(CategoryTotals(records, lookup))
}

// MaxCategoryTotal is the done count of the busiest category.
func MaxCategoryTotal(records []model.HabitCompletion, lookup CategoryLookup) int {
	best := 0
	for _, n := range CategoryTotals(records, lookup) {
		if n > best {
			best = n
		}
	}
	return best
}

// PerfectDayCount counts days on which the number of done records reached
// activeHabitCount. Without active habits no day can be perfect.
func PerfectDayCount(records []model.HabitCompletion, activeHabitCount int) int {
	if activeHabitCount <= 0 {
		return 0
	}
	perDay := doneCountPerDay(records)
	n := 0
	for _, count := range perDay {
		if count >= activeHabitCount {
			n++
		}
	}
	return n
}

func doneCountPerDay(records []model.HabitCompletion) map[time.Time]int {
	perDay := make(map[time.Time]int)
	for _, r := range records {
		if isDone(r) {
			perDay[civilDay(r.Date)]++
		}
	}
	return perDay
}

// DaysActive counts distinct days with a done record.
func DaysActive(records []model.HabitCompletion) int {
	return len(doneDays(records))
}

// DistinctHabits counts distinct habits with a done record.
func DistinctHabits(records []model.HabitCompletion) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		if isDone(r) {
			seen[r.HabitID] = struct{}{}
		}
	}
	return len(seen)
}

// WeeklyEfficiency is done records over the week's capacity
// (activeHabits × 7), as a rounded percentage. ok is false when there are no
// active habits.
func WeeklyEfficiency(records []model.HabitCompletion, activeHabits int) (percent int, ok bool) {
	if activeHabits <= 0 {
		return 0, false
	}
	ratio := float64(CompletionCount(records)) / float64(activeHabits*7)
	return int(math.Round(ratio * 100)), true
}

// MonthlyConsistency is active days over the days elapsed since monthStart, as
// a rounded percentage. A partially elapsed day counts as a whole day. ok is
// false when no time has elapsed.
func MonthlyConsistency(records []model.HabitCompletion, monthStart, now time.Time) (percent int, ok bool) {
	elapsed := now.Sub(monthStart)
	if elapsed <= 0 {
		return 0, false
	}
	days := math.Ceil(elapsed.Hours() / 24)
	return int(math.Round(float64(DaysActive(records)) / days * 100)), true
}

// QuickHabitDays counts days on which at least perDay daily-frequency habits
// were done.
func QuickHabitDays(records []model.HabitCompletion, habits []model.Habit, perDay int) int {
	if perDay <= 0 {
		return 0
	}
	daily := make(map[string]struct{})
	for _, h := range habits {
		if h.Frequency == model.FrequencyDaily {
			daily[h.ID] = struct{}{}
		}
	}

	counts := make(map[time.Time]int)
	for _, r := range records {
		if !isDone(r) {
			continue
		}
		if _, ok := daily[r.HabitID]; ok {
			counts[civilDay(r.Date)]++
		}
	}

	n := 0
	for _, c := range counts {
		if c >= perDay {
			n++
		}
	}
	return n
}
