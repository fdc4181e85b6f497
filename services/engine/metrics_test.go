package engine

import (
	"testing"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/stretchr/testify/assert"
)

func done(habitID string, d time.Time, xp int) model.HabitCompletion {
	return model.HabitCompletion{HabitID: habitID, Date: d, Status: model.StatusDone, XPAwarded: xp}
}

func TestStreak(t *testing.T) {
	start := date(2024, time.March, 1)

	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, 0, Streak(nil))
	})

	t.Run("seven consecutive days", func(t *testing.T) {
		var records []model.HabitCompletion
		for i := 0; i < 7; i++ {
			records = append(records, done("h1", start.AddDate(0, 0, i), 10))
		}
		assert.Equal(t, 7, Streak(records))
	})

	t.Run("gap resets the run", func(t *testing.T) {
		records := []model.HabitCompletion{
			done("h1", start, 10),
			done("h1", start.AddDate(0, 0, 1), 10),
			done("h1", start.AddDate(0, 0, 3), 10),
			done("h1", start.AddDate(0, 0, 4), 10),
			done("h1", start.AddDate(0, 0, 5), 10),
		}
		assert.Equal(t, 3, Streak(records))
	})

	t.Run("duplicates and order do not matter", func(t *testing.T) {
		records := []model.HabitCompletion{
			done("h2", start.AddDate(0, 0, 2), 10),
			done("h1", start, 10),
			done("h2", start, 10),
			done("h1", start.AddDate(0, 0, 1), 10),
		}
		assert.Equal(t, 3, Streak(records))
	})

	t.Run("missed records are ignored", func(t *testing.T) {
		records := []model.HabitCompletion{
			done("h1", start, 10),
			{HabitID: "h1", Date: start.AddDate(0, 0, 1), Status: model.StatusMissed},
		}
		assert.Equal(t, 1, Streak(records))
	})
}

func TestCountsAndSums(t *testing.T) {
	d := date(2024, time.March, 1)
	records := []model.HabitCompletion{
		done("h1", d, 10),
		done("h2", d, 35),
		{HabitID: "h3", Date: d, Status: model.StatusPartial, XPAwarded: 20},
	}

	assert.Equal(t, 2, CompletionCount(records))
	assert.Equal(t, 45, XPSum(records))
	assert.Equal(t, 2, DistinctHabits(records))
	assert.Equal(t, 1, DaysActive(records))
}

func TestCategoryMetrics(t *testing.T) {
	d := date(2024, time.March, 1)
	habits := []model.Habit{
		{ID: "run", Category: model.CategoryHealth},
		{ID: "read", Category: model.CategoryStudy},
	}
	records := []model.HabitCompletion{
		done("run", d, 10),
		done("run", d.AddDate(0, 0, 1), 10),
		done("read", d, 10),
		{HabitID: "gone", Date: d, Status: model.StatusDone, Category: model.CategoryWork},
	}
	lookup := NewCategoryLookup(habits)

	totals := CategoryTotals(records, lookup)
	assert.Equal(t, 2, totals[model.CategoryHealth])
	assert.Equal(t, 1, totals[model.CategoryWork])
	assert.Equal(t, 3, CategoryDiversity(records, lookup))
	assert.Equal(t, 2, MaxCategoryTotal(records, lookup))
}

func TestPerfectDayCount(t *testing.T) {
	d := date(2024, time.March, 1)
	records := []model.HabitCompletion{
		done("a", d, 10),
		done("b", d, 10),
		done("a", d.AddDate(0, 0, 1), 10),
	}

	assert.Equal(t, 1, PerfectDayCount(records, 2))
	assert.Equal(t, 2, PerfectDayCount(records, 1))
	assert.Equal(t, 0, PerfectDayCount(records, 0))
}

func TestWeeklyEfficiency(t *testing.T) {
	d := date(2024, time.March, 3)
	var records []model.HabitCompletion
	for i := 0; i < 12; i++ {
		records = append(records, done("a", d.AddDate(0, 0, i%7), 10))
	}

	pct, ok := WeeklyEfficiency(records, 2)
	assert.True(t, ok)
	assert.Equal(t, 86, pct)

	_, ok = WeeklyEfficiency(records, 0)
	assert.False(t, ok)
}

func TestMonthlyConsistency(t *testing.T) {
	monthStart := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, time.March, 10, 8, 0, 0, 0, time.UTC)

	var records []model.HabitCompletion
	for i := 0; i < 7; i++ {
		records = append(records, done("a", monthStart.AddDate(0, 0, i), 10))
	}

	pct, ok := MonthlyConsistency(records, monthStart, now)
	assert.True(t, ok)
	assert.Equal(t, 70, pct)

	_, ok = MonthlyConsistency(records, monthStart, monthStart)
	assert.False(t, ok)
}

func TestQuickHabitDays(t *testing.T) {
	d := date(2024, time.March, 4)
	habits := []model.Habit{
		{ID: "a", Frequency: model.FrequencyDaily},
		{ID: "b", Frequency: model.FrequencyDaily},
		{ID: "w", Frequency: model.FrequencyWeekly},
	}
	records := []model.HabitCompletion{
		done("a", d, 10),
		done("b", d, 10),
		done("a", d.AddDate(0, 0, 1), 10),
		done("w", d.AddDate(0, 0, 1), 10),
	}

	assert.Equal(t, 1, QuickHabitDays(records, habits, 2))
	assert.Equal(t, 2, QuickHabitDays(records, habits, 1))
	assert.Equal(t, 0, QuickHabitDays(records, habits, 0))
}
