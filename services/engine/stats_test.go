package engine

import (
	"testing"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(habitID string, d time.Time, status model.CompletionStatus, xp int) model.HabitCompletion {
	return model.HabitCompletion{HabitID: habitID, Date: d, Status: status, XPAwarded: xp}
}

var statsHabits = []model.Habit{
	{ID: "h1", Name: "Run", Category: model.CategoryHealth},
	{ID: "h2", Name: "Read", Category: model.CategoryStudy},
	{ID: "h3", Name: "Stretch", Category: model.CategoryHealth},
}

func TestWeeklyChart(t *testing.T) {
	today := date(2024, time.March, 10)
	records := []model.HabitCompletion{
		record("h1", today, model.StatusDone, 20),
		record("h2", today, model.StatusMissed, 0),
		record("h1", today.AddDate(0, 0, -6), model.StatusPartial, 10),
		record("h1", today.AddDate(0, 0, -7), model.StatusDone, 20),
	}

	chart := WeeklyChart(records, statsHabits, today)
	require.Len(t, chart, 7)

	assert.Equal(t, "2024-03-04", chart[0].Date)
	assert.Equal(t, 1, chart[0].Partial)
	assert.Equal(t, 10, chart[0].XP)

	last := chart[6]
	assert.Equal(t, "2024-03-10", last.Date)
	assert.Equal(t, 1, last.Done)
	assert.Equal(t, 1, last.Missed)
	assert.Equal(t, 20, last.XP)
	require.Len(t, last.Entries, 2)
	assert.Equal(t, "Run", last.Entries[0].Name)

	assert.Empty(t, chart[3].Entries)
}

func TestCategoryBreakdown(t *testing.T) {
	d := date(2024, time.March, 1)
	records := []model.HabitCompletion{
		record("h1", d, model.StatusDone, 20),
		record("h1", d.AddDate(0, 0, 1), model.StatusMissed, 0),
		record("h3", d, model.StatusDone, 10),
		record("h2", d, model.StatusDone, 15),
		record("gone", d, model.StatusDone, 5),
	}

	breakdown := CategoryBreakdown(records, statsHabits)
	require.Len(t, breakdown, 2)

	health := breakdown[0]
	assert.Equal(t, model.CategoryHealth, health.Category)
	assert.Equal(t, 3, health.Total)
	assert.Equal(t, 2, health.Done)
	assert.Equal(t, 1, health.Missed)
	assert.Equal(t, 30, health.XP)
	assert.Equal(t, 67, health.CompletionRate)
	assert.Equal(t, []string{"Run", "Stretch"}, health.Habits)
	assert.Equal(t, 2, health.HabitCount)

	assert.Equal(t, model.CategoryStudy, breakdown[1].Category)
	assert.Equal(t, 100, breakdown[1].CompletionRate)
}

func TestBuildHeatmap(t *testing.T) {
	busy := date(2024, time.May, 2)
	records := []model.HabitCompletion{
		record("h1", busy, model.StatusDone, 20),
		record("h2", busy, model.StatusDone, 15),
		record("h3", busy, model.StatusDone, 10),
		record("h1", busy, model.StatusDone, 20),
		record("h1", date(2024, time.January, 3), model.StatusDone, 20),
		record("h1", date(2024, time.January, 4), model.StatusMissed, 0),
		record("h1", date(2023, time.December, 31), model.StatusDone, 20),
	}

	heatmap := BuildHeatmap(records, 2024)
	assert.Equal(t, 2024, heatmap.Year)
	require.Len(t, heatmap.Days, 2)

	assert.Equal(t, "2024-01-03", heatmap.Days[0].Date)
	assert.Equal(t, 1, heatmap.Days[0].Level)
	assert.Equal(t, 4, heatmap.Days[1].Count)
	assert.Equal(t, 4, heatmap.Days[1].Level)

	assert.Equal(t, HeatmapSummary{ActiveDays: 2, TotalDone: 5, MaxPerDay: 4, XP: 85}, heatmap.Summary)

	empty := BuildHeatmap(nil, 2024)
	assert.Empty(t, empty.Days)
	assert.Equal(t, 1, empty.Summary.MaxPerDay)
}

func TestMonthlyComparison(t *testing.T) {
	now := date(2024, time.February, 15)
	records := []model.HabitCompletion{
		record("h1", date(2024, time.February, 1), model.StatusDone, 20),
		record("h1", date(2024, time.February, 2), model.StatusMissed, 0),
		record("h1", date(2023, time.September, 30), model.StatusDone, 20),
		record("h1", date(2023, time.August, 31), model.StatusDone, 20),
	}

	months := MonthlyComparison(records, now, 6)
	require.Len(t, months, 6)

	assert.Equal(t, 2023, months[0].Year)
	assert.Equal(t, 9, months[0].Month)
	assert.Equal(t, "September", months[0].Name)
	assert.Equal(t, 1, months[0].Done)

	feb := months[5]
	assert.Equal(t, 2, feb.Month)
	assert.Equal(t, 2, feb.Total)
	assert.Equal(t, 50, feb.CompletionRate)
	assert.Equal(t, 20, feb.XP)

	assert.Empty(t, MonthlyComparison(records, now, 0))
}
