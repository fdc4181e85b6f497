package engine

import (
	"math"
	"sort"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// DayEntry is one completion shown in the weekly chart.
type DayEntry struct {
	HabitID string                 `json:"habit_id"`
	Name    string                 `json:"name"`
	Status  model.CompletionStatus `json:"status"`
	XP      int                    `json:"xp"`
}

// DayActivity aggregates one calendar day of completions.
type DayActivity struct {
	Date    string     `json:"date"`
	Done    int        `json:"done"`
	Partial int        `json:"partial"`
	Missed  int        `json:"missed"`
	XP      int        `json:"xp"`
	Entries []DayEntry `json:"entries"`
}

// WeeklyChart returns the seven calendar days ending with today, oldest
// first. Days without completions are present with zero counts.
func WeeklyChart(records []model.HabitCompletion, habits []model.Habit, today time.Time) []DayActivity {
	names := make(map[string]string, len(habits))
	for _, h := range habits {
		names[h.ID] = h.Name
	}

	last := civilDay(today)
	first := last.AddDate(0, 0, -6)
	chart := make([]DayActivity, 7)
	for i := range chart {
		chart[i] = DayActivity{Date: first.AddDate(0, 0, i).Format(time.DateOnly), Entries: []DayEntry{}}
	}

	for _, r := range records {
		d := civilDay(r.Date)
		if d.Before(first) || d.After(last) {
			continue
		}
		slot := &chart[int(d.Sub(first)/day)]
		switch r.Status {
		case model.StatusDone:
			slot.Done++
		case model.StatusPartial:
			slot.Partial++
		case model.StatusMissed:
			slot.Missed++
		}
		slot.XP += r.XPAwarded
		slot.Entries = append(slot.Entries, DayEntry{HabitID: r.HabitID, Name: names[r.HabitID], Status: r.Status, XP: r.XPAwarded})
	}
	return chart
}

// CategoryStats aggregates completions of one category.
type CategoryStats struct {
	Category       model.Category `json:"category"`
	Total          int            `json:"total"`
	Done           int            `json:"done"`
	Missed         int            `json:"missed"`
	XP             int            `json:"xp"`
	CompletionRate int            `json:"completion_rate"`
	Habits         []string       `json:"habits"`
	HabitCount     int            `json:"habit_count"`
}

// CategoryBreakdown groups records by category, sorted by category name.
// Records without a known category are left out.
func CategoryBreakdown(records []model.HabitCompletion, habits []model.Habit) []CategoryStats {
	lookup := NewCategoryLookup(habits)
	names := make(map[string]string, len(habits))
	for _, h := range habits {
		names[h.ID] = h.Name
	}

	byCategory := map[model.Category]*CategoryStats{}
	seen := map[model.Category]map[string]struct{}{}
	for _, r := range records {
		c := lookup.categoryOf(r)
		if c == "" {
			continue
		}
		stats, ok := byCategory[c]
		if !ok {
			stats = &CategoryStats{Category: c, Habits: []string{}}
			byCategory[c] = stats
			seen[c] = map[string]struct{}{}
		}
		stats.Total++
		stats.XP += r.XPAwarded
		switch r.Status {
		case model.StatusDone:
			stats.Done++
		case model.StatusMissed:
			stats.Missed++
		}
		if _, ok := seen[c][r.HabitID]; !ok {
			seen[c][r.HabitID] = struct{}{}
			name := names[r.HabitID]
			if name == "" {
				name = r.HabitID
			}
			stats.Habits = append(stats.Habits, name)
		}
	}

	result := make([]CategoryStats, 0, len(byCategory))
	for _, stats := range byCategory {
		stats.CompletionRate = ratePercent(stats.Done, stats.Total)
		stats.HabitCount = len(stats.Habits)
		sort.Strings(stats.Habits)
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

// HeatmapDay is one active day of the heatmap. Level runs from 1 to 4
// relative to the busiest day of the year.
type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	XP    int    `json:"xp"`
	Level int    `json:"level"`
}

type HeatmapSummary struct {
	ActiveDays int `json:"active_days"`
	TotalDone  int `json:"total_done"`
	MaxPerDay  int `json:"max_per_day"`
	XP         int `json:"xp"`
}

type Heatmap struct {
	Year    int            `json:"year"`
	Days    []HeatmapDay   `json:"days"`
	Summary HeatmapSummary `json:"summary"`
}

// BuildHeatmap counts done records per day of year. Only days with activity
// are listed, in date order.
func BuildHeatmap(records []model.HabitCompletion, year int) Heatmap {
	type tally struct{ count, xp int }
	perDay := map[time.Time]*tally{}
	for _, r := range records {
		if !isDone(r) || r.Date.Year() != year {
			continue
		}
		d := civilDay(r.Date)
		t, ok := perDay[d]
		if !ok {
			t = &tally{}
			perDay[d] = t
		}
		t.count++
		t.xp += r.XPAwarded
	}

	heatmap := Heatmap{Year: year, Days: make([]HeatmapDay, 0, len(perDay)), Summary: HeatmapSummary{MaxPerDay: 1}}
	for _, t := range perDay {
		if t.count > heatmap.Summary.MaxPerDay {
			heatmap.Summary.MaxPerDay = t.count
		}
	}

	days := make([]time.Time, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for _, d := range days {
		t := perDay[d]
		level := int(math.Ceil(float64(t.count) / float64(heatmap.Summary.MaxPerDay) * 4))
		if level > 4 {
			level = 4
		}
		heatmap.Days = append(heatmap.Days, HeatmapDay{Date: d.Format(time.DateOnly), Count: t.count, XP: t.xp, Level: level})
		heatmap.Summary.TotalDone += t.count
		heatmap.Summary.XP += t.xp
	}
	heatmap.Summary.ActiveDays = len(heatmap.Days)
	return heatmap
}

// MonthSummary aggregates one calendar month of completions.
type MonthSummary struct {
	Year           int    `json:"year"`
	Month          int    `json:"month"`
	Name           string `json:"name"`
	Total          int    `json:"total"`
	Done           int    `json:"done"`
	Missed         int    `json:"missed"`
	XP             int    `json:"xp"`
	CompletionRate int    `json:"completion_rate"`
}

// MonthlyComparison summarises the last months calendar months up to and
// including now's, oldest first.
func MonthlyComparison(records []model.HabitCompletion, now time.Time, months int) []MonthSummary {
	if months <= 0 {
		return []MonthSummary{}
	}
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	first := current.AddDate(0, -(months - 1), 0)

	summaries := make([]MonthSummary, months)
	for i := range summaries {
		m := first.AddDate(0, i, 0)
		summaries[i] = MonthSummary{Year: m.Year(), Month: int(m.Month()), Name: m.Month().String()}
	}

	for _, r := range records {
		d := civilDay(r.Date)
		idx := (d.Year()-first.Year())*12 + int(d.Month()) - int(first.Month())
		if idx < 0 || idx >= months {
			continue
		}
		s := &summaries[idx]
		s.Total++
		s.XP += r.XPAwarded
		switch r.Status {
		case model.StatusDone:
			s.Done++
		case model.StatusMissed:
			s.Missed++
		}
	}

	for i := range summaries {
		summaries[i].CompletionRate = ratePercent(summaries[i].Done, summaries[i].Total)
	}
	return summaries
}

func ratePercent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
