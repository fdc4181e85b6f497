package dto

import "github.com/lac-hong-legacy/librarium_api/services/engine"

type StatsSummaryResponse struct {
	TotalDone     int64 `json:"total_done"`
	ActiveHabits  int   `json:"active_habits"`
	XP            int   `json:"xp"`
	Level         int   `json:"level"`
	CurrentStreak int   `json:"current_streak"`
	LongestStreak int   `json:"longest_streak"`
}

type CategoryStatsResponse struct {
	Days       int                    `json:"days"`
	Categories []engine.CategoryStats `json:"categories"`
}
