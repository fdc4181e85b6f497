package model

import "time"

// UserProgress holds a user's XP, level and streak record.
type UserProgress struct {
	ID               string     `json:"id" gorm:"primaryKey"`
	UserID           string     `json:"user_id" gorm:"uniqueIndex;not null"`
	XP               int        `json:"xp" gorm:"default:0;index"`
	Level            int        `json:"level" gorm:"default:1"`
	CurrentStreak    int        `json:"current_streak" gorm:"default:0"`
	LongestStreak    int        `json:"longest_streak" gorm:"default:0"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// StreakRecord is the current and best run of active days.
type StreakRecord struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

func (p UserProgress) Streak() StreakRecord {
	return StreakRecord{Current: p.CurrentStreak, Longest: p.LongestStreak}
}
