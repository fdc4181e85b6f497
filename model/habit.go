package model

import "time"

type Habit struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"not null;index"`
	Name        string     `json:"name" gorm:"not null"`
	Description string     `json:"description"`
	Category    Category   `json:"category" gorm:"not null"`
	Frequency   Frequency  `json:"frequency" gorm:"default:daily"`
	Difficulty  Difficulty `json:"difficulty" gorm:"default:easy"`
	IsActive    bool       `json:"is_active" gorm:"default:true;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HabitCompletion is one entry of the completion log. At most one row exists
// per habit and day.
type HabitCompletion struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	HabitID    string           `json:"habit_id" gorm:"not null;uniqueIndex:idx_completion_habit_date"`
	UserID     string           `json:"user_id" gorm:"not null;index:idx_completion_user_date,priority:1"`
	Date       time.Time        `json:"date" gorm:"not null;uniqueIndex:idx_completion_habit_date;index:idx_completion_user_date,priority:2"`
	Status     CompletionStatus `json:"status" gorm:"not null"`
	XPAwarded  int              `json:"xp_awarded" gorm:"default:0"`
	Difficulty Difficulty       `json:"difficulty"`
	Category   Category         `json:"category"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
