package dto

import (
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

type CreateHabitRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" example:"Read 20 pages"`
	Description string `json:"description" validate:"max=500"`
	Category    string `json:"category" validate:"required,habit_category" example:"study"`
	Frequency   string `json:"frequency" validate:"omitempty,habit_frequency" example:"daily"`
	Difficulty  string `json:"difficulty" validate:"omitempty,habit_difficulty" example:"medium"`
}

func (r CreateHabitRequest) Validate() error {
	return GetValidator().Struct(r)
}

// UpdateHabitRequest changes only the fields that are present.
type UpdateHabitRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=100" example:"Read 30 pages"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    *string `json:"category,omitempty" validate:"omitempty,habit_category" example:"study"`
	Frequency   *string `json:"frequency,omitempty" validate:"omitempty,habit_frequency" example:"weekly"`
	Difficulty  *string `json:"difficulty,omitempty" validate:"omitempty,habit_difficulty" example:"hard"`
}

func (r UpdateHabitRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CompleteHabitRequest struct {
	// Date defaults to today; only the calendar day is kept.
	Date   *time.Time `json:"date,omitempty" example:"2024-03-01T00:00:00Z"`
	Status string     `json:"status" validate:"omitempty,completion_status" example:"done"`
}

func (r CompleteHabitRequest) Validate() error {
	return GetValidator().Struct(r)
}

type CompleteHabitResponse struct {
	Completion   model.HabitCompletion `json:"completion"`
	XPGained     int                   `json:"xp_gained"`
	NewXP        int                   `json:"new_xp"`
	NewLevel     int                   `json:"new_level"`
	LeveledUp    bool                  `json:"leveled_up"`
	Streak       model.StreakRecord    `json:"streak"`
	Achievements []UnlockedAchievement `json:"achievements"`
	AvatarEvents []AvatarChange        `json:"avatar_events"`
}
