package dto

import (
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
)

type CreateAchievementRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=100" example:"Early riser"`
	Description string `json:"description" validate:"max=500"`
	Icon        string `json:"icon" validate:"max=16" example:"🌅"`
	Rarity      string `json:"rarity" validate:"omitempty,rarity" example:"rare"`
	Kind        string `json:"kind" validate:"required,condition_kind" example:"daysActive"`
	Threshold   int    `json:"threshold" validate:"required,gt=0" example:"10"`
	Window      string `json:"window" validate:"omitempty,condition_window" example:"total"`
	RewardXP    int    `json:"reward_xp" validate:"min=0,max=5000" example:"100"`
}

func (r CreateAchievementRequest) Validate() error {
	return GetValidator().Struct(r)
}

type UnlockedAchievement struct {
	ID        string       `json:"id"`
	Key       string       `json:"key"`
	Title     string       `json:"title"`
	Icon      string       `json:"icon"`
	Rarity    model.Rarity `json:"rarity"`
	XPGained  int          `json:"xp_gained"`
	LeveledUp bool         `json:"leveled_up"`
	NewLevel  int          `json:"new_level"`
}

type EvaluateAchievementsResponse struct {
	Unlocked []UnlockedAchievement `json:"unlocked"`
	XPGained int                   `json:"xp_gained"`
}

func NewUnlockedAchievements(results []engine.UnlockResult) []UnlockedAchievement {
	unlocked := make([]UnlockedAchievement, 0, len(results))
	for _, r := range results {
		unlocked = append(unlocked, UnlockedAchievement{
			ID:        r.Achievement.ID,
			Key:       r.Achievement.Key,
			Title:     r.Achievement.Title,
			Icon:      r.Achievement.Icon,
			Rarity:    r.Achievement.Rarity,
			XPGained:  r.XPGained,
			LeveledUp: r.LeveledUp,
			NewLevel:  r.NewLevel,
		})
	}
	return unlocked
}
