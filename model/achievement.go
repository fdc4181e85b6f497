package model

import "time"

// Condition is the declarative unlock rule of an achievement.
type Condition struct {
	Kind      ConditionKind `json:"kind"`
	Threshold int           `json:"threshold"`
	Window    Window        `json:"window"`
}

// Achievement is owned by a single user and unlocks at most once.
type Achievement struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	UserID      string     `json:"user_id" gorm:"not null;uniqueIndex:idx_achievement_user_key"`
	Key         string     `json:"key" gorm:"not null;uniqueIndex:idx_achievement_user_key"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Category    string     `json:"category"` // progress, consistency, mastery, special, custom
	Rarity      Rarity     `json:"rarity" gorm:"default:common;index"`
	Condition   Condition  `json:"condition" gorm:"embedded;embeddedPrefix:condition_"`
	RewardXP    int        `json:"reward_xp" gorm:"default:0"`
	IsCustom    bool       `json:"is_custom" gorm:"default:false"`
	UnlockedAt  *time.Time `json:"unlocked_at" gorm:"index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (a Achievement) IsUnlocked() bool {
	return a.UnlockedAt != nil
}
