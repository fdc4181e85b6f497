package engine

import (
	"fmt"
	"strings"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// CategoryCustom marks user-authored achievements.
const CategoryCustom = "custom"

// DefaultCatalog returns the achievements every user starts with, locked and
// without ids or owner.
func DefaultCatalog() []model.Achievement {
	return []model.Achievement{
		catalogEntry("first-flame", "First Flame", "Complete your first habit", "🔥", "progress", model.RarityCommon, model.KindCompletions, 1, model.WindowTotal, 25),
		catalogEntry("week-of-dedication", "Week of Dedication", "Keep a 7 day streak", "📅", "consistency", model.RarityRare, model.KindStreak, 7, model.WindowTotal, 100),
		catalogEntry("master-of-persistence", "Master of Persistence", "Keep a 30 day streak", "🏆", "consistency", model.RarityEpic, model.KindStreak, 30, model.WindowTotal, 500),
		catalogEntry("level-10", "Level 10", "Reach level 10", "⭐", "progress", model.RarityRare, model.KindLevel, 10, model.WindowTotal, 200),
		catalogEntry("level-20", "Level 20", "Reach level 20", "🌟", "progress", model.RarityEpic, model.KindLevel, 20, model.WindowTotal, 500),
		catalogEntry("level-30", "Level 30", "Reach level 30", "💫", "progress", model.RarityLegendary, model.KindLevel, 30, model.WindowTotal, 1000),
		catalogEntry("habit-collector", "Habit Collector", "Complete 50 habits", "📚", "progress", model.RarityRare, model.KindCompletions, 50, model.WindowTotal, 300),
		catalogEntry("perfectionist", "Perfectionist", "Complete every active habit on 5 days", "💎", "mastery", model.RarityEpic, model.KindPerfectDays, 5, model.WindowTotal, 400),
		catalogEntry("explorer", "Explorer", "Complete habits in 5 categories", "🧭", "mastery", model.RarityRare, model.KindCategoryVariety, 5, model.WindowTotal, 150),
		catalogEntry("weekly-efficiency", "Weekly Efficiency", "Reach 80% efficiency in a week", "⚡", "consistency", model.RarityRare, model.KindWeeklyEfficiency, 80, model.WindowWeekly, 200),
		catalogEntry("monthly-consistency", "Monthly Consistency", "Be active on 70% of this month's days", "🗓️", "consistency", model.RarityEpic, model.KindMonthlyConsistency, 70, model.WindowMonthly, 300),
		catalogEntry("sprinter", "Sprinter", "Complete 5 daily habits on 5 days this week", "🏃", "special", model.RarityRare, model.KindQuickHabits, 5, model.WindowWeekly, 250),
		catalogEntry("variety-master", "Variety Master", "Complete habits in 8 categories", "🎨", "mastery", model.RarityEpic, model.KindCategoryVariety, 8, model.WindowTotal, 400),
		catalogEntry("persistence-legend", "Persistence Legend", "Keep a 100 day streak", "👑", "consistency", model.RarityLegendary, model.KindStreak, 100, model.WindowTotal, 1000),
		catalogEntry("habit-emperor", "Habit Emperor", "Complete every active habit on 30 days", "🏛️", "mastery", model.RarityLegendary, model.KindPerfectDays, 30, model.WindowTotal, 1500),
		catalogEntry("knowledge-sage", "Knowledge Sage", "Earn 10000 XP", "🧙", "progress", model.RarityEpic, model.KindTotalXP, 10000, model.WindowTotal, 800),
	}
}

func catalogEntry(key, title, description, icon, category string, rarity model.Rarity, kind model.ConditionKind, threshold int, window model.Window, reward int) model.Achievement {
	return model.Achievement{
		Key:         key,
		Title:       title,
		Description: description,
		Icon:        icon,
		Category:    category,
		Rarity:      rarity,
		Condition:   model.Condition{Kind: kind, Threshold: threshold, Window: window},
		RewardXP:    reward,
	}
}

// CustomAchievement describes a user-authored achievement.
type CustomAchievement struct {
	Title       string
	Description string
	Icon        string
	Rarity      model.Rarity
	Condition   model.Condition
	RewardXP    int
}

// NewCustomAchievement validates a custom definition and builds the locked
// achievement. key must be unique for the user.
func NewCustomAchievement(userID, key string, def CustomAchievement) (*model.Achievement, error) {
	if strings.TrimSpace(def.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}
	if !def.Condition.Kind.IsValid() {
		return nil, fmt.Errorf("unknown condition kind %q", def.Condition.Kind)
	}
	if def.Condition.Threshold <= 0 {
		return nil, fmt.Errorf("condition threshold must be positive")
	}
	if err := ValidateCondition(def.Condition); err != nil {
		return nil, err
	}
	if def.RewardXP < 0 {
		return nil, fmt.Errorf("reward must not be negative")
	}

	rarity := def.Rarity
	if rarity == "" {
		rarity = model.RarityCommon
	}
	if !rarity.IsValid() {
		return nil, fmt.Errorf("unknown rarity %q", rarity)
	}

	cond := def.Condition
	if cond.Window == "" {
		cond.Window = model.WindowTotal
	}

	icon := def.Icon
	if icon == "" {
		icon = "🏅"
	}

	return &model.Achievement{
		UserID:      userID,
		Key:         key,
		Title:       strings.TrimSpace(def.Title),
		Description: def.Description,
		Icon:        icon,
		Category:    CategoryCustom,
		Rarity:      rarity,
		Condition:   cond,
		RewardXP:    def.RewardXP,
		IsCustom:    true,
	}, nil
}
