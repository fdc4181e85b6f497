package model

// CompletionStatus is the outcome recorded for a habit on a given day.
type CompletionStatus string

const (
	StatusDone    CompletionStatus = "done"
	StatusMissed  CompletionStatus = "missed"
	StatusPartial CompletionStatus = "partial"
)

func (s CompletionStatus) IsValid() bool {
	switch s {
	case StatusDone, StatusMissed, StatusPartial:
		return true
	default:
		return false
	}
}

// Difficulty of a habit. It decides the XP granted per completion.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyHard      Difficulty = "hard"
	DifficultyLegendary Difficulty = "legendary"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyLegendary:
		return true
	default:
		return false
	}
}

// XP returns the experience awarded for one completion at this difficulty.
func (d Difficulty) XP() int {
	switch d {
	case DifficultyEasy:
		return 10
	case DifficultyMedium:
		return 20
	case DifficultyHard:
		return 35
	case DifficultyLegendary:
		return 50
	default:
		return 10
	}
}

type Category string

const (
	CategoryHealth   Category = "health"
	CategoryStudy    Category = "study"
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategorySocial   Category = "social"
	CategoryCreative Category = "creative"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryHealth, CategoryStudy, CategoryWork, CategoryPersonal, CategorySocial, CategoryCreative:
		return true
	default:
		return false
	}
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// Rarity classifies achievements and gates equipment unlocks.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	default:
		return false
	}
}

// ConditionKind selects the metric an unlock condition compares against.
type ConditionKind string

const (
	KindStreak             ConditionKind = "streak"
	KindLevel              ConditionKind = "level"
	KindCompletions        ConditionKind = "completions"
	KindDaysActive         ConditionKind = "daysActive"
	KindTotalXP            ConditionKind = "totalXp"
	KindCategoryCount      ConditionKind = "categoryCount"
	KindPerfectDays        ConditionKind = "perfectDays"
	KindDistinctHabits     ConditionKind = "distinctHabits"
	KindWeeklyEfficiency   ConditionKind = "weeklyEfficiency"
	KindMonthlyConsistency ConditionKind = "monthlyConsistency"
	KindCategoryVariety    ConditionKind = "categoryVariety"
	KindQuickHabits        ConditionKind = "quickHabits"
)

// ConditionKinds lists every kind the evaluator understands.
var ConditionKinds = []ConditionKind{
	KindStreak, KindLevel, KindCompletions, KindDaysActive, KindTotalXP,
	KindCategoryCount, KindPerfectDays, KindDistinctHabits, KindWeeklyEfficiency,
	KindMonthlyConsistency, KindCategoryVariety, KindQuickHabits,
}

func (k ConditionKind) IsValid() bool {
	for _, known := range ConditionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Window bounds the completion history a condition looks at.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
	WindowTotal   Window = "total"
)

func (w Window) IsValid() bool {
	switch w {
	case WindowDaily, WindowWeekly, WindowMonthly, WindowTotal:
		return true
	default:
		return false
	}
}

type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotAccessory Slot = "accessory"
	SlotAura      Slot = "aura"
	SlotParticles Slot = "particles"
)

var Slots = []Slot{SlotWeapon, SlotArmor, SlotAccessory, SlotAura, SlotParticles}

type AvatarKind string

const (
	AvatarAspirant         AvatarKind = "aspirant"
	AvatarHunter           AvatarKind = "hunter"
	AvatarGuardian         AvatarKind = "guardian"
	AvatarConjurer         AvatarKind = "conjurer"
	AvatarConjurerAdvanced AvatarKind = "conjurer-advanced"
	AvatarConjurerSupreme  AvatarKind = "conjurer-supreme"
)

type BattleStatus string

const (
	BattlePending   BattleStatus = "pending"
	BattleActive    BattleStatus = "active"
	BattleCompleted BattleStatus = "completed"
	BattleCancelled BattleStatus = "cancelled"
	BattleExpired   BattleStatus = "expired"
)

func (s BattleStatus) IsValid() bool {
	switch s {
	case BattlePending, BattleActive, BattleCompleted, BattleCancelled, BattleExpired:
		return true
	default:
		return false
	}
}

// MetricType decides how a battle is scored.
type MetricType string

const (
	MetricStreak7       MetricType = "streak7"
	MetricStreak30      MetricType = "streak30"
	MetricHabitsPerWeek MetricType = "habitsPerWeek"
	MetricDailyXP       MetricType = "dailyXp"
	MetricRapidLevel    MetricType = "rapidLevel"
	MetricCustom        MetricType = "custom"
)

func (m MetricType) IsValid() bool {
	switch m {
	case MetricStreak7, MetricStreak30, MetricHabitsPerWeek, MetricDailyXP, MetricRapidLevel, MetricCustom:
		return true
	default:
		return false
	}
}

// IsStreak reports whether the metric earns the weekly streak bonus.
func (m MetricType) IsStreak() bool {
	return m == MetricStreak7 || m == MetricStreak30
}

type CriterionKind string

const (
	CriterionStreak  CriterionKind = "streak"
	CriterionCount   CriterionKind = "count"
	CriterionSum     CriterionKind = "sum"
	CriterionAverage CriterionKind = "average"
)

func (k CriterionKind) IsValid() bool {
	switch k {
	case CriterionStreak, CriterionCount, CriterionSum, CriterionAverage:
		return true
	default:
		return false
	}
}
