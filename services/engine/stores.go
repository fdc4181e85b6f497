package engine

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// Profile is the snapshot of a user's progression read by the engines.
type Profile struct {
	UserID    string
	XP        int
	Level     int
	Streak    model.StreakRecord
	Avatar    model.AvatarState
	Equipment map[model.Slot]model.EquipmentState
}

// XPResult is the outcome of a single AddXP call.
type XPResult struct {
	NewXP     int  `json:"new_xp"`
	NewLevel  int  `json:"new_level"`
	LeveledUp bool `json:"leveled_up"`
}

// RarityCounts counts a user's unlocked achievements.
type RarityCounts struct {
	Total    int
	ByRarity map[model.Rarity]int
}

// CompletionReader reads the habit completion log.
type CompletionReader interface {
	FetchCompletions(ctx context.Context, userID string, from, to time.Time) ([]model.HabitCompletion, error)
}

type HabitReader interface {
	FetchActiveHabits(ctx context.Context, userID string) ([]model.Habit, error)
}

// ProfileStore owns XP, level, avatar and equipment. AddXP is the only way XP
// changes; it must be a serialized read-modify-write per user.
type ProfileStore interface {
	ReadProfile(ctx context.Context, userID string) (*Profile, error)
	AddXP(ctx context.Context, userID string, amount int) (XPResult, error)
	WriteAvatarState(ctx context.Context, userID string, state model.AvatarState) error
	WriteEquipmentState(ctx context.Context, userID string, slot model.Slot, state model.EquipmentState) error
}

// AchievementStore reads locked achievements and performs the conditional
// unlock. TryUnlock returns false when the achievement was already unlocked.
type AchievementStore interface {
	ListLocked(ctx context.Context, userID string) ([]model.Achievement, error)
	TryUnlock(ctx context.Context, achievementID string, at time.Time) (bool, error)
	CountUnlocked(ctx context.Context, userID string) (RarityCounts, error)
}

// BattleStore persists battles. WriteBattle fails with ErrConflict when the
// stored status is no longer expected.
type BattleStore interface {
	ReadBattle(ctx context.Context, id string) (*model.Battle, error)
	WriteBattle(ctx context.Context, battle *model.Battle, expected model.BattleStatus) error
}

// Transactor runs fn as one atomic unit. Store calls made with the ctx
// handed to fn commit or roll back together.
type Transactor interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// noTransactor runs fn directly. Engines use it until WithTransactor is called.
type noTransactor struct{}

func (noTransactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Clock returns the current time. Engines default to time.Now.
type Clock func() time.Time
