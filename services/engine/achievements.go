package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	log "github.com/sirupsen/logrus"
)

// UnlockResult describes one achievement unlocked by an evaluation.
type UnlockResult struct {
	Achievement model.Achievement `json:"achievement"`
	XPGained    int               `json:"xp_gained"`
	LeveledUp   bool              `json:"leveled_up"`
	NewLevel    int               `json:"new_level"`
}

// AchievementEngine unlocks achievements whose conditions are satisfied.
type AchievementEngine struct {
	profiles     ProfileStore
	achievements AchievementStore
	completions  CompletionReader
	habits       HabitReader
	tx           Transactor
	now          Clock
}

func NewAchievementEngine(profiles ProfileStore, achievements AchievementStore, completions CompletionReader, habits HabitReader) *AchievementEngine {
	return &AchievementEngine{
		profiles:     profiles,
		achievements: achievements,
		completions:  completions,
		habits:       habits,
		tx:           noTransactor{},
		now:          time.Now,
	}
}

// WithTransactor makes each unlock and its reward grant a single atomic unit.
func (e *AchievementEngine) WithTransactor(tx Transactor) *AchievementEngine {
	e.tx = tx
	return e
}

// WithClock replaces the engine's time source.
func (e *AchievementEngine) WithClock(clock Clock) *AchievementEngine {
	e.now = clock
	return e
}

// EvaluateForUser checks every locked achievement of the user and unlocks the
// satisfied ones, granting their reward XP. Calling it again without new
// completions returns an empty list. A malformed condition is logged and
// skipped; collaborator failures abort the evaluation.
func (e *AchievementEngine) EvaluateForUser(ctx context.Context, userID string) ([]UnlockResult, error) {
	profile, err := e.profiles.ReadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	locked, err := e.achievements.ListLocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list locked achievements: %w", err)
	}

	results := []UnlockResult{}
	if len(locked) == 0 {
		return results, nil
	}

	scope := &evaluationScope{engine: e, userID: userID, now: e.now(), records: map[model.Window][]model.HabitCompletion{}}

	// XP granted by one unlock can satisfy level or XP conditions that were
	// already checked, so passes repeat until nothing changes.
	remaining := locked
	for len(remaining) > 0 {
		var next []model.Achievement
		grantedXP := false

		for _, achievement := range remaining {
			ok, err := scope.satisfied(ctx, achievement, profile)
			if err != nil {
				var evalErr *EvaluationError
				if errors.As(err, &evalErr) {
					log.WithFields(log.Fields{
						"user_id":        userID,
						"achievement_id": achievement.ID,
						"error":          err.Error(),
					}).Warn("Skipping achievement with malformed condition")
					continue
				}
				return results, err
			}
			if !ok {
				next = append(next, achievement)
				continue
			}

			result, unlocked, err := e.unlock(ctx, profile, achievement, scope.now)
			if err != nil {
				return results, err
			}
			if !unlocked {
				continue
			}
			if result.XPGained > 0 {
				grantedXP = true
			}
			results = append(results, result)
		}

		if !grantedXP {
			break
		}
		remaining = next
	}

	return results, nil
}

// unlock performs the conditional unlock and grants the reward in one atomic
// unit, so a failed grant leaves the achievement locked for the next
// evaluation. A lost race is not an error: unlocked is false and nothing is
// granted.
func (e *AchievementEngine) unlock(ctx context.Context, profile *Profile, achievement model.Achievement, now time.Time) (UnlockResult, bool, error) {
	var (
		won bool
		xp  XPResult
	)
	err := e.tx.Atomic(ctx, func(ctx context.Context) error {
		ok, err := e.achievements.TryUnlock(ctx, achievement.ID, now)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				return nil
			}
			return fmt.Errorf("unlock achievement %s: %w", achievement.ID, err)
		}
		won = ok
		if !ok || achievement.RewardXP <= 0 {
			return nil
		}
		xp, err = e.profiles.AddXP(ctx, profile.UserID, achievement.RewardXP)
		if err != nil {
			return fmt.Errorf("grant reward for %s: %w", achievement.ID, err)
		}
		return nil
	})
	if err != nil {
		return UnlockResult{}, false, err
	}
	if !won {
		log.WithFields(log.Fields{
			"user_id":        profile.UserID,
			"achievement_id": achievement.ID,
		}).Debug("Achievement already unlocked by a concurrent evaluation")
		return UnlockResult{}, false, nil
	}

	unlockedAt := now
	achievement.UnlockedAt = &unlockedAt
	result := UnlockResult{Achievement: achievement, NewLevel: profile.Level}

	if achievement.RewardXP > 0 {
		profile.XP = xp.NewXP
		profile.Level = xp.NewLevel
		result.XPGained = achievement.RewardXP
		result.LeveledUp = xp.LeveledUp
		result.NewLevel = xp.NewLevel
	}

	log.WithFields(log.Fields{
		"user_id":        profile.UserID,
		"achievement_id": achievement.ID,
		"xp_gained":      result.XPGained,
		"leveled_up":     result.LeveledUp,
	}).Info("Achievement unlocked")

	return result, true, nil
}

// AchievementProgress is how far a locked achievement is from unlocking.
// Measurable is false when its metric cannot be computed yet, for example a
// ratio condition without active habits.
type AchievementProgress struct {
	Achievement model.Achievement `json:"achievement"`
	Current     int               `json:"current"`
	Target      int               `json:"target"`
	Percent     int               `json:"percent"`
	Measurable  bool              `json:"measurable"`
}

// ProgressForUser measures every locked achievement of the user against its
// threshold. Nothing is unlocked or granted. Malformed and unknown conditions
// are left out.
func (e *AchievementEngine) ProgressForUser(ctx context.Context, userID string) ([]AchievementProgress, error) {
	profile, err := e.profiles.ReadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	locked, err := e.achievements.ListLocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list locked achievements: %w", err)
	}

	scope := &evaluationScope{engine: e, userID: userID, now: e.now(), records: map[model.Window][]model.HabitCompletion{}}
	progress := make([]AchievementProgress, 0, len(locked))
	for _, achievement := range locked {
		mc, known, err := scope.contextFor(ctx, achievement, profile)
		if err != nil {
			var evalErr *EvaluationError
			if errors.As(err, &evalErr) {
				continue
			}
			return nil, err
		}
		if !known {
			continue
		}

		p := AchievementProgress{Achievement: achievement, Target: achievement.Condition.Threshold}
		p.Current, p.Measurable = Measure(achievement.Condition, mc)
		p.Percent = progressPercent(p.Current, p.Target)
		progress = append(progress, p)
	}
	return progress, nil
}

func progressPercent(current, target int) int {
	if target <= 0 {
		return 100
	}
	if current <= 0 {
		return 0
	}
	if current >= target {
		return 100
	}
	return current * 100 / target
}

// ClosestToUnlock returns at most n measurable entries, nearest to unlocking
// first. Ties go to the larger reward.
func ClosestToUnlock(progress []AchievementProgress, n int) []AchievementProgress {
	closest := make([]AchievementProgress, 0, len(progress))
	for _, p := range progress {
		if p.Measurable {
			closest = append(closest, p)
		}
	}
	sort.SliceStable(closest, func(i, j int) bool {
		a, b := closest[i], closest[j]
		if a.Percent != b.Percent {
			return a.Percent > b.Percent
		}
		if a.Achievement.RewardXP != b.Achievement.RewardXP {
			return a.Achievement.RewardXP > b.Achievement.RewardXP
		}
		return a.Achievement.Key < b.Achievement.Key
	})
	if n >= 0 && len(closest) > n {
		closest = closest[:n]
	}
	return closest
}

// evaluationScope caches collaborator reads for a single EvaluateForUser call.
type evaluationScope struct {
	engine  *AchievementEngine
	userID  string
	now     time.Time
	records map[model.Window][]model.HabitCompletion
	habits  []model.Habit
	loaded  bool
}

func (s *evaluationScope) satisfied(ctx context.Context, achievement model.Achievement, profile *Profile) (bool, error) {
	mc, known, err := s.contextFor(ctx, achievement, profile)
	if err != nil || !known {
		return false, err
	}
	return Evaluate(achievement.Condition, mc), nil
}

// contextFor loads what the achievement's condition is measured against.
// known is false for unrecognised kinds.
func (s *evaluationScope) contextFor(ctx context.Context, achievement model.Achievement, profile *Profile) (MetricContext, bool, error) {
	cond := achievement.Condition
	if err := ValidateCondition(cond); err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			evalErr.AchievementID = achievement.ID
		}
		return MetricContext{}, false, err
	}
	if !cond.Kind.IsValid() {
		return MetricContext{}, false, nil
	}

	window := EffectiveWindow(cond)
	mc := MetricContext{
		Profile:     profile,
		WindowStart: WindowStart(window, s.now),
		Now:         s.now,
	}

	if NeedsRecords(cond) {
		records, err := s.recordsFor(ctx, window)
		if err != nil {
			return MetricContext{}, false, err
		}
		habits, err := s.activeHabits(ctx)
		if err != nil {
			return MetricContext{}, false, err
		}
		mc.Records = records
		mc.Habits = habits
	}

	return mc, true, nil
}

func (s *evaluationScope) recordsFor(ctx context.Context, window model.Window) ([]model.HabitCompletion, error) {
	if records, ok := s.records[window]; ok {
		return records, nil
	}
	records, err := s.engine.completions.FetchCompletions(ctx, s.userID, WindowStart(window, s.now), s.now)
	if err != nil {
		return nil, fmt.Errorf("fetch completions: %w", err)
	}
	s.records[window] = records
	return records, nil
}

func (s *evaluationScope) activeHabits(ctx context.Context) ([]model.Habit, error) {
	if s.loaded {
		return s.habits, nil
	}
	habits, err := s.engine.habits.FetchActiveHabits(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("fetch active habits: %w", err)
	}
	s.habits = habits
	s.loaded = true
	return habits, nil
}

// AchievementStats summarises a user's achievements.
type AchievementStats struct {
	Total      int                        `json:"total"`
	Unlocked   int                        `json:"unlocked"`
	Locked     int                        `json:"locked"`
	Percent    int                        `json:"percent"`
	XPEarned   int                        `json:"xp_earned"`
	ByRarity   map[model.Rarity]StatCount `json:"by_rarity"`
	ByCategory map[string]StatCount       `json:"by_category"`
}

type StatCount struct {
	Total    int `json:"total"`
	Unlocked int `json:"unlocked"`
}

// SummarizeAchievements computes AchievementStats over a full achievement list.
func SummarizeAchievements(achievements []model.Achievement) AchievementStats {
	stats := AchievementStats{
		Total:      len(achievements),
		ByRarity:   map[model.Rarity]StatCount{},
		ByCategory: map[string]StatCount{},
	}

	for _, a := range achievements {
		rarity := stats.ByRarity[a.Rarity]
		category := stats.ByCategory[a.Category]
		rarity.Total++
		category.Total++
		if a.IsUnlocked() {
			stats.Unlocked++
			stats.XPEarned += a.RewardXP
			rarity.Unlocked++
			category.Unlocked++
		}
		stats.ByRarity[a.Rarity] = rarity
		stats.ByCategory[a.Category] = category
	}

	stats.Locked = stats.Total - stats.Unlocked
	if stats.Total > 0 {
		stats.Percent = stats.Unlocked * 100 / stats.Total
	}
	return stats
}
