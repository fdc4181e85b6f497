package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
)

type HabitService struct {
	appContext.DefaultService

	dbSvc          *DatabaseService
	progressSvc    *ProgressService
	achievementSvc *AchievementService
	avatarSvc      *AvatarService

	now engine.Clock
}

const HABIT_SVC = "habit_svc"

func (svc HabitService) Id() string {
	return HABIT_SVC
}

func (svc *HabitService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *HabitService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.achievementSvc = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.avatarSvc = svc.Service(AVATAR_SVC).(*AvatarService)
	return nil
}

func (svc *HabitService) CreateHabit(ctx context.Context, userID string, req dto.CreateHabitRequest) (*model.Habit, error) {
	habit := &model.Habit{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    model.Category(req.Category),
		Frequency:   model.Frequency(req.Frequency),
		Difficulty:  model.Difficulty(req.Difficulty),
	}
	if habit.Frequency == "" {
		habit.Frequency = model.FrequencyDaily
	}
	if habit.Difficulty == "" {
		habit.Difficulty = model.DifficultyEasy
	}

	if err := svc.dbSvc.Habits().CreateHabit(ctx, habit); err != nil {
		return nil, shared.NewInternalError(svc.dbSvc.HandleError(err), "Failed to create habit")
	}
	return habit, nil
}

// UpdateHabit applies the fields present in req. Completions already logged
// keep the difficulty and XP they were recorded with.
func (svc *HabitService) UpdateHabit(ctx context.Context, userID, habitID string, req dto.UpdateHabitRequest) (*model.Habit, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, shared.NewBadRequestError(fmt.Errorf("empty habit name"), "Name must not be blank")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = model.Category(*req.Category)
	}
	if req.Frequency != nil {
		updates["frequency"] = model.Frequency(*req.Frequency)
	}
	if req.Difficulty != nil {
		updates["difficulty"] = model.Difficulty(*req.Difficulty)
	}
	if len(updates) == 0 {
		return nil, shared.NewBadRequestError(fmt.Errorf("no fields to update"), "Nothing to update")
	}

	if err := svc.dbSvc.Habits().UpdateHabit(ctx, userID, habitID, updates); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "Habit not found")
		}
		return nil, shared.NewInternalError(svc.dbSvc.HandleError(err), "Failed to update habit")
	}

	habit, err := svc.dbSvc.Habits().GetHabit(ctx, userID, habitID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load habit")
	}
	return habit, nil
}

func (svc *HabitService) ListHabits(ctx context.Context, userID string, includeInactive bool) ([]model.Habit, error) {
	habits, err := svc.dbSvc.Habits().ListHabits(ctx, userID, includeInactive)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list habits")
	}
	return habits, nil
}

func (svc *HabitService) DeactivateHabit(ctx context.Context, userID, habitID string) error {
	if err := svc.dbSvc.Habits().DeactivateHabit(ctx, userID, habitID); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return shared.NewNotFoundError(err, "Habit not found")
		}
		return shared.NewInternalError(err, "Failed to deactivate habit")
	}
	return nil
}

// ListCompletions returns the habit's log between from and to, inclusive.
func (svc *HabitService) ListCompletions(ctx context.Context, userID, habitID string, from, to time.Time) ([]model.HabitCompletion, error) {
	if _, err := svc.dbSvc.Habits().GetHabit(ctx, userID, habitID); err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "Habit not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load habit")
	}

	records, err := svc.dbSvc.Habits().FetchCompletions(ctx, userID, model.Midnight(from), model.Midnight(to))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load completions")
	}

	completions := make([]model.HabitCompletion, 0, len(records))
	for _, r := range records {
		if r.HabitID == habitID {
			completions = append(completions, r)
		}
	}
	return completions, nil
}

// CompletionXP is the XP a completion with status earns at difficulty.
func CompletionXP(difficulty model.Difficulty, status model.CompletionStatus) int {
	switch status {
	case model.StatusDone:
		return difficulty.XP()
	case model.StatusPartial:
		return difficulty.XP() / 2
	default:
		return 0
	}
}

// CompleteHabit records the day's outcome, grants its XP, advances the
// streak and then re-evaluates achievements and the avatar.
func (svc *HabitService) CompleteHabit(ctx context.Context, userID, habitID string, req dto.CompleteHabitRequest) (*dto.CompleteHabitResponse, error) {
	habit, err := svc.dbSvc.Habits().GetHabit(ctx, userID, habitID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "Habit not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load habit")
	}
	if !habit.IsActive {
		return nil, shared.NewConflictError(fmt.Errorf("habit %s is inactive", habitID), "Habit is inactive")
	}

	now := svc.now()
	day := model.Midnight(now)
	if req.Date != nil {
		// The requested calendar day is kept as written, whatever its offset.
		d := *req.Date
		day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, now.Location())
	}
	if day.After(model.Midnight(now)) {
		return nil, shared.NewBadRequestError(fmt.Errorf("date %s is in the future", day.Format(time.DateOnly)), "Cannot complete a habit in the future")
	}

	status := model.CompletionStatus(req.Status)
	if status == "" {
		status = model.StatusDone
	}

	completion := &model.HabitCompletion{
		HabitID:    habit.ID,
		UserID:     userID,
		Date:       day,
		Status:     status,
		XPAwarded:  CompletionXP(habit.Difficulty, status),
		Difficulty: habit.Difficulty,
		Category:   habit.Category,
	}
	if err := svc.dbSvc.Habits().CreateCompletion(ctx, completion); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			return nil, shared.NewConflictError(err, "Habit already recorded for this day")
		}
		return nil, shared.NewInternalError(svc.dbSvc.HandleError(err), "Failed to record completion")
	}

	resp := &dto.CompleteHabitResponse{
		Completion:   *completion,
		XPGained:     completion.XPAwarded,
		Achievements: []dto.UnlockedAchievement{},
		AvatarEvents: []dto.AvatarChange{},
	}

	if completion.XPAwarded > 0 {
		result, err := svc.progressSvc.AddXP(ctx, userID, completion.XPAwarded, "habit")
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to grant XP")
		}
		resp.NewXP = result.NewXP
		resp.NewLevel = result.NewLevel
		resp.LeveledUp = result.LeveledUp
	}

	if status == model.StatusDone {
		streak, err := svc.progressSvc.RecordActivity(ctx, userID, day)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to update streak")
		}
		resp.Streak = streak
	}

	// The completion is committed; evaluation failures are retried by the
	// scheduler and must not fail the request.
	_, err = svc.progressSvc.WithUserLock(ctx, userID, true, func(ctx context.Context) error {
		unlocked, err := svc.achievementSvc.EvaluateAchievements(ctx, userID)
		if err != nil {
			return err
		}
		resp.Achievements = dto.NewUnlockedAchievements(unlocked)

		events, err := svc.avatarSvc.EvaluateAvatar(ctx, userID)
		if err != nil {
			return err
		}
		resp.AvatarEvents = dto.NewAvatarChanges(events)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Post-completion evaluation failed")
	}

	if profile, err := svc.dbSvc.Profiles().GetProgress(ctx, userID); err == nil {
		resp.NewXP = profile.XP
		resp.NewLevel = profile.Level
		resp.Streak = profile.Streak()
	}

	return resp, nil
}
