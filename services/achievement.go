package services

import (
	"context"
	"errors"
	"strings"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
)

type AchievementService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	progressSvc   *ProgressService
	monitoringSvc *MonitoringService

	engine *engine.AchievementEngine
}

const ACHIEVEMENT_SVC = "achievement_svc"

func (svc AchievementService) Id() string {
	return ACHIEVEMENT_SVC
}

func (svc *AchievementService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AchievementService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	habits := svc.dbSvc.Habits()
	svc.engine = engine.NewAchievementEngine(svc.progressSvc.ProfileStore(), svc.dbSvc.Achievements(), habits, habits).
		WithTransactor(svc.dbSvc.Transactor())
	return nil
}

// EvaluateAchievements unlocks every achievement the user now satisfies and
// grants its reward.
func (svc *AchievementService) EvaluateAchievements(ctx context.Context, userID string) ([]engine.UnlockResult, error) {
	results, err := svc.engine.EvaluateForUser(ctx, userID)
	svc.monitoringSvc.RecordEvaluation("achievement", err)
	if err != nil {
		return nil, err
	}

	svc.monitoringSvc.RecordUnlocks(results)
	if len(results) > 0 {
		log.WithFields(log.Fields{
			"user_id":  userID,
			"unlocked": len(results),
		}).Info("Achievements unlocked")
	}
	return results, nil
}

func (svc *AchievementService) ListAchievements(ctx context.Context, userID string, unlocked *bool) ([]model.Achievement, error) {
	achievements, err := svc.dbSvc.Achievements().ListAchievements(ctx, userID, unlocked)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list achievements")
	}
	return achievements, nil
}

func (svc *AchievementService) GetStats(ctx context.Context, userID string) (*engine.AchievementStats, error) {
	achievements, err := svc.dbSvc.Achievements().ListAchievements(ctx, userID, nil)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load achievements")
	}
	stats := engine.SummarizeAchievements(achievements)
	return &stats, nil
}

// GetProgress measures every locked achievement without unlocking it.
func (svc *AchievementService) GetProgress(ctx context.Context, userID string) ([]engine.AchievementProgress, error) {
	progress, err := svc.engine.ProgressForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to measure achievements")
	}
	return progress, nil
}

// GetNextAchievements returns the locked achievements closest to unlocking.
func (svc *AchievementService) GetNextAchievements(ctx context.Context, userID string, limit int) ([]engine.AchievementProgress, error) {
	if limit <= 0 || limit > shared.MaxNextAchievements {
		limit = shared.DefaultNextAchievements
	}
	progress, err := svc.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	return engine.ClosestToUnlock(progress, limit), nil
}

func (svc *AchievementService) CreateCustomAchievement(ctx context.Context, userID string, req dto.CreateAchievementRequest) (*model.Achievement, error) {
	window := model.Window(req.Window)
	if window == "" {
		window = model.WindowTotal
	}

	key := "custom_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	achievement, err := engine.NewCustomAchievement(userID, key, engine.CustomAchievement{
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		Rarity:      model.Rarity(req.Rarity),
		Condition: model.Condition{
			Kind:      model.ConditionKind(req.Kind),
			Threshold: req.Threshold,
			Window:    window,
		},
		RewardXP: req.RewardXP,
	})
	if err != nil {
		return nil, shared.NewBadRequestError(err, err.Error())
	}

	if err := svc.dbSvc.Achievements().CreateCustom(ctx, achievement); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			return nil, shared.NewConflictError(err, "Achievement already exists")
		}
		return nil, shared.NewInternalError(err, "Failed to create achievement")
	}

	log.WithFields(log.Fields{"user_id": userID, "key": achievement.Key}).Info("Custom achievement created")
	return achievement, nil
}

// SeedCatalog gives the user any catalog entries added since they registered.
func (svc *AchievementService) SeedCatalog(ctx context.Context, userID string) (int64, error) {
	return svc.dbSvc.Achievements().SeedCatalog(ctx, userID, engine.DefaultCatalog())
}

// RunEvaluation evaluates the user on request, waiting briefly for a running
// scheduled evaluation to finish.
func (svc *AchievementService) RunEvaluation(ctx context.Context, userID string) (*dto.EvaluateAchievementsResponse, error) {
	resp := &dto.EvaluateAchievementsResponse{Unlocked: []dto.UnlockedAchievement{}}
	_, err := svc.progressSvc.WithUserLock(ctx, userID, true, func(ctx context.Context) error {
		results, err := svc.EvaluateAchievements(ctx, userID)
		if err != nil {
			return err
		}
		resp.Unlocked = dto.NewUnlockedAchievements(results)
		for _, r := range results {
			resp.XPGained += r.XPGained
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
