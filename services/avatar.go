package services

import (
	"context"
	"errors"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
)

type AvatarService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	progressSvc   *ProgressService
	minioSvc      *MinIOService
	monitoringSvc *MonitoringService

	engine *engine.AvatarEngine
}

const AVATAR_SVC = "avatar_svc"

func (svc AvatarService) Id() string {
	return AVATAR_SVC
}

func (svc *AvatarService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *AvatarService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.minioSvc, _ = svc.Service(MINIO_SVC).(*MinIOService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.engine = engine.NewAvatarEngine(svc.progressSvc.ProfileStore(), svc.dbSvc.Achievements())
	return nil
}

// EvaluateAvatar re-derives avatar and equipment from the user's progress and
// returns one event per upgrade.
func (svc *AvatarService) EvaluateAvatar(ctx context.Context, userID string) ([]engine.ChangeEvent, error) {
	events, err := svc.engine.EvaluateForUser(ctx, userID)
	svc.monitoringSvc.RecordEvaluation("avatar", err)
	if err != nil {
		return nil, err
	}

	svc.monitoringSvc.RecordAvatarChanges(events)
	if len(events) > 0 {
		log.WithFields(log.Fields{
			"user_id": userID,
			"changes": len(events),
		}).Info("Avatar upgraded")
	}
	return events, nil
}

func (svc *AvatarService) GetAvatar(ctx context.Context, userID string) (*dto.AvatarResponse, error) {
	profile, err := svc.dbSvc.Profiles().ReadProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load avatar")
	}

	theme := engine.ThemeFor(profile.Avatar.Kind)
	count := engine.CountEquipment(profile.Equipment)
	resp := &dto.AvatarResponse{
		UserID:    userID,
		Avatar:    profile.Avatar,
		Equipment: profile.Equipment,
		EquipmentCount: dto.EquipmentCountResponse{
			Total:  count.Total,
			ByTier: count.ByTier,
		},
		Theme: dto.ThemeResponse{
			Primary:   theme.Primary,
			Secondary: theme.Secondary,
			Accent:    theme.Accent,
			Gradient:  theme.Gradient,
		},
		Level: profile.Level,
		Title: engine.TitleForLevel(profile.Level),
	}

	if next := engine.NextEvolution(profile.Avatar.Kind); next != nil {
		togo := next.MinLevel - profile.Level
		if togo < 0 {
			togo = 0
		}
		resp.NextEvolution = &dto.NextEvolutionResponse{
			Kind:       next.Kind,
			Name:       next.Name,
			MinLevel:   next.MinLevel,
			LevelsToGo: togo,
		}
	}

	url, err := svc.minioSvc.SpriteURL(ctx, profile.Avatar)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to sign avatar sprite URL")
	}
	resp.SpriteURL = url

	return resp, nil
}

// GetNextUnlocks lists the evolution and equipment upgrades still ahead.
func (svc *AvatarService) GetNextUnlocks(ctx context.Context, userID string) (*dto.NextUnlocksResponse, error) {
	profile, err := svc.dbSvc.Profiles().ReadProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to load avatar")
	}
	counts, err := svc.dbSvc.Achievements().CountUnlocked(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to count achievements")
	}

	unlocks := engine.NextUnlocks(profile, counts)
	return &dto.NextUnlocksResponse{Unlocks: unlocks, Total: len(unlocks)}, nil
}

func (svc *AvatarService) RunEvaluation(ctx context.Context, userID string) (*dto.EvaluateAvatarResponse, error) {
	resp := &dto.EvaluateAvatarResponse{Changes: []dto.AvatarChange{}}
	_, err := svc.progressSvc.WithUserLock(ctx, userID, true, func(ctx context.Context) error {
		events, err := svc.EvaluateAvatar(ctx, userID)
		if err != nil {
			return err
		}
		resp.Changes = dto.NewAvatarChanges(events)
		return nil
	})
	if err != nil {
		return nil, err
	}

	avatar, err := svc.GetAvatar(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp.Avatar = *avatar
	return resp, nil
}
