package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/services/repositories"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
)

const (
	profileCacheTTL   = 30 * time.Second
	lockRetryInterval = 100 * time.Millisecond
	lockWaitBudget    = 2 * time.Second
)

// ProgressService owns XP, rank and the leaderboard. Every XP grant in the
// process goes through its ProfileStore so the leaderboard stays in sync.
type ProgressService struct {
	appContext.DefaultService

	dbSvc         *DatabaseService
	redisSvc      *RedisService
	monitoringSvc *MonitoringService

	lockTTL time.Duration
}

const PROGRESS_SVC = "progress_svc"

func (svc ProgressService) Id() string {
	return PROGRESS_SVC
}

func (svc *ProgressService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ProgressService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.lockTTL = 30 * time.Second
	if cfg, ok := svc.Service(CONFIG_SVC).(*ConfigService); ok && cfg != nil {
		svc.lockTTL = time.Duration(cfg.Engine().Scheduler.LockTTLSeconds) * time.Second
	}

	if svc.redisSvc.Available() {
		go func() {
			if err := svc.RebuildLeaderboard(context.Background(), false); err != nil {
				log.WithError(err).Warn("Failed to rebuild leaderboard cache")
			}
		}()
	}
	return nil
}

// ProfileStore returns the progress store used by every engine.
func (svc *ProgressService) ProfileStore() engine.ProfileStore {
	return &syncedProfileStore{ProfileStore: svc.dbSvc.Profiles(), progressSvc: svc}
}

// syncedProfileStore mirrors every XP change to the leaderboard and drops the
// cached profile.
type syncedProfileStore struct {
	engine.ProfileStore
	progressSvc *ProgressService
}

func (s *syncedProfileStore) AddXP(ctx context.Context, userID string, amount int) (engine.XPResult, error) {
	result, err := s.ProfileStore.AddXP(ctx, userID, amount)
	if err != nil {
		return result, err
	}
	repositories.AfterCommit(ctx, func() {
		s.progressSvc.SyncLeaderboard(context.WithoutCancel(ctx), userID, result.NewXP)
	})
	return result, nil
}

// AddXP grants amount to userID and records the source in metrics.
func (svc *ProgressService) AddXP(ctx context.Context, userID string, amount int, source string) (engine.XPResult, error) {
	result, err := svc.ProfileStore().AddXP(ctx, userID, amount)
	if err != nil {
		return result, err
	}
	svc.monitoringSvc.RecordXP(source, amount)
	return result, nil
}

// SyncLeaderboard writes xp into the sorted set. Failures only degrade the
// cache and are logged.
func (svc *ProgressService) SyncLeaderboard(ctx context.Context, userID string, xp int) {
	if !svc.redisSvc.Available() {
		return
	}
	if err := svc.redisSvc.ZAdd(ctx, shared.LeaderboardKey, float64(xp), userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to update leaderboard cache")
	}
	if err := svc.redisSvc.Delete(ctx, fmt.Sprintf(shared.ProfileCacheKey, userID)); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Failed to drop cached profile")
	}
}

// RebuildLeaderboard loads every user's XP into the sorted set. Unless force
// is set it does nothing when the set is already populated.
func (svc *ProgressService) RebuildLeaderboard(ctx context.Context, force bool) error {
	if !svc.redisSvc.Available() {
		return nil
	}

	if !force {
		count, err := svc.redisSvc.ZCard(ctx, shared.LeaderboardKey)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
	}

	const pageSize = 500
	total := 0
	for offset := 0; ; offset += pageSize {
		rows, err := svc.dbSvc.Profiles().ListXPPage(ctx, offset, pageSize)
		if err != nil {
			return svc.dbSvc.HandleError(err)
		}
		for _, row := range rows {
			if err := svc.redisSvc.ZAdd(ctx, shared.LeaderboardKey, float64(row.XP), row.UserID); err != nil {
				return err
			}
		}
		total += len(rows)
		if len(rows) < pageSize {
			break
		}
	}

	log.WithField("users", total).Info("Leaderboard cache rebuilt")
	return nil
}

// ==================== PROFILE ====================

func (svc *ProgressService) GetUserProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
	cacheKey := fmt.Sprintf(shared.ProfileCacheKey, userID)
	if svc.redisSvc.Available() {
		var cached dto.UserProfileResponse
		if hit, err := svc.redisSvc.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	user, err := svc.dbSvc.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to get user profile")
	}

	progress, err := svc.dbSvc.Profiles().GetProgress(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get user progress")
	}

	rank, err := svc.rankFor(ctx, userID, progress.XP)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to get user rank")
	}

	resp := &dto.UserProfileResponse{
		UserID:        user.ID,
		Email:         user.Email,
		Username:      user.Username,
		JoinedAt:      user.CreatedAt,
		LastLoginAt:   user.LastLogin,
		XP:            progress.XP,
		Level:         progress.Level,
		XPToNextLevel: engine.XPToNextLevel(progress.XP),
		Title:         engine.TitleForLevel(progress.Level),
		Rank:          rank,
		CurrentStreak: progress.CurrentStreak,
		LongestStreak: progress.LongestStreak,
		LastActivity:  progress.LastActivityDate,
	}

	if svc.redisSvc.Available() {
		if err := svc.redisSvc.Set(ctx, cacheKey, resp, profileCacheTTL); err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("Failed to cache profile")
		}
	}
	return resp, nil
}

// RecordActivity advances the streak for day and drops the cached profile.
func (svc *ProgressService) RecordActivity(ctx context.Context, userID string, day time.Time) (model.StreakRecord, error) {
	streak, err := svc.dbSvc.Profiles().RecordActivity(ctx, userID, day)
	if err != nil {
		return streak, err
	}
	if svc.redisSvc.Available() {
		_ = svc.redisSvc.Delete(ctx, fmt.Sprintf(shared.ProfileCacheKey, userID))
	}
	return streak, nil
}

// ==================== LEADERBOARD ====================

func (svc *ProgressService) GetLeaderboard(ctx context.Context, limit int, currentUserID string) (*dto.LeaderboardResponse, error) {
	if limit <= 0 {
		limit = shared.DefaultLeaderboardLimit
	}
	if limit > shared.MaxLeaderboardLimit {
		limit = shared.MaxLeaderboardLimit
	}

	resp, err := svc.leaderboardFromCache(ctx, limit)
	if err != nil {
		log.WithError(err).Warn("Leaderboard cache unavailable, falling back to database")
	}
	if resp == nil {
		resp, err = svc.leaderboardFromDatabase(ctx, limit)
		if err != nil {
			return nil, shared.NewInternalError(err, "Failed to get leaderboard")
		}
	}

	if currentUserID != "" {
		for i := range resp.TopUsers {
			if resp.TopUsers[i].UserID == currentUserID {
				entry := resp.TopUsers[i]
				resp.CurrentUser = &entry
				break
			}
		}
		if resp.CurrentUser == nil {
			resp.CurrentUser = svc.leaderboardEntry(ctx, currentUserID)
		}
	}

	return resp, nil
}

func (svc *ProgressService) leaderboardFromCache(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	if !svc.redisSvc.Available() {
		return nil, nil
	}

	entries, err := svc.redisSvc.ZRevRangeWithScores(ctx, shared.LeaderboardKey, 0, int64(limit-1))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if id, ok := e.Member.(string); ok {
			ids = append(ids, id)
		}
	}
	names, err := svc.dbSvc.Users().GetUsernames(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := &dto.LeaderboardResponse{Source: shared.LeaderboardSourceCache, TopUsers: make([]dto.LeaderboardUserResponse, 0, len(entries))}
	rank := 0
	prevXP := -1
	for i, e := range entries {
		id, _ := e.Member.(string)
		username, ok := names[id]
		if !ok {
			// Deleted users linger in the set until the next rebuild.
			continue
		}
		xp := int(e.Score)
		if xp != prevXP {
			rank = i + 1
			prevXP = xp
		}
		level := engine.LevelForXP(xp)
		resp.TopUsers = append(resp.TopUsers, dto.LeaderboardUserResponse{
			UserID:   id,
			Username: username,
			XP:       xp,
			Level:    level,
			Rank:     rank,
			Title:    engine.TitleForLevel(level),
		})
	}
	return resp, nil
}

func (svc *ProgressService) leaderboardFromDatabase(ctx context.Context, limit int) (*dto.LeaderboardResponse, error) {
	rows, err := svc.dbSvc.Profiles().GetTopByXP(ctx, limit)
	if err != nil {
		return nil, err
	}

	resp := &dto.LeaderboardResponse{Source: shared.LeaderboardSourceDatabase, TopUsers: make([]dto.LeaderboardUserResponse, 0, len(rows))}
	rank := 0
	prevXP := -1
	for i, row := range rows {
		if row.XP != prevXP {
			rank = i + 1
			prevXP = row.XP
		}
		resp.TopUsers = append(resp.TopUsers, dto.LeaderboardUserResponse{
			UserID:   row.UserID,
			Username: row.Username,
			XP:       row.XP,
			Level:    row.Level,
			Rank:     rank,
			Title:    engine.TitleForLevel(row.Level),
		})
	}
	return resp, nil
}

func (svc *ProgressService) leaderboardEntry(ctx context.Context, userID string) *dto.LeaderboardUserResponse {
	user, err := svc.dbSvc.Users().GetUserByID(ctx, userID)
	if err != nil {
		return nil
	}
	progress, err := svc.dbSvc.Profiles().GetProgress(ctx, userID)
	if err != nil {
		return nil
	}
	rank, err := svc.rankFor(ctx, userID, progress.XP)
	if err != nil {
		return nil
	}
	return &dto.LeaderboardUserResponse{
		UserID:   userID,
		Username: user.Username,
		XP:       progress.XP,
		Level:    progress.Level,
		Rank:     rank,
		Title:    engine.TitleForLevel(progress.Level),
	}
}

// rankFor is one plus the number of players with more XP. The sorted set
// answers when it is populated; otherwise the database does.
func (svc *ProgressService) rankFor(ctx context.Context, userID string, xp int) (int, error) {
	if svc.redisSvc.Available() {
		ahead, err := svc.redisSvc.ZCountAbove(ctx, shared.LeaderboardKey, float64(xp))
		if err == nil {
			return int(ahead) + 1, nil
		}
		log.WithError(err).WithField("user_id", userID).Debug("Leaderboard cache rank failed, using database")
	}
	return svc.dbSvc.Profiles().GetUserRank(ctx, userID)
}

// ==================== EVALUATION LOCK ====================

// WithUserLock runs fn while holding the user's evaluation lock. With wait
// unset it returns false without running fn when the lock is taken. With wait
// set it polls briefly and then runs fn unlocked; the stores' conditional
// writes keep that safe.
func (svc *ProgressService) WithUserLock(ctx context.Context, userID string, wait bool, fn func(ctx context.Context) error) (bool, error) {
	if !svc.redisSvc.Available() {
		return true, fn(ctx)
	}

	key := fmt.Sprintf(shared.EvaluationLockKey, userID)
	deadline := time.Now().Add(lockWaitBudget)

	for {
		token, ok, err := svc.redisSvc.AcquireLock(ctx, key, svc.lockTTL)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Evaluation lock unavailable, continuing unlocked")
			return true, fn(ctx)
		}
		if ok {
			defer func() {
				if err := svc.redisSvc.ReleaseLock(context.Background(), key, token); err != nil {
					log.WithError(err).WithField("user_id", userID).Warn("Failed to release evaluation lock")
				}
			}()
			return true, fn(ctx)
		}
		if !wait {
			return false, nil
		}
		if time.Now().After(deadline) {
			log.WithField("user_id", userID).Debug("Evaluation lock busy, continuing unlocked")
			return true, fn(ctx)
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}
}
