package services

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// SweepReport summarizes one pass over all users.
type SweepReport struct {
	Processed      int           `json:"processed"`
	Skipped        int           `json:"skipped"`
	Failed         int           `json:"failed"`
	Unlocked       int           `json:"unlocked"`
	AvatarChanges  int           `json:"avatar_changes"`
	ExpiredBattles int           `json:"expired_battles"`
	Duration       time.Duration `json:"duration"`
}

// SchedulerService periodically re-evaluates every user's achievements and
// avatar and expires stale battle invitations.
type SchedulerService struct {
	appContext.DefaultService

	dbSvc          *DatabaseService
	redisSvc       *RedisService
	progressSvc    *ProgressService
	achievementSvc *AchievementService
	avatarSvc      *AvatarService
	battleSvc      *BattleService
	monitoringSvc  *MonitoringService

	cfg     engine.SchedulerConfig
	limiter *rate.Limiter

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

const SCHEDULER_SVC = "scheduler_svc"

func (svc *SchedulerService) Id() string {
	return SCHEDULER_SVC
}

func (svc *SchedulerService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *SchedulerService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.redisSvc, _ = svc.Service(REDIS_SVC).(*RedisService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.achievementSvc = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.avatarSvc = svc.Service(AVATAR_SVC).(*AvatarService)
	svc.battleSvc = svc.Service(BATTLE_SVC).(*BattleService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.cfg = engine.DefaultConfig().Scheduler
	if configSvc, ok := svc.Service(CONFIG_SVC).(*ConfigService); ok && configSvc != nil {
		svc.cfg = configSvc.Engine().Scheduler
	}
	svc.limiter = newUserLimiter(svc.cfg.UsersPerSecond, svc.cfg.Concurrency)

	ctx, cancel := context.WithCancel(context.Background())
	svc.cancel = cancel
	svc.done = make(chan struct{})

	interval := time.Duration(svc.cfg.IntervalSeconds) * time.Second
	go svc.loop(ctx, interval)

	log.Info().
		Dur("interval", interval).
		Int("batch_size", svc.cfg.BatchSize).
		Int("concurrency", svc.cfg.Concurrency).
		Float64("users_per_second", svc.cfg.UsersPerSecond).
		Msg("Scheduler started")
	return nil
}

func (svc *SchedulerService) Shutdown() {
	if svc.cancel != nil {
		svc.cancel()
		<-svc.done
	}
}

func newUserLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (svc *SchedulerService) loop(ctx context.Context, interval time.Duration) {
	defer close(svc.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := svc.RunSweep(ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("Scheduler sweep failed")
				}
				continue
			}
			if report != nil {
				log.Info().
					Int("processed", report.Processed).
					Int("skipped", report.Skipped).
					Int("failed", report.Failed).
					Int("unlocked", report.Unlocked).
					Int("avatar_changes", report.AvatarChanges).
					Int("expired_battles", report.ExpiredBattles).
					Dur("duration", report.Duration).
					Msg("Scheduler sweep finished")
			}
		}
	}
}

// RunSweep makes one pass over all users. It returns a nil report when another
// instance holds the sweep lock.
func (svc *SchedulerService) RunSweep(ctx context.Context) (*SweepReport, error) {
	if !svc.running.CompareAndSwap(false, true) {
		return nil, nil
	}
	defer svc.running.Store(false)

	if svc.redisSvc.Available() {
		ttl := time.Duration(svc.cfg.IntervalSeconds) * time.Second
		token, ok, err := svc.redisSvc.AcquireLock(ctx, shared.SchedulerLockKey, ttl)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("Sweep lock unavailable, sweeping unlocked")
		case !ok:
			log.Debug().Msg("Another instance is sweeping")
			return nil, nil
		default:
			defer func() {
				if err := svc.redisSvc.ReleaseLock(context.Background(), shared.SchedulerLockKey, token); err != nil {
					log.Warn().Err(err).Msg("Failed to release sweep lock")
				}
			}()
		}
	}

	start := time.Now()
	report := &SweepReport{}

	expired, err := svc.battleSvc.ExpireStale(ctx, svc.cfg.BatchSize)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to expire stale battles")
	}
	report.ExpiredBattles = expired

	var processed, skipped, failed, unlocked, changes atomic.Int64

	for offset := 0; ; offset += svc.cfg.BatchSize {
		ids, err := svc.dbSvc.Users().ListUserIDs(ctx, offset, svc.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(svc.cfg.Concurrency)

		for _, id := range ids {
			userID := id
			if err := svc.limiter.Wait(gctx); err != nil {
				break
			}
			g.Go(func() error {
				ran, u, c, err := svc.evaluateUser(gctx, userID)
				switch {
				case err != nil:
					failed.Add(1)
					log.Warn().Err(err).Str("user_id", userID).Msg("Scheduled evaluation failed")
				case !ran:
					skipped.Add(1)
				default:
					processed.Add(1)
					unlocked.Add(int64(u))
					changes.Add(int64(c))
				}
				// One user's failure never aborts the sweep.
				return nil
			})
		}
		_ = g.Wait()

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if len(ids) < svc.cfg.BatchSize {
			break
		}
	}

	report.Processed = int(processed.Load())
	report.Skipped = int(skipped.Load())
	report.Failed = int(failed.Load())
	report.Unlocked = int(unlocked.Load())
	report.AvatarChanges = int(changes.Load())
	report.Duration = time.Since(start)

	svc.monitoringSvc.RecordSweep(report.Duration, report.Processed, report.Skipped, report.Failed)
	return report, nil
}

// evaluateUser runs both engines for one user under the evaluation lock.
// ran is false when the lock was busy.
func (svc *SchedulerService) evaluateUser(ctx context.Context, userID string) (ran bool, unlocked, changes int, err error) {
	ran, err = svc.progressSvc.WithUserLock(ctx, userID, false, func(ctx context.Context) error {
		results, err := svc.achievementSvc.EvaluateAchievements(ctx, userID)
		if err != nil {
			return err
		}
		unlocked = len(results)

		events, err := svc.avatarSvc.EvaluateAvatar(ctx, userID)
		if err != nil {
			return err
		}
		changes = len(events)
		return nil
	})
	return ran, unlocked, changes, err
}
