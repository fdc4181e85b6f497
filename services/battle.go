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

type BattleService struct {
	appContext.DefaultService

	dbSvc          *DatabaseService
	progressSvc    *ProgressService
	achievementSvc *AchievementService
	avatarSvc      *AvatarService
	monitoringSvc  *MonitoringService

	engine *engine.BattleEngine
}

const BATTLE_SVC = "battle_svc"

func (svc BattleService) Id() string {
	return BATTLE_SVC
}

func (svc *BattleService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *BattleService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.achievementSvc = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.avatarSvc = svc.Service(AVATAR_SVC).(*AvatarService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	cfg := engine.DefaultConfig().Battle
	if configSvc, ok := svc.Service(CONFIG_SVC).(*ConfigService); ok && configSvc != nil {
		cfg = configSvc.Engine().Battle
	}

	svc.engine = engine.NewBattleEngine(svc.dbSvc.Battles(), svc.progressSvc.ProfileStore(), svc.dbSvc.Habits(), cfg).
		WithTransactor(svc.dbSvc.Transactor())
	return nil
}

func (svc *BattleService) CreateBattle(ctx context.Context, challengerID string, req dto.CreateBattleRequest) (*model.Battle, error) {
	exists, err := svc.dbSvc.Users().Exists(ctx, req.OpponentID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to look up opponent")
	}
	if !exists {
		return nil, shared.NewNotFoundError(engine.ErrNotFound, "Opponent not found")
	}

	criteria := make([]model.Criterion, 0, len(req.Criteria))
	for _, c := range req.Criteria {
		criteria = append(criteria, model.Criterion{
			Name:        c.Name,
			Description: c.Description,
			Weight:      c.Weight,
			Kind:        model.CriterionKind(c.Kind),
		})
	}

	battle, err := svc.engine.NewBattle(engine.NewBattleRequest{
		ChallengerID:    challengerID,
		OpponentID:      req.OpponentID,
		MetricType:      model.MetricType(req.MetricType),
		DurationMinutes: req.DurationMinutes,
		Criteria:        criteria,
	})
	if err != nil {
		var stateErr *engine.InvalidStateError
		if errors.As(err, &stateErr) {
			return nil, shared.NewBadRequestError(err, stateErr.Reason)
		}
		return nil, err
	}

	open, err := svc.dbSvc.Battles().HasOpenBattle(ctx, challengerID, req.OpponentID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to check open battles")
	}
	if open {
		return nil, shared.NewConflictError(fmt.Errorf("open battle exists"), "There is already an open battle between these players")
	}

	if err := svc.dbSvc.Battles().CreateBattle(ctx, battle); err != nil {
		if errors.Is(err, engine.ErrConflict) {
			return nil, shared.NewConflictError(err, "There is already an open battle between these players")
		}
		return nil, shared.NewInternalError(svc.dbSvc.HandleError(err), "Failed to create battle")
	}

	svc.appendEvent(ctx, battle.ID, model.BattleActionCreated, challengerID, map[string]interface{}{
		"opponent_id": req.OpponentID,
		"metric_type": string(battle.MetricType),
		"end_at":      battle.EndAt,
	})
	svc.monitoringSvc.RecordBattle(string(model.BattlePending))

	return battle, nil
}

// GetBattle returns a battle and its history to one of its players. A stale
// pending battle is expired on read.
func (svc *BattleService) GetBattle(ctx context.Context, userID, battleID string) (*dto.BattleDetailResponse, error) {
	battle, err := svc.readForParticipant(ctx, userID, battleID)
	if err != nil {
		return nil, err
	}

	events, err := svc.dbSvc.Battles().ListEvents(ctx, battle.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load battle history")
	}
	return &dto.BattleDetailResponse{Battle: *battle, Events: events}, nil
}

func (svc *BattleService) readForParticipant(ctx context.Context, userID, battleID string) (*model.Battle, error) {
	battle, err := svc.dbSvc.Battles().ReadBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(userID) {
		return nil, shared.NewForbiddenError(fmt.Errorf("user %s is not in battle %s", userID, battleID), "Forbidden")
	}
	if err := svc.expire(ctx, battle); err != nil {
		return nil, err
	}
	return battle, nil
}

func (svc *BattleService) expire(ctx context.Context, battle *model.Battle) error {
	expired, err := svc.engine.ExpireIfStale(ctx, battle)
	if err != nil {
		return err
	}
	if expired {
		svc.appendEvent(ctx, battle.ID, model.BattleActionExpired, "", map[string]interface{}{"end_at": battle.EndAt})
		svc.monitoringSvc.RecordBattle(string(model.BattleExpired))
	}
	return nil
}

func (svc *BattleService) ListBattles(ctx context.Context, userID string, req dto.BattleListRequest) ([]model.Battle, error) {
	battles, err := svc.dbSvc.Battles().ListBattles(ctx, userID, repositories.BattleFilter{
		Status:     model.BattleStatus(req.Status),
		MetricType: model.MetricType(req.MetricType),
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list battles")
	}

	for i := range battles {
		if err := svc.expire(ctx, &battles[i]); err != nil {
			return nil, err
		}
	}
	return battles, nil
}

func (svc *BattleService) AcceptBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	battle, err := svc.engine.Accept(ctx, battleID, playerID)
	if err != nil {
		return nil, err
	}
	svc.appendEvent(ctx, battle.ID, model.BattleActionAccepted, playerID, nil)
	svc.monitoringSvc.RecordBattle(string(model.BattleActive))
	return battle, nil
}

func (svc *BattleService) DeclineBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	battle, err := svc.engine.Decline(ctx, battleID, playerID)
	if err != nil {
		return nil, err
	}
	svc.appendEvent(ctx, battle.ID, model.BattleActionDeclined, playerID, nil)
	svc.monitoringSvc.RecordBattle(string(model.BattleCancelled))
	return battle, nil
}

func (svc *BattleService) CancelBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	battle, err := svc.engine.Cancel(ctx, battleID, playerID)
	if err != nil {
		return nil, err
	}
	svc.appendEvent(ctx, battle.ID, model.BattleActionCancelled, playerID, nil)
	svc.monitoringSvc.RecordBattle(string(model.BattleCancelled))
	return battle, nil
}

// ScoreBattle computes the player's current score without changing the battle.
func (svc *BattleService) ScoreBattle(ctx context.Context, battleID, playerID string) (model.ScoreBreakdown, error) {
	return svc.engine.ScoreBattle(ctx, battleID, playerID)
}

// FinalizeBattle completes an active battle, grants rewards and re-evaluates
// both players' progression.
func (svc *BattleService) FinalizeBattle(ctx context.Context, battleID, callerID string) (*engine.FinalizeResult, error) {
	result, err := svc.engine.FinalizeBattle(ctx, battleID, callerID)
	if err != nil {
		return nil, err
	}

	details := map[string]interface{}{
		"is_tie":   result.Outcome.IsTie,
		"margin":   result.Outcome.Margin,
		"p1_score": result.Battle.Player1Score.Points,
		"p2_score": result.Battle.Player2Score.Points,
	}
	if result.Outcome.WinnerID != nil {
		details["winner_id"] = *result.Outcome.WinnerID
	}
	svc.appendEvent(ctx, result.Battle.ID, model.BattleActionFinalized, callerID, details)
	svc.monitoringSvc.RecordBattle(string(model.BattleCompleted))

	for _, reward := range result.Rewards {
		svc.monitoringSvc.RecordXP("battle", reward.XP)
		svc.evaluatePlayer(ctx, reward.PlayerID)
	}

	return result, nil
}

func (svc *BattleService) evaluatePlayer(ctx context.Context, userID string) {
	_, err := svc.progressSvc.WithUserLock(ctx, userID, true, func(ctx context.Context) error {
		if _, err := svc.achievementSvc.EvaluateAchievements(ctx, userID); err != nil {
			return err
		}
		_, err := svc.avatarSvc.EvaluateAvatar(ctx, userID)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Post-battle evaluation failed")
	}
}

func (svc *BattleService) GetStats(ctx context.Context, userID string) (*dto.BattleStatsResponse, error) {
	battles, err := svc.dbSvc.Battles().ListCompleted(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load battles")
	}
	return SummarizeBattles(userID, battles), nil
}

// SummarizeBattles computes a player's record over their completed battles.
func SummarizeBattles(userID string, battles []model.Battle) *dto.BattleStatsResponse {
	stats := &dto.BattleStatsResponse{}
	for _, b := range battles {
		if b.Status != model.BattleCompleted {
			continue
		}
		stats.Total++
		switch {
		case b.IsTie || b.WinnerID == nil:
			stats.Ties++
		case *b.WinnerID == userID:
			stats.Wins++
			stats.XPWon += b.WinXP
		default:
			stats.Losses++
			stats.XPWon += b.ConsolationXP
		}
	}
	if stats.Total > 0 {
		stats.WinRate = float64(stats.Wins) / float64(stats.Total) * 100
	}
	return stats
}

// ExpireStale expires up to limit pending battles whose window has closed.
func (svc *BattleService) ExpireStale(ctx context.Context, limit int) (int, error) {
	battles, err := svc.dbSvc.Battles().ListStalePending(ctx, time.Now(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range battles {
		before := battles[i].Status
		if err := svc.expire(ctx, &battles[i]); err != nil {
			return expired, err
		}
		if before != battles[i].Status && battles[i].Status == model.BattleExpired {
			expired++
		}
	}
	return expired, nil
}

func (svc *BattleService) appendEvent(ctx context.Context, battleID, action, playerID string, details map[string]interface{}) {
	event := &model.BattleEvent{
		BattleID: battleID,
		Action:   action,
		PlayerID: playerID,
		Details:  details,
	}
	if err := svc.dbSvc.Battles().AppendEvent(ctx, event); err != nil {
		log.WithError(err).WithFields(log.Fields{"battle_id": battleID, "action": action}).Warn("Failed to record battle event")
	}
}
