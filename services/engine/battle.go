package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	log "github.com/sirupsen/logrus"
)

// Outcome is the result of comparing two scores.
type Outcome struct {
	WinnerID *string `json:"winner_id"`
	IsTie    bool    `json:"is_tie"`
	Margin   float64 `json:"margin"`
}

// Reward is the XP granted to one player when a battle completes.
type Reward struct {
	PlayerID string   `json:"player_id"`
	XP       int      `json:"xp"`
	Result   XPResult `json:"result"`
}

type FinalizeResult struct {
	Battle  *model.Battle `json:"battle"`
	Outcome Outcome       `json:"outcome"`
	Rewards []Reward      `json:"rewards"`
}

// NewBattleRequest holds what a challenger supplies to open a battle.
type NewBattleRequest struct {
	ChallengerID    string
	OpponentID      string
	MetricType      model.MetricType
	DurationMinutes int
	Criteria        []model.Criterion
}

// BattleEngine drives the battle state machine and scores players.
type BattleEngine struct {
	battles     BattleStore
	profiles    ProfileStore
	completions CompletionReader
	cfg         BattleConfig
	tx          Transactor
	now         Clock
}

func NewBattleEngine(battles BattleStore, profiles ProfileStore, completions CompletionReader, cfg BattleConfig) *BattleEngine {
	return &BattleEngine{
		battles:     battles,
		profiles:    profiles,
		completions: completions,
		cfg:         cfg,
		tx:          noTransactor{},
		now:         time.Now,
	}
}

// WithTransactor makes finalization and both reward grants one atomic unit.
func (e *BattleEngine) WithTransactor(tx Transactor) *BattleEngine {
	e.tx = tx
	return e
}

func (e *BattleEngine) WithClock(clock Clock) *BattleEngine {
	e.now = clock
	return e
}

// NewBattle validates a request and builds a pending battle. Checks that need
// storage (opponent exists, no open battle between the pair) belong to the
// caller.
func (e *BattleEngine) NewBattle(req NewBattleRequest) (*model.Battle, error) {
	const op = "create battle"

	if req.ChallengerID == "" || req.OpponentID == "" {
		return nil, invalidState(op, "both players are required")
	}
	if req.ChallengerID == req.OpponentID {
		return nil, invalidState(op, "a player cannot battle themselves")
	}

	metric := req.MetricType
	if metric == "" {
		metric = model.MetricStreak7
	}
	if !metric.IsValid() {
		return nil, invalidState(op, "unknown metric type %q", metric)
	}

	criteria := make([]model.Criterion, 0, len(req.Criteria))
	for _, c := range req.Criteria {
		if !c.Kind.IsValid() {
			return nil, invalidState(op, "unknown criterion kind %q", c.Kind)
		}
		if c.Weight < 0 {
			return nil, invalidState(op, "criterion %q has a negative weight", c.Name)
		}
		if c.Weight == 0 {
			c.Weight = 1
		}
		criteria = append(criteria, c)
	}
	if metric == model.MetricCustom && len(criteria) == 0 {
		return nil, invalidState(op, "custom battles need at least one criterion")
	}

	minutes := req.DurationMinutes
	if minutes <= 0 {
		minutes = e.cfg.DefaultMinutes
	}

	now := e.now()
	return &model.Battle{
		Player1ID:       req.ChallengerID,
		Player2ID:       req.OpponentID,
		MetricType:      metric,
		StartAt:         now,
		EndAt:           now.Add(time.Duration(minutes) * time.Minute),
		DurationMinutes: minutes,
		Criteria:        criteria,
		Status:          model.BattlePending,
		WinXP:           e.cfg.WinXP,
		ConsolationXP:   e.cfg.ConsolationXP,
	}, nil
}

// ReadBattle loads a battle, expiring it first when it is pending past its end.
func (e *BattleEngine) ReadBattle(ctx context.Context, battleID string) (*model.Battle, error) {
	battle, err := e.battles.ReadBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if _, err := e.ExpireIfStale(ctx, battle); err != nil {
		return nil, err
	}
	return battle, nil
}

// ExpireIfStale moves a pending battle whose window has ended to expired.
func (e *BattleEngine) ExpireIfStale(ctx context.Context, battle *model.Battle) (bool, error) {
	if battle.Status != model.BattlePending || !e.now().After(battle.EndAt) {
		return false, nil
	}

	battle.Status = model.BattleExpired
	if err := e.battles.WriteBattle(ctx, battle, model.BattlePending); err != nil {
		if errors.Is(err, ErrConflict) {
			// Someone else moved it; reload to report the current state.
			fresh, readErr := e.battles.ReadBattle(ctx, battle.ID)
			if readErr != nil {
				return false, readErr
			}
			*battle = *fresh
			return false, nil
		}
		return false, fmt.Errorf("expire battle: %w", err)
	}
	return true, nil
}

// Accept moves a pending battle to active. Only the invited player may accept.
func (e *BattleEngine) Accept(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	return e.respond(ctx, "accept battle", battleID, playerID, model.BattleActive)
}

// Decline cancels a pending battle on behalf of the invited player.
func (e *BattleEngine) Decline(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	return e.respond(ctx, "decline battle", battleID, playerID, model.BattleCancelled)
}

func (e *BattleEngine) respond(ctx context.Context, op, battleID, playerID string, to model.BattleStatus) (*model.Battle, error) {
	battle, err := e.ReadBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.Player2ID != playerID {
		return nil, forbidden(op, "only the invited player can respond")
	}
	return battle, e.transition(ctx, op, battle, model.BattlePending, to)
}

// Cancel withdraws a pending battle on behalf of the challenger.
func (e *BattleEngine) Cancel(ctx context.Context, battleID, playerID string) (*model.Battle, error) {
	const op = "cancel battle"
	battle, err := e.ReadBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.Player1ID != playerID {
		return nil, forbidden(op, "only the challenger can cancel")
	}
	return battle, e.transition(ctx, op, battle, model.BattlePending, model.BattleCancelled)
}

func (e *BattleEngine) transition(ctx context.Context, op string, battle *model.Battle, from, to model.BattleStatus) error {
	if battle.Status != from {
		return invalidState(op, "battle is %s, expected %s", battle.Status, from)
	}
	battle.Status = to
	if err := e.battles.WriteBattle(ctx, battle, from); err != nil {
		battle.Status = from
		if errors.Is(err, ErrConflict) {
			return invalidState(op, "battle was modified concurrently")
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ScoreBattle computes the current score of a participant without changing
// the battle.
func (e *BattleEngine) ScoreBattle(ctx context.Context, battleID, playerID string) (model.ScoreBreakdown, error) {
	battle, err := e.battles.ReadBattle(ctx, battleID)
	if err != nil {
		return model.ScoreBreakdown{}, err
	}
	if !battle.IsParticipant(playerID) {
		return model.ScoreBreakdown{}, forbidden("score battle", "player is not a participant")
	}
	return e.score(ctx, battle, playerID)
}

func (e *BattleEngine) score(ctx context.Context, battle *model.Battle, playerID string) (model.ScoreBreakdown, error) {
	records, err := e.completions.FetchCompletions(ctx, playerID, model.Midnight(battle.StartAt), battle.EndAt)
	if err != nil {
		return model.ScoreBreakdown{}, fmt.Errorf("fetch completions: %w", err)
	}

	level := 0
	if battle.MetricType == model.MetricRapidLevel {
		profile, err := e.profiles.ReadProfile(ctx, playerID)
		if err != nil {
			return model.ScoreBreakdown{}, fmt.Errorf("read profile: %w", err)
		}
		level = profile.Level
	}

	return ComputeScore(battle.MetricType, battle.Criteria, records, level, e.cfg), nil
}

// ComputeScore scores already-fetched completion records. level is only used
// by rapidLevel battles.
func ComputeScore(metric model.MetricType, criteria []model.Criterion, records []model.HabitCompletion, level int, cfg BattleConfig) model.ScoreBreakdown {
	streak := Streak(records)
	completions := CompletionCount(records)
	xp := XPSum(records)

	breakdown := model.ScoreBreakdown{
		Streak:      streak,
		Completions: completions,
		XPGained:    xp,
	}

	var points float64
	switch metric {
	case model.MetricStreak7, model.MetricStreak30:
		points = float64(streak)
	case model.MetricHabitsPerWeek:
		points = float64(completions)
	case model.MetricDailyXP:
		points = float64(xp)
	case model.MetricRapidLevel:
		points = float64(level)
	case model.MetricCustom:
		for _, c := range criteria {
			points += criterionValue(c.Kind, streak, completions, xp) * c.Weight
		}
	}

	if metric.IsStreak() && cfg.StreakBonusEvery > 0 {
		breakdown.Bonus = streak / cfg.StreakBonusEvery * cfg.StreakBonusPoints
	}
	breakdown.Points = points + float64(breakdown.Bonus)
	return breakdown
}

func criterionValue(kind model.CriterionKind, streak, count, sum int) float64 {
	switch kind {
	case model.CriterionStreak:
		return float64(streak)
	case model.CriterionCount:
		return float64(count)
	case model.CriterionSum:
		return float64(sum)
	case model.CriterionAverage:
		if count == 0 {
			return 0
		}
		return float64(sum) / float64(count)
	default:
		return 0
	}
}

// DetermineWinner compares the stored scores. It reads nothing else, so the
// outcome is fixed by the scores alone.
func DetermineWinner(battle *model.Battle) Outcome {
	p1 := battle.Player1Score.Points
	p2 := battle.Player2Score.Points
	outcome := Outcome{Margin: math.Abs(p1 - p2)}

	switch {
	case p1 > p2:
		winner := battle.Player1ID
		outcome.WinnerID = &winner
	case p2 > p1:
		winner := battle.Player2ID
		outcome.WinnerID = &winner
	default:
		outcome.IsTie = true
		outcome.Margin = 0
	}
	return outcome
}

// FinalizeBattle scores both players, completes the battle and grants the
// rewards. A tie grants no XP.
func (e *BattleEngine) FinalizeBattle(ctx context.Context, battleID, callerID string) (*FinalizeResult, error) {
	const op = "finalize battle"

	battle, err := e.battles.ReadBattle(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if !battle.IsParticipant(callerID) {
		return nil, forbidden(op, "only participants can finalize")
	}
	if battle.Status != model.BattleActive {
		return nil, invalidState(op, "battle is %s, expected %s", battle.Status, model.BattleActive)
	}

	p1, err := e.score(ctx, battle, battle.Player1ID)
	if err != nil {
		return nil, err
	}
	p2, err := e.score(ctx, battle, battle.Player2ID)
	if err != nil {
		return nil, err
	}

	battle.Player1Score = p1
	battle.Player2Score = p2
	outcome := DetermineWinner(battle)

	completedAt := e.now()
	battle.WinnerID = outcome.WinnerID
	battle.IsTie = outcome.IsTie
	battle.Margin = outcome.Margin
	battle.CompletedAt = &completedAt

	// The status change and the rewards commit together: a failed grant leaves
	// the battle active so finalizing can be retried.
	var rewards []Reward
	err = e.tx.Atomic(ctx, func(ctx context.Context) error {
		rewards = []Reward{}
		if err := e.transition(ctx, op, battle, model.BattleActive, model.BattleCompleted); err != nil {
			return err
		}
		if outcome.WinnerID == nil {
			return nil
		}

		winner := *outcome.WinnerID
		for _, grant := range []struct {
			player string
			xp     int
			def    int
		}{
			{winner, battle.WinXP, e.cfg.WinXP},
			{battle.Opponent(winner), battle.ConsolationXP, e.cfg.ConsolationXP},
		} {
			amount := grant.xp
			if amount <= 0 {
				amount = grant.def
			}
			xp, err := e.profiles.AddXP(ctx, grant.player, amount)
			if err != nil {
				return fmt.Errorf("grant battle reward to %s: %w", grant.player, err)
			}
			rewards = append(rewards, Reward{PlayerID: grant.player, XP: amount, Result: xp})
		}
		return nil
	})
	if err != nil {
		battle.Status = model.BattleActive
		battle.CompletedAt = nil
		return nil, err
	}

	if outcome.WinnerID != nil {
		log.WithFields(log.Fields{
			"battle_id": battle.ID,
			"winner_id": *outcome.WinnerID,
			"margin":    outcome.Margin,
		}).Info("Battle finalized")
	}

	return &FinalizeResult{Battle: battle, Outcome: outcome, Rewards: rewards}, nil
}
