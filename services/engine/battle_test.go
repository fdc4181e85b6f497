package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var battleNow = date(2024, time.March, 10)

func newBattleFixture(t *testing.T, metric model.MetricType, criteria ...model.Criterion) (*memStore, *BattleEngine, *model.Battle) {
	t.Helper()
	store := newMemStore()
	store.addUser("p1", 0)
	store.addUser("p2", 0)

	engine := NewBattleEngine(store, store, store, DefaultConfig().Battle).WithClock(fixedClock(battleNow))
	battle, err := engine.NewBattle(NewBattleRequest{
		ChallengerID: "p1",
		OpponentID:   "p2",
		MetricType:   metric,
		Criteria:     criteria,
	})
	require.NoError(t, err)
	battle.ID = "b1"
	store.battles[battle.ID] = battle
	return store, engine, battle
}

func TestNewBattle_Validation(t *testing.T) {
	engine := NewBattleEngine(nil, nil, nil, DefaultConfig().Battle).WithClock(fixedClock(battleNow))

	_, err := engine.NewBattle(NewBattleRequest{ChallengerID: "p1", OpponentID: "p1"})
	assert.True(t, IsInvalidState(err))

	_, err = engine.NewBattle(NewBattleRequest{ChallengerID: "p1", OpponentID: "p2", MetricType: "fastest"})
	assert.True(t, IsInvalidState(err))

	_, err = engine.NewBattle(NewBattleRequest{ChallengerID: "p1", OpponentID: "p2", MetricType: model.MetricCustom})
	assert.True(t, IsInvalidState(err))

	battle, err := engine.NewBattle(NewBattleRequest{ChallengerID: "p1", OpponentID: "p2"})
	require.NoError(t, err)
	assert.Equal(t, model.MetricStreak7, battle.MetricType)
	assert.Equal(t, model.BattlePending, battle.Status)
	assert.Equal(t, 60, battle.DurationMinutes)
	assert.Equal(t, battleNow.Add(time.Hour), battle.EndAt)
	assert.Equal(t, 100, battle.WinXP)
	assert.Equal(t, 25, battle.ConsolationXP)
}

func TestComputeScore(t *testing.T) {
	cfg := DefaultConfig().Battle
	day := date(2024, time.March, 1)

	var twoWeeks []model.HabitCompletion
	for i := 0; i < 14; i++ {
		twoWeeks = append(twoWeeks, done("h", day.AddDate(0, 0, i), 20))
	}

	t.Run("streak metric earns the weekly bonus", func(t *testing.T) {
		score := ComputeScore(model.MetricStreak7, nil, twoWeeks, 0, cfg)
		assert.Equal(t, 14, score.Streak)
		assert.Equal(t, 10, score.Bonus)
		assert.Equal(t, 24.0, score.Points)
	})

	t.Run("other metrics do not", func(t *testing.T) {
		score := ComputeScore(model.MetricHabitsPerWeek, nil, twoWeeks, 0, cfg)
		assert.Equal(t, 0, score.Bonus)
		assert.Equal(t, 14.0, score.Points)
		assert.Equal(t, 14, score.Streak)
		assert.Equal(t, 280, score.XPGained)
	})

	t.Run("rapid level uses the level", func(t *testing.T) {
		score := ComputeScore(model.MetricRapidLevel, nil, twoWeeks, 12, cfg)
		assert.Equal(t, 12.0, score.Points)
	})

	t.Run("custom sums weighted criteria", func(t *testing.T) {
		records := []model.HabitCompletion{
			done("a", day, 50), done("b", day, 50),
			done("a", day.AddDate(0, 0, 1), 50), done("b", day.AddDate(0, 0, 1), 50),
			done("a", day.AddDate(0, 0, 2), 25), done("b", day.AddDate(0, 0, 2), 25),
			done("c", day.AddDate(0, 0, 2), 25), done("d", day.AddDate(0, 0, 2), 25),
		}
		criteria := []model.Criterion{
			{Name: "streak", Kind: model.CriterionStreak, Weight: 10},
			{Name: "count", Kind: model.CriterionCount, Weight: 1},
			{Name: "xp", Kind: model.CriterionSum, Weight: 0.1},
		}
		score := ComputeScore(model.MetricCustom, criteria, records, 0, cfg)
		assert.InDelta(t, 68.0, score.Points, 1e-9)
	})

	t.Run("average of nothing is zero", func(t *testing.T) {
		criteria := []model.Criterion{{Kind: model.CriterionAverage, Weight: 1}}
		score := ComputeScore(model.MetricCustom, criteria, nil, 0, cfg)
		assert.Equal(t, 0.0, score.Points)
	})
}

func TestDetermineWinner(t *testing.T) {
	battle := &model.Battle{
		Player1ID:    "p1",
		Player2ID:    "p2",
		Player1Score: model.ScoreBreakdown{Points: 340},
		Player2Score: model.ScoreBreakdown{Points: 290},
	}
	outcome := DetermineWinner(battle)
	require.NotNil(t, outcome.WinnerID)
	assert.Equal(t, "p1", *outcome.WinnerID)
	assert.Equal(t, 50.0, outcome.Margin)
	assert.False(t, outcome.IsTie)

	swapped := &model.Battle{
		Player1ID:    "p2",
		Player2ID:    "p1",
		Player1Score: battle.Player2Score,
		Player2Score: battle.Player1Score,
	}
	again := DetermineWinner(swapped)
	require.NotNil(t, again.WinnerID)
	assert.Equal(t, "p1", *again.WinnerID)
	assert.Equal(t, outcome.Margin, again.Margin)

	tie := DetermineWinner(&model.Battle{
		Player1ID:    "p1",
		Player2ID:    "p2",
		Player1Score: model.ScoreBreakdown{Points: 12},
		Player2Score: model.ScoreBreakdown{Points: 12},
	})
	assert.True(t, tie.IsTie)
	assert.Nil(t, tie.WinnerID)
	assert.Zero(t, tie.Margin)
}

func TestBattle_AcceptAndFinalize(t *testing.T) {
	store, engine, _ := newBattleFixture(t, model.MetricDailyXP)
	ctx := context.Background()

	for _, xp := range []int{100, 100, 100, 40} {
		store.complete("p1", "h", battleNow, xp)
	}
	for _, xp := range []int{100, 100, 90} {
		store.complete("p2", "h", battleNow, xp)
	}

	_, err := engine.Accept(ctx, "b1", "p1")
	require.Error(t, err)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.True(t, stateErr.Forbidden)

	battle, err := engine.Accept(ctx, "b1", "p2")
	require.NoError(t, err)
	assert.Equal(t, model.BattleActive, battle.Status)

	_, err = engine.Accept(ctx, "b1", "p2")
	assert.True(t, IsInvalidState(err))

	score, err := engine.ScoreBattle(ctx, "b1", "p2")
	require.NoError(t, err)
	assert.Equal(t, 290.0, score.Points)

	_, err = engine.ScoreBattle(ctx, "b1", "stranger")
	assert.True(t, IsInvalidState(err))

	_, err = engine.FinalizeBattle(ctx, "b1", "stranger")
	assert.True(t, IsInvalidState(err))

	result, err := engine.FinalizeBattle(ctx, "b1", "p2")
	require.NoError(t, err)
	require.NotNil(t, result.Outcome.WinnerID)
	assert.Equal(t, "p1", *result.Outcome.WinnerID)
	assert.Equal(t, 50.0, result.Outcome.Margin)
	assert.Equal(t, model.BattleCompleted, result.Battle.Status)
	assert.NotNil(t, result.Battle.CompletedAt)
	assert.Len(t, result.Rewards, 2)

	p1, _ := store.ReadProfile(ctx, "p1")
	p2, _ := store.ReadProfile(ctx, "p2")
	assert.Equal(t, 100, p1.XP)
	assert.Equal(t, 25, p2.XP)

	_, err = engine.FinalizeBattle(ctx, "b1", "p1")
	assert.True(t, IsInvalidState(err))

	p1, _ = store.ReadProfile(ctx, "p1")
	assert.Equal(t, 100, p1.XP)
}

func TestBattle_FailedRewardKeepsBattleActive(t *testing.T) {
	store, engine, _ := newBattleFixture(t, model.MetricDailyXP)
	engine.WithTransactor(store)
	ctx := context.Background()
	store.complete("p1", "h", battleNow, 100)
	store.complete("p2", "h", battleNow, 40)

	_, err := engine.Accept(ctx, "b1", "p2")
	require.NoError(t, err)

	// The loser's grant fails after the winner's succeeded.
	store.addXPErr = errors.New("transient")
	store.addXPFailFor = "p2"
	_, err = engine.FinalizeBattle(ctx, "b1", "p1")
	require.Error(t, err)

	stored, err := store.ReadBattle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BattleActive, stored.Status)
	p1, _ := store.ReadProfile(ctx, "p1")
	assert.Zero(t, p1.XP)

	store.addXPErr = nil
	result, err := engine.FinalizeBattle(ctx, "b1", "p1")
	require.NoError(t, err)
	assert.Equal(t, model.BattleCompleted, result.Battle.Status)
	assert.Len(t, result.Rewards, 2)

	p1, _ = store.ReadProfile(ctx, "p1")
	p2, _ := store.ReadProfile(ctx, "p2")
	assert.Equal(t, 100, p1.XP)
	assert.Equal(t, 25, p2.XP)
}

func TestBattle_TieGrantsNothing(t *testing.T) {
	store, engine, _ := newBattleFixture(t, model.MetricHabitsPerWeek)
	ctx := context.Background()
	store.complete("p1", "a", battleNow, 10)
	store.complete("p2", "b", battleNow, 50)

	_, err := engine.Accept(ctx, "b1", "p2")
	require.NoError(t, err)

	result, err := engine.FinalizeBattle(ctx, "b1", "p1")
	require.NoError(t, err)
	assert.True(t, result.Outcome.IsTie)
	assert.Empty(t, result.Rewards)

	p1, _ := store.ReadProfile(ctx, "p1")
	p2, _ := store.ReadProfile(ctx, "p2")
	assert.Zero(t, p1.XP)
	assert.Zero(t, p2.XP)
}

func TestBattle_FinalizeRequiresActive(t *testing.T) {
	_, engine, _ := newBattleFixture(t, model.MetricStreak7)

	_, err := engine.FinalizeBattle(context.Background(), "b1", "p1")
	assert.True(t, IsInvalidState(err))
}

func TestBattle_DeclineAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("decline", func(t *testing.T) {
		_, engine, _ := newBattleFixture(t, model.MetricStreak7)
		_, err := engine.Decline(ctx, "b1", "p1")
		assert.True(t, IsInvalidState(err))

		battle, err := engine.Decline(ctx, "b1", "p2")
		require.NoError(t, err)
		assert.Equal(t, model.BattleCancelled, battle.Status)
	})

	t.Run("cancel", func(t *testing.T) {
		_, engine, _ := newBattleFixture(t, model.MetricStreak7)
		_, err := engine.Cancel(ctx, "b1", "p2")
		assert.True(t, IsInvalidState(err))

		battle, err := engine.Cancel(ctx, "b1", "p1")
		require.NoError(t, err)
		assert.Equal(t, model.BattleCancelled, battle.Status)

		_, err = engine.Accept(ctx, "b1", "p2")
		assert.True(t, IsInvalidState(err))
	})
}

func TestBattle_PendingExpires(t *testing.T) {
	store, _, _ := newBattleFixture(t, model.MetricStreak7)
	later := NewBattleEngine(store, store, store, DefaultConfig().Battle).WithClock(fixedClock(battleNow.Add(2 * time.Hour)))
	ctx := context.Background()

	battle, err := later.ReadBattle(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, model.BattleExpired, battle.Status)

	_, err = later.Accept(ctx, "b1", "p2")
	assert.True(t, IsInvalidState(err))
}

func TestBattle_UnknownBattle(t *testing.T) {
	_, engine, _ := newBattleFixture(t, model.MetricStreak7)

	_, err := engine.Accept(context.Background(), "missing", "p2")
	assert.ErrorIs(t, err, ErrNotFound)
}
