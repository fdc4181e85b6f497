package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/services/repositories"
	"github.com/lac-hong-legacy/librarium_api/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testStack struct {
	db          *DatabaseService
	progress    *ProgressService
	achievement *AchievementService
	avatar      *AvatarService
	habit       *HabitService
	battle      *BattleService
	stats       *StatsService
}

// newTestStack wires the services by hand over an in-memory sqlite database,
// without redis, MinIO or metrics.
func newTestStack(t *testing.T) *testStack {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.Tables()...))

	dbSvc := &DatabaseService{
		db:           db,
		driver:       "sqlite",
		users:        repositories.NewUserRepository(db),
		profiles:     repositories.NewProfileRepository(db),
		habits:       repositories.NewHabitRepository(db),
		achievements: repositories.NewAchievementRepository(db),
		battles:      repositories.NewBattleRepository(db),
		transactor:   repositories.NewTransactor(db),
		cleanupAge:   90 * 24 * time.Hour,
	}
	progressSvc := &ProgressService{dbSvc: dbSvc, lockTTL: 30 * time.Second}

	achievementSvc := &AchievementService{dbSvc: dbSvc, progressSvc: progressSvc}
	achievementSvc.engine = engine.NewAchievementEngine(progressSvc.ProfileStore(), dbSvc.Achievements(), dbSvc.Habits(), dbSvc.Habits()).
		WithTransactor(dbSvc.Transactor())

	avatarSvc := &AvatarService{dbSvc: dbSvc, progressSvc: progressSvc}
	avatarSvc.engine = engine.NewAvatarEngine(progressSvc.ProfileStore(), dbSvc.Achievements())

	habitSvc := &HabitService{dbSvc: dbSvc, progressSvc: progressSvc, achievementSvc: achievementSvc, avatarSvc: avatarSvc, now: time.Now}

	battleSvc := &BattleService{dbSvc: dbSvc, progressSvc: progressSvc, achievementSvc: achievementSvc, avatarSvc: avatarSvc}
	battleSvc.engine = engine.NewBattleEngine(dbSvc.Battles(), progressSvc.ProfileStore(), dbSvc.Habits(), engine.DefaultConfig().Battle).
		WithTransactor(dbSvc.Transactor())

	statsSvc := &StatsService{dbSvc: dbSvc, now: time.Now}

	return &testStack{db: dbSvc, progress: progressSvc, achievement: achievementSvc, avatar: avatarSvc, habit: habitSvc, battle: battleSvc, stats: statsSvc}
}

func (s *testStack) register(t *testing.T, username string) string {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, s.db.Users().Register(context.Background(), user, engine.DefaultCatalog()))
	return user.ID
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	require.Error(t, err)
	appErr := shared.FromError(err)
	assert.Equal(t, status, appErr.StatusCode, appErr.Message)
}

// ─── Habits ─────────────────────────────────────────────────────────────────

func TestCompletionXP(t *testing.T) {
	assert.Equal(t, 35, CompletionXP(model.DifficultyHard, model.StatusDone))
	assert.Equal(t, 25, CompletionXP(model.DifficultyLegendary, model.StatusPartial))
	assert.Equal(t, 5, CompletionXP(model.DifficultyEasy, model.StatusPartial))
	assert.Equal(t, 0, CompletionXP(model.DifficultyHard, model.StatusMissed))
}

func TestCompleteHabit_GrantsXPAndUnlocks(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	habit, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: " Read ", Category: "study", Difficulty: "medium"})
	require.NoError(t, err)
	assert.Equal(t, "Read", habit.Name)
	assert.Equal(t, model.FrequencyDaily, habit.Frequency)

	resp, err := s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{})
	require.NoError(t, err)

	assert.Equal(t, model.StatusDone, resp.Completion.Status)
	assert.Equal(t, 20, resp.XPGained)
	assert.Equal(t, 1, resp.Streak.Current)

	keys := make([]string, 0, len(resp.Achievements))
	for _, a := range resp.Achievements {
		keys = append(keys, a.Key)
	}
	assert.Contains(t, keys, "first-flame")
	assert.GreaterOrEqual(t, resp.NewXP, 20+25)

	profile, err := s.progress.GetUserProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, resp.NewXP, profile.XP)
	assert.Equal(t, 1, profile.Rank)
}

func TestCompleteHabit_KeepsRequestedCalendarDay(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	brt := time.FixedZone("BRT", -3*3600)
	s.habit.now = func() time.Time { return time.Date(2024, 3, 5, 12, 0, 0, 0, brt) }

	habit, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Read", Category: "study"})
	require.NoError(t, err)

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	resp, err := s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{Date: &date})
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", resp.Completion.Date.Format(time.DateOnly))

	future := time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)
	_, err = s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{Date: &future})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestCompleteHabit_PartialDoesNotAdvanceStreak(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	habit, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Run", Category: "health", Difficulty: "hard"})
	require.NoError(t, err)

	resp, err := s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{Status: "partial"})
	require.NoError(t, err)
	assert.Equal(t, 17, resp.XPGained)
	assert.Equal(t, 0, resp.Streak.Current)
}

func TestCompleteHabit_Rejections(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")
	otherID := s.register(t, "bob")

	habit, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Read", Category: "study"})
	require.NoError(t, err)

	_, err = s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{})
	require.NoError(t, err)

	_, err = s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{})
	requireStatus(t, err, http.StatusConflict)

	tomorrow := time.Now().AddDate(0, 0, 1)
	_, err = s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{Date: &tomorrow})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = s.habit.CompleteHabit(ctx, otherID, habit.ID, dto.CompleteHabitRequest{})
	requireStatus(t, err, http.StatusNotFound)

	require.NoError(t, s.habit.DeactivateHabit(ctx, userID, habit.ID))
	yesterday := time.Now().AddDate(0, 0, -1)
	_, err = s.habit.CompleteHabit(ctx, userID, habit.ID, dto.CompleteHabitRequest{Date: &yesterday})
	requireStatus(t, err, http.StatusConflict)
}

func TestUpdateHabit(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")
	otherID := s.register(t, "bob")

	habit, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Read", Category: "study"})
	require.NoError(t, err)

	name := "  Read more "
	category := "personal"
	updated, err := s.habit.UpdateHabit(ctx, userID, habit.ID, dto.UpdateHabitRequest{Name: &name, Category: &category})
	require.NoError(t, err)
	assert.Equal(t, "Read more", updated.Name)
	assert.Equal(t, model.CategoryPersonal, updated.Category)
	assert.Equal(t, model.DifficultyEasy, updated.Difficulty)

	blank := "   "
	_, err = s.habit.UpdateHabit(ctx, userID, habit.ID, dto.UpdateHabitRequest{Name: &blank})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = s.habit.UpdateHabit(ctx, userID, habit.ID, dto.UpdateHabitRequest{})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = s.habit.UpdateHabit(ctx, otherID, habit.ID, dto.UpdateHabitRequest{Name: &name})
	requireStatus(t, err, http.StatusNotFound)
}

func TestListCompletions_FiltersByHabit(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	read, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Read", Category: "study"})
	require.NoError(t, err)
	run, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Run", Category: "health"})
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1)
	for _, req := range []dto.CompleteHabitRequest{{}, {Date: &yesterday}} {
		_, err := s.habit.CompleteHabit(ctx, userID, read.ID, req)
		require.NoError(t, err)
	}
	_, err = s.habit.CompleteHabit(ctx, userID, run.ID, dto.CompleteHabitRequest{})
	require.NoError(t, err)

	completions, err := s.habit.ListCompletions(ctx, userID, read.ID, time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	assert.Len(t, completions, 2)
	for _, c := range completions {
		assert.Equal(t, read.ID, c.HabitID)
	}
}

// ─── Battles ────────────────────────────────────────────────────────────────

func TestCreateBattle_Checks(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	_, err := s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: "ghost"})
	requireStatus(t, err, http.StatusNotFound)

	_, err = s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: alice})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: bob, MetricType: "custom"})
	requireStatus(t, err, http.StatusBadRequest)

	battle, err := s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: bob})
	require.NoError(t, err)
	assert.Equal(t, model.BattlePending, battle.Status)
	assert.Equal(t, model.MetricStreak7, battle.MetricType)

	_, err = s.battle.CreateBattle(ctx, bob, dto.CreateBattleRequest{OpponentID: alice})
	requireStatus(t, err, http.StatusConflict)
}

func TestBattleLifecycle(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	carol := s.register(t, "carol")

	battle, err := s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: bob, DurationMinutes: 30})
	require.NoError(t, err)

	_, err = s.battle.GetBattle(ctx, carol, battle.ID)
	requireStatus(t, err, http.StatusForbidden)

	_, err = s.battle.AcceptBattle(ctx, battle.ID, alice)
	requireStatus(t, err, http.StatusForbidden)

	accepted, err := s.battle.AcceptBattle(ctx, battle.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, model.BattleActive, accepted.Status)

	result, err := s.battle.FinalizeBattle(ctx, battle.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, model.BattleCompleted, result.Battle.Status)
	assert.True(t, result.Outcome.IsTie)

	detail, err := s.battle.GetBattle(ctx, bob, battle.ID)
	require.NoError(t, err)
	actions := make([]string, 0, len(detail.Events))
	for _, e := range detail.Events {
		actions = append(actions, e.Action)
	}
	assert.Equal(t, []string{model.BattleActionCreated, model.BattleActionAccepted, model.BattleActionFinalized}, actions)

	stats, err := s.battle.GetStats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Ties)

	_, err = s.battle.FinalizeBattle(ctx, battle.ID, alice)
	requireStatus(t, err, http.StatusConflict)
}

func TestExpireStale(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	battle, err := s.battle.CreateBattle(ctx, alice, dto.CreateBattleRequest{OpponentID: bob})
	require.NoError(t, err)

	require.NoError(t, s.db.Db().Model(&model.Battle{}).
		Where("id = ?", battle.ID).
		Update("end_at", time.Now().Add(-time.Minute)).Error)

	expired, err := s.battle.ExpireStale(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	detail, err := s.battle.GetBattle(ctx, alice, battle.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BattleExpired, detail.Battle.Status)
	require.Len(t, detail.Events, 2)
	assert.Equal(t, model.BattleActionExpired, detail.Events[1].Action)

	expired, err = s.battle.ExpireStale(ctx, 10)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSummarizeBattles(t *testing.T) {
	me := "me"
	other := "other"
	battles := []model.Battle{
		{Status: model.BattleCompleted, WinnerID: &me, WinXP: 100, ConsolationXP: 25},
		{Status: model.BattleCompleted, WinnerID: &other, WinXP: 100, ConsolationXP: 25},
		{Status: model.BattleCompleted, IsTie: true},
		{Status: model.BattleCompleted, WinnerID: &me, WinXP: 150, ConsolationXP: 25},
		{Status: model.BattleCancelled},
	}

	stats := SummarizeBattles(me, battles)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Ties)
	assert.Equal(t, 275, stats.XPWon)
	assert.InDelta(t, 50.0, stats.WinRate, 0.001)
}

// ─── Progress, unlocks & stats ──────────────────────────────────────────────

func TestAchievementProgress(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	progress, err := s.achievement.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, progress, len(engine.DefaultCatalog()))

	next, err := s.achievement.GetNextAchievements(ctx, userID, 3)
	require.NoError(t, err)
	require.LessOrEqual(t, len(next), 3)
	for i := 1; i < len(next); i++ {
		assert.GreaterOrEqual(t, next[i-1].Percent, next[i].Percent)
	}

	_, err = s.achievement.GetProgress(ctx, "ghost")
	requireStatus(t, err, http.StatusNotFound)
}

func TestAvatarNextUnlocks(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	resp, err := s.avatar.GetNextUnlocks(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 6, resp.Total)
	assert.Equal(t, engine.ChangeLevel, resp.Unlocks[0].Rule)
	assert.Equal(t, "rare-sword", resp.Unlocks[1].Item)
}

func TestStats(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.Local)
	s.habit.now = func() time.Time { return now }
	s.stats.now = func() time.Time { return now }

	read, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Read", Category: "study"})
	require.NoError(t, err)
	run, err := s.habit.CreateHabit(ctx, userID, dto.CreateHabitRequest{Name: "Run", Category: "health"})
	require.NoError(t, err)

	yesterday := now.AddDate(0, 0, -1)
	for _, c := range []struct {
		habitID string
		req     dto.CompleteHabitRequest
	}{
		{read.ID, dto.CompleteHabitRequest{Date: &yesterday}},
		{read.ID, dto.CompleteHabitRequest{}},
		{run.ID, dto.CompleteHabitRequest{}},
	} {
		_, err := s.habit.CompleteHabit(ctx, userID, c.habitID, c.req)
		require.NoError(t, err)
	}

	summary, err := s.stats.GetSummary(ctx, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.TotalDone)
	assert.Equal(t, 2, summary.ActiveHabits)
	assert.Equal(t, 2, summary.CurrentStreak)

	chart, err := s.stats.GetWeeklyChart(ctx, userID)
	require.NoError(t, err)
	require.Len(t, chart, 7)
	assert.Equal(t, "2024-06-15", chart[6].Date)
	assert.Equal(t, 2, chart[6].Done)
	assert.Equal(t, 1, chart[5].Done)

	breakdown, err := s.stats.GetCategoryBreakdown(ctx, userID, 7)
	require.NoError(t, err)
	require.Len(t, breakdown.Categories, 2)
	assert.Equal(t, model.CategoryHealth, breakdown.Categories[0].Category)
	assert.Equal(t, 2, breakdown.Categories[1].Total)

	_, err = s.stats.GetCategoryBreakdown(ctx, userID, 400)
	requireStatus(t, err, http.StatusBadRequest)

	heatmap, err := s.stats.GetHeatmap(ctx, userID, 0)
	require.NoError(t, err)
	assert.Equal(t, 2024, heatmap.Year)
	assert.Equal(t, 2, heatmap.Summary.ActiveDays)
	assert.Equal(t, 3, heatmap.Summary.TotalDone)

	_, err = s.stats.GetHeatmap(ctx, userID, 2030)
	requireStatus(t, err, http.StatusBadRequest)

	months, err := s.stats.GetMonthlyComparison(ctx, userID)
	require.NoError(t, err)
	require.Len(t, months, 6)
	assert.Equal(t, 1, months[0].Month)
	assert.Equal(t, 3, months[5].Total)
}

// ─── Scheduler & storage helpers ────────────────────────────────────────────

func TestNewUserLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, newUserLimiter(0, 8).Limit())

	limiter := newUserLimiter(50, 0)
	assert.Equal(t, rate.Limit(50), limiter.Limit())
	assert.Equal(t, 1, limiter.Burst())
}

func TestSpriteObject(t *testing.T) {
	assert.Equal(t, "avatars/hunter/tier-1.png", SpriteObject(model.AvatarHunter, 1))
}

func TestWithUserLock_RunsUnlockedWithoutRedis(t *testing.T) {
	svc := &ProgressService{}
	called := false
	ran, err := svc.WithUserLock(context.Background(), "u1", false, func(ctx context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, ran)
	assert.True(t, called)
	assert.EqualError(t, err, "boom")
}

func TestCleanupStaleAchievements_KeepsCatalog(t *testing.T) {
	s := newTestStack(t)
	ctx := context.Background()
	userID := s.register(t, "alice")

	custom, err := s.achievement.CreateCustomAchievement(ctx, userID, dto.CreateAchievementRequest{
		Title: "Night owl", Kind: "daysActive", Threshold: 100,
	})
	require.NoError(t, err)

	require.NoError(t, s.db.Db().Model(&model.Achievement{}).
		Where("id = ?", custom.ID).
		Update("created_at", time.Now().AddDate(0, 0, -120)).Error)

	removed, err := s.db.CleanupStaleAchievements()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	remaining, err := s.achievement.ListAchievements(ctx, userID, nil)
	require.NoError(t, err)
	assert.Len(t, remaining, len(engine.DefaultCatalog()))
}
