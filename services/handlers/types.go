package handlers

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
)

type AuthServiceInterface interface {
	Register(req dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(req dto.LoginRequest) (*dto.LoginResponse, error)
}

type ProgressServiceInterface interface {
	GetUserProfile(ctx context.Context, userID string) (*dto.UserProfileResponse, error)
	GetLeaderboard(ctx context.Context, limit int, currentUserID string) (*dto.LeaderboardResponse, error)
}

type HabitServiceInterface interface {
	CreateHabit(ctx context.Context, userID string, req dto.CreateHabitRequest) (*model.Habit, error)
	ListHabits(ctx context.Context, userID string, includeInactive bool) ([]model.Habit, error)
	UpdateHabit(ctx context.Context, userID, habitID string, req dto.UpdateHabitRequest) (*model.Habit, error)
	DeactivateHabit(ctx context.Context, userID, habitID string) error
	ListCompletions(ctx context.Context, userID, habitID string, from, to time.Time) ([]model.HabitCompletion, error)
	CompleteHabit(ctx context.Context, userID, habitID string, req dto.CompleteHabitRequest) (*dto.CompleteHabitResponse, error)
}

type AchievementServiceInterface interface {
	ListAchievements(ctx context.Context, userID string, unlocked *bool) ([]model.Achievement, error)
	GetStats(ctx context.Context, userID string) (*engine.AchievementStats, error)
	GetProgress(ctx context.Context, userID string) ([]engine.AchievementProgress, error)
	GetNextAchievements(ctx context.Context, userID string, limit int) ([]engine.AchievementProgress, error)
	CreateCustomAchievement(ctx context.Context, userID string, req dto.CreateAchievementRequest) (*model.Achievement, error)
	RunEvaluation(ctx context.Context, userID string) (*dto.EvaluateAchievementsResponse, error)
}

type AvatarServiceInterface interface {
	GetAvatar(ctx context.Context, userID string) (*dto.AvatarResponse, error)
	GetNextUnlocks(ctx context.Context, userID string) (*dto.NextUnlocksResponse, error)
	RunEvaluation(ctx context.Context, userID string) (*dto.EvaluateAvatarResponse, error)
}

type BattleServiceInterface interface {
	CreateBattle(ctx context.Context, challengerID string, req dto.CreateBattleRequest) (*model.Battle, error)
	GetBattle(ctx context.Context, userID, battleID string) (*dto.BattleDetailResponse, error)
	ListBattles(ctx context.Context, userID string, req dto.BattleListRequest) ([]model.Battle, error)
	AcceptBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error)
	DeclineBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error)
	CancelBattle(ctx context.Context, battleID, playerID string) (*model.Battle, error)
	ScoreBattle(ctx context.Context, battleID, playerID string) (model.ScoreBreakdown, error)
	FinalizeBattle(ctx context.Context, battleID, callerID string) (*engine.FinalizeResult, error)
	GetStats(ctx context.Context, userID string) (*dto.BattleStatsResponse, error)
}

type StatsServiceInterface interface {
	GetSummary(ctx context.Context, userID string) (*dto.StatsSummaryResponse, error)
	GetWeeklyChart(ctx context.Context, userID string) ([]engine.DayActivity, error)
	GetCategoryBreakdown(ctx context.Context, userID string, days int) (*dto.CategoryStatsResponse, error)
	GetHeatmap(ctx context.Context, userID string, year int) (*engine.Heatmap, error)
	GetMonthlyComparison(ctx context.Context, userID string) ([]engine.MonthSummary, error)
}
