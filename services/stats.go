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
	"github.com/lac-hong-legacy/librarium_api/shared"
)

// StatsService serves read-only analytics over the completion log.
type StatsService struct {
	appContext.DefaultService

	dbSvc *DatabaseService

	now engine.Clock
}

const STATS_SVC = "stats_svc"

func (svc StatsService) Id() string {
	return STATS_SVC
}

func (svc *StatsService) Configure(ctx *appContext.Context) error {
	svc.now = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *StatsService) Start() error {
	svc.dbSvc = svc.Service(DATABASE_SVC).(*DatabaseService)
	return nil
}

func (svc *StatsService) GetSummary(ctx context.Context, userID string) (*dto.StatsSummaryResponse, error) {
	progress, err := svc.dbSvc.Profiles().GetProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return nil, shared.NewNotFoundError(err, "User not found")
		}
		return nil, shared.NewInternalError(err, "Failed to get user progress")
	}

	total, err := svc.dbSvc.Habits().CountCompletions(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to count completions")
	}

	habits, err := svc.dbSvc.Habits().FetchActiveHabits(ctx, userID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to list habits")
	}

	return &dto.StatsSummaryResponse{
		TotalDone:     total,
		ActiveHabits:  len(habits),
		XP:            progress.XP,
		Level:         progress.Level,
		CurrentStreak: progress.CurrentStreak,
		LongestStreak: progress.LongestStreak,
	}, nil
}

// GetWeeklyChart covers the seven days ending today.
func (svc *StatsService) GetWeeklyChart(ctx context.Context, userID string) ([]engine.DayActivity, error) {
	today := model.Midnight(svc.now())
	records, habits, err := svc.load(ctx, userID, today.AddDate(0, 0, -6), today)
	if err != nil {
		return nil, err
	}
	return engine.WeeklyChart(records, habits, today), nil
}

// GetCategoryBreakdown covers the last days days, today included.
func (svc *StatsService) GetCategoryBreakdown(ctx context.Context, userID string, days int) (*dto.CategoryStatsResponse, error) {
	if days == 0 {
		days = shared.DefaultStatsPeriodDays
	}
	if days < 1 || days > shared.MaxStatsPeriodDays {
		return nil, shared.NewBadRequestError(fmt.Errorf("period %d out of range", days), fmt.Sprintf("Period must be between 1 and %d days", shared.MaxStatsPeriodDays))
	}

	today := model.Midnight(svc.now())
	records, habits, err := svc.load(ctx, userID, today.AddDate(0, 0, -(days-1)), today)
	if err != nil {
		return nil, err
	}
	return &dto.CategoryStatsResponse{Days: days, Categories: engine.CategoryBreakdown(records, habits)}, nil
}

// GetHeatmap covers one calendar year, the current one when year is zero.
func (svc *StatsService) GetHeatmap(ctx context.Context, userID string, year int) (*engine.Heatmap, error) {
	now := svc.now()
	if year == 0 {
		year = now.Year()
	}
	if year < 2000 || year > now.Year() {
		return nil, shared.NewBadRequestError(fmt.Errorf("year %d out of range", year), "Invalid year")
	}

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, now.Location())
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, now.Location())
	records, err := svc.dbSvc.Habits().FetchCompletions(ctx, userID, from, to)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load completions")
	}

	heatmap := engine.BuildHeatmap(records, year)
	return &heatmap, nil
}

// GetMonthlyComparison covers the current month and the five before it.
func (svc *StatsService) GetMonthlyComparison(ctx context.Context, userID string) ([]engine.MonthSummary, error) {
	now := svc.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(shared.MonthlyComparisonSpan - 1), 0)
	records, err := svc.dbSvc.Habits().FetchCompletions(ctx, userID, first, model.Midnight(now))
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to load completions")
	}
	return engine.MonthlyComparison(records, now, shared.MonthlyComparisonSpan), nil
}

// load fetches the log for [from, to] and every habit, inactive ones
// included, so old entries keep their names and categories.
func (svc *StatsService) load(ctx context.Context, userID string, from, to time.Time) ([]model.HabitCompletion, []model.Habit, error) {
	records, err := svc.dbSvc.Habits().FetchCompletions(ctx, userID, from, to)
	if err != nil {
		return nil, nil, shared.NewInternalError(err, "Failed to load completions")
	}
	habits, err := svc.dbSvc.Habits().ListHabits(ctx, userID, true)
	if err != nil {
		return nil, nil, shared.NewInternalError(err, "Failed to list habits")
	}
	return records, habits, nil
}
