package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type StatsHandler struct {
	statsSvc StatsServiceInterface
}

func NewStatsHandler(statsSvc StatsServiceInterface) *StatsHandler {
	return &StatsHandler{
		statsSvc: statsSvc,
	}
}

// @Summary Stats summary
// @Description All-time completions, active habits, XP, level and streaks
// @Tags stats
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.StatsSummaryResponse}
// @Router /api/v1/stats/summary [get]
func (h *StatsHandler) GetSummary(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	summary, err := h.statsSvc.GetSummary(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", summary)
}

// @Summary Weekly chart
// @Description Done, partial and missed counts and XP for each of the last seven days
// @Tags stats
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]engine.DayActivity}
// @Router /api/v1/stats/weekly [get]
func (h *StatsHandler) GetWeeklyChart(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	chart, err := h.statsSvc.GetWeeklyChart(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", chart)
}

// @Summary Category breakdown
// @Tags stats
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param days query int false "Period in days (default 30, max 365)"
// @Success 200 {object} shared.Response{data=dto.CategoryStatsResponse}
// @Failure 400 {object} shared.Response
// @Router /api/v1/stats/categories [get]
func (h *StatsHandler) GetCategoryBreakdown(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	breakdown, err := h.statsSvc.GetCategoryBreakdown(c.UserContext(), userID, c.QueryInt("days", shared.DefaultStatsPeriodDays))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", breakdown)
}

// @Summary Activity heatmap
// @Tags stats
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param year query int false "Calendar year (default current)"
// @Success 200 {object} shared.Response{data=engine.Heatmap}
// @Failure 400 {object} shared.Response
// @Router /api/v1/stats/heatmap [get]
func (h *StatsHandler) GetHeatmap(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	heatmap, err := h.statsSvc.GetHeatmap(c.UserContext(), userID, c.QueryInt("year"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", heatmap)
}

// @Summary Monthly comparison
// @Description The current month and the five before it
// @Tags stats
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]engine.MonthSummary}
// @Router /api/v1/stats/monthly [get]
func (h *StatsHandler) GetMonthlyComparison(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	months, err := h.statsSvc.GetMonthlyComparison(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", months)
}
