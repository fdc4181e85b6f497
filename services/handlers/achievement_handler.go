package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type AchievementHandler struct {
	achievementSvc AchievementServiceInterface
}

func NewAchievementHandler(achievementSvc AchievementServiceInterface) *AchievementHandler {
	return &AchievementHandler{
		achievementSvc: achievementSvc,
	}
}

// @Summary List achievements
// @Tags achievements
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param unlocked query bool false "Only unlocked (true) or only locked (false)"
// @Success 200 {object} shared.Response{data=[]model.Achievement}
// @Router /api/v1/achievements [get]
func (h *AchievementHandler) ListAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var unlocked *bool
	if v := c.Query("unlocked"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return shared.NewBadRequestError(err, "Invalid 'unlocked' filter")
		}
		unlocked = &parsed
	}

	achievements, err := h.achievementSvc.ListAchievements(c.UserContext(), userID, unlocked)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", achievements)
}

// @Summary Achievement stats
// @Tags achievements
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=engine.AchievementStats}
// @Router /api/v1/achievements/stats [get]
func (h *AchievementHandler) GetStats(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	stats, err := h.achievementSvc.GetStats(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", stats)
}

// @Summary Achievement progress
// @Description Current value, target and percentage of every locked achievement
// @Tags achievements
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=[]engine.AchievementProgress}
// @Router /api/v1/achievements/progress [get]
func (h *AchievementHandler) GetProgress(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	progress, err := h.achievementSvc.GetProgress(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", progress)
}

// @Summary Next achievements
// @Description Locked achievements closest to unlocking
// @Tags achievements
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param limit query int false "Maximum entries (default 5)"
// @Success 200 {object} shared.Response{data=[]engine.AchievementProgress}
// @Router /api/v1/achievements/next [get]
func (h *AchievementHandler) GetNextAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	next, err := h.achievementSvc.GetNextAchievements(c.UserContext(), userID, c.QueryInt("limit", shared.DefaultNextAchievements))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", next)
}

// @Summary Create custom achievement
// @Tags achievements
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createRequest body dto.CreateAchievementRequest true "Achievement"
// @Success 201 {object} shared.Response{data=model.Achievement}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/achievements [post]
func (h *AchievementHandler) CreateAchievement(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateAchievementRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	achievement, err := h.achievementSvc.CreateCustomAchievement(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Achievement created", achievement)
}

// @Summary Evaluate achievements
// @Description Unlock every achievement the caller now satisfies
// @Tags achievements
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.EvaluateAchievementsResponse}
// @Router /api/v1/achievements/evaluate [post]
func (h *AchievementHandler) EvaluateAchievements(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.achievementSvc.RunEvaluation(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
