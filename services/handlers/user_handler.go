package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type UserHandler struct {
	progressSvc ProgressServiceInterface
}

func NewUserHandler(progressSvc ProgressServiceInterface) *UserHandler {
	return &UserHandler{
		progressSvc: progressSvc,
	}
}

// @Summary Get user profile
// @Description Get the caller's XP, level, title, rank and streak
// @Tags user
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.UserProfileResponse}
// @Router /api/v1/user/profile [get]
func (h *UserHandler) GetUserProfile(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	profile, err := h.progressSvc.GetUserProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", profile)
}

// @Summary Get leaderboard
// @Description Top users by XP. With a bearer token the caller's own entry is included.
// @Tags leaderboard
// @Accept json
// @Produce json
// @Param limit query int false "Limit results (default 10, max 100)"
// @Success 200 {object} shared.Response{data=dto.LeaderboardResponse}
// @Router /api/v1/leaderboard [get]
func (h *UserHandler) GetLeaderboard(c *fiber.Ctx) error {
	limit := shared.DefaultLeaderboardLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= shared.MaxLeaderboardLimit {
			limit = parsed
		}
	}

	userID, _ := c.Locals(shared.UserID).(string)

	leaderboard, err := h.progressSvc.GetLeaderboard(c.UserContext(), limit, userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", leaderboard)
}
