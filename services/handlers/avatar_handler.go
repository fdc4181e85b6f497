package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type AvatarHandler struct {
	avatarSvc AvatarServiceInterface
}

func NewAvatarHandler(avatarSvc AvatarServiceInterface) *AvatarHandler {
	return &AvatarHandler{
		avatarSvc: avatarSvc,
	}
}

// @Summary Get avatar
// @Description Avatar, equipment, next evolution, theme and sprite URL
// @Tags avatar
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.AvatarResponse}
// @Router /api/v1/avatar [get]
func (h *AvatarHandler) GetAvatar(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	avatar, err := h.avatarSvc.GetAvatar(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", avatar)
}

// @Summary Next avatar unlocks
// @Description Next evolution and the next tier of every equipment rule, with current and target values
// @Tags avatar
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.NextUnlocksResponse}
// @Router /api/v1/avatar/next-unlocks [get]
func (h *AvatarHandler) GetNextUnlocks(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	unlocks, err := h.avatarSvc.GetNextUnlocks(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", unlocks)
}

// @Summary Evaluate avatar
// @Tags avatar
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.EvaluateAvatarResponse}
// @Router /api/v1/avatar/evaluate [post]
func (h *AvatarHandler) EvaluateAvatar(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	resp, err := h.avatarSvc.RunEvaluation(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", resp)
}
