package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

type BattleHandler struct {
	battleSvc BattleServiceInterface
}

func NewBattleHandler(battleSvc BattleServiceInterface) *BattleHandler {
	return &BattleHandler{
		battleSvc: battleSvc,
	}
}

// @Summary Challenge a user
// @Tags battles
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createRequest body dto.CreateBattleRequest true "Battle"
// @Success 201 {object} shared.Response{data=model.Battle}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 409 {object} shared.Response
// @Router /api/v1/battles [post]
func (h *BattleHandler) CreateBattle(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateBattleRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	battle, err := h.battleSvc.CreateBattle(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Battle created", battle)
}

// @Summary List battles
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param status query string false "pending, active, completed, cancelled or expired"
// @Param metric_type query string false "Metric type"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} shared.Response{data=[]model.Battle}
// @Router /api/v1/battles [get]
func (h *BattleHandler) ListBattles(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.BattleListRequest
	if err := c.QueryParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid query")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	battles, err := h.battleSvc.ListBattles(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", battles)
}

// @Summary Battle stats
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Success 200 {object} shared.Response{data=dto.BattleStatsResponse}
// @Router /api/v1/battles/stats [get]
func (h *BattleHandler) GetStats(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	stats, err := h.battleSvc.GetStats(c.UserContext(), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", stats)
}

// @Summary Get battle
// @Description A pending battle past its end is expired on read
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=dto.BattleDetailResponse}
// @Failure 403 {object} shared.Response
// @Router /api/v1/battles/{id} [get]
func (h *BattleHandler) GetBattle(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	battle, err := h.battleSvc.GetBattle(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", battle)
}

type battleTransition func(h *BattleHandler, c *fiber.Ctx, battleID, userID string) (*model.Battle, error)

func (h *BattleHandler) respond(c *fiber.Ctx, message string, fn battleTransition) error {
	userID := c.Locals(shared.UserID).(string)

	battle, err := fn(h, c, c.Params("id"), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, message, battle)
}

// @Summary Accept battle
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=model.Battle}
// @Failure 409 {object} shared.Response
// @Router /api/v1/battles/{id}/accept [post]
func (h *BattleHandler) AcceptBattle(c *fiber.Ctx) error {
	return h.respond(c, "Battle accepted", func(h *BattleHandler, c *fiber.Ctx, battleID, userID string) (*model.Battle, error) {
		return h.battleSvc.AcceptBattle(c.UserContext(), battleID, userID)
	})
}

// @Summary Decline battle
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=model.Battle}
// @Router /api/v1/battles/{id}/decline [post]
func (h *BattleHandler) DeclineBattle(c *fiber.Ctx) error {
	return h.respond(c, "Battle declined", func(h *BattleHandler, c *fiber.Ctx, battleID, userID string) (*model.Battle, error) {
		return h.battleSvc.DeclineBattle(c.UserContext(), battleID, userID)
	})
}

// @Summary Cancel battle
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=model.Battle}
// @Router /api/v1/battles/{id}/cancel [post]
func (h *BattleHandler) CancelBattle(c *fiber.Ctx) error {
	return h.respond(c, "Battle cancelled", func(h *BattleHandler, c *fiber.Ctx, battleID, userID string) (*model.Battle, error) {
		return h.battleSvc.CancelBattle(c.UserContext(), battleID, userID)
	})
}

// @Summary Score battle
// @Description The caller's current score. Nothing is persisted.
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=model.ScoreBreakdown}
// @Router /api/v1/battles/{id}/score [get]
func (h *BattleHandler) ScoreBattle(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	score, err := h.battleSvc.ScoreBattle(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", score)
}

// @Summary Finalize battle
// @Description Score both players, pick the winner and grant rewards
// @Tags battles
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Battle ID"
// @Success 200 {object} shared.Response{data=dto.FinalizeBattleResponse}
// @Failure 409 {object} shared.Response
// @Router /api/v1/battles/{id}/finalize [post]
func (h *BattleHandler) FinalizeBattle(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	result, err := h.battleSvc.FinalizeBattle(c.UserContext(), c.Params("id"), userID)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Battle finalized", dto.NewFinalizeBattleResponse(result))
}
