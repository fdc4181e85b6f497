package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/librarium_api/dto"
	"github.com/lac-hong-legacy/librarium_api/shared"
)

const completionHistoryDays = 30

type HabitHandler struct {
	habitSvc HabitServiceInterface
}

func NewHabitHandler(habitSvc HabitServiceInterface) *HabitHandler {
	return &HabitHandler{
		habitSvc: habitSvc,
	}
}

// @Summary Create habit
// @Tags habits
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param createRequest body dto.CreateHabitRequest true "Habit"
// @Success 201 {object} shared.Response{data=model.Habit}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Router /api/v1/habits [post]
func (h *HabitHandler) CreateHabit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CreateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	habit, err := h.habitSvc.CreateHabit(c.UserContext(), userID, req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Habit created", habit)
}

// @Summary List habits
// @Tags habits
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param include_inactive query bool false "Include deactivated habits"
// @Success 200 {object} shared.Response{data=[]model.Habit}
// @Router /api/v1/habits [get]
func (h *HabitHandler) ListHabits(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	habits, err := h.habitSvc.ListHabits(c.UserContext(), userID, c.QueryBool("include_inactive"))
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", habits)
}

// @Summary Update habit
// @Description Only the fields present in the body change
// @Tags habits
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Habit ID"
// @Param updateRequest body dto.UpdateHabitRequest true "Fields to change"
// @Success 200 {object} shared.Response{data=model.Habit}
// @Failure 400 {object} dto.ValidationErrorResponse
// @Failure 404 {object} shared.Response
// @Router /api/v1/habits/{id} [put]
func (h *HabitHandler) UpdateHabit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.UpdateHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return shared.NewBadRequestError(err, "Invalid request")
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	habit, err := h.habitSvc.UpdateHabit(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Habit updated", habit)
}

// @Summary Deactivate habit
// @Description The habit and its history are kept; it no longer counts as active.
// @Tags habits
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Habit ID"
// @Success 200 {object} shared.Response
// @Router /api/v1/habits/{id} [delete]
func (h *HabitHandler) DeactivateHabit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	if err := h.habitSvc.DeactivateHabit(c.UserContext(), userID, c.Params("id")); err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Habit deactivated", nil)
}

// @Summary Complete habit
// @Description Record the day's outcome, grant XP and re-evaluate achievements and avatar
// @Tags habits
// @Accept json
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Habit ID"
// @Param completeRequest body dto.CompleteHabitRequest false "Completion"
// @Success 201 {object} shared.Response{data=dto.CompleteHabitResponse}
// @Failure 409 {object} shared.Response
// @Router /api/v1/habits/{id}/complete [post]
func (h *HabitHandler) CompleteHabit(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	var req dto.CompleteHabitRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return shared.NewBadRequestError(err, "Invalid request")
		}
	}

	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateValidationErrorResponse(err))
	}

	resp, err := h.habitSvc.CompleteHabit(c.UserContext(), userID, c.Params("id"), req)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, http.StatusCreated, "Habit completed", resp)
}

// @Summary List habit completions
// @Tags habits
// @Produce json
// @Security Bearer
// @Param Authorization header string true "User Bearer Token" default(Bearer <user_token>)
// @Param id path string true "Habit ID"
// @Param from query string false "First day (YYYY-MM-DD), default 30 days ago"
// @Param to query string false "Last day (YYYY-MM-DD), default today"
// @Success 200 {object} shared.Response{data=[]model.HabitCompletion}
// @Router /api/v1/habits/{id}/completions [get]
func (h *HabitHandler) ListCompletions(c *fiber.Ctx) error {
	userID := c.Locals(shared.UserID).(string)

	to := time.Now()
	if v := c.Query("to"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return shared.NewBadRequestError(err, "Invalid 'to' date")
		}
		to = parsed
	}

	from := to.AddDate(0, 0, -completionHistoryDays)
	if v := c.Query("from"); v != "" {
		parsed, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return shared.NewBadRequestError(err, "Invalid 'from' date")
		}
		from = parsed
	}

	if from.After(to) {
		return shared.ResponseBadRequest(c, "'from' must not be after 'to'")
	}

	completions, err := h.habitSvc.ListCompletions(c.UserContext(), userID, c.Params("id"), from, to)
	if err != nil {
		return err
	}

	return shared.ResponseJSON(c, fiber.StatusOK, "Success", completions)
}
