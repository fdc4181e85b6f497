package dto

import (
	"testing"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequest_PasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"SecurePass123!", true},
		{"short1!", false},
		{"alllowercase123!", false},
		{"NoDigitsHere!", false},
		{"NoSpecial123", false},
	}

	for _, tc := range cases {
		t.Run(tc.password, func(t *testing.T) {
			err := RegisterRequest{Email: "user@example.com", Username: "johndoe", Password: tc.password}.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoginRequest_AcceptsEmailOrUsername(t *testing.T) {
	assert.NoError(t, LoginRequest{EmailOrUsername: "user@example.com", Password: "x"}.Validate())
	assert.NoError(t, LoginRequest{EmailOrUsername: "john_doe", Password: "x"}.Validate())
	assert.Error(t, LoginRequest{EmailOrUsername: "no spaces allowed", Password: "x"}.Validate())
}

func TestCreateHabitRequest_Enums(t *testing.T) {
	valid := CreateHabitRequest{Name: "Read", Category: "study", Difficulty: "medium"}
	assert.NoError(t, valid.Validate())

	invalid := CreateHabitRequest{Name: "Read", Category: "gaming", Difficulty: "impossible"}
	err := invalid.Validate()
	require.Error(t, err)

	resp := CreateValidationErrorResponse(err)
	assert.Equal(t, 400, resp.Code)
	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "Category", resp.Errors[0].Field)
	assert.Contains(t, resp.Errors[0].Message, "health, study")
	assert.Equal(t, "Difficulty", resp.Errors[1].Field)
}

func TestCompleteHabitRequest_EmptyStatusIsValid(t *testing.T) {
	assert.NoError(t, CompleteHabitRequest{}.Validate())
	assert.NoError(t, CompleteHabitRequest{Status: "partial"}.Validate())
	assert.Error(t, CompleteHabitRequest{Status: "skipped"}.Validate())
}

func TestCreateAchievementRequest_RequiresPositiveThreshold(t *testing.T) {
	req := CreateAchievementRequest{Title: "Early riser", Kind: "daysActive", Threshold: 0}
	err := req.Validate()
	require.Error(t, err)

	errs := FormatValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "Threshold", errs[0].Field)

	req.Threshold = 5
	req.Window = "weekly"
	req.Rarity = "epic"
	assert.NoError(t, req.Validate())
}

func TestCreateBattleRequest_ValidatesCriteria(t *testing.T) {
	req := CreateBattleRequest{
		OpponentID: "opponent",
		MetricType: "custom",
		Criteria:   []CriterionRequest{{Name: "consistency", Weight: 1, Kind: "median"}},
	}
	err := req.Validate()
	require.Error(t, err)

	errs := FormatValidationErrors(err)
	require.Len(t, errs, 1)
	assert.Equal(t, "Kind", errs[0].Field)

	req.Criteria[0].Kind = "streak"
	assert.NoError(t, req.Validate())

	req.MetricType = "fastest"
	assert.Error(t, req.Validate())
}

func TestNewFinalizeBattleResponse(t *testing.T) {
	winner := "p1"
	result := &engine.FinalizeResult{
		Battle:  &model.Battle{ID: "b1", Player1ID: "p1", Player2ID: "p2", Status: model.BattleCompleted},
		Outcome: engine.Outcome{WinnerID: &winner, Margin: 12.5},
		Rewards: []engine.Reward{
			{PlayerID: "p1", XP: 100, Result: engine.XPResult{NewXP: 350, NewLevel: 4, LeveledUp: true}},
			{PlayerID: "p2", XP: 25, Result: engine.XPResult{NewXP: 80, NewLevel: 1}},
		},
	}

	resp := NewFinalizeBattleResponse(result)
	assert.Equal(t, "b1", resp.Battle.ID)
	assert.Equal(t, "p1", *resp.Outcome.WinnerID)
	assert.False(t, resp.Outcome.IsTie)
	require.Len(t, resp.Rewards, 2)
	assert.Equal(t, BattleRewardResponse{PlayerID: "p1", XP: 100, NewXP: 350, NewLevel: 4, LeveledUp: true}, resp.Rewards[0])
	assert.Equal(t, 25, resp.Rewards[1].XP)
}

func TestNewAvatarChanges_EmptyIsNotNil(t *testing.T) {
	changes := NewAvatarChanges(nil)
	assert.NotNil(t, changes)
	assert.Empty(t, changes)
}
