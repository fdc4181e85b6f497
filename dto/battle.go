package dto

import (
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
)

type CriterionRequest struct {
	Name        string  `json:"name" validate:"required,max=50" example:"consistency"`
	Description string  `json:"description" validate:"max=200"`
	Weight      float64 `json:"weight" validate:"min=0" example:"1.5"`
	Kind        string  `json:"kind" validate:"required,criterion_kind" example:"streak"`
}

type CreateBattleRequest struct {
	OpponentID      string             `json:"opponent_id" validate:"required" example:"0190a6b2-..."`
	MetricType      string             `json:"metric_type" validate:"omitempty,metric_type" example:"streak7"`
	DurationMinutes int                `json:"duration_minutes" validate:"min=0,max=43200" example:"60"`
	Criteria        []CriterionRequest `json:"criteria" validate:"omitempty,max=10,dive"`
}

func (r CreateBattleRequest) Validate() error {
	return GetValidator().Struct(r)
}

type BattleListRequest struct {
	Status     string `query:"status" validate:"omitempty,oneof=pending active completed cancelled expired"`
	MetricType string `query:"metric_type" validate:"omitempty,metric_type"`
	Limit      int    `query:"limit" validate:"min=0,max=100"`
	Offset     int    `query:"offset" validate:"min=0"`
}

func (r BattleListRequest) Validate() error {
	return GetValidator().Struct(r)
}

type BattleRewardResponse struct {
	PlayerID  string `json:"player_id"`
	XP        int    `json:"xp"`
	NewXP     int    `json:"new_xp"`
	NewLevel  int    `json:"new_level"`
	LeveledUp bool   `json:"leveled_up"`
}

type BattleOutcomeResponse struct {
	WinnerID *string `json:"winner_id"`
	IsTie    bool    `json:"is_tie"`
	Margin   float64 `json:"margin"`
}

type FinalizeBattleResponse struct {
	Battle  model.Battle           `json:"battle"`
	Outcome BattleOutcomeResponse  `json:"outcome"`
	Rewards []BattleRewardResponse `json:"rewards"`
}

type BattleDetailResponse struct {
	Battle model.Battle        `json:"battle"`
	Events []model.BattleEvent `json:"events"`
}

type BattleStatsResponse struct {
	Total   int     `json:"total"`
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	Ties    int     `json:"ties"`
	WinRate float64 `json:"win_rate"`
	XPWon   int     `json:"xp_won"`
}

func NewFinalizeBattleResponse(result *engine.FinalizeResult) *FinalizeBattleResponse {
	resp := &FinalizeBattleResponse{
		Battle: *result.Battle,
		Outcome: BattleOutcomeResponse{
			WinnerID: result.Outcome.WinnerID,
			IsTie:    result.Outcome.IsTie,
			Margin:   result.Outcome.Margin,
		},
		Rewards: make([]BattleRewardResponse, 0, len(result.Rewards)),
	}
	for _, r := range result.Rewards {
		resp.Rewards = append(resp.Rewards, BattleRewardResponse{
			PlayerID:  r.PlayerID,
			XP:        r.XP,
			NewXP:     r.Result.NewXP,
			NewLevel:  r.Result.NewLevel,
			LeveledUp: r.Result.LeveledUp,
		})
	}
	return resp
}
