package dto

import (
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
)

type AvatarChange struct {
	Kind        string      `json:"kind"`
	Description string      `json:"description"`
	Slot        *model.Slot `json:"slot,omitempty"`
}

type NextEvolutionResponse struct {
	Kind       model.AvatarKind `json:"kind"`
	Name       string           `json:"name"`
	MinLevel   int              `json:"min_level"`
	LevelsToGo int              `json:"levels_to_go"`
}

type ThemeResponse struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
	Gradient  string `json:"gradient"`
}

type AvatarResponse struct {
	UserID         string                              `json:"user_id"`
	Avatar         model.AvatarState                   `json:"avatar"`
	Equipment      map[model.Slot]model.EquipmentState `json:"equipment"`
	EquipmentCount EquipmentCountResponse              `json:"equipment_count"`
	NextEvolution  *NextEvolutionResponse              `json:"next_evolution,omitempty"`
	Theme          ThemeResponse                       `json:"theme"`
	SpriteURL      string                              `json:"sprite_url,omitempty"`
	Level          int                                 `json:"level"`
	Title          string                              `json:"title"`
}

type NextUnlocksResponse struct {
	Unlocks []engine.NextUnlock `json:"unlocks"`
	Total   int                 `json:"total"`
}

type EquipmentCountResponse struct {
	Total  int         `json:"total"`
	ByTier map[int]int `json:"by_tier"`
}

type EvaluateAvatarResponse struct {
	Changes []AvatarChange `json:"changes"`
	Avatar  AvatarResponse `json:"avatar"`
}

func NewAvatarChanges(events []engine.ChangeEvent) []AvatarChange {
	changes := make([]AvatarChange, 0, len(events))
	for _, e := range events {
		changes = append(changes, AvatarChange{
			Kind:        string(e.Kind),
			Description: e.Description,
			Slot:        e.Slot,
		})
	}
	return changes
}
