package model

import "time"

type AvatarState struct {
	Kind       AvatarKind `json:"kind" gorm:"default:aspirant"`
	Tier       int        `json:"tier" gorm:"default:1"`
	UnlockedAt time.Time  `json:"unlocked_at"`
}

type Avatar struct {
	ID        string      `json:"id" gorm:"primaryKey"`
	UserID    string      `json:"user_id" gorm:"uniqueIndex;not null"`
	State     AvatarState `json:"state" gorm:"embedded"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// EquipmentState describes what occupies a slot. Intensity is the aura
// intensity or the particle quantity; other slots leave it at zero.
type EquipmentState struct {
	Kind       string    `json:"kind"`
	Tier       int       `json:"tier" gorm:"default:1"`
	Intensity  int       `json:"intensity" gorm:"default:0"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

type Equipment struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	UserID    string         `json:"user_id" gorm:"not null;uniqueIndex:idx_equipment_user_slot"`
	Slot      Slot           `json:"slot" gorm:"not null;uniqueIndex:idx_equipment_user_slot"`
	State     EquipmentState `json:"state" gorm:"embedded"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// DefaultEquipment is the loadout every new avatar starts with.
func DefaultEquipment(now time.Time) map[Slot]EquipmentState {
	return map[Slot]EquipmentState{
		SlotWeapon:    {Kind: "basic-sword", Tier: 1, UnlockedAt: now},
		SlotArmor:     {Kind: "basic-cloak", Tier: 1, UnlockedAt: now},
		SlotAccessory: {Kind: "none", Tier: 1, UnlockedAt: now},
		SlotAura:      {Kind: "none", Tier: 1, UnlockedAt: now},
		SlotParticles: {Kind: "none", Tier: 1, UnlockedAt: now},
	}
}
