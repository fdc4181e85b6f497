package repositories

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AvatarRepository handles avatar and equipment rows
type AvatarRepository struct {
	BaseRepository
}

func NewAvatarRepository(db *gorm.DB) *AvatarRepository {
	return &AvatarRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *AvatarRepository) GetAvatar(ctx context.Context, userID string) (*model.Avatar, error) {
	var avatar model.Avatar
	if err := ds.conn(ctx).Where("user_id = ?", userID).First(&avatar).Error; err != nil {
		return nil, translate(err)
	}
	return &avatar, nil
}

func (ds *AvatarRepository) GetEquipment(ctx context.Context, userID string) ([]model.Equipment, error) {
	var equipment []model.Equipment
	if err := ds.conn(ctx).Where("user_id = ?", userID).Order("slot ASC").Find(&equipment).Error; err != nil {
		return nil, err
	}
	return equipment, nil
}

// WriteAvatarState upserts the avatar row of the user.
func (ds *AvatarRepository) WriteAvatarState(ctx context.Context, userID string, state model.AvatarState) error {
	avatar := &model.Avatar{ID: newID(), UserID: userID, State: state}
	return ds.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"kind":        state.Kind,
			"tier":        state.Tier,
			"unlocked_at": state.UnlockedAt,
			"updated_at":  time.Now(),
		}),
	}).Create(avatar).Error
}

// WriteEquipmentState upserts one (user, slot) equipment row.
func (ds *AvatarRepository) WriteEquipmentState(ctx context.Context, userID string, slot model.Slot, state model.EquipmentState) error {
	equipment := &model.Equipment{ID: newID(), UserID: userID, Slot: slot, State: state}
	return ds.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "slot"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"kind":        state.Kind,
			"tier":        state.Tier,
			"intensity":   state.Intensity,
			"unlocked_at": state.UnlockedAt,
			"updated_at":  time.Now(),
		}),
	}).Create(equipment).Error
}
