package repositories

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
)

// UserRepository handles user-related database operations
type UserRepository struct {
	BaseRepository
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *UserRepository) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := ds.conn(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (ds *UserRepository) GetUserByEmailOrUsername(ctx context.Context, emailOrUsername string) (*model.User, error) {
	var user model.User
	if err := ds.conn(ctx).Where("email = ? OR username = ?", emailOrUsername, emailOrUsername).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (ds *UserRepository) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int64
	err := ds.conn(ctx).Model(&model.User{}).Where("LOWER(username) = LOWER(?)", username).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (ds *UserRepository) IsEmailAvailable(ctx context.Context, email string) (bool, error) {
	var count int64
	err := ds.conn(ctx).Model(&model.User{}).Where("LOWER(email) = LOWER(?)", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (ds *UserRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	now := time.Now()
	return ds.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"last_login": now,
		"updated_at": now,
	}).Error
}

func (ds *UserRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var count int64
	if err := ds.conn(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListUserIDs pages through every user id in a stable order.
func (ds *UserRepository) ListUserIDs(ctx context.Context, offset, limit int) ([]string, error) {
	var ids []string
	err := ds.conn(ctx).Model(&model.User{}).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ==================== REGISTRATION ====================

// Register creates the user together with everything a new player starts
// with, in a single transaction.
func (ds *UserRepository) Register(ctx context.Context, user *model.User, catalog []model.Achievement) error {
	now := time.Now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastLogin = now

	err := ds.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		progress := &model.UserProgress{ID: newID(), UserID: user.ID, XP: 0, Level: 1}
		if err := tx.Create(progress).Error; err != nil {
			return err
		}

		avatar := &model.Avatar{
			ID:     newID(),
			UserID: user.ID,
			State:  model.AvatarState{Kind: model.AvatarAspirant, Tier: 1, UnlockedAt: now},
		}
		if err := tx.Create(avatar).Error; err != nil {
			return err
		}

		equipment := make([]model.Equipment, 0, len(model.Slots))
		defaults := model.DefaultEquipment(now)
		for _, slot := range model.Slots {
			equipment = append(equipment, model.Equipment{ID: newID(), UserID: user.ID, Slot: slot, State: defaults[slot]})
		}
		if err := tx.Create(&equipment).Error; err != nil {
			return err
		}

		if len(catalog) == 0 {
			return nil
		}
		achievements := make([]model.Achievement, 0, len(catalog))
		for _, a := range catalog {
			a.ID = newID()
			a.UserID = user.ID
			a.UnlockedAt = nil
			achievements = append(achievements, a)
		}
		return tx.Create(&achievements).Error
	})
	if isUniqueViolation(err) {
		return engine.ErrConflict
	}
	return err
}

// GetUsernames resolves usernames for ids; unknown ids are absent from the map.
func (ds *UserRepository) GetUsernames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var users []model.User
	if err := ds.conn(ctx).Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
