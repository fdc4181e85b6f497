package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository implements engine.ProfileStore over the progress, avatar
// and equipment tables.
type ProfileRepository struct {
	BaseRepository
	avatars *AvatarRepository
}

var _ engine.ProfileStore = (*ProfileRepository)(nil)

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{
		BaseRepository: NewBaseRepository(db),
		avatars:        NewAvatarRepository(db),
	}
}

func (ds *ProfileRepository) GetProgress(ctx context.Context, userID string) (*model.UserProgress, error) {
	var progress model.UserProgress
	if err := ds.conn(ctx).Where("user_id = ?", userID).First(&progress).Error; err != nil {
		return nil, translate(err)
	}
	return &progress, nil
}

func (ds *ProfileRepository) ReadProfile(ctx context.Context, userID string) (*engine.Profile, error) {
	progress, err := ds.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &engine.Profile{
		UserID:    userID,
		XP:        progress.XP,
		Level:     progress.Level,
		Streak:    progress.Streak(),
		Equipment: map[model.Slot]model.EquipmentState{},
	}

	avatar, err := ds.avatars.GetAvatar(ctx, userID)
	switch {
	case err == nil:
		profile.Avatar = avatar.State
	case errors.Is(err, engine.ErrNotFound):
		profile.Avatar = model.AvatarState{Kind: model.AvatarAspirant, Tier: 1}
	default:
		return nil, err
	}

	equipment, err := ds.avatars.GetEquipment(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, e := range equipment {
		profile.Equipment[e.Slot] = e.State
	}
	return profile, nil
}

// AddXP increments XP and recomputes the level in one UPDATE so concurrent
// grants never overwrite each other.
func (ds *ProfileRepository) AddXP(ctx context.Context, userID string, amount int) (engine.XPResult, error) {
	var result engine.XPResult

	err := ds.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if amount > 0 {
			res := tx.Model(&model.UserProgress{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
				"xp":         gorm.Expr("xp + ?", amount),
				"level":      gorm.Expr("(xp + ?) / ? + 1", amount, engine.XPPerLevel),
				"updated_at": time.Now(),
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return engine.ErrNotFound
			}
		}

		var progress model.UserProgress
		if err := tx.Where("user_id = ?", userID).First(&progress).Error; err != nil {
			return translate(err)
		}

		granted := amount
		if granted < 0 {
			granted = 0
		}
		result = engine.XPResult{
			NewXP:     progress.XP,
			NewLevel:  progress.Level,
			LeveledUp: progress.Level > engine.LevelForXP(progress.XP-granted),
		}
		return nil
	})
	if err != nil {
		return engine.XPResult{}, fmt.Errorf("add xp: %w", err)
	}
	return result, nil
}

func (ds *ProfileRepository) WriteAvatarState(ctx context.Context, userID string, state model.AvatarState) error {
	return ds.avatars.WriteAvatarState(ctx, userID, state)
}

func (ds *ProfileRepository) WriteEquipmentState(ctx context.Context, userID string, slot model.Slot, state model.EquipmentState) error {
	return ds.avatars.WriteEquipmentState(ctx, userID, slot, state)
}

// RecordActivity advances the streak record for an activity on day.
// Repeated calls for the same day leave it unchanged.
func (ds *ProfileRepository) RecordActivity(ctx context.Context, userID string, day time.Time) (model.StreakRecord, error) {
	var record model.StreakRecord
	day = model.Midnight(day)

	err := ds.conn(ctx).Transaction(func(tx *gorm.DB) error {
		var progress model.UserProgress
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&progress).Error; err != nil {
			return translate(err)
		}

		hadActivity := progress.LastActivityDate != nil
		gap := 0
		if hadActivity {
			last := model.Midnight(progress.LastActivityDate.In(day.Location()))
			if day.Before(last) {
				record = progress.Streak()
				return nil
			}
			gap = int(day.Sub(last).Hours()/24 + 0.5)
		}

		record = engine.NextStreak(progress.Streak(), gap, hadActivity)
		return tx.Model(&model.UserProgress{}).Where("id = ?", progress.ID).Updates(map[string]interface{}{
			"current_streak":     record.Current,
			"longest_streak":     record.Longest,
			"last_activity_date": day,
			"updated_at":         time.Now(),
		}).Error
	})
	if err != nil {
		return model.StreakRecord{}, fmt.Errorf("record activity: %w", err)
	}
	return record, nil
}

// ==================== LEADERBOARD METHODS ====================

// LeaderboardRow is one ranked user.
type LeaderboardRow struct {
	UserID   string
	Username string
	XP       int
	Level    int
}

func (ds *ProfileRepository) GetTopByXP(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := ds.conn(ctx).Table("user_progresses").
		Select("user_progresses.user_id, users.username, user_progresses.xp, user_progresses.level").
		Joins("JOIN users ON users.id = user_progresses.user_id").
		Order("user_progresses.xp DESC, user_progresses.user_id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// GetUserRank is one plus the number of users with strictly more XP.
func (ds *ProfileRepository) GetUserRank(ctx context.Context, userID string) (int, error) {
	progress, err := ds.GetProgress(ctx, userID)
	if err != nil {
		return 0, err
	}

	var ahead int64
	if err := ds.conn(ctx).Model(&model.UserProgress{}).Where("xp > ?", progress.XP).Count(&ahead).Error; err != nil {
		return 0, err
	}
	return int(ahead) + 1, nil
}

// ListXPPage pages through every user's XP in a stable order.
func (ds *ProfileRepository) ListXPPage(ctx context.Context, offset, limit int) ([]LeaderboardRow, error) {
	var rows []LeaderboardRow
	err := ds.conn(ctx).Table("user_progresses").
		Select("user_id, xp, level").
		Order("user_id ASC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
