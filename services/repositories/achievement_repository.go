package repositories

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementRepository handles per-user achievement rows
type AchievementRepository struct {
	BaseRepository
}

var _ engine.AchievementStore = (*AchievementRepository)(nil)

func NewAchievementRepository(db *gorm.DB) *AchievementRepository {
	return &AchievementRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *AchievementRepository) ListLocked(ctx context.Context, userID string) ([]model.Achievement, error) {
	var achievements []model.Achievement
	err := ds.conn(ctx).
		Where("user_id = ? AND unlocked_at IS NULL", userID).
		Order("created_at ASC").
		Find(&achievements).Error
	if err != nil {
		return nil, wrap("list locked achievements", err)
	}
	return achievements, nil
}

// ListAchievements returns the user's achievements. unlocked filters by
// state when non-nil.
func (ds *AchievementRepository) ListAchievements(ctx context.Context, userID string, unlocked *bool) ([]model.Achievement, error) {
	var achievements []model.Achievement
	query := ds.conn(ctx).Where("user_id = ?", userID)
	if unlocked != nil {
		if *unlocked {
			query = query.Where("unlocked_at IS NOT NULL")
		} else {
			query = query.Where("unlocked_at IS NULL")
		}
	}
	if err := query.Order("created_at ASC").Find(&achievements).Error; err != nil {
		return nil, wrap("list achievements", err)
	}
	return achievements, nil
}

// TryUnlock sets unlocked_at only if it is still NULL. It reports false when
// another caller got there first.
func (ds *AchievementRepository) TryUnlock(ctx context.Context, achievementID string, at time.Time) (bool, error) {
	res := ds.conn(ctx).Model(&model.Achievement{}).
		Where("id = ? AND unlocked_at IS NULL", achievementID).
		Updates(map[string]interface{}{
			"unlocked_at": at,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return false, wrap("unlock achievement", res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := ds.conn(ctx).Model(&model.Achievement{}).Where("id = ?", achievementID).Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, engine.ErrNotFound
	}
	return false, nil
}

func (ds *AchievementRepository) CountUnlocked(ctx context.Context, userID string) (engine.RarityCounts, error) {
	var rows []struct {
		Rarity model.Rarity
		Total  int
	}
	err := ds.conn(ctx).Model(&model.Achievement{}).
		Select("rarity, COUNT(*) AS total").
		Where("user_id = ? AND unlocked_at IS NOT NULL", userID).
		Group("rarity").
		Scan(&rows).Error
	if err != nil {
		return engine.RarityCounts{}, wrap("count unlocked achievements", err)
	}

	counts := engine.RarityCounts{ByRarity: map[model.Rarity]int{}}
	for _, r := range rows {
		counts.ByRarity[r.Rarity] = r.Total
		counts.Total += r.Total
	}
	return counts, nil
}

// SeedCatalog gives the user every catalog entry they do not have yet.
func (ds *AchievementRepository) SeedCatalog(ctx context.Context, userID string, catalog []model.Achievement) (int64, error) {
	if len(catalog) == 0 {
		return 0, nil
	}
	rows := make([]model.Achievement, 0, len(catalog))
	for _, a := range catalog {
		a.ID = newID()
		a.UserID = userID
		a.UnlockedAt = nil
		rows = append(rows, a)
	}

	res := ds.conn(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoNothing: true,
	}).Create(&rows)
	if res.Error != nil {
		return 0, wrap("seed catalog", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateCustom stores a user-authored achievement. A duplicate key yields
// engine.ErrConflict.
func (ds *AchievementRepository) CreateCustom(ctx context.Context, achievement *model.Achievement) error {
	achievement.ID = newID()
	if err := ds.conn(ctx).Create(achievement).Error; err != nil {
		if isUniqueViolation(err) {
			return engine.ErrConflict
		}
		return wrap("create custom achievement", err)
	}
	return nil
}

// DeleteStaleCustom removes locked custom achievements created before cutoff.
func (ds *AchievementRepository) DeleteStaleCustom(ctx context.Context, cutoff time.Time) (int64, error) {
	res := ds.conn(ctx).
		Where("is_custom = ? AND unlocked_at IS NULL AND created_at < ?", true, cutoff).
		Delete(&model.Achievement{})
	if res.Error != nil {
		return 0, wrap("delete stale custom achievements", res.Error)
	}
	return res.RowsAffected, nil
}
