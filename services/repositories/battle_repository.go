package repositories

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
)

// BattleRepository handles battles and their history
type BattleRepository struct {
	BaseRepository
}

var _ engine.BattleStore = (*BattleRepository)(nil)

func NewBattleRepository(db *gorm.DB) *BattleRepository {
	return &BattleRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CreateBattle inserts a battle. It fails with engine.ErrConflict when the
// pair already has a pending or active battle.
func (ds *BattleRepository) CreateBattle(ctx context.Context, battle *model.Battle) error {
	now := time.Now()
	battle.ID = newID()
	battle.PairKey = model.BattlePairKey(battle.Player1ID, battle.Player2ID)
	battle.CreatedAt = now
	battle.UpdatedAt = now
	if err := ds.conn(ctx).Create(battle).Error; err != nil {
		if isUniqueViolation(err) {
			return engine.ErrConflict
		}
		return wrap("create battle", err)
	}
	return nil
}

func (ds *BattleRepository) ReadBattle(ctx context.Context, id string) (*model.Battle, error) {
	var battle model.Battle
	if err := ds.conn(ctx).Where("id = ?", id).First(&battle).Error; err != nil {
		return nil, translate(err)
	}
	return &battle, nil
}

// WriteBattle saves every column of battle provided the stored status still
// equals expected.
func (ds *BattleRepository) WriteBattle(ctx context.Context, battle *model.Battle, expected model.BattleStatus) error {
	battle.UpdatedAt = time.Now()
	res := ds.conn(ctx).Model(&model.Battle{}).
		Where("id = ? AND status = ?", battle.ID, expected).
		Select("*").
		Omit("id", "created_at").
		Updates(battle)
	if res.Error != nil {
		return wrap("write battle", res.Error)
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := ds.conn(ctx).Model(&model.Battle{}).Where("id = ?", battle.ID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return engine.ErrNotFound
	}
	return engine.ErrConflict
}

// BattleFilter narrows ListBattles. Empty fields match everything.
type BattleFilter struct {
	Status     model.BattleStatus
	MetricType model.MetricType
	Limit      int
	Offset     int
}

func (ds *BattleRepository) ListBattles(ctx context.Context, userID string, filter BattleFilter) ([]model.Battle, error) {
	var battles []model.Battle
	query := ds.conn(ctx).Where("player1_id = ? OR player2_id = ?", userID, userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.MetricType != "" {
		query = query.Where("metric_type = ?", filter.MetricType)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Order("created_at DESC").Find(&battles).Error; err != nil {
		return nil, wrap("list battles", err)
	}
	return battles, nil
}

// HasOpenBattle reports whether the pair already has a pending or active
// battle, in either direction.
func (ds *BattleRepository) HasOpenBattle(ctx context.Context, a, b string) (bool, error) {
	var count int64
	err := ds.conn(ctx).Model(&model.Battle{}).
		Where("((player1_id = ? AND player2_id = ?) OR (player1_id = ? AND player2_id = ?))", a, b, b, a).
		Where("status IN ?", []model.BattleStatus{model.BattlePending, model.BattleActive}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListStalePending returns pending battles whose window closed before now.
func (ds *BattleRepository) ListStalePending(ctx context.Context, now time.Time, limit int) ([]model.Battle, error) {
	var battles []model.Battle
	err := ds.conn(ctx).
		Where("status = ? AND end_at < ?", model.BattlePending, now).
		Order("end_at ASC").
		Limit(limit).
		Find(&battles).Error
	if err != nil {
		return nil, wrap("list stale battles", err)
	}
	return battles, nil
}

// ListCompleted returns the user's completed battles, used for stats.
func (ds *BattleRepository) ListCompleted(ctx context.Context, userID string) ([]model.Battle, error) {
	return ds.ListBattles(ctx, userID, BattleFilter{Status: model.BattleCompleted})
}

// ==================== HISTORY ====================

func (ds *BattleRepository) AppendEvent(ctx context.Context, event *model.BattleEvent) error {
	event.ID = newID()
	event.CreatedAt = time.Now()
	return wrap("append battle event", ds.conn(ctx).Create(event).Error)
}

func (ds *BattleRepository) ListEvents(ctx context.Context, battleID string) ([]model.BattleEvent, error) {
	var events []model.BattleEvent
	err := ds.conn(ctx).Where("battle_id = ?", battleID).Order("created_at ASC, id ASC").Find(&events).Error
	if err != nil {
		return nil, wrap("list battle events", err)
	}
	return events, nil
}
