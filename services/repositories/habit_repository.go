package repositories

import (
	"context"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"gorm.io/gorm"
)

// HabitRepository handles habits and the completion log
type HabitRepository struct {
	BaseRepository
}

var (
	_ engine.CompletionReader = (*HabitRepository)(nil)
	_ engine.HabitReader      = (*HabitRepository)(nil)
)

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

func (ds *HabitRepository) CreateHabit(ctx context.Context, habit *model.Habit) error {
	now := time.Now()
	habit.ID = newID()
	habit.IsActive = true
	habit.CreatedAt = now
	habit.UpdatedAt = now
	return ds.conn(ctx).Create(habit).Error
}

func (ds *HabitRepository) GetHabit(ctx context.Context, userID, habitID string) (*model.Habit, error) {
	var habit model.Habit
	if err := ds.conn(ctx).Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error; err != nil {
		return nil, translate(err)
	}
	return &habit, nil
}

func (ds *HabitRepository) ListHabits(ctx context.Context, userID string, includeInactive bool) ([]model.Habit, error) {
	var habits []model.Habit
	query := ds.conn(ctx).Where("user_id = ?", userID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("created_at ASC").Find(&habits).Error; err != nil {
		return nil, err
	}
	return habits, nil
}

// UpdateHabit writes the given columns of the user's habit.
func (ds *HabitRepository) UpdateHabit(ctx context.Context, userID, habitID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	res := ds.conn(ctx).Model(&model.Habit{}).
		Where("id = ? AND user_id = ?", habitID, userID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (ds *HabitRepository) DeactivateHabit(ctx context.Context, userID, habitID string) error {
	res := ds.conn(ctx).Model(&model.Habit{}).
		Where("id = ? AND user_id = ?", habitID, userID).
		Updates(map[string]interface{}{
			"is_active":  false,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return engine.ErrNotFound
	}
	return nil
}

func (ds *HabitRepository) FetchActiveHabits(ctx context.Context, userID string) ([]model.Habit, error) {
	return ds.ListHabits(ctx, userID, false)
}

// ==================== COMPLETION LOG ====================

// FetchCompletions returns the completions dated within [from, to].
func (ds *HabitRepository) FetchCompletions(ctx context.Context, userID string, from, to time.Time) ([]model.HabitCompletion, error) {
	var completions []model.HabitCompletion
	err := ds.conn(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&completions).Error
	if err != nil {
		return nil, err
	}
	return completions, nil
}

// CreateCompletion inserts the entry for a habit and day. It returns
// engine.ErrConflict when the day is already recorded.
func (ds *HabitRepository) CreateCompletion(ctx context.Context, completion *model.HabitCompletion) error {
	completion.ID = newID()
	completion.Date = model.Midnight(completion.Date)
	completion.CreatedAt = time.Now()

	var existing int64
	err := ds.conn(ctx).Model(&model.HabitCompletion{}).
		Where("habit_id = ? AND date = ?", completion.HabitID, completion.Date).
		Count(&existing).Error
	if err != nil {
		return err
	}
	if existing > 0 {
		return engine.ErrConflict
	}

	if err := ds.conn(ctx).Create(completion).Error; err != nil {
		if isUniqueViolation(err) {
			return engine.ErrConflict
		}
		return err
	}
	return nil
}

// CountCompletions counts the user's done entries over all time.
func (ds *HabitRepository) CountCompletions(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := ds.conn(ctx).Model(&model.HabitCompletion{}).
		Where("user_id = ? AND status = ?", userID, model.StatusDone).
		Count(&count).Error
	return count, err
}
