package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
)

// memStore implements every engine store over plain maps.
type memStore struct {
	mu           sync.Mutex
	profiles     map[string]*Profile
	achievements map[string]*model.Achievement
	completions  []model.HabitCompletion
	habits       []model.Habit
	battles      map[string]*model.Battle

	avatarWrites    int
	equipmentWrites int
	addXPErr        error
	addXPFailFor    string
	unlockConflict  bool
}

func newMemStore() *memStore {
	return &memStore{
		profiles:     map[string]*Profile{},
		achievements: map[string]*model.Achievement{},
		battles:      map[string]*model.Battle{},
	}
}

func (m *memStore) addUser(userID string, xp int) *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &Profile{
		UserID:    userID,
		XP:        xp,
		Level:     LevelForXP(xp),
		Avatar:    model.AvatarState{Kind: model.AvatarAspirant, Tier: 1},
		Equipment: model.DefaultEquipment(time.Time{}),
	}
	m.profiles[userID] = p
	return p
}

func (m *memStore) addAchievement(a model.Achievement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.achievements[a.ID] = &a
}

func (m *memStore) complete(userID, habitID string, date time.Time, xp int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, model.HabitCompletion{
		ID:        fmt.Sprintf("c-%d", len(m.completions)),
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Status:    model.StatusDone,
		XPAwarded: xp,
	})
}

func (m *memStore) FetchCompletions(_ context.Context, userID string, from, to time.Time) ([]model.HabitCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.HabitCompletion
	for _, c := range m.completions {
		if c.UserID == userID && !c.Date.Before(from) && !c.Date.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) FetchActiveHabits(_ context.Context, userID string) ([]model.Habit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Habit
	for _, h := range m.habits {
		if h.UserID == userID && h.IsActive {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) ReadProfile(_ context.Context, userID string) (*Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	cp.Equipment = make(map[model.Slot]model.EquipmentState, len(p.Equipment))
	for k, v := range p.Equipment {
		cp.Equipment[k] = v
	}
	return &cp, nil
}

func (m *memStore) AddXP(_ context.Context, userID string, amount int) (XPResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addXPErr != nil && (m.addXPFailFor == "" || m.addXPFailFor == userID) {
		return XPResult{}, m.addXPErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return XPResult{}, ErrNotFound
	}
	res := ApplyXP(p.XP, amount)
	p.XP = res.NewXP
	p.Level = res.NewLevel
	return res, nil
}

func (m *memStore) WriteAvatarState(_ context.Context, userID string, state model.AvatarState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avatarWrites++
	m.profiles[userID].Avatar = state
	return nil
}

func (m *memStore) WriteEquipmentState(_ context.Context, userID string, slot model.Slot, state model.EquipmentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equipmentWrites++
	m.profiles[userID].Equipment[slot] = state
	return nil
}

func (m *memStore) ListLocked(_ context.Context, userID string) ([]model.Achievement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Achievement
	for _, a := range m.achievements {
		if a.UserID == userID && a.UnlockedAt == nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (m *memStore) TryUnlock(_ context.Context, achievementID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unlockConflict {
		return false, ErrConflict
	}
	a, ok := m.achievements[achievementID]
	if !ok {
		return false, ErrNotFound
	}
	if a.UnlockedAt != nil {
		return false, nil
	}
	a.UnlockedAt = &at
	return true, nil
}

func (m *memStore) CountUnlocked(_ context.Context, userID string) (RarityCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := RarityCounts{ByRarity: map[model.Rarity]int{}}
	for _, a := range m.achievements {
		if a.UserID == userID && a.UnlockedAt != nil {
			counts.Total++
			counts.ByRarity[a.Rarity]++
		}
	}
	return counts, nil
}

func (m *memStore) ReadBattle(_ context.Context, id string) (*model.Battle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.battles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) WriteBattle(_ context.Context, battle *model.Battle, expected model.BattleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.battles[battle.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Status != expected {
		return ErrConflict
	}
	cp := *battle
	m.battles[battle.ID] = &cp
	return nil
}

// Atomic snapshots every map and restores it in place when fn fails.
func (m *memStore) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	profiles := make(map[string]Profile, len(m.profiles))
	for id, p := range m.profiles {
		cp := *p
		cp.Equipment = make(map[model.Slot]model.EquipmentState, len(p.Equipment))
		for k, v := range p.Equipment {
			cp.Equipment[k] = v
		}
		profiles[id] = cp
	}
	achievements := make(map[string]model.Achievement, len(m.achievements))
	for id, a := range m.achievements {
		achievements[id] = *a
	}
	battles := make(map[string]model.Battle, len(m.battles))
	for id, b := range m.battles {
		battles[id] = *b
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		for id, p := range profiles {
			*m.profiles[id] = p
		}
		for id, a := range achievements {
			*m.achievements[id] = a
		}
		for id, b := range battles {
			m.battles[id] = &b
		}
		return err
	}
	return nil
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
