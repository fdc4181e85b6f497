package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unlockedAchievements(store *memStore, userID string, rarity model.Rarity, n int) {
	at := date(2024, time.January, 1)
	for i := 0; i < n; i++ {
		store.addAchievement(model.Achievement{
			ID:         fmt.Sprintf("%s-%s-%d", userID, rarity, i),
			UserID:     userID,
			Rarity:     rarity,
			UnlockedAt: &at,
		})
	}
}

func TestAvatarEngine_NewUserIsStable(t *testing.T) {
	store := newMemStore()
	store.addUser("u1", 0)
	engine := NewAvatarEngine(store, store).WithClock(fixedClock(date(2024, time.March, 1)))

	events, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Zero(t, store.avatarWrites)
	assert.Zero(t, store.equipmentWrites)
}

func TestAvatarEngine_EvolvesWithLevel(t *testing.T) {
	store := newMemStore()
	store.addUser("u1", 2400)
	engine := NewAvatarEngine(store, store).WithClock(fixedClock(date(2024, time.March, 1)))

	events, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ChangeLevel, events[0].Kind)

	profile, _ := store.ReadProfile(context.Background(), "u1")
	assert.Equal(t, model.AvatarGuardian, profile.Avatar.Kind)
	assert.Equal(t, 2, profile.Avatar.Tier)

	again, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, 1, store.avatarWrites)
}

func TestAvatarEngine_NeverRegresses(t *testing.T) {
	store := newMemStore()
	p := store.addUser("u1", 300)
	p.Avatar = model.AvatarState{Kind: model.AvatarConjurer, Tier: 3}
	p.Equipment[model.SlotWeapon] = model.EquipmentState{Kind: "epic-sword", Tier: 4}
	p.Equipment[model.SlotAura] = model.EquipmentState{Kind: "magic", Tier: 4, Intensity: 75}
	p.Equipment[model.SlotParticles] = model.EquipmentState{Kind: "stars", Tier: 4, Intensity: 50}
	unlockedAchievements(store, "u1", model.RarityCommon, 20)
	engine := NewAvatarEngine(store, store)

	events, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, events)

	profile, _ := store.ReadProfile(context.Background(), "u1")
	assert.Equal(t, model.AvatarConjurer, profile.Avatar.Kind)
	assert.Equal(t, "epic-sword", profile.Equipment[model.SlotWeapon].Kind)
}

func TestAvatarEngine_AchievementEquipment(t *testing.T) {
	store := newMemStore()
	store.addUser("u1", 0)
	unlockedAchievements(store, "u1", model.RarityRare, 15)
	unlockedAchievements(store, "u1", model.RarityEpic, 5)
	unlockedAchievements(store, "u1", model.RarityLegendary, 1)
	engine := NewAvatarEngine(store, store).WithClock(fixedClock(date(2024, time.March, 1)))

	events, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ChangeAchievement, events[0].Kind)
	require.NotNil(t, events[0].Slot)
	assert.Equal(t, model.SlotAccessory, *events[0].Slot)

	profile, _ := store.ReadProfile(context.Background(), "u1")
	assert.Equal(t, "rare-sword", profile.Equipment[model.SlotWeapon].Kind)
	assert.Equal(t, "rare-armor", profile.Equipment[model.SlotArmor].Kind)
	assert.Equal(t, "epic-crown", profile.Equipment[model.SlotAccessory].Kind)
	assert.Equal(t, "magic", profile.Equipment[model.SlotAura].Kind)
	assert.Equal(t, 75, profile.Equipment[model.SlotAura].Intensity)
	assert.Equal(t, "stars", profile.Equipment[model.SlotParticles].Kind)

	writes := store.equipmentWrites
	again, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, writes, store.equipmentWrites)
}

func TestAvatarEngine_StreakAndXPEquipment(t *testing.T) {
	store := newMemStore()
	p := store.addUser("u1", 0)
	p.Streak = model.StreakRecord{Current: 3, Longest: 100}
	engine := NewAvatarEngine(store, store).WithClock(fixedClock(date(2024, time.March, 1)))

	events, err := engine.EvaluateForUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ChangeStreak, events[0].Kind)

	profile, _ := store.ReadProfile(context.Background(), "u1")
	assert.Equal(t, "streak-sword", profile.Equipment[model.SlotWeapon].Kind)
	assert.Equal(t, 5, profile.Equipment[model.SlotWeapon].Tier)
	assert.Equal(t, "divine", profile.Equipment[model.SlotAura].Kind)
}

func TestNextEvolution(t *testing.T) {
	next := NextEvolution(model.AvatarAspirant)
	require.NotNil(t, next)
	assert.Equal(t, model.AvatarHunter, next.Kind)
	assert.Equal(t, 11, next.MinLevel)

	next = NextEvolution(model.AvatarHunter)
	require.NotNil(t, next)
	assert.Equal(t, model.AvatarGuardian, next.Kind)

	assert.Nil(t, NextEvolution(model.AvatarConjurerSupreme))
}

func TestEvolutionForLevel(t *testing.T) {
	assert.Equal(t, model.AvatarAspirant, EvolutionForLevel(10).Kind)
	assert.Equal(t, model.AvatarHunter, EvolutionForLevel(11).Kind)
	assert.Equal(t, model.AvatarConjurer, EvolutionForLevel(31).Kind)
	assert.Equal(t, model.AvatarConjurerSupreme, EvolutionForLevel(80).Kind)
}

func TestEffectsForTier(t *testing.T) {
	cases := []struct {
		tier int
		want VisualEffects
	}{
		{6, VisualEffects{"divine", 100, "stars", 50}},
		{5, VisualEffects{"divine", 100, "stars", 50}},
		{4, VisualEffects{"magic", 75, "stars", 50}},
		{3, VisualEffects{"elemental", 50, "sparks", 30}},
		{2, VisualEffects{"basic", 25, "dust", 15}},
		{1, VisualEffects{"none", 0, "none", 0}},
		{0, VisualEffects{"none", 0, "none", 0}},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("tier %d", tc.tier), func(t *testing.T) {
			assert.Equal(t, tc.want, EffectsForTier(tc.tier))
		})
	}
}

func TestNextUnlocks(t *testing.T) {
	profile := &Profile{
		UserID:    "u1",
		Level:     4,
		Avatar:    model.AvatarState{Kind: model.AvatarAspirant, Tier: 1},
		Equipment: model.DefaultEquipment(time.Time{}),
	}
	counts := RarityCounts{Total: 25, ByRarity: map[model.Rarity]int{}}

	unlocks := NextUnlocks(profile, counts)
	require.Len(t, unlocks, 6)

	assert.Equal(t, ChangeLevel, unlocks[0].Rule)
	assert.Equal(t, string(model.AvatarHunter), unlocks[0].Item)
	assert.Equal(t, 4, unlocks[0].Current)
	assert.Equal(t, 11, unlocks[0].Target)

	weapon := unlocks[1]
	require.NotNil(t, weapon.Slot)
	assert.Equal(t, model.SlotWeapon, *weapon.Slot)
	assert.Equal(t, "epic-sword", weapon.Item)
	assert.Equal(t, 25, weapon.Current)
	assert.Equal(t, 30, weapon.Target)

	assert.Equal(t, "knowledge-armor", unlocks[5].Item)
	assert.Equal(t, "5000 total XP", unlocks[5].Requirement)
}

func TestNextUnlocks_TopTierHasNothingLeft(t *testing.T) {
	equipment := model.DefaultEquipment(time.Time{})
	for _, slot := range []model.Slot{model.SlotWeapon, model.SlotArmor, model.SlotAccessory} {
		equipment[slot] = model.EquipmentState{Kind: "max", Tier: 5}
	}
	profile := &Profile{
		Level:     60,
		Avatar:    model.AvatarState{Kind: model.AvatarConjurerSupreme, Tier: 5},
		Equipment: equipment,
	}

	assert.Empty(t, NextUnlocks(profile, RarityCounts{ByRarity: map[model.Rarity]int{}}))
}
