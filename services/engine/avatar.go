package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	log "github.com/sirupsen/logrus"
)

// ChangeKind names the rule that produced an avatar change.
type ChangeKind string

const (
	ChangeLevel       ChangeKind = "level"
	ChangeAchievement ChangeKind = "achievement"
	ChangeStreak      ChangeKind = "streak"
)

// ChangeEvent is reported for every avatar or equipment upgrade.
type ChangeEvent struct {
	Kind        ChangeKind  `json:"kind"`
	Description string      `json:"description"`
	Slot        *model.Slot `json:"slot,omitempty"`
}

// Evolution is one step of the level-based avatar progression.
type Evolution struct {
	Kind     model.AvatarKind `json:"kind"`
	Name     string           `json:"name"`
	Tier     int              `json:"tier"`
	MinLevel int              `json:"min_level"`
}

// Evolutions is ordered from the highest requirement down.
var Evolutions = []Evolution{
	{Kind: model.AvatarConjurerSupreme, Name: "Supreme Conjurer", Tier: 5, MinLevel: 50},
	{Kind: model.AvatarConjurerAdvanced, Name: "Advanced Conjurer", Tier: 4, MinLevel: 40},
	{Kind: model.AvatarConjurer, Name: "Conjurer", Tier: 3, MinLevel: 31},
	{Kind: model.AvatarGuardian, Name: "Guardian", Tier: 2, MinLevel: 21},
	{Kind: model.AvatarHunter, Name: "Hunter", Tier: 1, MinLevel: 11},
}

var baseEvolution = Evolution{Kind: model.AvatarAspirant, Name: "Aspirant", Tier: 1, MinLevel: 1}

// EvolutionForLevel returns the avatar a user of this level is entitled to.
func EvolutionForLevel(level int) Evolution {
	for _, e := range Evolutions {
		if level >= e.MinLevel {
			return e
		}
	}
	return baseEvolution
}

// avatarRank orders kinds from aspirant (0) to supreme; unknown kinds rank -1.
func avatarRank(kind model.AvatarKind) int {
	if kind == baseEvolution.Kind {
		return 0
	}
	for i, e := range Evolutions {
		if e.Kind == kind {
			return len(Evolutions) - i
		}
	}
	return -1
}

// NextEvolution returns the evolution after kind, or nil at the top.
func NextEvolution(kind model.AvatarKind) *Evolution {
	if kind == baseEvolution.Kind || kind == "" {
		next := Evolutions[len(Evolutions)-1]
		return &next
	}
	for i := len(Evolutions) - 1; i > 0; i-- {
		if Evolutions[i].Kind == kind {
			next := Evolutions[i-1]
			return &next
		}
	}
	return nil
}

// equipmentUnlock is one tier threshold of an equipment rule.
type equipmentUnlock struct {
	min   int
	tier  int
	kind  string
	label string
}

var (
	weaponByAchievements = []equipmentUnlock{
		{50, 5, "legendary-sword", "Legendary Sword unlocked by 50+ achievements"},
		{30, 4, "epic-sword", "Epic Sword unlocked by 30+ achievements"},
		{20, 3, "rare-sword", "Rare Sword unlocked by 20+ achievements"},
	}
	armorByEpics = []equipmentUnlock{
		{10, 5, "epic-armor", "Epic Armor unlocked by 10+ epic achievements"},
		{5, 4, "rare-armor", "Rare Armor unlocked by 5+ epic achievements"},
	}
	accessoryByLegendaries = []equipmentUnlock{
		{3, 5, "legendary-crown", "Legendary Crown unlocked by 3+ legendary achievements"},
		{1, 4, "epic-crown", "Epic Crown unlocked by a legendary achievement"},
	}
	weaponByStreak = []equipmentUnlock{
		{100, 5, "streak-sword", "Sword of the Streak unlocked by 100+ consecutive days"},
		{50, 4, "persistence-sword", "Sword of Persistence unlocked by 50+ consecutive days"},
	}
	armorByXP = []equipmentUnlock{
		{10000, 5, "experience-armor", "Armor of Experience unlocked by 10k+ XP"},
		{5000, 4, "knowledge-armor", "Armor of Knowledge unlocked by 5k+ XP"},
	}
)

// highest returns the first (highest) threshold value reaches.
func highest(table []equipmentUnlock, value int) (equipmentUnlock, bool) {
	for _, u := range table {
		if value >= u.min {
			return u, true
		}
	}
	return equipmentUnlock{}, false
}

// VisualEffects is the aura and particle pair derived from equipment.
type VisualEffects struct {
	AuraKind          string
	AuraIntensity     int
	ParticlesKind     string
	ParticlesQuantity int
}

// EffectsForTier maps max(weapon, armor) tier onto aura and particles.
func EffectsForTier(tier int) VisualEffects {
	switch {
	case tier >= 5:
		return VisualEffects{"divine", 100, "stars", 50}
	case tier >= 4:
		return VisualEffects{"magic", 75, "stars", 50}
	case tier >= 3:
		return VisualEffects{"elemental", 50, "sparks", 30}
	case tier >= 2:
		return VisualEffects{"basic", 25, "dust", 15}
	default:
		return VisualEffects{"none", 0, "none", 0}
	}
}

// AvatarEngine re-derives avatar and equipment from the current profile. It is
// safe to run repeatedly: tiers never decrease and unchanged state is not
// rewritten.
type AvatarEngine struct {
	profiles     ProfileStore
	achievements AchievementStore
	now          Clock
}

func NewAvatarEngine(profiles ProfileStore, achievements AchievementStore) *AvatarEngine {
	return &AvatarEngine{profiles: profiles, achievements: achievements, now: time.Now}
}

func (e *AvatarEngine) WithClock(clock Clock) *AvatarEngine {
	e.now = clock
	return e
}

// EvaluateForUser applies the level, achievement and streak/XP rules and
// returns the changes made, possibly none.
func (e *AvatarEngine) EvaluateForUser(ctx context.Context, userID string) ([]ChangeEvent, error) {
	profile, err := e.profiles.ReadProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	counts, err := e.achievements.CountUnlocked(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unlocked achievements: %w", err)
	}

	now := e.now()
	loadout := newLoadout(profile.Equipment, now)
	events := []ChangeEvent{}

	if ev, err := e.applyLevel(ctx, profile, now); err != nil {
		return events, err
	} else if ev != nil {
		events = append(events, *ev)
	}

	if ev := loadout.apply(ChangeAchievement, achievementRules(counts)...); ev != nil {
		events = append(events, *ev)
	}

	if ev := loadout.apply(ChangeStreak, streakRules(profile)...); ev != nil {
		events = append(events, *ev)
	}

	loadout.applyEffects()

	for _, slot := range model.Slots {
		if !loadout.dirty[slot] {
			continue
		}
		if err := e.profiles.WriteEquipmentState(ctx, userID, slot, loadout.slots[slot]); err != nil {
			return events, fmt.Errorf("write %s: %w", slot, err)
		}
	}

	if len(events) > 0 {
		log.WithFields(log.Fields{
			"user_id": userID,
			"changes": len(events),
		}).Info("Avatar progressed")
	}
	return events, nil
}

func (e *AvatarEngine) applyLevel(ctx context.Context, profile *Profile, now time.Time) (*ChangeEvent, error) {
	evo := EvolutionForLevel(profile.Level)
	current := profile.Avatar.Kind
	if current == "" {
		current = model.AvatarAspirant
	}
	if avatarRank(evo.Kind) <= avatarRank(current) {
		return nil, nil
	}

	state := model.AvatarState{Kind: evo.Kind, Tier: evo.Tier, UnlockedAt: now}
	if err := e.profiles.WriteAvatarState(ctx, profile.UserID, state); err != nil {
		return nil, fmt.Errorf("write avatar: %w", err)
	}
	profile.Avatar = state

	return &ChangeEvent{
		Kind:        ChangeLevel,
		Description: fmt.Sprintf("Evolved into %s at level %d", evo.Name, profile.Level),
	}, nil
}

type slotRule struct {
	slot   model.Slot
	table  []equipmentUnlock
	value  int
	metric string
}

func achievementRules(counts RarityCounts) []slotRule {
	return []slotRule{
		{model.SlotWeapon, weaponByAchievements, counts.Total, "achievements unlocked"},
		{model.SlotArmor, armorByEpics, counts.ByRarity[model.RarityEpic], "epic achievements unlocked"},
		{model.SlotAccessory, accessoryByLegendaries, counts.ByRarity[model.RarityLegendary], "legendary achievements unlocked"},
	}
}

func streakRules(profile *Profile) []slotRule {
	return []slotRule{
		{model.SlotWeapon, weaponByStreak, profile.Streak.Longest, "days of longest streak"},
		{model.SlotArmor, armorByXP, profile.XP, "total XP"},
	}
}

// NextUnlock is an upgrade the user has not reached yet.
type NextUnlock struct {
	Rule        ChangeKind  `json:"rule"`
	Slot        *model.Slot `json:"slot,omitempty"`
	Item        string      `json:"item"`
	Tier        int         `json:"tier"`
	Requirement string      `json:"requirement"`
	Current     int         `json:"current"`
	Target      int         `json:"target"`
}

// NextUnlocks lists the next avatar evolution and, per equipment rule, the
// lowest threshold that would still raise its slot's tier.
func NextUnlocks(profile *Profile, counts RarityCounts) []NextUnlock {
	unlocks := []NextUnlock{}

	if next := NextEvolution(profile.Avatar.Kind); next != nil {
		unlocks = append(unlocks, NextUnlock{
			Rule:        ChangeLevel,
			Item:        string(next.Kind),
			Tier:        next.Tier,
			Requirement: fmt.Sprintf("level %d", next.MinLevel),
			Current:     profile.Level,
			Target:      next.MinLevel,
		})
	}

	add := func(kind ChangeKind, rules []slotRule) {
		for _, rule := range rules {
			held := profile.Equipment[rule.slot].Tier
			for i := len(rule.table) - 1; i >= 0; i-- {
				u := rule.table[i]
				if u.tier <= held || rule.value >= u.min {
					continue
				}
				slot := rule.slot
				unlocks = append(unlocks, NextUnlock{
					Rule:        kind,
					Slot:        &slot,
					Item:        u.kind,
					Tier:        u.tier,
					Requirement: fmt.Sprintf("%d %s", u.min, rule.metric),
					Current:     rule.value,
					Target:      u.min,
				})
				break
			}
		}
	}
	add(ChangeAchievement, achievementRules(counts))
	add(ChangeStreak, streakRules(profile))

	return unlocks
}

// loadout is the working copy of a user's equipment during one evaluation.
type loadout struct {
	slots map[model.Slot]model.EquipmentState
	dirty map[model.Slot]bool
	now   time.Time
}

func newLoadout(current map[model.Slot]model.EquipmentState, now time.Time) *loadout {
	l := &loadout{
		slots: make(map[model.Slot]model.EquipmentState, len(model.Slots)),
		dirty: make(map[model.Slot]bool),
		now:   now,
	}
	defaults := model.DefaultEquipment(now)
	for _, slot := range model.Slots {
		if state, ok := current[slot]; ok {
			l.slots[slot] = state
		} else {
			l.slots[slot] = defaults[slot]
			l.dirty[slot] = true
		}
	}
	return l
}

// apply upgrades every slot whose highest satisfied threshold beats the
// stored tier, and folds the upgrades into a single event. The event's slot is
// the last upgraded one.
func (l *loadout) apply(kind ChangeKind, rules ...slotRule) *ChangeEvent {
	var descriptions []string
	var lastSlot model.Slot

	for _, rule := range rules {
		unlock, ok := highest(rule.table, rule.value)
		if !ok || unlock.tier <= l.slots[rule.slot].Tier {
			continue
		}
		l.slots[rule.slot] = model.EquipmentState{Kind: unlock.kind, Tier: unlock.tier, UnlockedAt: l.now}
		l.dirty[rule.slot] = true
		descriptions = append(descriptions, unlock.label)
		lastSlot = rule.slot
	}

	if len(descriptions) == 0 {
		return nil
	}
	slot := lastSlot
	return &ChangeEvent{Kind: kind, Description: strings.Join(descriptions, "; "), Slot: &slot}
}

// applyEffects recomputes aura and particles from the weapon and armor tiers.
func (l *loadout) applyEffects() {
	tier := l.slots[model.SlotWeapon].Tier
	if armor := l.slots[model.SlotArmor].Tier; armor > tier {
		tier = armor
	}
	fx := EffectsForTier(tier)
	effectTier := tier
	if effectTier < 1 {
		effectTier = 1
	}

	aura := l.slots[model.SlotAura]
	if aura.Kind != fx.AuraKind || aura.Intensity != fx.AuraIntensity || aura.Tier != effectTier {
		l.slots[model.SlotAura] = model.EquipmentState{Kind: fx.AuraKind, Tier: effectTier, Intensity: fx.AuraIntensity, UnlockedAt: l.now}
		l.dirty[model.SlotAura] = true
	}

	particles := l.slots[model.SlotParticles]
	if particles.Kind != fx.ParticlesKind || particles.Intensity != fx.ParticlesQuantity || particles.Tier != effectTier {
		l.slots[model.SlotParticles] = model.EquipmentState{Kind: fx.ParticlesKind, Tier: effectTier, Intensity: fx.ParticlesQuantity, UnlockedAt: l.now}
		l.dirty[model.SlotParticles] = true
	}
}

// Theme is the colour palette of an avatar kind.
type Theme struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
	Gradient  string `json:"gradient"`
}

var themes = map[model.AvatarKind]Theme{
	model.AvatarAspirant:         {"#6B7280", "#9CA3AF", "#D1D5DB", "linear-gradient(135deg, #6B7280, #9CA3AF)"},
	model.AvatarHunter:           {"#059669", "#10B981", "#34D399", "linear-gradient(135deg, #059669, #10B981)"},
	model.AvatarGuardian:         {"#1D4ED8", "#3B82F6", "#60A5FA", "linear-gradient(135deg, #1D4ED8, #3B82F6)"},
	model.AvatarConjurer:         {"#7C3AED", "#8B5CF6", "#A78BFA", "linear-gradient(135deg, #7C3AED, #8B5CF6)"},
	model.AvatarConjurerAdvanced: {"#DC2626", "#EF4444", "#F87171", "linear-gradient(135deg, #DC2626, #EF4444)"},
	model.AvatarConjurerSupreme:  {"#F59E0B", "#FBBF24", "#FCD34D", "linear-gradient(135deg, #F59E0B, #FBBF24)"},
}

// ThemeFor returns the palette of kind, falling back to the aspirant's.
func ThemeFor(kind model.AvatarKind) Theme {
	if t, ok := themes[kind]; ok {
		return t
	}
	return themes[model.AvatarAspirant]
}

// EquipmentCount counts occupied slots overall and per tier.
type EquipmentCount struct {
	Total  int         `json:"total"`
	ByTier map[int]int `json:"by_tier"`
}

func CountEquipment(equipment map[model.Slot]model.EquipmentState) EquipmentCount {
	count := EquipmentCount{ByTier: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	for _, state := range equipment {
		if state.Kind == "" || state.Kind == "none" {
			continue
		}
		count.Total++
		if _, ok := count.ByTier[state.Tier]; ok {
			count.ByTier[state.Tier]++
		}
	}
	return count
}
