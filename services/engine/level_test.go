package engine

import (
	"testing"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/stretchr/testify/assert"
)

func TestApplyXP(t *testing.T) {
	tests := []struct {
		name      string
		current   int
		amount    int
		wantXP    int
		wantLevel int
		leveledUp bool
	}{
		{"crosses into level 11", 950, 60, 1010, 11, true},
		{"stays on level", 120, 30, 150, 2, false},
		{"exact boundary", 99, 1, 100, 2, true},
		{"several levels at once", 0, 350, 350, 4, true},
		{"zero amount", 500, 0, 500, 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyXP(tt.current, tt.amount)
			assert.Equal(t, tt.wantXP, got.NewXP)
			assert.Equal(t, tt.wantLevel, got.NewLevel)
			assert.Equal(t, tt.leveledUp, got.LeveledUp)
		})
	}
}

func TestLevelHelpers(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(-5))
	assert.Equal(t, 1, LevelForXP(99))
	assert.Equal(t, 10, LevelForXP(950))
	assert.Equal(t, 50, XPToNextLevel(950))
	assert.Equal(t, 100, XPToNextLevel(0))
}

func TestTitleForLevel(t *testing.T) {
	assert.Equal(t, "Aspirant", TitleForLevel(1))
	assert.Equal(t, "Hunter", TitleForLevel(11))
	assert.Equal(t, "Guardian of the Librarium", TitleForLevel(21))
	assert.Equal(t, "Supreme Conjurer", TitleForLevel(31))
}

func TestNextStreak(t *testing.T) {
	rec := model.StreakRecord{Current: 4, Longest: 6}

	assert.Equal(t, model.StreakRecord{Current: 4, Longest: 6}, NextStreak(rec, 0, true))
	assert.Equal(t, model.StreakRecord{Current: 5, Longest: 6}, NextStreak(rec, 1, true))
	assert.Equal(t, model.StreakRecord{Current: 1, Longest: 6}, NextStreak(rec, 3, true))
	assert.Equal(t, model.StreakRecord{Current: 1, Longest: 1}, NextStreak(model.StreakRecord{}, 0, false))

	long := model.StreakRecord{Current: 6, Longest: 6}
	assert.Equal(t, model.StreakRecord{Current: 7, Longest: 7}, NextStreak(long, 1, true))
}
