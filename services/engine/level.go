package engine

import "github.com/lac-hong-legacy/librarium_api/model"

// XPPerLevel is the experience needed to advance one level.
const XPPerLevel = 100

// LevelForXP returns floor(xp/100)+1. Negative XP is treated as zero.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// ApplyXP computes the result of adding amount to currentXP.
func ApplyXP(currentXP, amount int) XPResult {
	newXP := currentXP + amount
	if newXP < 0 {
		newXP = 0
	}
	oldLevel := LevelForXP(currentXP)
	newLevel := LevelForXP(newXP)
	return XPResult{NewXP: newXP, NewLevel: newLevel, LeveledUp: newLevel > oldLevel}
}

// XPToNextLevel returns how much XP is missing for the next level.
func XPToNextLevel(xp int) int {
	return LevelForXP(xp)*XPPerLevel - xp
}

// TitleForLevel is the display title shown next to the username.
func TitleForLevel(level int) string {
	switch {
	case level >= 31:
		return "Supreme Conjurer"
	case level >= 21:
		return "Guardian of the Librarium"
	case level >= 11:
		return "Hunter"
	default:
		return "Aspirant"
	}
}

// NextStreak advances a streak record given the day gap since the last
// activity: 0 keeps it, 1 extends it, anything else restarts at 1.
func NextStreak(record model.StreakRecord, daysSinceLast int, hadActivity bool) model.StreakRecord {
	switch {
	case !hadActivity:
		record.Current = 1
	case daysSinceLast == 0:
		if record.Current == 0 {
			record.Current = 1
		}
	case daysSinceLast == 1:
		record.Current++
	default:
		record.Current = 1
	}
	if record.Current > record.Longest {
		record.Longest = record.Current
	}
	return record
}
