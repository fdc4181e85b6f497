package model

import (
	"time"

	"gorm.io/datatypes"
)

// Criterion is one weighted sub-metric of a custom battle.
type Criterion struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Weight      float64       `json:"weight"`
	Kind        CriterionKind `json:"kind"`
}

// ScoreBreakdown is the numeric result of scoring one player.
type ScoreBreakdown struct {
	Points      float64 `json:"points" gorm:"default:0"`
	Streak      int     `json:"streak" gorm:"default:0"`
	Completions int     `json:"completions" gorm:"default:0"`
	XPGained    int     `json:"xp_gained" gorm:"default:0"`
	Bonus       int     `json:"bonus" gorm:"default:0"`
}

type Battle struct {
	ID              string                         `json:"id" gorm:"primaryKey"`
	Player1ID       string                         `json:"player1_id" gorm:"not null;index:idx_battle_p1_status,priority:1"`
	Player2ID       string                         `json:"player2_id" gorm:"not null;index:idx_battle_p2_status,priority:1"`
	MetricType      MetricType                     `json:"metric_type" gorm:"not null"`
	StartAt         time.Time                      `json:"start_at" gorm:"not null"`
	EndAt           time.Time                      `json:"end_at" gorm:"not null;index"`
	DurationMinutes int                            `json:"duration_minutes" gorm:"not null"`
	Criteria        datatypes.JSONSlice[Criterion] `json:"criteria"`
	Player1Score    ScoreBreakdown                 `json:"player1_score" gorm:"embedded;embeddedPrefix:p1_"`
	Player2Score    ScoreBreakdown                 `json:"player2_score" gorm:"embedded;embeddedPrefix:p2_"`
	Status          BattleStatus                   `json:"status" gorm:"not null;default:pending;index:idx_battle_p1_status,priority:2;index:idx_battle_p2_status,priority:2"`
	PairKey         string                         `json:"-" gorm:"not null;default:'';uniqueIndex:idx_battle_open_pair,where:status = 'pending' OR status = 'active'"`
	WinnerID        *string                        `json:"winner_id"`
	IsTie           bool                           `json:"is_tie" gorm:"default:false"`
	Margin          float64                        `json:"margin" gorm:"default:0"`
	WinXP           int                            `json:"win_xp" gorm:"default:100"`
	ConsolationXP   int                            `json:"consolation_xp" gorm:"default:25"`
	CompletedAt     *time.Time                     `json:"completed_at"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

// BattlePairKey identifies the unordered pair of players. At most one
// pending or active battle may exist per key.
func BattlePairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// IsParticipant reports whether userID is one of the two players.
func (b Battle) IsParticipant(userID string) bool {
	return userID == b.Player1ID || userID == b.Player2ID
}

// Opponent returns the other player, or "" for a non-participant.
func (b Battle) Opponent(userID string) string {
	switch userID {
	case b.Player1ID:
		return b.Player2ID
	case b.Player2ID:
		return b.Player1ID
	default:
		return ""
	}
}

// BattleEvent is an entry in a battle's history log.
type BattleEvent struct {
	ID        string            `json:"id" gorm:"primaryKey"`
	BattleID  string            `json:"battle_id" gorm:"not null;index"`
	Action    string            `json:"action" gorm:"not null"`
	PlayerID  string            `json:"player_id"`
	Details   datatypes.JSONMap `json:"details"`
	CreatedAt time.Time         `json:"created_at"`
}

const (
	BattleActionCreated   = "created"
	BattleActionAccepted  = "accepted"
	BattleActionDeclined  = "declined"
	BattleActionCancelled = "cancelled"
	BattleActionExpired   = "expired"
	BattleActionFinalized = "finalized"
)
