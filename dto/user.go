package dto

import "time"

// User Profile DTOs
type UserProfileResponse struct {
	UserID        string     `json:"user_id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	JoinedAt      time.Time  `json:"joined_at"`
	LastLoginAt   time.Time  `json:"last_login_at"`
	XP            int        `json:"xp"`
	Level         int        `json:"level"`
	XPToNextLevel int        `json:"xp_to_next_level"`
	Title         string     `json:"title"`
	Rank          int        `json:"rank"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	LastActivity  *time.Time `json:"last_activity"`
}

// Leaderboard DTOs
type LeaderboardResponse struct {
	CurrentUser *LeaderboardUserResponse  `json:"current_user,omitempty"`
	TopUsers    []LeaderboardUserResponse `json:"top_users"`
	Source      string                    `json:"source"` // cache or database
}

type LeaderboardUserResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Level    int    `json:"level"`
	XP       int    `json:"xp"`
	Rank     int    `json:"rank"`
	Title    string `json:"title"`
}
