package shared

const (
	UserID = "user_id"

	// Redis keys
	LeaderboardKey      = "leaderboard:xp"
	EvaluationLockKey   = "lock:evaluate:%s"
	SchedulerLockKey    = "lock:scheduler:sweep"
	ProfileCacheKey     = "profile:%s"
	AvatarSpriteBaseDir = "avatars"

	LeaderboardSourceCache    = "cache"
	LeaderboardSourceDatabase = "database"

	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	DefaultNextAchievements = 5
	MaxNextAchievements     = 20

	DefaultStatsPeriodDays = 30
	MaxStatsPeriodDays     = 365
	MonthlyComparisonSpan  = 6
)
