package engine

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config tunes the progression and battle engines. It is passed to each engine
// at construction; engines hold no other shared state.
type Config struct {
	Battle    BattleConfig    `toml:"battle"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Cleanup   CleanupConfig   `toml:"cleanup"`
}

type BattleConfig struct {
	WinXP             int `toml:"win_xp"`
	ConsolationXP     int `toml:"consolation_xp"`
	DefaultMinutes    int `toml:"default_minutes"`
	StreakBonusEvery  int `toml:"streak_bonus_every"`  // days of streak per bonus step
	StreakBonusPoints int `toml:"streak_bonus_points"` // points per bonus step
}

type SchedulerConfig struct {
	IntervalSeconds int     `toml:"interval_seconds"`
	BatchSize       int     `toml:"batch_size"`
	Concurrency     int     `toml:"concurrency"`
	UsersPerSecond  float64 `toml:"users_per_second"`
	LockTTLSeconds  int     `toml:"lock_ttl_seconds"`
}

type CleanupConfig struct {
	StaleAchievementDays int `toml:"stale_achievement_days"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Battle: BattleConfig{
			WinXP:             100,
			ConsolationXP:     25,
			DefaultMinutes:    60,
			StreakBonusEvery:  7,
			StreakBonusPoints: 5,
		},
		Scheduler: SchedulerConfig{
			IntervalSeconds: 300,
			BatchSize:       100,
			Concurrency:     8,
			UsersPerSecond:  50,
			LockTTLSeconds:  30,
		},
		Cleanup: CleanupConfig{
			StaleAchievementDays: 90,
		},
	}
}

// LoadConfig overlays the TOML file at path on the defaults. A missing file is
// not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse engine config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects values that would break the engine's guarantees.
func (c Config) Validate() error {
	if c.Battle.WinXP <= 0 || c.Battle.ConsolationXP <= 0 {
		return fmt.Errorf("battle rewards must be positive (win=%d, consolation=%d)", c.Battle.WinXP, c.Battle.ConsolationXP)
	}
	if c.Battle.StreakBonusEvery <= 0 {
		return fmt.Errorf("streak_bonus_every must be positive")
	}
	if c.Battle.DefaultMinutes <= 0 {
		return fmt.Errorf("default_minutes must be positive")
	}
	if c.Scheduler.IntervalSeconds <= 0 || c.Scheduler.BatchSize <= 0 || c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("scheduler interval, batch size and concurrency must be positive")
	}
	return nil
}
