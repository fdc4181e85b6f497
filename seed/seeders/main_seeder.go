package seeders

import (
	"context"

	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB

	users        *repositories.UserRepository
	profiles     *repositories.ProfileRepository
	habits       *repositories.HabitRepository
	achievements *repositories.AchievementRepository
}

// NewMainSeeder creates a new main seeder
func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{
		db:           db,
		users:        repositories.NewUserRepository(db),
		profiles:     repositories.NewProfileRepository(db),
		habits:       repositories.NewHabitRepository(db),
		achievements: repositories.NewAchievementRepository(db),
	}
}

// SeedAll runs all seeders in the correct order
func (s *MainSeeder) SeedAll(ctx context.Context) error {
	log.Info("Starting database seeding...")

	// 1. Demo users, habits and history
	if err := NewDemoSeeder(s).SeedDemo(ctx); err != nil {
		log.WithError(err).Error("Demo seeding failed")
		return err
	}

	// 2. Catalog entries for anyone registered before they existed
	if _, err := NewCatalogSeeder(s).SeedCatalog(ctx); err != nil {
		log.WithError(err).Error("Catalog seeding failed")
		return err
	}

	// 3. Bring achievements and avatars up to date
	if _, err := s.Sweep(ctx); err != nil {
		log.WithError(err).Error("Evaluation sweep failed")
		return err
	}

	log.Info("Database seeding completed successfully!")
	return nil
}

// SweepResult counts what one offline evaluation pass changed.
type SweepResult struct {
	Users         int
	Unlocked      int
	AvatarChanges int
}

// Sweep evaluates every user's achievements and avatar once, sequentially.
func (s *MainSeeder) Sweep(ctx context.Context) (SweepResult, error) {
	achievementEngine := engine.NewAchievementEngine(s.profiles, s.achievements, s.habits, s.habits).
		WithTransactor(repositories.NewTransactor(s.db))
	avatarEngine := engine.NewAvatarEngine(s.profiles, s.achievements)

	var result SweepResult
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		ids, err := s.users.ListUserIDs(ctx, offset, pageSize)
		if err != nil {
			return result, err
		}

		for _, id := range ids {
			unlocked, err := achievementEngine.EvaluateForUser(ctx, id)
			if err != nil {
				log.WithError(err).WithField("user_id", id).Warn("Achievement evaluation failed")
				continue
			}
			changes, err := avatarEngine.EvaluateForUser(ctx, id)
			if err != nil {
				log.WithError(err).WithField("user_id", id).Warn("Avatar evaluation failed")
				continue
			}
			result.Users++
			result.Unlocked += len(unlocked)
			result.AvatarChanges += len(changes)
		}

		if len(ids) < pageSize {
			break
		}
	}

	log.WithFields(log.Fields{
		"users":          result.Users,
		"unlocked":       result.Unlocked,
		"avatar_changes": result.AvatarChanges,
	}).Info("Evaluation sweep finished")
	return result, nil
}
