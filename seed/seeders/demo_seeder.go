package seeders

import (
	"context"
	"errors"
	"time"

	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	demoPassword = "Librarium#2024"
	demoDays     = 21
)

type demoHabit struct {
	Name       string
	Category   model.Category
	Difficulty model.Difficulty
	// Every skipEvery-th day is recorded as missed.
	skipEvery int
}

type demoUser struct {
	Username string
	Email    string
	Habits   []demoHabit
}

var demoUsers = []demoUser{
	{
		Username: "aria",
		Email:    "aria@librarium.dev",
		Habits: []demoHabit{
			{Name: "Morning run", Category: model.CategoryHealth, Difficulty: model.DifficultyHard, skipEvery: 9},
			{Name: "Read 20 pages", Category: model.CategoryStudy, Difficulty: model.DifficultyMedium},
			{Name: "Sketch", Category: model.CategoryCreative, Difficulty: model.DifficultyEasy, skipEvery: 4},
		},
	},
	{
		Username: "bram",
		Email:    "bram@librarium.dev",
		Habits: []demoHabit{
			{Name: "Deep work block", Category: model.CategoryWork, Difficulty: model.DifficultyLegendary, skipEvery: 3},
			{Name: "Call a friend", Category: model.CategorySocial, Difficulty: model.DifficultyEasy, skipEvery: 5},
		},
	},
	{
		Username: "cleo",
		Email:    "cleo@librarium.dev",
		Habits: []demoHabit{
			{Name: "Meditate", Category: model.CategoryPersonal, Difficulty: model.DifficultyMedium, skipEvery: 7},
		},
	},
}

// DemoSeeder creates a few users with three weeks of habit history.
type DemoSeeder struct {
	main *MainSeeder
	now  func() time.Time
}

func NewDemoSeeder(main *MainSeeder) *DemoSeeder {
	return &DemoSeeder{main: main, now: time.Now}
}

func (s *DemoSeeder) SeedDemo(ctx context.Context) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	for _, du := range demoUsers {
		available, err := s.main.users.IsUsernameAvailable(ctx, du.Username)
		if err != nil {
			return err
		}
		if !available {
			log.WithField("username", du.Username).Info("Demo user already exists, skipping")
			continue
		}

		user := &model.User{
			Email:     du.Email,
			Username:  du.Username,
			Password:  string(hashed),
			LastLogin: s.now(),
		}
		if err := s.main.users.Register(ctx, user, engine.DefaultCatalog()); err != nil {
			if errors.Is(err, engine.ErrConflict) {
				continue
			}
			return err
		}

		if err := s.seedHistory(ctx, user.ID, du.Habits); err != nil {
			return err
		}

		log.WithFields(log.Fields{"username": du.Username, "password": demoPassword}).Info("Created demo user")
	}
	return nil
}

func (s *DemoSeeder) seedHistory(ctx context.Context, userID string, plans []demoHabit) error {
	habits := make([]*model.Habit, 0, len(plans))
	for _, plan := range plans {
		habit := &model.Habit{
			UserID:     userID,
			Name:       plan.Name,
			Category:   plan.Category,
			Frequency:  model.FrequencyDaily,
			Difficulty: plan.Difficulty,
			IsActive:   true,
		}
		if err := s.main.habits.CreateHabit(ctx, habit); err != nil {
			return err
		}
		habits = append(habits, habit)
	}

	today := model.Midnight(s.now())
	for offset := demoDays - 1; offset >= 0; offset-- {
		day := today.AddDate(0, 0, -offset)
		activeDay := false

		for i, habit := range habits {
			status := model.StatusDone
			if skip := plans[i].skipEvery; skip > 0 && offset%skip == 0 {
				status = model.StatusMissed
			}

			xp := 0
			if status == model.StatusDone {
				xp = habit.Difficulty.XP()
				activeDay = true
			}

			completion := &model.HabitCompletion{
				HabitID:    habit.ID,
				UserID:     userID,
				Date:       day,
				Status:     status,
				XPAwarded:  xp,
				Difficulty: habit.Difficulty,
				Category:   habit.Category,
			}
			if err := s.main.habits.CreateCompletion(ctx, completion); err != nil {
				return err
			}
			if xp > 0 {
				if _, err := s.main.profiles.AddXP(ctx, userID, xp); err != nil {
					return err
				}
			}
		}

		if activeDay {
			if _, err := s.main.profiles.RecordActivity(ctx, userID, day); err != nil {
				return err
			}
		}
	}
	return nil
}
