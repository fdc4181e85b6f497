package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/librarium_api/services"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file found, using system environment variables")
	}

	ctx, err := context.NewCtx(
		&services.ConfigService{},
		&services.MonitoringService{},

		&services.DatabaseService{},
		&services.RedisService{},
		&services.MinIOService{},

		&services.JWTService{},
		&services.ProgressService{},
		&services.AuthService{},
		&services.AchievementService{},
		&services.AvatarService{},
		&services.HabitService{},
		&services.BattleService{},
		&services.StatsService{},
		&services.SchedulerService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service context")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service context stopped")
		return
	}
}
