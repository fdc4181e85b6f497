package services

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/lac-hong-legacy/librarium_api/docs"
	"github.com/lac-hong-legacy/librarium_api/services/handlers"
	"github.com/lac-hong-legacy/librarium_api/shared"
	log "github.com/sirupsen/logrus"
)

type HttpService struct {
	appContext.DefaultService

	authSvc        *AuthService
	progressSvc    *ProgressService
	habitSvc       *HabitService
	achievementSvc *AchievementService
	avatarSvc      *AvatarService
	battleSvc      *BattleService
	statsSvc       *StatsService
	monitoringSvc  *MonitoringService

	port int
	app  *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.authSvc = svc.Service(AUTH_SVC).(*AuthService)
	svc.progressSvc = svc.Service(PROGRESS_SVC).(*ProgressService)
	svc.habitSvc = svc.Service(HABIT_SVC).(*HabitService)
	svc.achievementSvc = svc.Service(ACHIEVEMENT_SVC).(*AchievementService)
	svc.avatarSvc = svc.Service(AVATAR_SVC).(*AvatarService)
	svc.battleSvc = svc.Service(BATTLE_SVC).(*BattleService)
	svc.statsSvc = svc.Service(STATS_SVC).(*StatsService)
	svc.monitoringSvc, _ = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.app = svc.NewApp()

	log.Infof("HTTP server listening on :%d", svc.port)
	return svc.app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.app != nil {
		_ = svc.app.Shutdown()
	}
}

// NewApp builds the fiber app with every route registered.
func (svc *HttpService) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      SERVICE_NAME,
		ErrorHandler: ErrorHandler,
		JSONEncoder:  shared.Marshal,
		JSONDecoder:  shared.Unmarshal,
	})

	docs.SwaggerInfo.BasePath = ""
	app.Use(recover.New())

	if os.Getenv("LOG_LEVEL") == "TRACE" {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if svc.monitoringSvc != nil {
		app.Use(MonitoringMiddleware(svc.monitoringSvc))
	}

	//Validation endpoints
	app.Get("/ping", svc.ping)
	app.Get("/swagger/*", swagger.HandlerDefault)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	svc.registerRoutes(v1)

	app.Use(func(c *fiber.Ctx) error {
		return shared.ResponseNotFound(c)
	})

	return app
}

func (svc *HttpService) registerRoutes(v1 fiber.Router) {
	authHandler := handlers.NewAuthHandler(svc.authSvc)
	userHandler := handlers.NewUserHandler(svc.progressSvc)
	habitHandler := handlers.NewHabitHandler(svc.habitSvc)
	achievementHandler := handlers.NewAchievementHandler(svc.achievementSvc)
	avatarHandler := handlers.NewAvatarHandler(svc.avatarSvc)
	battleHandler := handlers.NewBattleHandler(svc.battleSvc)
	statsHandler := handlers.NewStatsHandler(svc.statsSvc)

	requiredAuth := svc.authSvc.RequiredAuth()

	auth := v1.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	v1.Get("/leaderboard", svc.authSvc.OptionalAuth(), userHandler.GetLeaderboard)

	user := v1.Group("/user", requiredAuth)
	user.Get("/profile", userHandler.GetUserProfile)

	habits := v1.Group("/habits", requiredAuth)
	habits.Post("/", habitHandler.CreateHabit)
	habits.Get("/", habitHandler.ListHabits)
	habits.Put("/:id", habitHandler.UpdateHabit)
	habits.Delete("/:id", habitHandler.DeactivateHabit)
	habits.Post("/:id/complete", habitHandler.CompleteHabit)
	habits.Get("/:id/completions", habitHandler.ListCompletions)

	achievements := v1.Group("/achievements", requiredAuth)
	achievements.Get("/", achievementHandler.ListAchievements)
	achievements.Get("/stats", achievementHandler.GetStats)
	achievements.Get("/progress", achievementHandler.GetProgress)
	achievements.Get("/next", achievementHandler.GetNextAchievements)
	achievements.Post("/", achievementHandler.CreateAchievement)
	achievements.Post("/evaluate", achievementHandler.EvaluateAchievements)

	avatar := v1.Group("/avatar", requiredAuth)
	avatar.Get("/", avatarHandler.GetAvatar)
	avatar.Get("/next-unlocks", avatarHandler.GetNextUnlocks)
	avatar.Post("/evaluate", avatarHandler.EvaluateAvatar)

	stats := v1.Group("/stats", requiredAuth)
	stats.Get("/summary", statsHandler.GetSummary)
	stats.Get("/weekly", statsHandler.GetWeeklyChart)
	stats.Get("/categories", statsHandler.GetCategoryBreakdown)
	stats.Get("/heatmap", statsHandler.GetHeatmap)
	stats.Get("/monthly", statsHandler.GetMonthlyComparison)

	battles := v1.Group("/battles", requiredAuth)
	battles.Post("/", battleHandler.CreateBattle)
	battles.Get("/", battleHandler.ListBattles)
	battles.Get("/stats", battleHandler.GetStats)
	battles.Get("/:id", battleHandler.GetBattle)
	battles.Post("/:id/accept", battleHandler.AcceptBattle)
	battles.Post("/:id/decline", battleHandler.DeclineBattle)
	battles.Post("/:id/cancel", battleHandler.CancelBattle)
	battles.Get("/:id/score", battleHandler.ScoreBattle)
	battles.Post("/:id/finalize", battleHandler.FinalizeBattle)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

// ErrorHandler renders every error returned by a handler as a shared.Response.
func ErrorHandler(c *fiber.Ctx, err error) error {
	appErr := shared.FromError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": c.Method(),
			"path":   c.Path(),
		}).Error("Request failed")
	}

	return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
}
