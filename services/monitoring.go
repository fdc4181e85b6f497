package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/shared"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "librarium_api"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_failed_total",
			Help: "Total failed HTTP requests (4xx, 5xx status codes)",
		},
		[]string{"endpoint", "method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Engine Metrics
var (
	evaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_evaluations_total",
			Help: "Evaluation runs per engine and result",
		},
		[]string{"engine", "result"},
	)

	achievementsUnlockedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_achievements_unlocked_total",
			Help: "Achievements unlocked by rarity",
		},
		[]string{"rarity"},
	)

	xpGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_xp_granted_total",
			Help: "XP granted by source",
		},
		[]string{"source"},
	)

	avatarChangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_avatar_changes_total",
			Help: "Avatar and equipment upgrades by rule",
		},
		[]string{"kind"},
	)

	battlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_battles_total",
			Help: "Battle lifecycle transitions",
		},
		[]string{"status"},
	)

	sweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "librarium_scheduler_sweep_duration_seconds",
			Help:    "Duration of one scheduler sweep over all users",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	sweepUsersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "librarium_scheduler_users_total",
			Help: "Users visited by the scheduler by outcome",
		},
		[]string{"outcome"},
	)
)

type MonitoringService struct {
	appContext.DefaultService

	port     int
	register *prometheus.Registry
	server   *fiber.App
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *appContext.Context) error {
	port, err := strconv.Atoi(os.Getenv("PROMETHEUS_PORT"))
	if err != nil || port <= 0 {
		port = DEFAULT_PROMETHEUS_PORT
	}
	svc.port = port

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequestsTotal,
		httpRequestsFailedTotal,
		httpRequestDurationSeconds,
		evaluationsTotal,
		achievementsUnlockedTotal,
		xpGrantedTotal,
		avatarChangesTotal,
		battlesTotal,
		sweepDurationSeconds,
		sweepUsersTotal,
	)
	svc.register = reg

	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.server = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})))
	svc.server.Get("/health", svc.healthHandler)

	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Int("port", svc.port).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// RecordRequest records HTTP request metrics
func (svc *MonitoringService) RecordRequest(method, endpoint string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	httpRequestDurationSeconds.WithLabelValues(endpoint, method, strconv.Itoa(status)).Observe(duration.Seconds())
	if status >= 400 {
		httpRequestsFailedTotal.WithLabelValues(endpoint, method).Inc()
	}
}

func (svc *MonitoringService) RecordEvaluation(engineName string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	evaluationsTotal.WithLabelValues(engineName, result).Inc()
}

func (svc *MonitoringService) RecordUnlocks(results []engine.UnlockResult) {
	for _, r := range results {
		achievementsUnlockedTotal.WithLabelValues(string(r.Achievement.Rarity)).Inc()
		if r.XPGained > 0 {
			xpGrantedTotal.WithLabelValues("achievement").Add(float64(r.XPGained))
		}
	}
}

func (svc *MonitoringService) RecordXP(source string, amount int) {
	if amount > 0 {
		xpGrantedTotal.WithLabelValues(source).Add(float64(amount))
	}
}

func (svc *MonitoringService) RecordAvatarChanges(events []engine.ChangeEvent) {
	for _, e := range events {
		avatarChangesTotal.WithLabelValues(string(e.Kind)).Inc()
	}
}

func (svc *MonitoringService) RecordBattle(status string) {
	battlesTotal.WithLabelValues(status).Inc()
}

func (svc *MonitoringService) RecordSweep(duration time.Duration, processed, skipped, failed int) {
	sweepDurationSeconds.Observe(duration.Seconds())
	sweepUsersTotal.WithLabelValues("processed").Add(float64(processed))
	sweepUsersTotal.WithLabelValues("skipped").Add(float64(skipped))
	sweepUsersTotal.WithLabelValues("failed").Add(float64(failed))
}

// MonitoringMiddleware creates a Fiber middleware for monitoring HTTP requests
func MonitoringMiddleware(monitoringSvc *MonitoringService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		err := c.Next()

		// Route is resolved only after the router has matched.
		endpoint := c.Route().Path

		status := c.Response().StatusCode()
		if err != nil {
			status = shared.FromError(err).StatusCode
		}
		monitoringSvc.RecordRequest(method, endpoint, status, time.Since(start))

		return err
	}
}
