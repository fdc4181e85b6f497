package services

import (
	"os"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	log "github.com/sirupsen/logrus"
)

// ConfigService loads the engine tuning file and applies env overrides for
// the scheduler.
type ConfigService struct {
	appContext.DefaultService

	path   string
	engine engine.Config
}

const CONFIG_SVC = "config_svc"

func (svc ConfigService) Id() string {
	return CONFIG_SVC
}

func (svc *ConfigService) Configure(ctx *appContext.Context) error {
	svc.path = os.Getenv("ENGINE_CONFIG")
	if svc.path == "" {
		svc.path = "engine.toml"
	}

	cfg, err := engine.LoadConfig(svc.path)
	if err != nil {
		return err
	}

	if v := os.Getenv("SCHEDULER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Scheduler.IntervalSeconds = int(d.Seconds())
		}
	}
	overrideInt("SCHEDULER_BATCH_SIZE", &cfg.Scheduler.BatchSize)
	overrideInt("SCHEDULER_CONCURRENCY", &cfg.Scheduler.Concurrency)
	if v := os.Getenv("SCHEDULER_USERS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Scheduler.UsersPerSecond = f
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	svc.engine = cfg

	log.WithFields(log.Fields{
		"path":         svc.path,
		"win_xp":       cfg.Battle.WinXP,
		"interval_sec": cfg.Scheduler.IntervalSeconds,
	}).Info("Engine configuration loaded")

	return svc.DefaultService.Configure(ctx)
}

func (svc *ConfigService) Start() error {
	return nil
}

func (svc *ConfigService) Engine() engine.Config {
	return svc.engine
}

func overrideInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			*dst = n
		}
	}
}
