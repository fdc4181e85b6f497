package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	"github.com/lac-hong-legacy/librarium_api/services/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseService struct {
	appContext.DefaultService
	db *gorm.DB

	driver   string
	database string

	users        *repositories.UserRepository
	profiles     *repositories.ProfileRepository
	habits       *repositories.HabitRepository
	achievements *repositories.AchievementRepository
	battles      *repositories.BattleRepository
	transactor   *repositories.Transactor

	cleanupAge time.Duration
	stop       chan struct{}
}

const DATABASE_SVC = "database_svc"

func (ds DatabaseService) Id() string {
	return DATABASE_SVC
}

func (ds DatabaseService) Db() *gorm.DB {
	return ds.db
}

func (ds *DatabaseService) Configure(ctx *appContext.Context) error {
	ds.driver, ds.database = DatabaseFromEnv()
	return ds.DefaultService.Configure(ctx)
}

// DatabaseFromEnv resolves the driver name and DSN from DB_* variables.
func DatabaseFromEnv() (driver, database string) {
	driver = os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	if driver == "sqlite" {
		database = os.Getenv("DB_DATABASE")
		if database == "" {
			database = "librarium.db"
		}
		return driver, database
	}

	database = os.Getenv("DATABASE_URL")
	if database != "" {
		return driver, database
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("DB_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("DB_USER")
	if user == "" {
		user = "postgres"
	}
	password := os.Getenv("DB_PASSWORD")
	if password == "" {
		password = "postgres"
	}
	dbname := os.Getenv("DB_NAME")
	if dbname == "" {
		dbname = "librarium"
	}
	sslmode := os.Getenv("DB_SSLMODE")
	if sslmode == "" {
		sslmode = "disable"
	}
	timezone := os.Getenv("DB_TIMEZONE")
	if timezone == "" {
		timezone = "UTC"
	}

	database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone)
	return driver, database
}

func Dialector(driver, database string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(database), nil
	case "sqlite":
		return sqlite.Open(database), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func (ds *DatabaseService) Start() (err error) {
	dialector, err := Dialector(ds.driver, ds.database)
	if err != nil {
		return err
	}

	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to %s database (attempt %d/%d)...", ds.driver, attempt, maxRetries)

		ds.db, err = gorm.Open(dialector, &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Error),
			TranslateError: true,
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					log.Println("Successfully connected to database")
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if ds.driver == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
		if sqlDB, err := ds.db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	err = ds.db.AutoMigrate(model.Tables()...)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	ds.users = repositories.NewUserRepository(ds.db)
	ds.habits = repositories.NewHabitRepository(ds.db)
	ds.achievements = repositories.NewAchievementRepository(ds.db)
	ds.battles = repositories.NewBattleRepository(ds.db)
	ds.profiles = repositories.NewProfileRepository(ds.db)
	ds.transactor = repositories.NewTransactor(ds.db)

	ds.cleanupAge = 90 * 24 * time.Hour
	if cfg, ok := ds.Service(CONFIG_SVC).(*ConfigService); ok && cfg != nil {
		ds.cleanupAge = time.Duration(cfg.Engine().Cleanup.StaleAchievementDays) * 24 * time.Hour
	}

	ds.stop = make(chan struct{})
	ticker := time.NewTicker(24 * time.Hour)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := ds.CleanupStaleAchievements(); err != nil {
					log.Printf("Failed to cleanup stale achievements: %v", err)
				}
			case <-ds.stop:
				return
			}
		}
	}()

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *DatabaseService) Shutdown() {
	if ds.stop != nil {
		close(ds.stop)
	}
	if ds.db != nil {
		if sqlDB, err := ds.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func (ds *DatabaseService) Users() *repositories.UserRepository {
	return ds.users
}

func (ds *DatabaseService) Profiles() *repositories.ProfileRepository {
	return ds.profiles
}

func (ds *DatabaseService) Habits() *repositories.HabitRepository {
	return ds.habits
}

func (ds *DatabaseService) Achievements() *repositories.AchievementRepository {
	return ds.achievements
}

func (ds *DatabaseService) Battles() *repositories.BattleRepository {
	return ds.battles
}

// Transactor groups repository calls into one transaction.
func (ds *DatabaseService) Transactor() *repositories.Transactor {
	return ds.transactor
}

// CleanupStaleAchievements removes custom achievements that stayed locked
// longer than the configured age.
func (ds *DatabaseService) CleanupStaleAchievements() (int64, error) {
	cutoff := time.Now().Add(-ds.cleanupAge)
	removed, err := ds.achievements.DeleteStaleCustom(context.Background(), cutoff)
	if err != nil {
		return 0, ds.HandleError(err)
	}
	if removed > 0 {
		log.WithFields(log.Fields{"removed": removed, "cutoff": cutoff}).Info("Removed stale custom achievements")
	}
	return removed, nil
}

func (ds *DatabaseService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, engine.ErrNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, engine.ErrConflict):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "duplicate key value violates unique constraint"),
			strings.Contains(msg, "UNIQUE constraint failed"):
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		case strings.Contains(msg, "no such table"), strings.Contains(msg, "does not exist"):
			statusCode = http.StatusInternalServerError // 500
			errorType = "SCHEMA_ERROR"
		default:
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return fmt.Errorf("%s: %w", errorType, err)
}
