package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/seed/seeders"
	"github.com/lac-hong-legacy/librarium_api/services"
	"github.com/lac-hong-legacy/librarium_api/services/engine"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	driverFlag   string
	databaseFlag string
	verboseFlag  bool
	spritesDir   string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Database seeding and maintenance for the Librarium API",
	Long: `Seed demo data, backfill the achievement catalog, run an evaluation
sweep or upload avatar sprites.

The database is taken from DB_DRIVER / DB_DATABASE / DATABASE_URL unless
overridden by flags.`,
	SilenceUsage: true,
}

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Seed demo users, backfill the catalog and run a sweep",
	RunE: func(cmd *cobra.Command, args []string) error {
		seeder, err := newSeeder()
		if err != nil {
			return err
		}
		return seeder.SeedAll(cmd.Context())
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Give every user any missing default achievements",
	RunE: func(cmd *cobra.Command, args []string) error {
		seeder, err := newSeeder()
		if err != nil {
			return err
		}
		_, err = seeders.NewCatalogSeeder(seeder).SeedCatalog(cmd.Context())
		return err
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create demo users with three weeks of habit history",
	RunE: func(cmd *cobra.Command, args []string) error {
		seeder, err := newSeeder()
		if err != nil {
			return err
		}
		return seeders.NewDemoSeeder(seeder).SeedDemo(cmd.Context())
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate achievements and avatars for every user once",
	RunE: func(cmd *cobra.Command, args []string) error {
		seeder, err := newSeeder()
		if err != nil {
			return err
		}
		_, err = seeder.Sweep(cmd.Context())
		return err
	},
}

var spritesCmd = &cobra.Command{
	Use:   "sprites",
	Short: "Upload avatar sprites laid out as <dir>/<kind>/tier-<n>.png",
	RunE: func(cmd *cobra.Command, args []string) error {
		return uploadSprites(cmd.Context(), spritesDir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&driverFlag, "driver", "", "Database driver: postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&databaseFlag, "db", "", "Database DSN or sqlite path (overrides DB_DATABASE / DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log SQL statements")

	spritesCmd.Flags().StringVar(&spritesDir, "dir", "assets/avatars", "Directory holding the sprite files")

	rootCmd.AddCommand(allCmd, catalogCmd, demoCmd, sweepCmd, spritesCmd)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newSeeder() (*seeders.MainSeeder, error) {
	driver, database := services.DatabaseFromEnv()
	if driverFlag != "" {
		driver = driverFlag
	}
	if databaseFlag != "" {
		database = databaseFlag
	}

	dialector, err := services.Dialector(driver, database)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if verboseFlag {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(model.Tables()...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.WithField("driver", driver).Info("Connected to database")
	return seeders.NewMainSeeder(db), nil
}

func uploadSprites(ctx context.Context, dir string) error {
	minioSvc, err := services.NewMinIOService()
	if err != nil {
		return err
	}
	if !minioSvc.Enabled() {
		return fmt.Errorf("MinIO is disabled, set MINIO_ENABLED to upload sprites")
	}

	evolutions := append([]engine.Evolution{engine.EvolutionForLevel(1)}, engine.Evolutions...)

	uploaded := 0
	for _, evo := range evolutions {
		path := filepath.Join(dir, string(evo.Kind), fmt.Sprintf("tier-%d.png", evo.Tier))
		if err := uploadSprite(ctx, minioSvc, evo, path); err != nil {
			if os.IsNotExist(err) {
				log.WithField("path", path).Warn("Sprite not found, skipping")
				continue
			}
			return err
		}
		uploaded++
	}

	log.WithFields(log.Fields{"uploaded": uploaded, "bucket": minioSvc.GetBucketName()}).Info("Sprites uploaded")
	return nil
}

func uploadSprite(ctx context.Context, minioSvc *services.MinIOService, evo engine.Evolution, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	if _, err := minioSvc.UploadSprite(ctx, evo.Kind, evo.Tier, file, info.Size()); err != nil {
		return err
	}
	log.WithFields(log.Fields{"kind": evo.Kind, "tier": evo.Tier}).Info("Uploaded sprite")
	return nil
}
