package seeders

import (
	"context"

	"github.com/lac-hong-legacy/librarium_api/services/engine"
	log "github.com/sirupsen/logrus"
)

// CatalogSeeder backfills the default achievement catalog for existing users.
type CatalogSeeder struct {
	main *MainSeeder
}

func NewCatalogSeeder(main *MainSeeder) *CatalogSeeder {
	return &CatalogSeeder{main: main}
}

// SeedCatalog inserts missing catalog entries and returns how many were added.
func (s *CatalogSeeder) SeedCatalog(ctx context.Context) (int64, error) {
	catalog := engine.DefaultCatalog()

	var total int64
	const pageSize = 100
	for offset := 0; ; offset += pageSize {
		ids, err := s.main.users.ListUserIDs(ctx, offset, pageSize)
		if err != nil {
			return total, err
		}

		for _, id := range ids {
			added, err := s.main.achievements.SeedCatalog(ctx, id, catalog)
			if err != nil {
				log.WithError(err).WithField("user_id", id).Error("Error seeding catalog")
				return total, err
			}
			total += added
		}

		if len(ids) < pageSize {
			break
		}
	}

	log.WithFields(log.Fields{"added": total, "catalog_size": len(catalog)}).Info("Seeded achievement catalog")
	return total, nil
}
