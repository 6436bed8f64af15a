package daemon

import (
	"context"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/db/controller/setting"
	"github.com/postdeck/postdeck/internal/db/models"
)

const (
	// seedActor is recorded in the role permission audit for startup seeding.
	seedActor = "system:seed"

	// settingCatalog holds the fingerprint of the last seeded permission catalog.
	settingCatalog = "seed.permission_catalog"
)

// seed brings the permission catalog and empty role defaults up to date.
// Role defaults changed by an operator are never overwritten.
func seed(ctx context.Context, db *gorm.DB, authService *auth.Service) error {
	catalog := auth.Catalog()

	if err := authService.SeedCatalog(ctx, catalog); err != nil {
		return err
	}

	if err := authService.Defaults().Seed(ctx, auth.DefaultRolePermissions(), seedActor); err != nil {
		return err
	}

	current := catalogFingerprint(catalog)

	previous, err := setting.GetString(db, settingCatalog, "")
	if err != nil {
		return err
	}

	if previous == current {
		return nil
	}

	if previous == "" {
		log.Info().Int("permissions", len(catalog)).Msg("permission catalog seeded")
	} else {
		log.Info().Int("permissions", len(catalog)).Str("previous", previous).Msg("permission catalog changed")
	}

	return setting.Set(db, settingCatalog, []byte(current))
}

func catalogFingerprint(catalog []models.Permission) string {
	codes := make([]string, 0, len(catalog))
	for _, p := range catalog {
		codes = append(codes, p.Code)
	}

	slices.Sort(codes)

	return strings.Join(codes, ",")
}
