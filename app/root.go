// Package app implements the main application commands.
package app

import (
	"context"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/postdeck/postdeck/internal/auth"
	"github.com/postdeck/postdeck/internal/config"
	"github.com/postdeck/postdeck/internal/db/database"
	"github.com/postdeck/postdeck/internal/logger"
)

var (
	configPath string // directory holding main.toml
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "postdeck",
	Short: "postdeck is the permission and approval service of a social content platform",
	Long: `postdeck resolves what team members may do, from built-in role defaults,
custom roles and per-member overrides, and runs posts through multi-step approval workflows.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		if cfg, err = config.ReadConfig(configPath); err != nil {
			return err
		}

		return logger.Init(cfg.Log)
	},
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config directory (default ./etc/)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openAuth opens the configured database and returns the permission service on it.
// The catalog is seeded so commands naming permissions work before the first start.
func openAuth() (*gorm.DB, *auth.Service, error) {
	db, err := database.Open(&cfg)
	if err != nil {
		return nil, nil, err
	}

	svc := auth.NewService(db, auth.NewRoleDefaults(db, cfg.Cache.RoleDefaultsMaxBytes))

	if err = svc.SeedCatalog(context.Background(), auth.Catalog()); err != nil {
		return nil, nil, err
	}

	return db, svc, nil
}
