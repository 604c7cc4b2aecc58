package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/model"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-booking",
		Short: "Appointment booking core: gRPC API and payment webhooks",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start gRPC and webhook HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg.App, cfg.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gormDB, err := db.NewGormDB(&cfg.DB)
			if err != nil {
				return fmt.Errorf("init db: %w", err)
			}
			sqlDB, err := gormDB.DB()
			if err != nil {
				return fmt.Errorf("sql DB: %w", err)
			}
			defer sqlDB.Close()

			if err := model.AutoMigrate(gormDB); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Info("migrations applied", zap.String("driver", cfg.DB.Driver))
			return nil
		},
	}
}
