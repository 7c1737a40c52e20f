package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/handlers/analysis"
	"github.com/open-solucoes/gtia/pkg/server"
	"github.com/open-solucoes/gtia/pkg/services/config"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
	"github.com/open-solucoes/gtia/pkg/store/postgres"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the tax analysis web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to the YAML config file (optional; env vars and defaults apply without one)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	engine := tax.NewEngine(taxSettings(cfg.Tax))
	analyzer := recovery.NewAnalyzer(engine, recoverySettings(cfg.Thresholds))

	var recorder analysis.Recorder
	if cfg.Database.DSN != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := postgres.NewDB(dbCtx, postgres.Settings{DSN: cfg.Database.DSN})
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer db.Close()
		recorder = postgres.NewStore(db)
		logger.Info().Msg("persistence enabled")
	} else {
		logger.Info().Msg("no database configured, persistence disabled")
	}

	api := server.NewWebAPI(server.Config{
		Addr:            cfg.Server.Addr,
		APIKey:          cfg.Server.APIKey,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Engine:   engine,
			Analyzer: analyzer,
			Recorder: recorder,
			Logger:   logger,
		},
	})

	return api.Start()
}

func taxSettings(cfg config.Tax) tax.Settings {
	settings := tax.DefaultSettings()
	if cfg.CityISSRate > 0 {
		settings.CityISSRate = decimal.NewFromFloat(cfg.CityISSRate)
	}
	settings.Service = cfg.Service
	return settings
}

func recoverySettings(cfg config.Thresholds) recovery.Settings {
	settings := recovery.DefaultSettings()
	if cfg.MismatchFloor > 0 {
		settings.MismatchFloor = decimal.NewFromFloat(cfg.MismatchFloor)
	}
	if cfg.MarketingCreditFloor > 0 {
		settings.MarketingCreditFloor = decimal.NewFromFloat(cfg.MarketingCreditFloor)
	}
	return settings
}
