package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Addr            string        `mapstructure:"addr"`
	APIKey          string        `mapstructure:"api_key"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Database struct {
	DSN string `mapstructure:"dsn"`
}

type Tax struct {
	// CityISSRate is the municipal ISS rate in percent.
	CityISSRate float64 `mapstructure:"city_iss_rate"`
	Service     bool    `mapstructure:"service"`
}

type Thresholds struct {
	MismatchFloor        float64 `mapstructure:"mismatch_floor"`
	MarketingCreditFloor float64 `mapstructure:"marketing_credit_floor"`
}

type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Tax        Tax        `mapstructure:"tax"`
	Thresholds Thresholds `mapstructure:"thresholds"`
}

// Load reads the YAML config at path, if any, layered under GTIA_*
// environment variables. A missing file is not an error; the defaults
// describe a service-sector company with no database.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("tax.city_iss_rate", 5.0)
	v.SetDefault("tax.service", true)
	v.SetDefault("thresholds.mismatch_floor", 10.0)
	v.SetDefault("thresholds.marketing_credit_floor", 100.0)

	v.SetEnvPrefix("GTIA")
	v.AutomaticEnv()
	_ = v.BindEnv("server.addr", "GTIA_SERVER_ADDR")
	_ = v.BindEnv("server.api_key", "GTIA_API_KEY")
	_ = v.BindEnv("database.dsn", "GTIA_DATABASE_DSN")
	_ = v.BindEnv("tax.city_iss_rate", "GTIA_CITY_ISS_RATE")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
