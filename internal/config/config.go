package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Export    ExportConfig
	Dashboard DashboardConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ExportConfig controls the export formatter. Spreadsheet output is an
// optional capability and must be switched on explicitly.
type ExportConfig struct {
	XLSXEnabled bool
}

// DashboardConfig bounds the dashboard payload lists
type DashboardConfig struct {
	RecentOrderLimit int
	TopProductLimit  int
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("EXPORT_XLSX_ENABLED", false)
	viper.SetDefault("DASHBOARD_RECENT_ORDER_LIMIT", 5)
	viper.SetDefault("DASHBOARD_TOP_PRODUCT_LIMIT", 5)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Export: ExportConfig{
			XLSXEnabled: viper.GetBool("EXPORT_XLSX_ENABLED"),
		},
		Dashboard: DashboardConfig{
			RecentOrderLimit: viper.GetInt("DASHBOARD_RECENT_ORDER_LIMIT"),
			TopProductLimit:  viper.GetInt("DASHBOARD_TOP_PRODUCT_LIMIT"),
		},
	}
}
