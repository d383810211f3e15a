package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Remote BookitGY API.
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// Session restore bounds.
	RestoreStepTimeout time.Duration `mapstructure:"RESTORE_STEP_TIMEOUT"`
	RestoreWatchdog    time.Duration `mapstructure:"RESTORE_WATCHDOG"`

	// Local console gateway.
	ConsolePort       string   `mapstructure:"CONSOLE_PORT"`
	ConsoleOrigins    []string `mapstructure:"CONSOLE_ORIGINS"`
	MaxRequestsPerMin int      `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Local storage.
	SecureStorePath string `mapstructure:"SECURE_STORE_PATH"`
	SecureStoreKey  string `mapstructure:"SECURE_STORE_KEY"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisAuthDB   int    `mapstructure:"REDIS_AUTH_DB"`

	// Client behaviour.
	TimeZone         string `mapstructure:"TIME_ZONE"`
	AvailabilityDays int    `mapstructure:"AVAILABILITY_DAYS"`
	RefreshSchedule  string `mapstructure:"REFRESH_SCHEDULE"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("API_BASE_URL", "https://bookitgy.onrender.com")
	viper.SetDefault("REQUEST_TIMEOUT", "15s")
	viper.SetDefault("RESTORE_STEP_TIMEOUT", "5s")
	viper.SetDefault("RESTORE_WATCHDOG", "12s")
	viper.SetDefault("CONSOLE_PORT", "8085")
	viper.SetDefault("CONSOLE_ORIGINS", []string{"http://localhost:5173"})
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 200)
	viper.SetDefault("SECURE_STORE_PATH", "./.bookitgy/secure.json")
	viper.SetDefault("SECURE_STORE_KEY", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_AUTH_DB", 1)
	viper.SetDefault("TIME_ZONE", "America/Guyana")
	viper.SetDefault("AVAILABILITY_DAYS", 14)
	viper.SetDefault("REFRESH_SCHEDULE", "@every 5m")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
