/**
 * @description
 * This package handles the configuration management for the points ledger
 * engine. It uses the Viper library to read configuration from environment
 * variables, providing a centralized and straightforward way to manage
 * application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the points ledger engine.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                     string `mapstructure:"SERVER_PORT"`
	DatabaseURL                    string `mapstructure:"DATABASE_URL"`
	RedisURL                       string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix           string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL                    string `mapstructure:"RABBITMQ_URL"`
	HabitEventQueue                string `mapstructure:"HABIT_EVENT_QUEUE"`
	JWKSURL                        string `mapstructure:"JWKS_URL"`
	HabitServiceURL                string `mapstructure:"HABIT_SERVICE_URL"`
	HabitServiceInternalAPIKey     string `mapstructure:"HABIT_SERVICE_INTERNAL_API_KEY"`
	InternalAPIKey                 string `mapstructure:"INTERNAL_API_KEY"`
	WeeklyStreakBonusPoints        int64  `mapstructure:"WEEKLY_STREAK_BONUS_POINTS"`
	LongStreakBonusPoints          int64  `mapstructure:"LONG_STREAK_BONUS_POINTS"`
	LongStreakThresholdDays        int    `mapstructure:"LONG_STREAK_THRESHOLD_DAYS"`
	AppreciationMaxPoints          int64  `mapstructure:"APPRECIATION_MAX_POINTS"`
	AppreciationRateLimitPerMinute int    `mapstructure:"APPRECIATION_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("HABIT_EVENT_QUEUE", "points_ledger.habit_completions")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "ecostreak:rate_limit")
	viper.SetDefault("WEEKLY_STREAK_BONUS_POINTS", 25)
	viper.SetDefault("LONG_STREAK_BONUS_POINTS", 50)
	viper.SetDefault("LONG_STREAK_THRESHOLD_DAYS", 15)
	viper.SetDefault("APPRECIATION_MAX_POINTS", 100)
	viper.SetDefault("APPRECIATION_RATE_LIMIT_PER_MINUTE", 30)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("HABIT_EVENT_QUEUE")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("HABIT_SERVICE_URL")
	_ = viper.BindEnv("HABIT_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "POINTS_LEDGER_INTERNAL_API_KEY")
	_ = viper.BindEnv("WEEKLY_STREAK_BONUS_POINTS")
	_ = viper.BindEnv("LONG_STREAK_BONUS_POINTS")
	_ = viper.BindEnv("LONG_STREAK_THRESHOLD_DAYS")
	_ = viper.BindEnv("APPRECIATION_MAX_POINTS")
	_ = viper.BindEnv("APPRECIATION_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("POINTS_LEDGER_INTERNAL_API_KEY"))
	}
	config.HabitServiceInternalAPIKey = strings.TrimSpace(config.HabitServiceInternalAPIKey)
	if config.HabitServiceInternalAPIKey == "" {
		config.HabitServiceInternalAPIKey = config.InternalAPIKey
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "ecostreak:rate_limit"
	}

	if config.WeeklyStreakBonusPoints < 0 {
		log.Printf("level=warn component=config msg=\"negative weekly streak bonus configured; coercing to zero\" points=%d", config.WeeklyStreakBonusPoints)
		config.WeeklyStreakBonusPoints = 0
	}
	if config.LongStreakBonusPoints < 0 {
		log.Printf("level=warn component=config msg=\"negative long streak bonus configured; coercing to zero\" points=%d", config.LongStreakBonusPoints)
		config.LongStreakBonusPoints = 0
	}
	if config.LongStreakThresholdDays <= 0 {
		config.LongStreakThresholdDays = 15
	}
	if config.AppreciationMaxPoints <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive appreciation cap configured; using default\" points=%d", config.AppreciationMaxPoints)
		config.AppreciationMaxPoints = 100
	}
	if config.AppreciationRateLimitPerMinute < 0 {
		config.AppreciationRateLimitPerMinute = 0
	}

	return
}
