package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "WEEKLY_STREAK_BONUS_POINTS")
	unsetEnvWithCleanup(t, "LONG_STREAK_BONUS_POINTS")
	unsetEnvWithCleanup(t, "LONG_STREAK_THRESHOLD_DAYS")
	unsetEnvWithCleanup(t, "APPRECIATION_MAX_POINTS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WeeklyStreakBonusPoints != 25 {
		t.Fatalf("expected default WeeklyStreakBonusPoints 25, got %d", cfg.WeeklyStreakBonusPoints)
	}
	if cfg.LongStreakBonusPoints != 50 {
		t.Fatalf("expected default LongStreakBonusPoints 50, got %d", cfg.LongStreakBonusPoints)
	}
	if cfg.LongStreakThresholdDays != 15 {
		t.Fatalf("expected default LongStreakThresholdDays 15, got %d", cfg.LongStreakThresholdDays)
	}
	if cfg.AppreciationMaxPoints != 100 {
		t.Fatalf("expected default AppreciationMaxPoints 100, got %d", cfg.AppreciationMaxPoints)
	}
}

func TestLoadConfig_UsesPointsLedgerInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "POINTS_LEDGER_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_HabitServiceKeyFallsBackToInternalKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INTERNAL_API_KEY", "shared-key")
	unsetEnvWithCleanup(t, "HABIT_SERVICE_INTERNAL_API_KEY")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.HabitServiceInternalAPIKey != "shared-key" {
		t.Fatalf("expected HabitServiceInternalAPIKey to fall back to InternalAPIKey, got %q", cfg.HabitServiceInternalAPIKey)
	}
}

func TestLoadConfig_NonPositiveAppreciationCapUsesDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "APPRECIATION_MAX_POINTS", "0")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.AppreciationMaxPoints != 100 {
		t.Fatalf("expected AppreciationMaxPoints coerced to 100, got %d", cfg.AppreciationMaxPoints)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
