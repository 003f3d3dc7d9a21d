package config

import (
	"os"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.HTTPPort != 8080 {
		t.Errorf("expected HTTPPort=8080, got %d", cfg.HTTPPort)
	}
	if cfg.TargetLength != 25 {
		t.Errorf("expected TargetLength=25, got %d", cfg.TargetLength)
	}
	if cfg.QueueTargetSize != 3 {
		t.Errorf("expected QueueTargetSize=3, got %d", cfg.QueueTargetSize)
	}
	if cfg.AvoidMaybeUntil != 6 {
		t.Errorf("expected AvoidMaybeUntil=6, got %d", cfg.AvoidMaybeUntil)
	}
	if cfg.PlayerHistoryWindow != 100 {
		t.Errorf("expected PlayerHistoryWindow=100, got %d", cfg.PlayerHistoryWindow)
	}
	if cfg.Quota.Limit != 10 {
		t.Errorf("expected Quota.Limit=10, got %d", cfg.Quota.Limit)
	}
	if cfg.Quota.Mode != "weekly" {
		t.Errorf("expected Quota.Mode=weekly, got %q", cfg.Quota.Mode)
	}
	if cfg.Selector.TopN != 75 {
		t.Errorf("expected Selector.TopN=75, got %d", cfg.Selector.TopN)
	}
	if cfg.Selector.TieEpsilon != 0.01 {
		t.Errorf("expected Selector.TieEpsilon=0.01, got %f", cfg.Selector.TieEpsilon)
	}
	if cfg.Repair.GeneratorRetries != 3 {
		t.Errorf("expected Repair.GeneratorRetries=3, got %d", cfg.Repair.GeneratorRetries)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	os.Setenv("TARGET_LENGTH", "30")
	os.Setenv("QUEUE_TARGET_SIZE", "5")
	os.Setenv("FREE_TIER_ACTIVITY_LIMIT", "20")
	os.Setenv("FREE_TIER_LIMIT_MODE", "daily")
	os.Setenv("SELECTOR_TIE_EPSILON", "0.05")
	defer func() {
		os.Unsetenv("TARGET_LENGTH")
		os.Unsetenv("QUEUE_TARGET_SIZE")
		os.Unsetenv("FREE_TIER_ACTIVITY_LIMIT")
		os.Unsetenv("FREE_TIER_LIMIT_MODE")
		os.Unsetenv("SELECTOR_TIE_EPSILON")
	}()

	cfg := Load()

	if cfg.TargetLength != 30 {
		t.Errorf("expected TargetLength=30 after env override, got %d", cfg.TargetLength)
	}
	if cfg.QueueTargetSize != 5 {
		t.Errorf("expected QueueTargetSize=5 after env override, got %d", cfg.QueueTargetSize)
	}
	if cfg.Quota.Limit != 20 {
		t.Errorf("expected Quota.Limit=20 after env override, got %d", cfg.Quota.Limit)
	}
	if cfg.Quota.Mode != "daily" {
		t.Errorf("expected Quota.Mode=daily after env override, got %q", cfg.Quota.Mode)
	}
	if cfg.Selector.TieEpsilon != 0.05 {
		t.Errorf("expected Selector.TieEpsilon=0.05 after env override, got %f", cfg.Selector.TieEpsilon)
	}
	// Non-overridden fields should remain default
	if cfg.AvoidMaybeUntil != 6 {
		t.Errorf("expected AvoidMaybeUntil=6 (default), got %d", cfg.AvoidMaybeUntil)
	}
}

func TestLoadWithInvalidEnv(t *testing.T) {
	os.Setenv("TARGET_LENGTH", "invalid")
	os.Setenv("SELECTOR_TIE_EPSILON", "not-a-float")
	defer func() {
		os.Unsetenv("TARGET_LENGTH")
		os.Unsetenv("SELECTOR_TIE_EPSILON")
	}()

	cfg := Load()

	// Should fall back to defaults when env values are invalid
	if cfg.TargetLength != 25 {
		t.Errorf("expected TargetLength=25 (default) with invalid env, got %d", cfg.TargetLength)
	}
	if cfg.Selector.TieEpsilon != 0.01 {
		t.Errorf("expected Selector.TieEpsilon=0.01 (default) with invalid env, got %f", cfg.Selector.TieEpsilon)
	}
}
