package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("default port = %q", cfg.Server.Port)
	}
	if cfg.Experiment.Candidates != 12 {
		t.Errorf("default candidate count = %d", cfg.Experiment.Candidates)
	}
	if cfg.Experiment.ShortlistCap != 5 {
		t.Errorf("default shortlist cap = %d", cfg.Experiment.ShortlistCap)
	}
	if cfg.Experiment.BiasDelta != 6 || cfg.Experiment.AIThreshold != 70 {
		t.Errorf("default scoring knobs = %d/%d", cfg.Experiment.BiasDelta, cfg.Experiment.AIThreshold)
	}
	if !cfg.Experiment.BiasOnlyBorderline {
		t.Errorf("bias should default to borderline-only")
	}
	if cfg.Telemetry.Timeout != 6*time.Second {
		t.Errorf("default telemetry timeout = %v", cfg.Telemetry.Timeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_URL", "https://example.test/log")
	t.Setenv("LOG_KEY", "secret")
	t.Setenv("BIAS_ONLY_ON_BORDERLINE", "false")
	t.Setenv("LOG_TIMEOUT_SECONDS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Errorf("port override ignored: %q", cfg.Server.Port)
	}
	if cfg.Telemetry.URL != "https://example.test/log" || cfg.Telemetry.Key != "secret" {
		t.Errorf("telemetry overrides ignored: %+v", cfg.Telemetry)
	}
	if cfg.Experiment.BiasOnlyBorderline {
		t.Errorf("bias gating override ignored")
	}
	if cfg.Telemetry.Timeout != 2*time.Second {
		t.Errorf("timeout override ignored: %v", cfg.Telemetry.Timeout)
	}
}

func TestLoadRejectsBadCap(t *testing.T) {
	t.Setenv("SHORTLIST_CAP", "20")
	if _, err := Load(); err == nil {
		t.Errorf("cap above candidate count must be rejected")
	}

	t.Setenv("SHORTLIST_CAP", "0")
	if _, err := Load(); err == nil {
		t.Errorf("zero cap must be rejected")
	}
}
