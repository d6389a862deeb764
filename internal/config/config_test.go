package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	p := Default()
	if p.RSSThresholdMB != 50 {
		t.Errorf("RSSThresholdMB = %d, want 50", p.RSSThresholdMB)
	}
	if p.EnableTermination {
		t.Error("termination must default to off")
	}
	if !p.RequireConfirmation {
		t.Error("confirmation must default to on")
	}
	if p.ThrottleInterval != 5*time.Minute {
		t.Errorf("ThrottleInterval = %v, want 5m", p.ThrottleInterval)
	}
	if !p.Allowed("kernel_task") || !p.Allowed("launchd") || !p.Allowed("systemd") {
		t.Error("default allow-list missing core system processes")
	}
	if p.Denied("anything") {
		t.Error("default deny-list should be empty")
	}
}

func TestInitAndResolveDefaults(t *testing.T) {
	v := viper.New()
	// Point at a file that does not exist; defaults must still resolve.
	if err := Init(v, filepath.Join(t.TempDir(), "nope.yaml")); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := Resolve(v)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.RSSThresholdMB != 50 || p.LogRetentionDays != 30 {
		t.Errorf("defaults not applied: %+v", p)
	}
	if p.Server.Port != 37878 {
		t.Errorf("Server.Port = %d, want 37878", p.Server.Port)
	}
}

func TestFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "rss_threshold_mb: 200\nenable_termination: true\nthrottle_interval: 90s\ndeny_list: [chrome, slack]\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	if err := Init(v, path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := Resolve(v)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.RSSThresholdMB != 200 {
		t.Errorf("RSSThresholdMB = %d, want 200", p.RSSThresholdMB)
	}
	if !p.EnableTermination {
		t.Error("EnableTermination not overridden by file")
	}
	if p.ThrottleInterval != 90*time.Second {
		t.Errorf("ThrottleInterval = %v, want 90s", p.ThrottleInterval)
	}
	if !p.Denied("chrome") || !p.Denied("slack") {
		t.Errorf("DenyList = %v", p.DenyList)
	}
	// Untouched keys keep their defaults.
	if p.LogRetentionDays != 30 {
		t.Errorf("LogRetentionDays = %d, want 30", p.LogRetentionDays)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("rss_threshold_mb: 200\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEMBOOST_RSS_THRESHOLD_MB", "400")

	v := viper.New()
	if err := Init(v, path); err != nil {
		t.Fatalf("Init: %v", err)
	}
	p, err := Resolve(v)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.RSSThresholdMB != 400 {
		t.Errorf("RSSThresholdMB = %d, want 400 (env over file)", p.RSSThresholdMB)
	}
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		t.Fatalf("unmarshal written config: %v", err)
	}
	if p.RSSThresholdMB != Default().RSSThresholdMB {
		t.Errorf("round-trip RSSThresholdMB = %d", p.RSSThresholdMB)
	}

	// Second write must refuse to clobber.
	if err := WriteDefault(path); err == nil {
		t.Error("expected error overwriting existing config")
	}
}
