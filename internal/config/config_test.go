package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}

	sim := cfg.Simulator
	if sim.DeviceID != "1234567890123" {
		t.Errorf("DeviceID = %q", sim.DeviceID)
	}
	if sim.Address != "localhost:5001" {
		t.Errorf("Address = %q", sim.Address)
	}
	if sim.Period != time.Second {
		t.Errorf("Period = %v, want 1s", sim.Period)
	}
	if sim.Step != 0.001 || sim.Speed != 40 || sim.DriverID != "123456" {
		t.Errorf("Step/Speed/DriverID = %v/%v/%q", sim.Step, sim.Speed, sim.DriverID)
	}
	if sim.Format != "reference" || sim.Reports != 0 {
		t.Errorf("Format/Reports = %q/%d", sim.Format, sim.Reports)
	}

	loop, err := sim.WaypointLoop()
	if err != nil {
		t.Fatalf("WaypointLoop() unexpected error: %v", err)
	}
	if len(loop) != 6 {
		t.Fatalf("len(loop) = %d, want 6", len(loop))
	}
	if loop[0].Lat != 48.853780 || loop[0].Lon != 2.344347 {
		t.Errorf("loop[0] = %v", loop[0])
	}

	if cfg.Server.TCPAddress != "0.0.0.0:5001" || cfg.Server.MongoDatabase != "tracking" {
		t.Errorf("Server = %+v", cfg.Server)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trackgen.yaml")
	content := `simulator:
  device_id: "999"
  period: 250ms
  format: extended
  waypoints:
    - [48.1, 2.1]
    - [48.2, 2.2]
    - [48.3, 2.1]
server:
  redis_url: redis://localhost:6379/0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TRACKGEN_SIMULATOR_ADDRESS", "tracker.example:5001")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() unexpected error: %v", err)
	}

	sim := cfg.Simulator
	if sim.DeviceID != "999" || sim.Format != "extended" {
		t.Errorf("DeviceID/Format = %q/%q", sim.DeviceID, sim.Format)
	}
	if sim.Period != 250*time.Millisecond {
		t.Errorf("Period = %v, want 250ms", sim.Period)
	}
	if sim.Address != "tracker.example:5001" {
		t.Errorf("Address = %q, want env override", sim.Address)
	}
	if sim.Speed != 40 {
		t.Errorf("Speed = %v, want default 40", sim.Speed)
	}

	loop, err := sim.WaypointLoop()
	if err != nil {
		t.Fatalf("WaypointLoop() unexpected error: %v", err)
	}
	if len(loop) != 3 || loop[2].Lat != 48.3 || loop[2].Lon != 2.1 {
		t.Errorf("loop = %v", loop)
	}
	if cfg.Server.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.Server.RedisURL)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("LoadConfig() expected error for missing file")
	}
}

func TestWaypointLoopRejectsMalformedPairs(t *testing.T) {
	sim := SimulatorConfig{Waypoints: [][]float64{{48.1, 2.1}, {48.2}}}
	if _, err := sim.WaypointLoop(); err == nil {
		t.Errorf("WaypointLoop() expected error for short pair")
	}
}
