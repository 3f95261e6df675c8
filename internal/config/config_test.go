package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func baseArgs(extra ...string) []string {
	return append([]string{
		"--device=/dev/ttyUSB0",
		"--mqtt_server=localhost",
		"--area=1",
		"--zones=3,4",
	}, extra...)
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(baseArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("got device %q", cfg.Device)
	}
	if len(cfg.Areas) != 1 || cfg.Areas[0].Num != 1 {
		t.Fatalf("got areas %+v", cfg.Areas)
	}
	if len(cfg.Zones) != 2 || cfg.Zones[0].Num != 3 || cfg.Zones[0].Area != 1 {
		t.Fatalf("got zones %+v", cfg.Zones)
	}
	if cfg.MQTTClientID == "" {
		t.Error("expected a generated client ID when none given")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(baseArgs())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTTPort != 1883 {
		t.Errorf("expected default port 1883, got %d", cfg.MQTTPort)
	}
	if cfg.MQTTTopic != "darauble/paraevo" {
		t.Errorf("expected default topic, got %s", cfg.MQTTTopic)
	}
	if cfg.StatusPeriod != 60 {
		t.Errorf("expected default status period 60, got %d", cfg.StatusPeriod)
	}
}

func TestAreaZoneOrderSensitivity(t *testing.T) {
	cfg, err := Load([]string{
		"--device=/dev/ttyUSB0", "--mqtt_server=localhost",
		"--area=1", "--zones=3",
		"--area=2", "--zones=10,11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Areas) != 2 {
		t.Fatalf("got areas %+v", cfg.Areas)
	}
	want := map[int]int{3: 1, 10: 2, 11: 2}
	if len(cfg.Zones) != len(want) {
		t.Fatalf("got zones %+v", cfg.Zones)
	}
	for _, z := range cfg.Zones {
		if want[z.Num] != z.Area {
			t.Errorf("zone %d: got area %d, want %d", z.Num, z.Area, want[z.Num])
		}
	}
}

func TestZoneBeforeAreaIsRejected(t *testing.T) {
	_, err := Load([]string{
		"--device=/dev/ttyUSB0", "--mqtt_server=localhost",
		"--zones=3", "--area=1",
	})
	var verr *ValidationError
	if err == nil {
		t.Fatal("expected an error")
	}
	if ve, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	} else {
		verr = ve
	}
	if verr.Code != ExitZoneWithoutArea {
		t.Errorf("got code %d, want %d", verr.Code, ExitZoneWithoutArea)
	}
}

func TestValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"no device", []string{"--mqtt_server=localhost", "--area=1", "--zones=3"}, ExitNoSerialDevice},
		{"no mqtt server", []string{"--device=/dev/ttyUSB0", "--area=1", "--zones=3"}, ExitNoMQTTServer},
		{"no areas", []string{"--device=/dev/ttyUSB0", "--mqtt_server=localhost"}, ExitNoAreas},
		{"invalid port", baseArgs("--mqtt_port=99999"), ExitInvalidPort},
		{"status period too short", baseArgs("--status_period=30"), ExitStatusPeriodTooShort},
		{"invalid area", []string{"--device=/dev/ttyUSB0", "--mqtt_server=localhost", "--area=nope"}, ExitInvalidArea},
		{"invalid zone", []string{"--device=/dev/ttyUSB0", "--mqtt_server=localhost", "--area=1", "--zones=x"}, ExitInvalidZone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args)
			if err == nil {
				t.Fatal("expected an error")
			}
			verr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("expected *ValidationError, got %T: %v", err, err)
			}
			if verr.Code != tt.code {
				t.Errorf("got code %d, want %d", verr.Code, tt.code)
			}
		})
	}
}

func TestHelpAndVersionShortCircuit(t *testing.T) {
	cfg, err := Load([]string{"--help"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Help {
		t.Error("expected Help to be set")
	}

	cfg, err = Load([]string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Version {
		t.Error("expected Version to be set")
	}
}

func TestOverlaySuppliesMQTTServerButNotTopology(t *testing.T) {
	path := writeOverlay(t, `
mqtt:
  server: broker.example.com
  login: panel
  password: secret
user_code: "1234"
`)
	cfg, err := Load([]string{
		"--device=/dev/ttyUSB0", "--area=1", "--zones=3",
		"--config=" + path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTTServer != "broker.example.com" {
		t.Errorf("got server %q", cfg.MQTTServer)
	}
	if cfg.UserCode != "1234" {
		t.Errorf("got user code %q", cfg.UserCode)
	}
}

func TestFlagsOverrideOverlay(t *testing.T) {
	path := writeOverlay(t, `
mqtt:
  server: broker.example.com
`)
	cfg, err := Load([]string{
		"--device=/dev/ttyUSB0", "--mqtt_server=override.example.com",
		"--area=1", "--zones=3", "--config=" + path,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MQTTServer != "override.example.com" {
		t.Errorf("got server %q, want flag value to win", cfg.MQTTServer)
	}
}

func TestMissingOverlayFileIsAnError(t *testing.T) {
	_, err := Load(baseArgs("--config=/nonexistent/config.yaml"))
	if err == nil {
		t.Fatal("expected an error")
	}
}
