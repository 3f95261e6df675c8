// Package config parses the daemon's command-line surface into an
// immutable Config, with an optional YAML file supplying MQTT secrets
// and overridable defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"paraevo-mqtt/internal/panel"
)

// Exit codes for specific validation failures, preserved from the
// original CLI surface so operators' existing service-unit checks keep
// working unchanged.
const (
	ExitInvalidPort          = -1
	ExitInvalidArea          = -2
	ExitZoneWithoutArea      = -3
	ExitInvalidZone          = -4
	ExitNoAreas              = -5
	ExitNoZones              = -6
	ExitNoSerialDevice       = -7
	ExitNoMQTTServer         = -8
	ExitStatusPeriodTooShort = -9
)

// ValidationError carries the exit code a CLI validation failure should
// produce, alongside a human-readable message for stderr.
type ValidationError struct {
	Code int
	Msg  string
}

func (e *ValidationError) Error() string { return e.Msg }

func fail(code int, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Config is the fully validated, immutable daemon configuration.
type Config struct {
	Device string

	MQTTServer   string
	MQTTPort     int
	MQTTTopic    string
	MQTTClientID string
	MQTTLogin    string
	MQTTPassword string
	MQTTRetain   bool

	UserCode     string
	StatusPeriod int

	MetricsAddr string
	Daemon      bool
	Verbose     bool

	Help    bool
	Version bool

	Areas []panel.AreaConfig
	Zones []panel.ZoneConfig
}

// secretsOverlay is the optional --config YAML document. Only credentials
// and defaults live here; panel topology (areas/zones) stays on the
// command line since it describes hardware, not policy.
type secretsOverlay struct {
	MQTT struct {
		Server   string `yaml:"server"`
		Port     int    `yaml:"port"`
		Topic    string `yaml:"topic"`
		ClientID string `yaml:"client_id"`
		Login    string `yaml:"login"`
		Password string `yaml:"password"`
	} `yaml:"mqtt"`
	UserCode string `yaml:"user_code"`
}

// areaZoneBuilder accumulates the order-sensitive, repeatable --area and
// --zones flags: each --zones applies to whichever --area most recently
// preceded it.
type areaZoneBuilder struct {
	areas       []int
	zonesByArea map[int][]int
	order       []int // area numbers in the order --zones was applied
	current     *int
	err         *ValidationError
}

type areaFlag struct{ b *areaZoneBuilder }

func (f areaFlag) String() string { return "" }
func (f areaFlag) Type() string   { return "int" }
func (f areaFlag) Set(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > panel.MaxAreas {
		f.b.err = fail(ExitInvalidArea, "invalid area %q", s)
		return nil
	}
	f.b.areas = append(f.b.areas, n)
	f.b.current = &n
	return nil
}

type zonesFlag struct{ b *areaZoneBuilder }

func (f zonesFlag) String() string { return "" }
func (f zonesFlag) Type() string   { return "csv" }
func (f zonesFlag) Set(s string) error {
	if f.b.current == nil {
		f.b.err = fail(ExitZoneWithoutArea, "zone list %q given before any area", s)
		return nil
	}
	area := *f.b.current
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > panel.MaxZones {
			f.b.err = fail(ExitInvalidZone, "invalid zone %q", part)
			return nil
		}
		f.b.zonesByArea[area] = append(f.b.zonesByArea[area], n)
	}
	f.b.order = append(f.b.order, area)
	return nil
}

// Load parses args (typically os.Args[1:]) into a validated Config.
// Errors returned are either a *ValidationError (carrying an exit code)
// or a plain error for flag-parsing failures (such as an unknown flag)
// and for failures reading or parsing --config.
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("paraevo-mqtt", pflag.ContinueOnError)
	fs.Usage = func() {}

	device := fs.StringP("device", "d", "", "serial device path for the PRT3 module")
	mqttServer := fs.String("mqtt_server", "", "MQTT broker host")
	mqttPort := fs.Int("mqtt_port", 1883, "MQTT broker port")
	mqttTopic := fs.String("mqtt_topic", "darauble/paraevo", "MQTT topic prefix")
	mqttClientID := fs.String("mqtt_client_id", "", "MQTT client ID (default: generated)")
	mqttLogin := fs.String("mqtt_login", "", "MQTT username")
	mqttPassword := fs.String("mqtt_password", "", "MQTT password")
	mqttRetain := fs.Bool("mqtt_retain", false, "retain published MQTT messages")
	userCode := fs.String("user_code", "", "panel user code for arm/disarm commands")
	statusPeriod := fs.Int("status_period", 60, "seconds between periodic status refreshes")
	configPath := fs.String("config", "", "optional YAML file with MQTT secrets/defaults")
	metricsAddr := fs.String("metrics_addr", "", "optional host:port for the Prometheus exporter")
	daemon := fs.Bool("daemon", false, "suppress interactive banner output")
	verbose := fs.BoolP("verbose", "v", false, "enable verbose logging")
	help := fs.BoolP("help", "h", false, "show usage and exit")
	version := fs.Bool("version", false, "show version and exit")

	b := &areaZoneBuilder{zonesByArea: make(map[int][]int)}
	fs.VarP(areaFlag{b}, "area", "a", "configure an area; repeat, followed by --zones")
	fs.VarP(zonesFlag{b}, "zones", "z", "comma-separated zone list for the preceding --area")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *help || *version {
		return &Config{Help: *help, Version: *version}, nil
	}
	if b.err != nil {
		return nil, b.err
	}

	cfg := &Config{
		Device:       *device,
		MQTTServer:   *mqttServer,
		MQTTPort:     *mqttPort,
		MQTTTopic:    *mqttTopic,
		MQTTClientID: *mqttClientID,
		MQTTLogin:    *mqttLogin,
		MQTTPassword: *mqttPassword,
		MQTTRetain:   *mqttRetain,
		UserCode:     *userCode,
		StatusPeriod: *statusPeriod,
		MetricsAddr:  *metricsAddr,
		Daemon:       *daemon,
		Verbose:      *verbose,
	}

	if *configPath != "" {
		if err := applyOverlay(cfg, *configPath); err != nil {
			return nil, err
		}
	}

	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = "paraevo-" + uuid.New().String()
	}

	for _, num := range b.areas {
		cfg.Areas = append(cfg.Areas, panel.AreaConfig{Num: num})
	}
	seenZone := make(map[int]bool)
	for _, area := range b.order {
		for _, zone := range b.zonesByArea[area] {
			if seenZone[zone] {
				continue
			}
			seenZone[zone] = true
			cfg.Zones = append(cfg.Zones, panel.ZoneConfig{Num: zone, Area: area})
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var overlay secretsOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if cfg.MQTTServer == "" {
		cfg.MQTTServer = overlay.MQTT.Server
	}
	if cfg.MQTTPort == 1883 && overlay.MQTT.Port != 0 {
		cfg.MQTTPort = overlay.MQTT.Port
	}
	if cfg.MQTTTopic == "darauble/paraevo" && overlay.MQTT.Topic != "" {
		cfg.MQTTTopic = overlay.MQTT.Topic
	}
	if cfg.MQTTClientID == "" {
		cfg.MQTTClientID = overlay.MQTT.ClientID
	}
	if cfg.MQTTLogin == "" {
		cfg.MQTTLogin = overlay.MQTT.Login
	}
	if cfg.MQTTPassword == "" {
		cfg.MQTTPassword = overlay.MQTT.Password
	}
	if cfg.UserCode == "" {
		cfg.UserCode = overlay.UserCode
	}
	return nil
}

func (c *Config) validate() error {
	if c.Device == "" {
		return fail(ExitNoSerialDevice, "--device is required")
	}
	if c.MQTTServer == "" {
		return fail(ExitNoMQTTServer, "--mqtt_server is required")
	}
	if c.MQTTPort < 1 || c.MQTTPort > 65535 {
		return fail(ExitInvalidPort, "--mqtt_port must be between 1 and 65535, got %d", c.MQTTPort)
	}
	if len(c.Areas) == 0 {
		return fail(ExitNoAreas, "at least one --area is required")
	}
	if len(c.Zones) == 0 {
		return fail(ExitNoZones, "at least one --zones entry is required")
	}
	if c.StatusPeriod < 60 {
		return fail(ExitStatusPeriodTooShort, "--status_period must be at least 60, got %d", c.StatusPeriod)
	}
	return nil
}
