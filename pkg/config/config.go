// Package config loads the configuration of one board from defaults, FLAP_*
// environment variables, command line flags and an optional YAML file, in
// that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang/glog"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/env"
)

// Config is the configuration of a board.
type Config struct {
	Board       Board     `yaml:"board"`
	Modules     []Module  `yaml:"modules"`
	ModuleCount int       `yaml:"module_count"`
	Links       Links     `yaml:"links"`
	Timing      Timing    `yaml:"timing"`
	Status      Status    `yaml:"status"`
	Demo        []string  `yaml:"demo"`
	Telemetry   Telemetry `yaml:"telemetry"`
	Mirror      *Mirror   `yaml:"mirror"`
	Bank        Bank      `yaml:"bank"`

	// Messages are shown in turn by a head board, each for ChangeEvery.
	Messages    []string      `yaml:"messages"`
	ChangeEvery time.Duration `yaml:"change_every"`
	// ResetEvery is the reset-all period of a head board showing Messages
	// or the clock. Defaults to chain.DefaultResetEvery, 0 disables.
	ResetEvery *time.Duration `yaml:"reset_every"`
	Clock      Clock          `yaml:"clock"`
}

// Clock shows the time on a head board.
type Clock struct {
	// Mode is off, 12h or 24h.
	Mode string `yaml:"mode"`
}

// Board identifies the board in telemetry.
type Board struct {
	Type        string `yaml:"type"`
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Module calibrates one flap module.
type Module struct {
	// Offset is the step position of the blank flap after homing.
	Offset int `yaml:"offset"`
}

// Links are the URLs of the neighbors, see env.OpenTransport.
type Links struct {
	Upstream   string `yaml:"upstream"`
	Downstream string `yaml:"downstream"`
}

// Timing of the request cycle and the motors, in milliseconds.
type Timing struct {
	PollMs         int `yaml:"poll_ms"`
	ReplyTimeoutMs int `yaml:"reply_timeout_ms"`
	StepPeriodMs   int `yaml:"step_period_ms"`
}

// Status formats the aggregated status text.
type Status struct {
	Placeholder string `yaml:"placeholder"`
	Separator   string `yaml:"separator"`
}

// Telemetry configures MQTT publishing of cycle events.
type Telemetry struct {
	// MQTTURL e.g. mqtt://host:port/topic-prefix/, empty disables telemetry.
	MQTTURL string `yaml:"mqtt_url"`
}

// Mirror configures the Modbus register mirror.
type Mirror struct {
	Endpoint    string `yaml:"endpoint"`
	UnitID      uint8  `yaml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address"`
	TimeoutMs   int    `yaml:"timeout_ms"`
}

// Bank selects the module bank.
type Bank struct {
	// Driver is the module-driver port URL, see env.OpenDriverPort.
	// The bank is simulated when empty.
	Driver string `yaml:"driver"`
}

// Defaults.
const (
	DefaultBoardType   = "flap"
	DefaultModuleCount = 6
	DefaultStepPeriod  = 10
)

var defaultConfig = Config{
	Board: Board{Type: DefaultBoardType},
}

func init() {
	defaultConfig.Board.ID = env.MachineID()
	if val := os.Getenv("FLAP_BOARD_ID"); val != "" {
		defaultConfig.Board.ID = val
	}
	if val := os.Getenv("FLAP_UPSTREAM"); val != "" {
		defaultConfig.Links.Upstream = val
	}
	if val := os.Getenv("FLAP_DOWNSTREAM"); val != "" {
		defaultConfig.Links.Downstream = val
	}
	if val := os.Getenv("FLAP_MQTT_URL"); val != "" {
		defaultConfig.Telemetry.MQTTURL = val
	}
	if val := os.Getenv("FLAP_CLOCK"); val != "" {
		defaultConfig.Clock.Mode = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Board.Type, "type", defaultConfig.Board.Type, "Board type")
	flag.StringVar(&defaultConfig.Board.ID, "id", defaultConfig.Board.ID, "Board ID")
	flag.StringVar(&defaultConfig.Links.Upstream, "upstream", defaultConfig.Links.Upstream, "Upstream link URL")
	flag.StringVar(&defaultConfig.Links.Downstream, "downstream", defaultConfig.Links.Downstream, "Downstream link URL")
	flag.StringVar(&defaultConfig.Telemetry.MQTTURL, "mqtt", defaultConfig.Telemetry.MQTTURL, "MQTT broker URL for telemetry")
	flag.IntVar(&defaultConfig.ModuleCount, "modules", defaultConfig.ModuleCount, "Number of modules when not listed in the board file")
	flag.StringVar(&defaultConfig.Bank.Driver, "driver", defaultConfig.Bank.Driver, "Module driver port URL, simulated when empty")
	flag.StringVar(&defaultConfig.Clock.Mode, "clock", defaultConfig.Clock.Mode, "Show the time on a head board: off, 12h or 24h")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Load reads the board file at path over the defaults, then validates and
// normalizes the result. An empty path uses the defaults only.
func Load(path string) (*Config, error) {
	conf := NewConfig()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := conf.Decode(f); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := Validate(conf); err != nil {
		return nil, err
	}
	Normalize(conf)
	return conf, nil
}

// MustLoad loads the board file and fails on error.
func MustLoad(path string) *Config {
	conf, err := Load(path)
	if err != nil {
		glog.Exitln(err)
	}
	return conf
}

// Decode reads YAML over c. Unknown fields are errors.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Offsets lists the module offsets.
func (c *Config) Offsets() []int {
	offsets := make([]int, len(c.Modules))
	for i, m := range c.Modules {
		offsets[i] = m.Offset
	}
	return offsets
}

// ChainConfig converts timing, status, demo and schedule settings.
func (c *Config) ChainConfig() chain.Config {
	cfg := chain.DefaultConfig()
	if c.Timing.PollMs > 0 {
		cfg.PollInterval = ms(c.Timing.PollMs)
	}
	if c.Timing.ReplyTimeoutMs > 0 {
		cfg.ReplyTimeout = ms(c.Timing.ReplyTimeoutMs)
	}
	if c.Status.Placeholder != "" {
		cfg.Placeholder = c.Status.Placeholder
	}
	if c.Status.Separator != "" {
		cfg.Separator = c.Status.Separator
	}
	cfg.Demo = c.Demo
	cfg.Schedule = c.ScheduleConfig()
	return cfg
}

// ScheduleConfig converts the message and clock settings.
func (c *Config) ScheduleConfig() chain.ScheduleConfig {
	mode, _ := chain.ParseClockMode(c.Clock.Mode)
	sc := chain.ScheduleConfig{
		Messages:    c.Messages,
		ChangeEvery: c.ChangeEvery,
		ResetEvery:  chain.DefaultResetEvery,
		Clock:       mode,
	}
	if c.ResetEvery != nil {
		sc.ResetEvery = *c.ResetEvery
	}
	return sc
}

// StepPeriod is the delay of a single simulated step.
func (c *Config) StepPeriod() time.Duration {
	return ms(c.Timing.StepPeriodMs)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
