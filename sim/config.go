package sim

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suspension-sim/suspension-sim/sim/trace"
)

// Config is the full run configuration, loadable from a YAML file.
type Config struct {
	Domain   DomainConfig   `yaml:"domain"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Time     TimeConfig     `yaml:"time"`
	Schedule ScheduleConfig `yaml:"schedule"`
	IO       IOConfig       `yaml:"io"`

	TraceLevel string `yaml:"trace_level"` // "none" (default) or "convergence"
}

// DomainConfig groups the grid resolution and domain height.
type DomainConfig struct {
	ITot int     `yaml:"itot"` // cells between the walls (must be >= number of ranks)
	JTot int     `yaml:"jtot"` // cells in the periodic direction (must be >= number of ranks)
	LY   float64 `yaml:"ly"`   // domain height; the wall distance is fixed to 1
}

// PhysicsConfig groups the non-dimensional flow parameters.
type PhysicsConfig struct {
	Re             float64 `yaml:"re"`               // Reynolds number
	Fr             float64 `yaml:"fr"`               // Froude number; buoyancy is 1/Fr^2
	ExtForceY      float64 `yaml:"ext_force_y"`      // uniform body force along y
	WallVelocityXm float64 `yaml:"wall_velocity_xm"` // y velocity of the wall at x = 0
	WallVelocityXp float64 `yaml:"wall_velocity_xp"` // y velocity of the wall at x = lx
}

// TimeConfig groups time-step safety factors and termination limits.
type TimeConfig struct {
	SafetyAdvection float64 `yaml:"safety_advection"`
	SafetyDiffusion float64 `yaml:"safety_diffusion"`
	SafetyParticle  float64 `yaml:"safety_particle"`
	TimeMax         float64 `yaml:"timemax"`  // simulation time limit
	WallTimeMax     float64 `yaml:"wtimemax"` // wall-clock limit in seconds
}

// EventSchedule fires every Rate time units once the time exceeds After.
type EventSchedule struct {
	Rate  float64 `yaml:"rate"`
	After float64 `yaml:"after"`
}

// ScheduleConfig groups the periodic output events.
type ScheduleConfig struct {
	Log  EventSchedule `yaml:"log"`
	Save EventSchedule `yaml:"save"`
	Stat EventSchedule `yaml:"stat"`
}

// IOConfig groups file-system locations.
type IOConfig struct {
	OutputDir    string `yaml:"output_dir"`    // root of log/, save/ and stat/
	RestartDir   string `yaml:"restart_dir"`   // step directory to resume from (optional)
	ParticlesDir string `yaml:"particles_dir"` // initial particles for a fresh run (optional)
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Domain: DomainConfig{ITot: 32, JTot: 32, LY: 1},
		Physics: PhysicsConfig{
			Re:        2.334e3,
			Fr:        math.MaxFloat64,
			ExtForceY: 2.337e-4,
		},
		Time: TimeConfig{
			SafetyAdvection: 0.75,
			SafetyDiffusion: 0.75,
			SafetyParticle:  0.95,
			TimeMax:         1e3,
			WallTimeMax:     6e2,
		},
		Schedule: ScheduleConfig{
			Log:  EventSchedule{Rate: 1, After: 0},
			Save: EventSchedule{Rate: 1e3, After: 0},
			Stat: EventSchedule{Rate: 0.1, After: 2e3},
		},
		IO:         IOConfig{OutputDir: "output"},
		TraceLevel: string(trace.TraceLevelNone),
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate checks parameter ranges for a run over the given number of ranks.
func (c *Config) Validate(ranks int) error {
	if ranks < 1 {
		return fmt.Errorf("ranks must be positive, got %d", ranks)
	}
	if c.Domain.ITot < 2 || c.Domain.JTot < 2 {
		return fmt.Errorf("domain must have at least 2x2 cells, got %dx%d", c.Domain.ITot, c.Domain.JTot)
	}
	if c.Domain.ITot < ranks || c.Domain.JTot < ranks {
		return fmt.Errorf("domain %dx%d cannot be split over %d ranks", c.Domain.ITot, c.Domain.JTot, ranks)
	}
	positive := []struct {
		name  string
		value float64
	}{
		{"domain.ly", c.Domain.LY},
		{"physics.re", c.Physics.Re},
		{"physics.fr", c.Physics.Fr},
		{"time.safety_advection", c.Time.SafetyAdvection},
		{"time.safety_diffusion", c.Time.SafetyDiffusion},
		{"time.safety_particle", c.Time.SafetyParticle},
		{"time.timemax", c.Time.TimeMax},
		{"time.wtimemax", c.Time.WallTimeMax},
		{"schedule.log.rate", c.Schedule.Log.Rate},
		{"schedule.save.rate", c.Schedule.Save.Rate},
		{"schedule.stat.rate", c.Schedule.Stat.Rate},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			return fmt.Errorf("%s must be positive, got %g", p.name, p.value)
		}
	}
	if math.IsNaN(c.Physics.ExtForceY) {
		return fmt.Errorf("physics.ext_force_y must be a number")
	}
	if !trace.IsValidTraceLevel(c.TraceLevel) {
		return fmt.Errorf("unknown trace level %q; valid: none, convergence", c.TraceLevel)
	}
	if c.IO.OutputDir == "" {
		return fmt.Errorf("io.output_dir must not be empty")
	}
	return nil
}
