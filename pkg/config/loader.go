package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Defaults applied to omitted sections
const (
	DefaultLogLevel    = "info"
	DefaultParticle    = "gamma"
	DefaultEvents      = 1
	DefaultHTTPAddr    = ":8080"
	DefaultGRPCAddr    = ":50051"
	DefaultFixedWeight = 1.0
)

// LoadConfig loads and parses a configuration file. A relative source path
// is resolved against the config file's directory.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := ParseConfigYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if !filepath.IsAbs(cfg.Source.Path) {
		cfg.Source.Path = filepath.Join(filepath.Dir(path), cfg.Source.Path)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.Particle.Name == "" {
		cfg.Particle.Name = DefaultParticle
	}
	if cfg.Weight == nil {
		cfg.Weight = &Weight{}
	}
	if cfg.Weight.Policy == "" {
		cfg.Weight.Policy = "fixed"
	}
	// An explicit value, zero included, is kept as written.
	if cfg.Weight.Policy == "fixed" && cfg.Weight.Value == nil {
		v := DefaultFixedWeight
		cfg.Weight.Value = &v
	}
	if cfg.Clock == nil {
		cfg.Clock = &Clock{Type: "constant"}
	}
	if cfg.Clock.Type == "" {
		cfg.Clock.Type = "constant"
	}
	if cfg.Run == nil {
		cfg.Run = &Run{Events: DefaultEvents}
	}
	if cfg.Server == nil {
		cfg.Server = &Server{}
	}
	if cfg.Server.HTTPAddr == "" {
		cfg.Server.HTTPAddr = DefaultHTTPAddr
	}
	if cfg.Server.GRPCAddr == "" {
		cfg.Server.GRPCAddr = DefaultGRPCAddr
	}
}

// validateConfig performs validation on the configuration
func validateConfig(cfg *Config) error {
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", cfg.LogLevel)
	}

	if cfg.Source.Path == "" {
		return fmt.Errorf("source.path cannot be empty")
	}

	if m := cfg.Particle.MassMeV; m != nil && (*m < 0 || math.IsNaN(*m) || math.IsInf(*m, 0)) {
		return fmt.Errorf("particle %s: mass_mev must be a non-negative number, got %g", cfg.Particle.Name, *m)
	}

	if err := validateWeight(cfg.Weight); err != nil {
		return fmt.Errorf("weight validation failed: %w", err)
	}

	if cfg.Placement != nil {
		if err := validatePlacement(cfg.Placement); err != nil {
			return fmt.Errorf("placement validation failed: %w", err)
		}
	}

	if err := validateClock(cfg.Clock); err != nil {
		return fmt.Errorf("clock validation failed: %w", err)
	}

	if cfg.Run.Events <= 0 {
		return fmt.Errorf("run.events must be positive, got %d", cfg.Run.Events)
	}

	if cfg.Server.RateLimitRPS < 0 {
		return fmt.Errorf("server.rate_limit_rps must not be negative, got %d", cfg.Server.RateLimitRPS)
	}

	return nil
}

func validateWeight(w *Weight) error {
	switch w.Policy {
	case "fixed":
		if w.Value == nil {
			break
		}
		if v := *w.Value; v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fixed weight value must be a non-negative number, got %g", v)
		}
	case "yield":
	default:
		return fmt.Errorf("invalid weight policy: %s (must be fixed or yield)", w.Policy)
	}
	return nil
}

func validatePlacement(p *Placement) error {
	if p.Translation != nil && len(p.Translation) != 3 {
		return fmt.Errorf("translation must have 3 components, got %d", len(p.Translation))
	}
	if p.Rotation != nil {
		if len(p.Rotation.Axis) != 3 {
			return fmt.Errorf("rotation axis must have 3 components, got %d", len(p.Rotation.Axis))
		}
		if p.Rotation.AngleDeg != 0 && p.Rotation.Axis[0] == 0 && p.Rotation.Axis[1] == 0 && p.Rotation.Axis[2] == 0 {
			return fmt.Errorf("rotation axis cannot be zero for a non-zero angle")
		}
	}
	return nil
}

func validateClock(c *Clock) error {
	if c.StartNs < 0 {
		return fmt.Errorf("start_ns cannot be negative, got %g", c.StartNs)
	}
	switch c.Type {
	case "constant":
	case "uniform":
		if c.WindowNs <= 0 {
			return fmt.Errorf("uniform clock needs a positive window_ns, got %g", c.WindowNs)
		}
	case "periodic":
		if c.IntervalNs <= 0 {
			return fmt.Errorf("periodic clock needs a positive interval_ns, got %g", c.IntervalNs)
		}
	case "poisson":
		if c.ActivityBq <= 0 {
			return fmt.Errorf("poisson clock needs a positive activity_bq, got %g", c.ActivityBq)
		}
	default:
		return fmt.Errorf("invalid clock type: %s (must be constant, uniform, periodic, or poisson)", c.Type)
	}
	return nil
}
