// Package config loads optional tuning overrides for the logging pipeline.
// The CLI surface is positional and fixed, so tuning travels out of band: the
// LIDARLOG_TUNING environment variable names a JSON file, and every field is
// optional. Fields omitted from the file keep their built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvVar names the tuning file in the process environment.
const EnvVar = "LIDARLOG_TUNING"

// Built-in defaults, applied by the Get* accessors when the corresponding
// field is absent.
const (
	defaultMaxPointsPerDegree = 5
	defaultBatchSize          = 8192
	defaultPollTimeout        = time.Second
	defaultIdleDelay          = 50 * time.Millisecond
	defaultRenderListen       = "127.0.0.1:8423"
)

// Tuning holds the pipeline's tunable parameters. All fields are pointers so
// a partial JSON file overrides only what it names.
type Tuning struct {
	MaxPointsPerDegree *int    `json:"max_points_per_degree,omitempty"`
	Decimate           *bool   `json:"decimate,omitempty"`
	BatchSize          *int    `json:"batch_size,omitempty"`
	PollTimeout        *string `json:"poll_timeout,omitempty"` // duration string like "1s"
	IdleDelay          *string `json:"idle_delay,omitempty"`   // duration string like "50ms"
	MotorRPM           *int    `json:"motor_rpm,omitempty"`
	DatabasePath       *string `json:"database_path,omitempty"` // enables the sqlite sink
	RenderListen       *string `json:"render_listen,omitempty"` // visual variant listen address
}

// FromEnv loads the file named by LIDARLOG_TUNING, or returns an empty
// Tuning (all defaults) when the variable is unset.
func FromEnv() (*Tuning, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return &Tuning{}, nil
	}
	return Load(path)
}

// Load reads and validates a tuning file.
func Load(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("tuning file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}

	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}
	return t, nil
}

// Validate rejects values the pipeline cannot run with.
func (t *Tuning) Validate() error {
	if t.MaxPointsPerDegree != nil && *t.MaxPointsPerDegree < 1 {
		return fmt.Errorf("max_points_per_degree must be >= 1, got %d", *t.MaxPointsPerDegree)
	}
	if t.BatchSize != nil && *t.BatchSize < 1 {
		return fmt.Errorf("batch_size must be >= 1, got %d", *t.BatchSize)
	}
	if t.MotorRPM != nil && *t.MotorRPM < 0 {
		return fmt.Errorf("motor_rpm must be >= 0, got %d", *t.MotorRPM)
	}
	for name, v := range map[string]*string{
		"poll_timeout": t.PollTimeout,
		"idle_delay":   t.IdleDelay,
	} {
		if v == nil {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	return nil
}

func (t *Tuning) GetMaxPointsPerDegree() int {
	if t.MaxPointsPerDegree != nil {
		return *t.MaxPointsPerDegree
	}
	return defaultMaxPointsPerDegree
}

// GetDecimate defaults to true: both logger variants halve point density
// unless a tuning file turns decimation off.
func (t *Tuning) GetDecimate() bool {
	if t.Decimate != nil {
		return *t.Decimate
	}
	return true
}

func (t *Tuning) GetBatchSize() int {
	if t.BatchSize != nil {
		return *t.BatchSize
	}
	return defaultBatchSize
}

func (t *Tuning) GetPollTimeout() time.Duration {
	if t.PollTimeout != nil {
		if d, err := time.ParseDuration(*t.PollTimeout); err == nil {
			return d
		}
	}
	return defaultPollTimeout
}

// GetIdleDelay returns the inter-cycle sleep. The visual variant passes its
// own fallback because it runs a faster cycle to keep the view fresh.
func (t *Tuning) GetIdleDelay(fallback time.Duration) time.Duration {
	if t.IdleDelay != nil {
		if d, err := time.ParseDuration(*t.IdleDelay); err == nil {
			return d
		}
	}
	if fallback > 0 {
		return fallback
	}
	return defaultIdleDelay
}

func (t *Tuning) GetMotorRPM() int {
	if t.MotorRPM != nil {
		return *t.MotorRPM
	}
	return 0
}

func (t *Tuning) GetDatabasePath() string {
	if t.DatabasePath != nil {
		return *t.DatabasePath
	}
	return ""
}

func (t *Tuning) GetRenderListen() string {
	if t.RenderListen != nil && *t.RenderListen != "" {
		return *t.RenderListen
	}
	return defaultRenderListen
}
