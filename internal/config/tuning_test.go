package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTuning(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	return path
}

func TestDefaultsWhenEmpty(t *testing.T) {
	tn := &Tuning{}

	if got := tn.GetMaxPointsPerDegree(); got != 5 {
		t.Errorf("GetMaxPointsPerDegree() = %d, want 5", got)
	}
	if !tn.GetDecimate() {
		t.Error("GetDecimate() = false, want true by default")
	}
	if got := tn.GetBatchSize(); got != 8192 {
		t.Errorf("GetBatchSize() = %d, want 8192", got)
	}
	if got := tn.GetPollTimeout(); got != time.Second {
		t.Errorf("GetPollTimeout() = %v, want 1s", got)
	}
	if got := tn.GetIdleDelay(0); got != 50*time.Millisecond {
		t.Errorf("GetIdleDelay(0) = %v, want 50ms", got)
	}
	if got := tn.GetIdleDelay(10 * time.Millisecond); got != 10*time.Millisecond {
		t.Errorf("GetIdleDelay(10ms) = %v, want the caller's fallback", got)
	}
	if got := tn.GetMotorRPM(); got != 0 {
		t.Errorf("GetMotorRPM() = %d, want 0", got)
	}
	if got := tn.GetDatabasePath(); got != "" {
		t.Errorf("GetDatabasePath() = %q, want empty (sqlite sink disabled)", got)
	}
	if got := tn.GetRenderListen(); got != "127.0.0.1:8423" {
		t.Errorf("GetRenderListen() = %q, want default listen address", got)
	}
}

func TestLoadPartialOverrides(t *testing.T) {
	path := writeTuning(t, "tuning.json", `{
		"max_points_per_degree": 3,
		"decimate": false,
		"idle_delay": "10ms",
		"database_path": "scans.db"
	}`)

	tn, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tn.GetMaxPointsPerDegree(); got != 3 {
		t.Errorf("GetMaxPointsPerDegree() = %d, want 3", got)
	}
	if tn.GetDecimate() {
		t.Error("GetDecimate() = true, want false from file")
	}
	if got := tn.GetIdleDelay(time.Second); got != 10*time.Millisecond {
		t.Errorf("GetIdleDelay() = %v, want 10ms from file", got)
	}
	if got := tn.GetDatabasePath(); got != "scans.db" {
		t.Errorf("GetDatabasePath() = %q, want scans.db", got)
	}
	// Fields the file omits keep their defaults.
	if got := tn.GetBatchSize(); got != 8192 {
		t.Errorf("GetBatchSize() = %d, want default 8192", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero cap", `{"max_points_per_degree": 0}`, "max_points_per_degree"},
		{"negative batch", `{"batch_size": -1}`, "batch_size"},
		{"negative rpm", `{"motor_rpm": -300}`, "motor_rpm"},
		{"bad duration", `{"poll_timeout": "soon"}`, "poll_timeout"},
		{"zero duration", `{"idle_delay": "0s"}`, "idle_delay"},
		{"not json", `max_points_per_degree: 3`, "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTuning(t, "tuning.json", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load accepted invalid tuning")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsNonJSONExtension(t *testing.T) {
	path := writeTuning(t, "tuning.yaml", `{}`)
	if _, err := Load(path); err == nil {
		t.Error("Load accepted a non-.json file")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv(EnvVar, "")
	tn, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv with unset var: %v", err)
	}
	if got := tn.GetBatchSize(); got != 8192 {
		t.Errorf("GetBatchSize() = %d, want default", got)
	}

	path := writeTuning(t, "tuning.json", `{"motor_rpm": 600}`)
	t.Setenv(EnvVar, path)
	tn, err = FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if got := tn.GetMotorRPM(); got != 600 {
		t.Errorf("GetMotorRPM() = %d, want 600", got)
	}

	t.Setenv(EnvVar, filepath.Join(t.TempDir(), "missing.json"))
	if _, err := FromEnv(); err == nil {
		t.Error("FromEnv accepted a missing tuning file")
	}
}
