package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnykmshr/taskpool/internal/testutil"
	tperrors "github.com/vnykmshr/taskpool/pkg/common/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	testutil.AssertNoError(t, cfg.Validate())
	testutil.AssertEqual(t, cfg.Workers, 4)
	testutil.AssertEqual(t, cfg.Tasks, 8)
	testutil.AssertEqual(t, cfg.TaskDuration, 100*time.Millisecond)
	testutil.AssertEqual(t, cfg.Square, 10)
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
pool:
  name: thumbnails
  workers: 8
load:
  tasks: 32
  task_duration: 25ms
  producers: 4
  submit_rate: 200
  burst: 10
  fail_every: 5
  heartbeat: "@every 2s"
metrics:
  addr: ":9100"
log:
  file: ./poolctl.log
`)

	fc, err := LoadFile(path)
	testutil.AssertNoError(t, err)

	cfg, err := fc.Apply(Default())
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, cfg.Validate())

	testutil.AssertEqual(t, cfg.PoolName, "thumbnails")
	testutil.AssertEqual(t, cfg.Workers, 8)
	testutil.AssertEqual(t, cfg.Tasks, 32)
	testutil.AssertEqual(t, cfg.TaskDuration, 25*time.Millisecond)
	testutil.AssertEqual(t, cfg.Producers, 4)
	testutil.AssertEqual(t, cfg.SubmitRate, 200.0)
	testutil.AssertEqual(t, cfg.Burst, 10)
	testutil.AssertEqual(t, cfg.FailEvery, 5)
	testutil.AssertEqual(t, cfg.Heartbeat, "@every 2s")
	testutil.AssertEqual(t, cfg.MetricsAddr, ":9100")
	testutil.AssertEqual(t, cfg.LogFile, "./poolctl.log")
	// untouched default
	testutil.AssertEqual(t, cfg.Square, 10)
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "run.json", `{"pool": {"workers": 2}, "load": {"square": 12}}`)

	fc, err := LoadFile(path)
	testutil.AssertNoError(t, err)

	cfg, err := fc.Apply(Default())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, cfg.Workers, 2)
	testutil.AssertEqual(t, cfg.Square, 12)
	testutil.AssertEqual(t, cfg.PoolName, "poolctl")
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") }},
		{"unsupported extension", func(t *testing.T) string { return writeFile(t, "run.toml", "workers = 1") }},
		{"bad yaml", func(t *testing.T) string { return writeFile(t, "run.yaml", "pool: [unclosed") }},
		{"bad json", func(t *testing.T) string { return writeFile(t, "run.json", "{") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(tt.path(t))
			testutil.AssertError(t, err)
		})
	}
}

func TestApply_InvalidDuration(t *testing.T) {
	fc := &FileConfig{Load: LoadConfig{TaskDuration: "soon"}}
	_, err := fc.Apply(Default())
	testutil.AssertError(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"empty name", func(c *Config) { c.PoolName = "" }},
		{"negative tasks", func(c *Config) { c.Tasks = -1 }},
		{"negative duration", func(c *Config) { c.TaskDuration = -time.Second }},
		{"zero producers", func(c *Config) { c.Producers = 0 }},
		{"negative rate", func(c *Config) { c.SubmitRate = -1 }},
		{"rate without burst", func(c *Config) { c.SubmitRate = 10; c.Burst = 0 }},
		{"negative fail_every", func(c *Config) { c.FailEvery = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			testutil.AssertError(t, err)
			testutil.AssertEqual(t, tperrors.IsValidationError(err), true)
		})
	}
}
