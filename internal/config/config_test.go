package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	rerrors "github.com/vango-dev/rask/internal/errors"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := Default()
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
	if cfg.UseS3() {
		t.Error("UseS3() = true, want false")
	}
}

func TestLoadMissingFileInSearchPath(t *testing.T) {
	cfg, err := Load(NewViper(), "", t.TempDir())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Inspector.Addr != DefaultInspectorAddr {
		t.Errorf("Inspector.Addr = %q, want %q", cfg.Inspector.Addr, DefaultInspectorAddr)
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
	if !errors.Is(err, rerrors.New("R010")) {
		t.Errorf("error = %v, want R010", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	yaml := `
log:
  level: debug
  format: json
metrics:
  namespace: demo
inspector:
  addr: 0.0.0.0:9000
  pretty: true
  app: todo
snapshot:
  s3:
    bucket: snaps
    prefix: ci/
    region: eu-west-1
debug: true
`
	if err := os.WriteFile(filepath.Join(dir, "rask.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(NewViper(), "", dir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	want := &Config{
		Log:       LogConfig{Level: "debug", Format: "json"},
		Metrics:   MetricsConfig{Enabled: true, Namespace: "demo"},
		Inspector: InspectorConfig{Addr: "0.0.0.0:9000", Pretty: true, App: "todo"},
		Snapshot: SnapshotConfig{
			Dir: DefaultSnapshotDir,
			S3:  S3Config{Bucket: "snaps", Prefix: "ci/", Region: "eu-west-1"},
		},
		Debug: true,
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if filepath.Base(cfg.Path()) != "rask.yaml" {
		t.Errorf("Path() = %q, want rask.yaml", cfg.Path())
	}
	if !cfg.UseS3() {
		t.Error("UseS3() = false, want true")
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.json")
	if err := os.WriteFile(path, []byte(`{"inspector": {"app": "boundary"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Inspector.App != "boundary" {
		t.Errorf("Inspector.App = %q, want %q", cfg.Inspector.App, "boundary")
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RASK_LOG_LEVEL", "warn")
	t.Setenv("RASK_METRICS_ENABLED", "false")
	t.Setenv("RASK_SNAPSHOT_S3_BUCKET", "from-env")
	t.Setenv("RASK_SNAPSHOT_S3_ENDPOINT", "http://localhost:9000")

	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.Metrics.Enabled {
		t.Error("Metrics.Enabled = true, want false")
	}
	if cfg.Snapshot.S3.Bucket != "from-env" {
		t.Errorf("Snapshot.S3.Bucket = %q, want %q", cfg.Snapshot.S3.Bucket, "from-env")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rask.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RASK_LOG_LEVEL", "error")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "1abc" }, "metrics.namespace"},
		{"namespace ignored when disabled", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Namespace = ""
		}, ""},
		{"empty addr", func(c *Config) { c.Inspector.Addr = "" }, "inspector.addr"},
		{"no sink", func(c *Config) { c.Snapshot.Dir = "" }, "snapshot.dir"},
		{"bucket without region", func(c *Config) { c.Snapshot.S3.Bucket = "b" }, "snapshot.s3.region"},
		{"bucket with endpoint", func(c *Config) {
			c.Snapshot.S3.Bucket = "b"
			c.Snapshot.S3.Endpoint = "http://minio:9000"
		}, ""},
		{"absolute prefix", func(c *Config) { c.Snapshot.S3.Prefix = "/x" }, "snapshot.s3.prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.wantErr)
			}
			var re *rerrors.Error
			if !errors.As(err, &re) || re.Code != "R010" {
				t.Errorf("Validate() code = %v, want R010", err)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Inspector.Addr = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"log.level", "inspector.addr"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() = %v, missing %q", err, want)
		}
	}
}
