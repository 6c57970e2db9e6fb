package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	rerrors "github.com/vango-dev/rask/internal/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g. RASK_LOG_LEVEL.
const EnvPrefix = "RASK"

// FileName is the config file name looked up without an extension.
const FileName = "rask"

// Default values.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
	DefaultNamespace     = "rask"
	DefaultInspectorAddr = "127.0.0.1:7070"
	DefaultApp           = "counter"
	DefaultSnapshotDir   = "snapshots"
)

// Config is the complete rask configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Inspector InspectorConfig `mapstructure:"inspector"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Debug     bool            `mapstructure:"debug"`

	// path is the file the config was read from, if any.
	path string
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// InspectorConfig configures the inspector HTTP server.
type InspectorConfig struct {
	Addr   string `mapstructure:"addr"`
	Pretty bool   `mapstructure:"pretty"`
	// App is the demo application to mount.
	App string `mapstructure:"app"`
}

// SnapshotConfig selects where rendered snapshots are stored. A non-empty
// S3 bucket takes precedence over Dir.
type SnapshotConfig struct {
	Dir string   `mapstructure:"dir"`
	S3  S3Config `mapstructure:"s3"`
}

// S3Config configures the S3 snapshot store.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Inspector: InspectorConfig{
			Addr: DefaultInspectorAddr,
			App:  DefaultApp,
		},
		Snapshot: SnapshotConfig{
			Dir: DefaultSnapshotDir,
		},
	}
}

// SetDefaults registers every default on v. Keys without a default are not
// visible to environment overrides.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
	v.SetDefault("inspector.addr", d.Inspector.Addr)
	v.SetDefault("inspector.pretty", d.Inspector.Pretty)
	v.SetDefault("inspector.app", d.Inspector.App)
	v.SetDefault("snapshot.dir", d.Snapshot.Dir)
	v.SetDefault("snapshot.s3.bucket", "")
	v.SetDefault("snapshot.s3.prefix", "")
	v.SetDefault("snapshot.s3.region", "")
	v.SetDefault("snapshot.s3.endpoint", "")
	v.SetDefault("snapshot.s3.path_style", false)
	v.SetDefault("debug", d.Debug)
}

// NewViper returns a viper instance with defaults and RASK_ environment
// overrides. Nested keys map to underscores: snapshot.s3.bucket is read
// from RASK_SNAPSHOT_S3_BUCKET.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration. If file is empty, rask.{yaml,json,toml} is
// searched in dirs and a missing file is not an error. An explicit file
// must exist.
func Load(v *viper.Viper, file string, dirs ...string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		for _, d := range dirs {
			v.AddConfigPath(d)
		}
	}

	if file != "" || len(dirs) > 0 {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if file != "" || !errors.As(err, &notFound) {
				return nil, rerrors.New("R010").WithDetail("read config file").Wrap(err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, rerrors.New("R010").WithDetail("decode config").Wrap(err)
	}
	cfg.path = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the configuration was read from, or "".
func (c *Config) Path() string {
	return c.path
}

// UseS3 reports whether snapshots go to S3.
func (c *Config) UseS3() bool {
	return c.Snapshot.S3.Bucket != ""
}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the configuration. All problems are reported in one
// R010 error.
func (c *Config) Validate() error {
	var problems []string

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		problems = append(problems, fmt.Sprintf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q is not one of text, json", c.Log.Format))
	}

	if c.Metrics.Enabled && !namespacePattern.MatchString(c.Metrics.Namespace) {
		problems = append(problems, fmt.Sprintf("metrics.namespace %q is not a valid metric name prefix", c.Metrics.Namespace))
	}

	if c.Inspector.Addr == "" {
		problems = append(problems, "inspector.addr is empty")
	}
	if c.Inspector.App == "" {
		problems = append(problems, "inspector.app is empty")
	}

	s3 := c.Snapshot.S3
	if s3.Bucket == "" && c.Snapshot.Dir == "" {
		problems = append(problems, "one of snapshot.dir or snapshot.s3.bucket is required")
	}
	if s3.Bucket != "" && s3.Region == "" && s3.Endpoint == "" {
		problems = append(problems, "snapshot.s3.region is required unless snapshot.s3.endpoint is set")
	}
	if strings.HasPrefix(s3.Prefix, "/") {
		problems = append(problems, "snapshot.s3.prefix must not start with /")
	}

	if len(problems) == 0 {
		return nil
	}
	return rerrors.New("R010").WithDetail(strings.Join(problems, "; "))
}
