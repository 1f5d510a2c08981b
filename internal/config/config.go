package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/vtree/internal/errors"
)

// ConfigFileNames are the configuration files Load looks for, in order.
var ConfigFileNames = []string{"vtree.json", "vtree.yaml", "vtree.yml"}

const (
	// DefaultAddress is the default live server address.
	DefaultAddress = ":8080"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "vtree"

	// DefaultSnapshotDir is the default directory of the disk snapshot store.
	DefaultSnapshotDir = "snapshots"

	// DefaultSnapshotMaxSize is the default snapshot size limit in bytes.
	DefaultSnapshotMaxSize = 4 << 20
)

// Snapshot backends.
const (
	BackendDisk = "disk"
	BackendS3   = "s3"
)

// Config represents the complete vtree configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Log      LogConfig      `json:"log" yaml:"log"`
	Server   ServerConfig   `json:"server" yaml:"server"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
	Tracing  TracingConfig  `json:"tracing" yaml:"tracing"`
	Snapshot SnapshotConfig `json:"snapshot" yaml:"snapshot"`
	Render   RenderConfig   `json:"render" yaml:"render"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServerConfig contains live server settings. Durations use
// time.ParseDuration syntax ("30s").
type ServerConfig struct {
	Address         string `json:"address,omitempty" yaml:"address,omitempty"`
	MaxSessions     int    `json:"maxSessions,omitempty" yaml:"maxSessions,omitempty"`
	MaxMessageSize  int64  `json:"maxMessageSize,omitempty" yaml:"maxMessageSize,omitempty"`
	ReadTimeout     string `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	WriteTimeout    string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// MetricsConfig controls the Prometheus collectors.
type MetricsConfig struct {
	// Enabled defaults to true when unset.
	Enabled   *bool  `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// IsEnabled reports whether metrics are collected.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig controls render spans.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// SnapshotConfig selects where rendered HTML snapshots are stored.
type SnapshotConfig struct {
	// Backend is disk or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the disk backend directory, relative to the config file.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	// Bucket and Prefix locate objects for the s3 backend.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region defaults to $AWS_REGION. Endpoint selects an S3-compatible
	// service and switches to path-style addressing.
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxSize is the largest accepted snapshot in bytes.
	MaxSize int64 `json:"maxSize,omitempty" yaml:"maxSize,omitempty"`
}

// RenderConfig contains CLI render settings.
type RenderConfig struct {
	// Minify minifies HTML output and snapshots.
	Minify bool `json:"minify,omitempty" yaml:"minify,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Address:         DefaultAddress,
			MaxMessageSize:  64 * 1024,
			ReadTimeout:     "60s",
			WriteTimeout:    "10s",
			ShutdownTimeout: "30s",
		},
		Metrics: MetricsConfig{
			Enabled:   boolPtr(true),
			Namespace: DefaultNamespace,
		},
		Snapshot: SnapshotConfig{
			Backend: BackendDisk,
			Dir:     DefaultSnapshotDir,
			MaxSize: DefaultSnapshotMaxSize,
		},
	}
}

// Load reads configuration from the first config file found in dir.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("C001").
		WithDetail("No vtree.json, vtree.yaml or vtree.yml found in " + dir)
}

// LoadFile reads configuration from the specified file path. The format
// follows the file extension.
func LoadFile(path string) (*Config, error) {
	unmarshal, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").WithFile(path)
		}
		return nil, errors.New("C002").WithFile(path).Wrap(err)
	}

	cfg := &Config{}
	if err := unmarshal(data, cfg); err != nil {
		return nil, errors.New("C002").WithFile(path).Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

func codecFor(path string) (func([]byte, any) error, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Unmarshal, nil
	case ".yaml", ".yml":
		return yaml.Unmarshal, nil
	default:
		return nil, errors.New("C009").WithFile(path)
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format of its extension.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return errors.New("C009").WithFile(path)
	}
	if err != nil {
		return errors.New("C002").WithFile(path).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").WithFile(path).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = d.Server.MaxMessageSize
	}
	if c.Server.ReadTimeout == "" {
		c.Server.ReadTimeout = d.Server.ReadTimeout
	}
	if c.Server.WriteTimeout == "" {
		c.Server.WriteTimeout = d.Server.WriteTimeout
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = d.Server.ShutdownTimeout
	}
	if c.Metrics.Enabled == nil {
		c.Metrics.Enabled = d.Metrics.Enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = d.Snapshot.Backend
	}
	if c.Snapshot.Backend == BackendDisk && c.Snapshot.Dir == "" {
		c.Snapshot.Dir = d.Snapshot.Dir
	}
	if c.Snapshot.MaxSize == 0 {
		c.Snapshot.MaxSize = d.Snapshot.MaxSize
	}
}

func boolPtr(b bool) *bool { return &b }

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validateAddress(c.Server.Address); err != nil {
		return errors.New("C003").WithDetail(err.Error())
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("C004").WithDetail("got " + strconv.Quote(c.Log.Level))
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("C005").WithDetail("got " + strconv.Quote(c.Log.Format))
	}

	switch c.Snapshot.Backend {
	case BackendDisk:
		if c.Snapshot.Dir == "" {
			return errors.New("C007")
		}
	case BackendS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("C007")
		}
	default:
		return errors.New("C006").WithDetail("got " + strconv.Quote(c.Snapshot.Backend))
	}

	if c.Server.MaxSessions < 0 || c.Server.MaxMessageSize < 0 || c.Snapshot.MaxSize < 0 {
		return errors.New("C008")
	}
	for name, value := range map[string]string{
		"server.readTimeout":     c.Server.ReadTimeout,
		"server.writeTimeout":    c.Server.WriteTimeout,
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
	} {
		if _, err := parseDuration(value); err != nil {
			return errors.New("C008").WithDetail(name + ": " + err.Error())
		}
	}
	return nil
}

func validateAddress(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return err
	}
	if n < 0 || n > 65535 {
		return errors.Newf(errors.CategoryConfig, "port %d out of range", n)
	}
	return nil
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, errors.Newf(errors.CategoryConfig, "negative duration %s", s)
	}
	return d, nil
}

// ReadTimeout returns the parsed server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	d, _ := parseDuration(c.Server.ReadTimeout)
	return d
}

// WriteTimeout returns the parsed server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	d, _ := parseDuration(c.Server.WriteTimeout)
	return d
}

// ShutdownTimeout returns the parsed graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, _ := parseDuration(c.Server.ShutdownTimeout)
	return d
}

// SnapshotDir returns the absolute path to the disk snapshot directory.
func (c *Config) SnapshotDir() string {
	path := c.Snapshot.Dir
	if path == "" {
		path = DefaultSnapshotDir
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("C001").
				WithDetail("No vtree config found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the nearest parent with a config file.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
