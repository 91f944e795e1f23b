package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults match the tuning the wire protocol was designed around; every
// field may be overridden from the YAML config file.
const (
	DefaultPort          = 7068
	DefaultInterface     = "0.0.0.0"
	DefaultReadBuffer    = 16384
	DefaultPollTimeout   = 200 * time.Millisecond
	DefaultKeepAlive     = 15 * time.Second
	DefaultDialThrottle  = 5 * time.Second
	DefaultSearchRadius  = 9
	DefaultSyncChunkSize = 400
)

type Config struct {
	Username      string
	Interface     string
	Port          int
	DataDir       string
	ReadBuffer    int
	PollTimeout   time.Duration
	KeepAlive     time.Duration
	DialThrottle  time.Duration
	SearchRadius  int
	SyncChunkSize int
	LogLevel      string

	// DBPath is derived from DataDir, never set directly.
	DBPath string
}

func New(username, dataDir string) (Config, error) {
	if username == "" {
		return Config{}, fmt.Errorf("username is required")
	}
	cfg := Config{Username: username, DataDir: dataDir}
	cfg.applyDefaults()
	return cfg, nil
}

// fileConfig is the YAML shape: durations are written as strings ("200ms",
// "15s") and parsed here.
type fileConfig struct {
	Username      string `yaml:"username"`
	Interface     string `yaml:"interface"`
	Port          int    `yaml:"port"`
	DataDir       string `yaml:"data_dir"`
	ReadBuffer    int    `yaml:"read_buffer"`
	PollTimeout   string `yaml:"poll_timeout"`
	KeepAlive     string `yaml:"keep_alive"`
	DialThrottle  string `yaml:"dial_throttle"`
	SearchRadius  int    `yaml:"search_radius"`
	SyncChunkSize int    `yaml:"sync_chunk_size"`
	LogLevel      string `yaml:"log_level"`
}

// Load reads a YAML config file, filling in defaults for absent fields.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if file.Username == "" {
		return Config{}, fmt.Errorf("config %s: username is required", path)
	}

	cfg := Config{
		Username:      file.Username,
		Interface:     file.Interface,
		Port:          file.Port,
		DataDir:       file.DataDir,
		ReadBuffer:    file.ReadBuffer,
		SearchRadius:  file.SearchRadius,
		SyncChunkSize: file.SyncChunkSize,
		LogLevel:      file.LogLevel,
	}
	for _, d := range []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{file.PollTimeout, "poll_timeout", &cfg.PollTimeout},
		{file.KeepAlive, "keep_alive", &cfg.KeepAlive},
		{file.DialThrottle, "dial_throttle", &cfg.DialThrottle},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %s: %w", path, d.name, err)
		}
		*d.dst = parsed
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Interface == "" {
		c.Interface = DefaultInterface
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.DataDir == "" {
		c.DataDir = ".peerpad"
	}
	if c.ReadBuffer == 0 {
		c.ReadBuffer = DefaultReadBuffer
	}
	if c.PollTimeout == 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = DefaultKeepAlive
	}
	if c.DialThrottle == 0 {
		c.DialThrottle = DefaultDialThrottle
	}
	if c.SearchRadius == 0 {
		c.SearchRadius = DefaultSearchRadius
	}
	if c.SyncChunkSize == 0 {
		c.SyncChunkSize = DefaultSyncChunkSize
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.DBPath = filepath.Join(c.DataDir, "peerpad.db")
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Interface, c.Port)
}
