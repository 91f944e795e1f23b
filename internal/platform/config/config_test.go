package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"peerpad/internal/platform/config"
)

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.New("alice", "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if cfg.Port != config.DefaultPort {
		t.Fatalf("port = %d, want %d", cfg.Port, config.DefaultPort)
	}
	if cfg.KeepAlive != config.DefaultKeepAlive {
		t.Fatalf("keep alive = %v, want %v", cfg.KeepAlive, config.DefaultKeepAlive)
	}
	if cfg.SearchRadius != config.DefaultSearchRadius {
		t.Fatalf("search radius = %d, want %d", cfg.SearchRadius, config.DefaultSearchRadius)
	}
	if cfg.DBPath == "" {
		t.Fatalf("db path not derived")
	}
	if cfg.ListenAddr() == "" {
		t.Fatalf("listen addr not derived")
	}
}

func TestNewRequiresUsername(t *testing.T) {
	t.Parallel()
	if _, err := config.New("", ""); err == nil {
		t.Fatalf("missing username should fail")
	}
}

func TestLoadParsesFileAndDurations(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "peerpad.yaml")
	raw := `
username: carol
port: 9000
keep_alive: 30s
dial_throttle: 1500ms
search_radius: 4
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Username != "carol" || cfg.Port != 9000 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.KeepAlive != 30*time.Second {
		t.Fatalf("keep alive = %v", cfg.KeepAlive)
	}
	if cfg.DialThrottle != 1500*time.Millisecond {
		t.Fatalf("dial throttle = %v", cfg.DialThrottle)
	}
	if cfg.SearchRadius != 4 {
		t.Fatalf("search radius = %d", cfg.SearchRadius)
	}
	// Absent fields fall back to defaults.
	if cfg.PollTimeout != config.DefaultPollTimeout {
		t.Fatalf("poll timeout = %v", cfg.PollTimeout)
	}
	if cfg.ReadBuffer != config.DefaultReadBuffer {
		t.Fatalf("read buffer = %d", cfg.ReadBuffer)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "peerpad.yaml")
	if err := os.WriteFile(path, []byte("username: x\nkeep_alive: soon\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatalf("bad duration should fail")
	}
}

func TestLoadRequiresUsername(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "peerpad.yaml")
	if err := os.WriteFile(path, []byte("port: 9000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatalf("missing username should fail")
	}
}
