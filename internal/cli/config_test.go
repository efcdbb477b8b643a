package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/layout"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("", newLogger(&bytes.Buffer{}, log.InfoLevel))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Layout != layout.DefaultConfig() {
		t.Errorf("Layout = %+v, want defaults", cfg.Layout)
	}
	if cfg.Cache.Backend != cacheBackendFile || cfg.Store.Backend != storeBackendMemory {
		t.Errorf("backends = %q/%q, want file/memory", cfg.Cache.Backend, cfg.Store.Backend)
	}
}

func TestLoadConfigFromXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, appName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[server]\naddr = \":9000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig("", newLogger(&bytes.Buffer{}, log.InfoLevel))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want :9000", cfg.Server.Addr)
	}
}

func TestLoadConfigDecode(t *testing.T) {
	path := writeConfig(t, `
[layout]
horizontal_spacing = 300
center = { x = 10, y = 20 }

[cache]
backend = "redis"
prefix = "staging:"
[cache.redis]
addr = "localhost:6379"
db = 2

[store]
backend = "mongo"
[store.mongo]
uri = "mongodb://localhost:27017"
database = "families"
`)

	cfg, err := loadConfig(path, newLogger(&bytes.Buffer{}, log.InfoLevel))
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Layout.HorizontalSpacing != 300 {
		t.Errorf("HorizontalSpacing = %v, want 300", cfg.Layout.HorizontalSpacing)
	}
	if cfg.Layout.VerticalSpacing != layout.DefaultVerticalSpacing {
		t.Errorf("VerticalSpacing = %v, want default", cfg.Layout.VerticalSpacing)
	}
	if cfg.Layout.Center.X != 10 || cfg.Layout.Center.Y != 20 {
		t.Errorf("Center = %+v, want (10, 20)", cfg.Layout.Center)
	}
	if cfg.Cache.Redis.Addr != "localhost:6379" || cfg.Cache.Redis.DB != 2 || cfg.Cache.Prefix != "staging:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Store.Mongo.Database != "families" {
		t.Errorf("Store.Mongo = %+v", cfg.Store.Mongo)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad toml", "[layout\n", "load config"},
		{"unknown cache backend", "[cache]\nbackend = \"memcached\"\n", "cache.backend"},
		{"unknown store backend", "[store]\nbackend = \"s3\"\n", "store.backend"},
		{"redis without addr", "[cache]\nbackend = \"redis\"\n", "cache.redis.addr"},
		{"mongo without uri", "[store]\nbackend = \"mongo\"\n", "store.mongo.uri"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.content), newLogger(&bytes.Buffer{}, log.InfoLevel))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("loadConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml"), newLogger(&bytes.Buffer{}, log.InfoLevel))
	if err == nil {
		t.Error("loadConfig() should fail for a missing explicit file")
	}
}

func TestLoadConfigUnknownKey(t *testing.T) {
	var buf bytes.Buffer
	path := writeConfig(t, "[layout]\nspacing = 10\n")

	if _, err := loadConfig(path, newLogger(&buf, log.InfoLevel)); err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if !strings.Contains(buf.String(), "unknown config key") || !strings.Contains(buf.String(), "layout.spacing") {
		t.Errorf("expected unknown key warning, got %q", buf.String())
	}
}

func TestLayoutFlagsConfig(t *testing.T) {
	base := layout.DefaultConfig()
	base.HorizontalSpacing = 300

	tests := []struct {
		name  string
		flags layoutFlags
		want  func(layout.Config) bool
	}{
		{
			name:  "no overrides keeps base",
			flags: layoutFlags{},
			want:  func(c layout.Config) bool { return c == base },
		},
		{
			name:  "override vertical",
			flags: layoutFlags{verticalSpacing: 50},
			want:  func(c layout.Config) bool { return c.VerticalSpacing == 50 && c.HorizontalSpacing == 300 },
		},
		{
			name:  "radial overrides",
			flags: layoutFlags{radialStep: 200, innerRadius: 40},
			want:  func(c layout.Config) bool { return c.RadialStep == 200 && c.InnerRadius == 40 },
		},
		{
			name:  "negative ignored",
			flags: layoutFlags{horizontalSpacing: -1},
			want:  func(c layout.Config) bool { return c.HorizontalSpacing == 300 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.flags.config(base)
			if !tt.want(got) {
				t.Errorf("config() = %+v", got)
			}
		})
	}
}
