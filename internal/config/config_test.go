package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	for _, name := range []string{EnvPort, EnvLogLevel, EnvHeadless, EnvWatchDir, EnvAllowedOrigins, EnvFrameRate, EnvAutoPlace} {
		t.Setenv(name, "")
	}
	t.Setenv(EnvDataDir, "/tmp/clipforge-test")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" || cfg.Headless() || cfg.AutoPlace() || cfg.WatchDir() != "" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.FrameRate() != 60 || cfg.WatchQuiet() != DefaultWatchQuiet {
		t.Errorf("FrameRate() = %d, WatchQuiet() = %v", cfg.FrameRate(), cfg.WatchQuiet())
	}
	if cfg.DBPath() != filepath.Join("/tmp/clipforge-test", DBFilename) {
		t.Errorf("DBPath() = %s", cfg.DBPath())
	}
	if cfg.CacheDir() != filepath.Join("/tmp/clipforge-test", "cache") {
		t.Errorf("CacheDir() = %s", cfg.CacheDir())
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins(), []string{DefaultAllowedOrigins}) {
		t.Errorf("AllowedOrigins() = %v", cfg.AllowedOrigins())
	}
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvAutoPlace, "1")
	t.Setenv(EnvWatchDir, "/recordings")
	t.Setenv(EnvWatchQuiet, "500ms")
	t.Setenv(EnvAllowedOrigins, "http://a.test, http://b.test,,")
	t.Setenv(EnvFFprobe, "/opt/ff/ffprobe")
	t.Setenv(EnvFrameRate, "30")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 || !cfg.Headless() || !cfg.AutoPlace() {
		t.Errorf("port/headless/autoplace = %d/%v/%v", cfg.Port(), cfg.Headless(), cfg.AutoPlace())
	}
	if cfg.WatchDir() != "/recordings" || cfg.WatchQuiet() != 500*time.Millisecond {
		t.Errorf("watch = %s/%v", cfg.WatchDir(), cfg.WatchQuiet())
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins(), []string{"http://a.test", "http://b.test"}) {
		t.Errorf("AllowedOrigins() = %v", cfg.AllowedOrigins())
	}
	if cfg.FFprobePath() != "/opt/ff/ffprobe" || cfg.FFmpegPath() != DefaultFFmpeg {
		t.Errorf("tools = %s/%s", cfg.FFprobePath(), cfg.FFmpegPath())
	}
	if cfg.FrameRate() != 30 {
		t.Errorf("FrameRate() = %d, want 30", cfg.FrameRate())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		env   string
		value string
	}{
		{EnvPort, "abc"},
		{EnvPort, "70000"},
		{EnvHeadless, "maybe"},
		{EnvWatchQuiet, "soon"},
		{EnvWatchQuiet, "-1s"},
		{EnvFrameRate, "0"},
		{EnvFrameRate, "fast"},
	}
	for _, tc := range tests {
		t.Run(tc.env+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.env, tc.value)
			if _, err := New(); err == nil || !strings.Contains(err.Error(), tc.env) {
				t.Fatalf("New() error = %v, want error naming %s", err, tc.env)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	t.Setenv(EnvPort, "")
	os.Unsetenv(EnvPort)
	t.Setenv(EnvLogLevel, "warn")

	file := filepath.Join(t.TempDir(), ".env")
	content := EnvPort + "=9200\n" + EnvLogLevel + "=debug\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv(EnvPort) })

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port() != 9200 {
		t.Errorf("Port() = %d, want 9200 from file", cfg.Port())
	}
	if cfg.LogLevel() != "warn" {
		t.Errorf("LogLevel() = %s, want warn (environment wins)", cfg.LogLevel())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
}
