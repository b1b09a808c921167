// Package config provides configuration management for the ClipForge agent.
// Configuration is loaded from environment variables with sensible defaults;
// an optional .env file can seed variables that are not already set.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort           = 8790
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".clipforge"
	DefaultAllowedOrigins = "http://localhost:5173"
	DefaultFFprobe        = "ffprobe"
	DefaultFFmpeg         = "ffmpeg"
	DefaultFrameRate      = 60
	DefaultWatchQuiet     = 2 * time.Second
	DefaultEnvFile        = ".env"

	// Environment variable names
	EnvPort           = "CLIPFORGE_PORT"
	EnvLogLevel       = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir        = "CLIPFORGE_DATA_DIR"
	EnvHeadless       = "CLIPFORGE_HEADLESS"
	EnvWatchDir       = "CLIPFORGE_WATCH_DIR"
	EnvWatchQuiet     = "CLIPFORGE_WATCH_QUIET"
	EnvAutoPlace      = "CLIPFORGE_AUTO_PLACE"
	EnvAllowedOrigins = "CLIPFORGE_ALLOWED_ORIGINS"
	EnvFFprobe        = "CLIPFORGE_FFPROBE"
	EnvFFmpeg         = "CLIPFORGE_FFMPEG"
	EnvFrameRate      = "CLIPFORGE_FRAME_RATE"

	// Database filename
	DBFilename = "clipforge.db"
)

type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	CacheDir() string
	Headless() bool
	WatchDir() string
	WatchQuiet() time.Duration
	AutoPlace() bool
	AllowedOrigins() []string
	FFprobePath() string
	FFmpegPath() string
	FrameRate() int
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	headless       bool
	watchDir       string
	watchQuiet     time.Duration
	autoPlace      bool
	allowedOrigins []string
	ffprobe        string
	ffmpeg         string
	frameRate      int
}

// Load reads envFile into the environment, without overriding variables
// that are already set, and then builds the config. A missing file is not
// an error.
func Load(envFile string) (*EnvConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return New()
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		watchQuiet:     DefaultWatchQuiet,
		allowedOrigins: []string{DefaultAllowedOrigins},
		ffprobe:        DefaultFFprobe,
		ffmpeg:         DefaultFFmpeg,
		frameRate:      DefaultFrameRate,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	var err error
	if cfg.headless, err = envBool(EnvHeadless); err != nil {
		return nil, err
	}
	if cfg.autoPlace, err = envBool(EnvAutoPlace); err != nil {
		return nil, err
	}

	cfg.watchDir = os.Getenv(EnvWatchDir)

	if q := os.Getenv(EnvWatchQuiet); q != "" {
		d, err := time.ParseDuration(q)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s: %q", EnvWatchQuiet, q)
		}
		cfg.watchQuiet = d
	}

	if o := os.Getenv(EnvAllowedOrigins); o != "" {
		var origins []string
		for _, origin := range strings.Split(o, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.allowedOrigins = origins
	}

	if bin := os.Getenv(EnvFFprobe); bin != "" {
		cfg.ffprobe = bin
	}
	if bin := os.Getenv(EnvFFmpeg); bin != "" {
		cfg.ffmpeg = bin
	}

	if fr := os.Getenv(EnvFrameRate); fr != "" {
		rate, err := strconv.Atoi(fr)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvFrameRate, err)
		}
		if rate < 1 || rate > 240 {
			return nil, fmt.Errorf("invalid %s: frame rate must be between 1 and 240", EnvFrameRate)
		}
		cfg.frameRate = rate
	}

	return cfg, nil
}

func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// CacheDir holds probe results and thumbnails.
func (c *EnvConfig) CacheDir() string {
	return filepath.Join(c.dataDir, "cache")
}

func (c *EnvConfig) Headless() bool {
	return c.headless
}

// WatchDir is the recordings directory to ingest from. Empty disables
// watching.
func (c *EnvConfig) WatchDir() string {
	return c.watchDir
}

func (c *EnvConfig) WatchQuiet() time.Duration {
	return c.watchQuiet
}

func (c *EnvConfig) AutoPlace() bool {
	return c.autoPlace
}

func (c *EnvConfig) AllowedOrigins() []string {
	return append([]string(nil), c.allowedOrigins...)
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FrameRate() int {
	return c.frameRate
}

func envBool(name string) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", name, err)
	}
	return b, nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
