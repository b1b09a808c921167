package ingest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const (
	defaultDoctorTTL   = 5 * time.Minute
	toolVersionTimeout = 5 * time.Second
)

// ToolInfo reports whether one external binary can be run.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Tools is the availability of the binaries ingest shells out to. Without
// ffprobe every item is ingested with degraded metadata; without ffmpeg no
// thumbnails are produced.
type Tools struct {
	FFprobe  ToolInfo  `json:"ffprobe"`
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	ProbedAt time.Time `json:"probed_at"`
}

func (t *Tools) AllOK() bool {
	return t.FFprobe.Available && t.FFmpeg.Available
}

// Doctor checks the ingest binaries and caches the result for a TTL.
type Doctor struct {
	ffprobe string
	ffmpeg  string
	ttl     time.Duration
	logger  *slog.Logger

	lookPath func(file string) (string, error)
	version  func(ctx context.Context, bin string) (string, error)

	mu     sync.RWMutex
	cached *Tools
}

func NewDoctor(ffprobe, ffmpeg string, logger *slog.Logger) *Doctor {
	if ffprobe == "" {
		ffprobe = DefaultFFprobe
	}
	if ffmpeg == "" {
		ffmpeg = DefaultFFmpeg
	}
	return &Doctor{
		ffprobe:  ffprobe,
		ffmpeg:   ffmpeg,
		ttl:      defaultDoctorTTL,
		logger:   logger,
		lookPath: exec.LookPath,
		version:  toolVersion,
	}
}

// Get returns the cached result if fresh, otherwise checks again.
func (d *Doctor) Get(ctx context.Context) *Tools {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		tools := d.cached
		d.mu.RUnlock()
		return tools
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

// Peek returns the last result without checking, or nil before the first
// check.
func (d *Doctor) Peek() *Tools {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh checks both binaries regardless of cache freshness.
func (d *Doctor) Refresh(ctx context.Context) *Tools {
	tools := &Tools{
		FFprobe:  d.check(ctx, d.ffprobe),
		FFmpeg:   d.check(ctx, d.ffmpeg),
		ProbedAt: time.Now(),
	}

	d.mu.Lock()
	d.cached = tools
	d.mu.Unlock()

	if d.logger != nil {
		d.logger.Info("ingest tools checked",
			"ffprobe", tools.FFprobe.Available,
			"ffmpeg", tools.FFmpeg.Available,
		)
	}
	return tools
}

func (d *Doctor) check(ctx context.Context, bin string) ToolInfo {
	path, err := d.lookPath(bin)
	if err != nil {
		return ToolInfo{Error: err.Error()}
	}
	info := ToolInfo{Path: path}

	ctx, cancel := context.WithTimeout(ctx, toolVersionTimeout)
	defer cancel()
	version, err := d.version(ctx, path)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.Available = true
	info.Version = version
	return info
}

func toolVersion(ctx context.Context, bin string) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-version")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s -version: %w: %s", bin, err, tail(stderr.Bytes(), 256))
	}
	return parseVersion(stdout.Bytes()), nil
}

// parseVersion pulls the version token out of a banner such as
// "ffprobe version 6.1.1-3ubuntu5 Copyright ...".
func parseVersion(out []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(out))
	if !sc.Scan() {
		return ""
	}
	fields := strings.Fields(sc.Text())
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return ""
}

func tail(b []byte, n int) string {
	if len(b) > n {
		b = b[len(b)-n:]
	}
	return strings.TrimSpace(string(b))
}
