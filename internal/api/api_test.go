package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/clipforge/clipforge-agent/internal/engine"
	"github.com/clipforge/clipforge-agent/internal/history"
	"github.com/clipforge/clipforge-agent/internal/ingest"
	"github.com/clipforge/clipforge-agent/internal/media"
	"github.com/clipforge/clipforge-agent/internal/playback"
	"github.com/clipforge/clipforge-agent/internal/store"
	"github.com/clipforge/clipforge-agent/internal/timeline"
)

const testToken = "test-token"

type fakeRepo struct {
	mu      sync.Mutex
	token   string
	deleted []string
}

func (f *fakeRepo) GetConfig(ctx context.Context, key string) (string, error) {
	if key == store.KeyAuthToken {
		return f.token, nil
	}
	return "", nil
}

func (f *fakeRepo) DeleteMedia(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeHistory struct {
	mu        sync.Mutex
	commits   int
	restored  int64
	snapshots []*store.Snapshot
}

func (f *fakeHistory) Commit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
}

func (f *fakeHistory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.commits
}

func (f *fakeHistory) List(ctx context.Context, limit int) ([]*store.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeHistory) Restore(ctx context.Context, e history.Doer, seq int64) error {
	for _, s := range f.snapshots {
		if s.Seq == seq {
			f.mu.Lock()
			f.restored = seq
			f.mu.Unlock()
			return nil
		}
	}
	return history.ErrNotFound
}

// fakeIngester adds items straight through the engine. Paths ending in
// ".mov" come back with a lookup error, as if ffprobe failed.
type fakeIngester struct {
	engine *engine.Engine
}

func (f *fakeIngester) Ingest(ctx context.Context, path string) (media.Item, error) {
	kind, ok := media.KindForPath(path)
	if !ok {
		return media.Item{}, ingest.ErrUnsupported
	}
	item := media.Item{ID: "m-" + filepath.Base(path), Name: filepath.Base(path), Kind: kind, Path: path, Duration: 30, Size: 2048}
	if filepath.Ext(path) == ".mov" {
		item.Duration = 0
	}
	err := f.engine.Do(ctx, func(p *engine.Project) error {
		return p.Timeline.AddMediaItem(item)
	})
	if err != nil {
		return media.Item{}, err
	}
	if filepath.Ext(path) == ".mov" {
		return item, &ingest.LookupError{Op: "probe", Path: path, Err: os.ErrNotExist}
	}
	return item, nil
}

type fakeThumbnails map[string][]byte

func (f fakeThumbnails) Read(handle string) ([]byte, error) {
	if data, ok := f[handle]; ok {
		return data, nil
	}
	return nil, ingest.ErrBadHandle
}

type testEnv struct {
	t       *testing.T
	handler http.Handler
	engine  *engine.Engine
	repo    *fakeRepo
	history *fakeHistory
	source  string
	cfg     ServerConfig
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEnv starts an engine seeded with media m1 (a real 60s video file on
// disk), a visible video track v1 and clip c1 at [0, 10).
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	source := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(source, []byte("0123456789abcdef"), 0o644); err != nil {
		t.Fatal(err)
	}

	hist := &fakeHistory{snapshots: []*store.Snapshot{{Seq: 1, Duration: 10, ClipCount: 1, CreatedAt: time.Now()}}}
	e := engine.New(engine.Options{Timeline: timeline.New(nil), History: hist})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	err := e.Do(context.Background(), func(p *engine.Project) error {
		tl := p.Timeline
		if err := tl.AddMediaItem(media.Item{ID: "m1", Name: "clip.mp4", Kind: media.KindVideo, Path: source, Duration: 60, Size: 16, Thumbnail: "thumb-aa"}); err != nil {
			return err
		}
		if err := tl.AddTrack(timeline.Track{ID: "v1", Kind: timeline.TrackVideo, Visible: true}); err != nil {
			return err
		}
		return tl.AddClip(timeline.Clip{ID: "c1", MediaItemID: "m1", TrackID: "v1", Duration: 10, Volume: 1})
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	repo := &fakeRepo{token: testToken}
	cfg := ServerConfig{
		Engine:         e,
		Ingest:         &fakeIngester{engine: e},
		Thumbnails:     fakeThumbnails{"thumb-aa": []byte("jpeg")},
		Sources:        playback.NewMediaServer(nil),
		Repository:     repo,
		History:        hist,
		AllowedOrigins: []string{"http://localhost:5173"},
		Version:        "1.2.3",
		Logger:         testLogger(),
		StartTime:      time.Now(),
		DeviceID:       "test-device",
	}
	return &testEnv{t: t, handler: NewHandler(cfg), engine: e, repo: repo, history: hist, source: source, cfg: cfg}
}

func (env *testEnv) request(method, path string, body any) *httptest.ResponseRecorder {
	env.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			env.t.Fatalf("json.Marshal error: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) do(fn func(p *engine.Project) error) {
	env.t.Helper()
	if err := env.engine.Do(context.Background(), fn); err != nil {
		env.t.Fatalf("Do() error = %v", err)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func newAuthedRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func serve(env *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}
