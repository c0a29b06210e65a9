package aiwallpaperlib

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noisePNG builds an incompressible PNG so responses clear the short-body
// threshold.
func noisePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	rng := rand.New(rand.NewSource(42))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.Greater(t, buf.Len(), minImageBytes)
	return buf.Bytes()
}

// imageServer serves a noise PNG and records every prompt it was asked to
// render. failFirst makes the very first request 500.
type imageServer struct {
	*httptest.Server
	requests int64
	prompts  []string
}

func newImageServer(t *testing.T, failFirst bool) *imageServer {
	t.Helper()

	body := noisePNG(t, 64, 36)
	s := &imageServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			n := atomic.AddInt64(&s.requests, 1)

			p := strings.TrimPrefix(r.URL.Path, "/p/")
			decoded, err := url.PathUnescape(p)
			require.NoError(t, err)
			s.prompts = append(s.prompts, decoded)

			if failFirst && n == 1 {
				http.Error(w, "overloaded", http.StatusInternalServerError)
				return
			}
			_, _ = w.Write(body)
		}))
	t.Cleanup(s.Close)
	return s
}

func testPipeline(t *testing.T, srv *imageServer) (*Pipeline, *[]int) {
	t.Helper()

	fetcher := NewFetcher(5 * time.Second)
	fetcher.BaseURL = srv.URL

	var setCalls []int
	p := &Pipeline{
		Prompt:   "test",
		Displays: 2,
		Width:    64,
		Height:   36,
		Private:  true,
		QueueDir: t.TempDir(),
		Fetcher:  fetcher,
		SetBackground: func(path string, display int) error {
			setCalls = append(setCalls, display)
			return nil
		},
		Refresh: func() {},
	}
	return p, &setCalls
}

func TestRunAttemptsEveryDisplay(t *testing.T) {
	srv := newImageServer(t, false)
	p, setCalls := testPipeline(t, srv)
	p.Displays = 3

	// Queue entries for all three displays from a "previous run".
	for i := 1; i <= 3; i++ {
		_, err := WriteQueued(p.QueueDir, i, []byte("previous"))
		require.NoError(t, err)
	}

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, *setCalls)
	assert.Equal(t, []int{1, 2, 3}, r.Set)
	assert.Equal(t, []int{1, 2, 3}, r.Generated)
	assert.Empty(t, r.SetFailed)
	assert.Empty(t, r.GenFailed)
	assert.EqualValues(t, 3, srv.requests)
}

func TestRunSkipsMissingOrEmptyQueueEntries(t *testing.T) {
	srv := newImageServer(t, false)
	p, setCalls := testPipeline(t, srv)
	p.Displays = 3

	_, err := WriteQueued(p.QueueDir, 1, []byte("previous"))
	require.NoError(t, err)
	// Display 2 has no entry at all, display 3 has an empty file.
	require.NoError(t, os.WriteFile(QueuePath(p.QueueDir, 3), nil, 0644))

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, *setCalls)
	assert.Equal(t, []int{1}, r.Set)
	assert.Empty(t, r.SetFailed)
}

func TestFetchFailureDoesNotBlockLaterDisplays(t *testing.T) {
	srv := newImageServer(t, true)
	p, _ := testPipeline(t, srv)
	p.Displays = 3
	p.GenerateOnly = true

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1}, r.GenFailed)
	assert.Equal(t, []int{2, 3}, r.Generated)
	assert.EqualValues(t, 3, srv.requests)
}

func TestSetFailureDoesNotAbortRun(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)

	for i := 1; i <= 2; i++ {
		_, err := WriteQueued(p.QueueDir, i, []byte("previous"))
		require.NoError(t, err)
	}

	p.SetBackground = func(path string, display int) error {
		return assert.AnError
	}

	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, r.SetFailed)
	assert.Equal(t, []int{1, 2}, r.Generated)
}

func TestEnhancementFailureFallsBackToRawPrompt(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.Private = false
	p.GenerateOnly = true

	broken := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
	defer broken.Close()

	p.Enhancer = NewEnhancer("key", "model", time.Second)
	p.Enhancer.BaseURL = broken.URL

	r, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, r.Generated, 2)

	for _, got := range srv.prompts {
		assert.Equal(t, "test", got)
	}
}

func TestEnhancedPromptFlowsIntoFetch(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.Private = false
	p.GenerateOnly = true

	gemini := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":` +
				`[{"text":"a detailed scene"}]}}]}`))
		}))
	defer gemini.Close()

	p.Enhancer = NewEnhancer("key", "model", time.Second)
	p.Enhancer.BaseURL = gemini.URL

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, srv.prompts)
	for _, got := range srv.prompts {
		assert.Equal(t, "a detailed scene", got)
	}
}

func TestPerDisplayPromptsAndDistinctSeeds(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.GenerateOnly = true
	p.Prompts = []string{"first", "second"}

	fixed := time.Unix(1700000000, 0)
	p.Now = func() time.Time { return fixed }

	_, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, srv.prompts)

	m := ReadManifest(p.QueueDir)
	require.Len(t, m.Entries, 2)
	seeds := map[int64]bool{}
	for _, e := range m.Entries {
		seeds[e.Seed] = true
	}
	assert.Len(t, seeds, 2, "seeds must differ per display")
}

func TestGenerateOnlyEndToEnd(t *testing.T) {
	srv := newImageServer(t, false)
	p, setCalls := testPipeline(t, srv)
	p.GenerateOnly = true
	p.SaveDir = t.TempDir()

	r, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, *setCalls, "generate-only must not set wallpapers")
	assert.Equal(t, []int{1, 2}, r.Generated)

	for i := 1; i <= 2; i++ {
		data, err := os.ReadFile(QueuePath(p.QueueDir, i))
		require.NoError(t, err)
		require.NotEmpty(t, data)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, "queue entries must be valid PNGs")
		assert.Equal(t, 64, img.Bounds().Dx())
		assert.Equal(t, 36, img.Bounds().Dy())
	}

	copies, err := filepath.Glob(filepath.Join(p.SaveDir, "wallpaper_display_*"))
	require.NoError(t, err)
	assert.Len(t, copies, 2)
}

func TestNetworkDownRunStillCompletes(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.GenerateOnly = true

	// Nothing listens here.
	p.Fetcher = NewFetcher(time.Second)
	p.Fetcher.BaseURL = "http://127.0.0.1:1"

	r, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r.GenFailed)
	assert.Empty(t, r.Generated)
}

func TestNoUsableToolIsFatal(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)

	_, err := WriteQueued(p.QueueDir, 1, []byte("previous"))
	require.NoError(t, err)

	// A failing tool is a per-display problem; a machine with no tool at
	// all aborts the run instead of exiting clean.
	p.SetBackground = func(string, int) error {
		return fmt.Errorf("%w, run setup", ErrNoUsableTool)
	}

	_, err = p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableTool)
}

func TestNoUsableToolIsFatalInImmediateMode(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.GenerateOnly = true
	p.Immediate = true
	p.SetBackground = func(string, int) error {
		return fmt.Errorf("%w, run setup", ErrNoUsableTool)
	}

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoUsableTool)
}

func TestExistingReadOnlyQueueDirIsFatal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits don't block writes on windows")
	}
	if os.Getuid() == 0 {
		t.Skip("root bypasses permission bits")
	}

	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.GenerateOnly = true

	// The directory exists, so MkdirAll alone won't notice it's read-only.
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)
	p.QueueDir = dir

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}

func TestUnwritableQueueDirIsFatal(t *testing.T) {
	srv := newImageServer(t, false)
	p, _ := testPipeline(t, srv)
	p.GenerateOnly = true

	parent := t.TempDir()
	blocker := filepath.Join(parent, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	p.QueueDir = filepath.Join(blocker, "queue")

	_, err := p.Run(context.Background())
	require.Error(t, err)
}
