package download

import (
	"context"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/httphelper/internal/config"
	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/http"
	"github.com/handiism/httphelper/internal/progress"
)

func testSettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.DefaultSettings()
	s.DownloadsPath = t.TempDir()
	s.DownloadRetryCooldown = 0
	s.MaxConcurrentRequests = 2
	return s
}

func newManager(t *testing.T, baseURL string, onProgress func(ProgressEvent)) (*Manager, *helper.Helper) {
	t.Helper()
	h := helper.New()
	hc, err := h.CreateClientBuilder().BaseURL(baseURL).Build()
	require.NoError(t, err)
	t.Cleanup(hc.CloseIdleConnections)
	return NewManager(testSettings(t), h, http.NewClient(hc), onProgress), h
}

type eventLog struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (l *eventLog) add(e ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) count(level ProgressLevel) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Level == level {
			n++
		}
	}
	return n
}

func TestManager_RunRequests(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		io.WriteString(w, r.URL.Path)
	}))
	defer srv.Close()

	var log eventLog
	m, _ := newManager(t, srv.URL, log.add)

	eps := []*endpoint.Endpoint{
		{Name: "a", Path: "a"},
		{Name: "b", Path: "b"},
		{Name: "c", Path: "c"},
		{Name: "d", Path: "d"},
		{Name: "e", Path: "e"},
	}
	results := m.RunRequests(context.Background(), eps)

	require.Len(t, results, len(eps))
	for i, res := range results {
		assert.NoError(t, res.Err)
		assert.Same(t, eps[i], res.Endpoint)
		assert.Equal(t, "/"+eps[i].Name, res.Body)
		assert.Equal(t, 1, res.Attempts)
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, len(eps), log.count(LevelSuccess))

	_, _, done, calls := m.GetProgress()
	assert.EqualValues(t, len(eps), done)
	assert.EqualValues(t, len(eps), calls)
}

func TestManager_RunRequestsRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if hits.Add(1) < 3 {
			nethttp.Error(w, "busy", nethttp.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	var log eventLog
	m, _ := newManager(t, srv.URL, log.add)

	results := m.RunRequests(context.Background(), []*endpoint.Endpoint{{Name: "flaky", Path: "flaky"}})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "ok", results[0].Body)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, 2, log.count(LevelWarning))
}

func TestManager_RunRequestsGivesUp(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.NotFound(w, r)
	}))
	defer srv.Close()

	var log eventLog
	m, _ := newManager(t, srv.URL, log.add)

	results := m.RunRequests(context.Background(), []*endpoint.Endpoint{{Name: "missing", Path: "missing"}})

	var se *http.StatusError
	require.ErrorAs(t, results[0].Err, &se)
	assert.Equal(t, nethttp.StatusNotFound, se.StatusCode)
	assert.Equal(t, 3, results[0].Attempts)
	assert.Equal(t, 1, log.count(LevelError))
}

func TestManager_Download(t *testing.T) {
	payload := strings.Repeat("x", 64*1024)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "archive.zip", time.Time{}, strings.NewReader(payload))
	}))
	defer srv.Close()

	m, _ := newManager(t, srv.URL, nil)
	ep := &endpoint.Endpoint{Name: "archive", Path: "files/archive.zip?v=1", Streaming: true}
	dir := filepath.Join(t.TempDir(), "out")

	dest, err := m.Download(context.Background(), ep, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "archive.zip"), dest)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))

	received, total, done, calls := m.GetProgress()
	assert.EqualValues(t, len(payload), received)
	assert.EqualValues(t, len(payload), total)
	assert.EqualValues(t, 1, done)
	assert.EqualValues(t, 1, calls)

	assert.Empty(t, ep.ResponseProgress, "the declared endpoint is not modified")
}

func TestManager_DownloadRemovesListener(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if r.Method == nethttp.MethodGet && gets.Add(1) > 1 {
			io.WriteString(w, "longer data")
			return
		}
		w.Header().Set("Content-Length", "4")
		io.WriteString(w, "data")
	}))
	defer srv.Close()

	m, _ := newManager(t, srv.URL, nil)

	ep := &endpoint.Endpoint{Name: "file", Path: "file.bin", ResponseProgress: "file"}
	_, err := m.Download(context.Background(), ep, t.TempDir())
	require.NoError(t, err)

	hc := m.client.Helper()
	resp, err := hc.Call(context.Background(), ep, nil)
	require.NoError(t, err)
	io.ReadAll(resp.Body)
	resp.Body.Close()

	received, _, _, _ := m.GetProgress()
	assert.EqualValues(t, 4, received, "calls after Download no longer feed the manager")
}

func TestManager_DownloadKeepsCallerListener(t *testing.T) {
	payload := strings.Repeat("k", 1000)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.ServeContent(w, r, "k.bin", time.Time{}, strings.NewReader(payload))
	}))
	defer srv.Close()

	m, h := newManager(t, srv.URL, nil)

	var mu sync.Mutex
	var events []progress.Event
	h.AddResponseListener("k", func(e progress.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	})

	ep := &endpoint.Endpoint{Name: "k", Path: "k.bin", ResponseProgress: "k"}
	_, err := m.Download(context.Background(), ep, t.TempDir())
	require.NoError(t, err)

	mu.Lock()
	got := append([]progress.Event(nil), events...)
	mu.Unlock()

	require.NotEmpty(t, got)
	for _, e := range got {
		assert.Greater(t, e.BytesRead, int64(0), "the HEAD size request is not reported")
	}
	last := got[len(got)-1]
	assert.Equal(t, progress.Event{BytesRead: 1000, TotalBytes: 1000, Completed: true}, last)

	_, ok := h.ResponseListener("k")
	assert.True(t, ok, "the caller's listener stays registered")

	received, total, _, _ := m.GetProgress()
	assert.EqualValues(t, 1000, received)
	assert.EqualValues(t, 1000, total)
}

func TestManager_DownloadFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, "gone", nethttp.StatusGone)
	}))
	defer srv.Close()

	var log eventLog
	m, _ := newManager(t, srv.URL, log.add)
	dir := t.TempDir()

	_, err := m.Download(context.Background(), &endpoint.Endpoint{Name: "gone", Path: "gone.bin"}, dir)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 2, log.count(LevelWarning))
	assert.Equal(t, 1, log.count(LevelError))
}

func TestManager_DownloadCancelled(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		io.WriteString(w, "data")
	}))
	defer srv.Close()

	m, _ := newManager(t, srv.URL, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Download(ctx, &endpoint.Endpoint{Name: "file", Path: "file.bin"}, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"files/archive.zip", "archive.zip"},
		{"maven2/a/b/c.jar?x=1", "c.jar"},
		{"", "ep"},
		{"/", "ep"},
		{"files/what%3F.txt", "what_.txt"},
		{"files/notes...", "notes"},
	}

	for _, tt := range tests {
		if got := fileName(&endpoint.Endpoint{Name: "ep", Path: tt.path}); got != tt.want {
			t.Errorf("fileName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"report: 1/2", "report_ 1_2"},
		{"archive...", "archive"},
		{"name   with  spaces ", "name with spaces"},
		{"tab\there", "tab_there"},
		{"ok.jar", "ok.jar"},
	}

	for _, tt := range tests {
		if got := sanitizeFileName(tt.input); got != tt.expected {
			t.Errorf("sanitizeFileName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
