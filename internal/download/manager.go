package download

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/httphelper/internal/config"
	"github.com/handiism/httphelper/internal/endpoint"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/http"
	"github.com/handiism/httphelper/internal/progress"
)

// trackingKeyPrefix prefixes the response listener keys a Manager
// registers for its own downloads.
const trackingKeyPrefix = "httphelper.download/"

var downloadSeq atomic.Uint64

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a progress message.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Result is the outcome of one endpoint call.
type Result struct {
	Endpoint *endpoint.Endpoint
	Body     string
	Attempts int
	Err      error
}

// Manager runs endpoint calls and downloads with retries.
type Manager struct {
	settings *config.Settings
	helper   *helper.Helper
	client   *http.Client

	totalBytes    atomic.Int64
	receivedBytes atomic.Int64
	totalCalls    atomic.Int32
	doneCalls     atomic.Int32

	onProgress func(ProgressEvent)
}

// NewManager creates a Manager sending through client. Download progress
// is observed through response listeners registered on h.
func NewManager(settings *config.Settings, h *helper.Helper, client *http.Client, onProgress func(ProgressEvent)) *Manager {
	return &Manager{
		settings:   settings,
		helper:     h,
		client:     client,
		onProgress: onProgress,
	}
}

// RunRequests calls every endpoint, at most MaxConcurrentRequests at a
// time, and returns the results in input order. Failed calls are retried
// up to DownloadMaxRetries times; a failure is reported in its Result and
// does not stop the other calls.
func (m *Manager) RunRequests(ctx context.Context, eps []*endpoint.Endpoint) []Result {
	results := make([]Result, len(eps))
	m.totalCalls.Add(int32(len(eps)))

	var g errgroup.Group
	g.SetLimit(max(m.settings.MaxConcurrentRequests, 1))

	for i, ep := range eps {
		g.Go(func() error {
			results[i] = m.call(ctx, ep)
			m.doneCalls.Add(1)
			return nil
		})
	}
	g.Wait()

	return results
}

func (m *Manager) call(ctx context.Context, ep *endpoint.Endpoint) Result {
	res := Result{Endpoint: ep}

	for tries := 0; tries < m.settings.DownloadMaxRetries; tries++ {
		res.Attempts++
		res.Body, res.Err = m.client.GetString(ctx, ep)
		if res.Err == nil {
			m.progress(ProgressEvent{Message: fmt.Sprintf("%s: %d bytes", ep.Name, len(res.Body)), Level: LevelSuccess})
			return res
		}
		if ctx.Err() != nil {
			break
		}
		if tries+1 < m.settings.DownloadMaxRetries {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s: %v", tries+1, m.settings.DownloadMaxRetries, ep.Name, res.Err), Level: LevelWarning})
			m.waitForRetry(ctx, tries)
		}
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("%s failed: %v", ep.Name, res.Err), Level: LevelError})
	return res
}

// Download streams ep's response into dir and returns the file path.
//
// The file is named after the last segment of the endpoint path. Received
// bytes are tracked through a response listener registered under a private
// key for the duration of the call. A listener the caller registered under
// ep.ResponseProgress keeps receiving every event and is left in place.
func (m *Manager) Download(ctx context.Context, ep *endpoint.Endpoint, dir string) (string, error) {
	if ep == nil {
		return "", http.ErrNoEndpoint
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating directory: %v", err), Level: LevelError})
		return "", err
	}
	dest := filepath.Join(dir, fileName(ep))

	m.totalCalls.Add(1)
	m.receivedBytes.Store(0)
	head := *ep
	head.ResponseProgress = ""
	if size, err := m.client.GetFileSize(ctx, &head); err == nil {
		m.totalBytes.Store(size)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Downloading %s (%.2f MB)", filepath.Base(dest), float64(size)/1024/1024), Level: LevelInfo})
	} else {
		m.totalBytes.Store(-1)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Size of %s unknown: %v", ep.Name, err), Level: LevelVerbose})
	}

	// Bytes are tracked under a key owned by this call. Events are
	// forwarded to whatever listener the caller has on the endpoint's key.
	callerKey := ep.ResponseProgress
	tracked := *ep
	tracked.ResponseProgress = fmt.Sprintf("%s%d", trackingKeyPrefix, downloadSeq.Add(1))
	ep = &tracked

	m.helper.AddResponseListener(ep.ResponseProgress, func(e progress.Event) {
		if e.Failed() {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Stream of %s interrupted: %v", ep.Name, e.Err), Level: LevelVerbose})
		} else {
			m.receivedBytes.Store(e.BytesRead)
			if e.TotalBytes >= 0 {
				m.totalBytes.Store(e.TotalBytes)
			}
		}
		if callerKey == "" {
			return
		}
		if l, ok := m.helper.ResponseListener(callerKey); ok {
			l(e)
		}
	})
	defer m.helper.RemoveResponseListener(ep.ResponseProgress)

	var err error
	for tries := 0; tries < m.settings.DownloadMaxRetries; tries++ {
		_, err = m.client.DownloadFile(ctx, ep, dest)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if tries+1 < m.settings.DownloadMaxRetries {
			m.progress(ProgressEvent{Message: fmt.Sprintf("Retry %d/%d for %s: %v", tries+1, m.settings.DownloadMaxRetries, ep.Name, err), Level: LevelWarning})
			m.waitForRetry(ctx, tries)
		}
	}
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", ep.Name, err), Level: LevelError})
		return "", err
	}

	m.doneCalls.Add(1)
	m.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", dest), Level: LevelSuccess})
	return dest, nil
}

// GetProgress returns the current download progress and call counts.
// total is -1 while the download size is unknown.
func (m *Manager) GetProgress() (received, total int64, callsDone, callsTotal int32) {
	return m.receivedBytes.Load(), m.totalBytes.Load(), m.doneCalls.Load(), m.totalCalls.Load()
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.settings.DownloadRetryCooldown * math.Pow(m.settings.DownloadRetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
