package helper

import (
	"net/http"
	"sync"
)

// headerStore holds the common headers added to every request.
type headerStore struct {
	mu     sync.RWMutex
	header http.Header
}

func newHeaderStore() *headerStore {
	return &headerStore{header: http.Header{}}
}

func (s *headerStore) set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header.Set(name, value)
}

func (s *headerStore) replace(h map[string]string) {
	next := http.Header{}
	for k, v := range h {
		next.Set(k, v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header = next
}

func (s *headerStore) snapshot() http.Header {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.header.Clone()
}

// apply copies the common headers into h, skipping names h already has.
func (s *headerStore) apply(h http.Header) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, vs := range s.header {
		if _, ok := h[k]; ok {
			continue
		}
		h[k] = append([]string(nil), vs...)
	}
}

// AddHeader sets a common header sent with every request. A request that
// already carries the header keeps its own value.
func (h *Helper) AddHeader(name, value string) {
	h.headers.set(name, value)
}

// AddHeaders sets several common headers.
func (h *Helper) AddHeaders(headers map[string]string) {
	for k, v := range headers {
		h.headers.set(k, v)
	}
}

// SetHeaders replaces all common headers.
func (h *Helper) SetHeaders(headers map[string]string) {
	h.headers.replace(headers)
}

// ClearHeaders removes all common headers.
func (h *Helper) ClearHeaders() {
	h.headers.replace(nil)
}

// Headers returns a copy of the common headers.
func (h *Helper) Headers() http.Header {
	return h.headers.snapshot()
}
