package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/domain"
	"github.com/handiism/httphelper/internal/helper"
	"github.com/handiism/httphelper/internal/variant"
)

// ErrInvalidSettings is returned by Validate and Load for unusable settings.
var ErrInvalidSettings = errors.New("invalid settings")

// Duration is a time.Duration written as a string such as "10s" in JSON
// and YAML files.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Settings holds all configuration options.
type Settings struct {
	// Origin settings
	BaseURL            string            `json:"base_url" yaml:"base_url"`
	GlobalBaseURL      string            `json:"global_base_url,omitempty" yaml:"global_base_url,omitempty"`
	Domains            map[string]string `json:"domains" yaml:"domains"`
	DynamicDomain      bool              `json:"dynamic_domain" yaml:"dynamic_domain"`
	PathSegmentOffsets int               `json:"path_segment_offsets" yaml:"path_segment_offsets"`

	// Request settings
	Headers        map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	DynamicTimeout bool              `json:"dynamic_timeout" yaml:"dynamic_timeout"`
	ConnectTimeout Duration          `json:"connect_timeout" yaml:"connect_timeout"`
	ReadTimeout    Duration          `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   Duration          `json:"write_timeout" yaml:"write_timeout"`

	// Connection pool settings
	MaxIdleConns        int      `json:"max_idle_conns" yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int      `json:"max_idle_conns_per_host" yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     Duration `json:"idle_conn_timeout" yaml:"idle_conn_timeout"`

	// Progress settings
	ProgressUpdateInterval Duration `json:"progress_update_interval" yaml:"progress_update_interval"`

	// Logging settings
	LogBodyLimit int `json:"log_body_limit" yaml:"log_body_limit"`

	// Download settings
	DownloadsPath         string  `json:"downloads_path" yaml:"downloads_path"`
	MaxConcurrentRequests int     `json:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	DownloadMaxRetries    int     `json:"download_max_retries" yaml:"download_max_retries"`
	DownloadRetryCooldown float64 `json:"download_retry_cooldown" yaml:"download_retry_cooldown"`
	DownloadRetryExponent float64 `json:"download_retry_exponent" yaml:"download_retry_exponent"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		BaseURL: api.BaseURL,
		Domains: map[string]string{
			api.DomainGitHub: api.GitHubBaseURL,
			api.DomainGoogle: api.GoogleBaseURL,
		},
		DynamicDomain: true,

		DynamicTimeout: true,
		ConnectTimeout: Duration(helper.DefaultTimeout),
		ReadTimeout:    Duration(helper.DefaultTimeout),
		WriteTimeout:   Duration(helper.DefaultTimeout),

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     Duration(90 * time.Second),

		ProgressUpdateInterval: Duration(300 * time.Millisecond),

		LogBodyLimit: 4096,

		DownloadsPath:         filepath.Join(homeDir, "Downloads"),
		MaxConcurrentRequests: 4,
		DownloadMaxRetries:    3,
		DownloadRetryCooldown: 0.2,
		DownloadRetryExponent: 4.0,
	}
}

// Load reads settings from a JSON or YAML file, chosen by extension
// (.yaml and .yml are YAML, anything else JSON). Missing keys keep their
// default values and domains are merged into the default aliases; a
// missing file yields DefaultSettings.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSettings, path, err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that origins parse and numeric limits are sane. All
// problems are reported together, wrapped in ErrInvalidSettings.
func (s *Settings) Validate() error {
	var errs []error

	if s.BaseURL != "" {
		if _, err := domain.ParseOrigin(s.BaseURL); err != nil {
			errs = append(errs, fmt.Errorf("base_url: %w", err))
		}
	}
	if s.GlobalBaseURL != "" {
		if _, err := domain.ParseOrigin(s.GlobalBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("global_base_url: %w", err))
		}
	}
	for alias, origin := range s.Domains {
		if alias == "" {
			errs = append(errs, errors.New("domains: empty alias"))
			continue
		}
		if _, err := domain.ParseOrigin(origin); err != nil {
			errs = append(errs, fmt.Errorf("domains.%s: %w", alias, err))
		}
	}

	durations := []struct {
		name string
		d    Duration
	}{
		{"connect_timeout", s.ConnectTimeout},
		{"read_timeout", s.ReadTimeout},
		{"write_timeout", s.WriteTimeout},
		{"idle_conn_timeout", s.IdleConnTimeout},
		{"progress_update_interval", s.ProgressUpdateInterval},
	}
	for _, d := range durations {
		if d.d < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", d.name))
		}
	}

	if s.PathSegmentOffsets < 0 {
		errs = append(errs, errors.New("path_segment_offsets: must not be negative"))
	}
	if s.MaxConcurrentRequests < 1 {
		errs = append(errs, errors.New("max_concurrent_requests: must be at least 1"))
	}
	if s.DownloadMaxRetries < 1 {
		errs = append(errs, errors.New("download_max_retries: must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// Timeouts returns the default timeout triple.
func (s *Settings) Timeouts() variant.Timeouts {
	return variant.Timeouts{
		Connect: s.ConnectTimeout.Std(),
		Read:    s.ReadTimeout.Std(),
		Write:   s.WriteTimeout.Std(),
	}
}

// Apply registers the settings' domains, global base URL, headers and
// switches with h.
func (s *Settings) Apply(h *helper.Helper) error {
	if err := s.Validate(); err != nil {
		return err
	}

	for alias, origin := range s.Domains {
		if err := h.PutDomain(alias, origin); err != nil {
			return err
		}
	}
	if s.GlobalBaseURL != "" {
		if err := h.SetBaseURL(s.GlobalBaseURL); err != nil {
			return err
		}
	}
	if len(s.Headers) > 0 {
		h.AddHeaders(s.Headers)
	}

	h.SetDynamicDomain(s.DynamicDomain)
	h.SetDynamicTimeout(s.DynamicTimeout)
	h.SetPathSegmentOffsets(s.PathSegmentOffsets)
	h.SetProgressUpdateInterval(s.ProgressUpdateInterval.Std())
	return nil
}

// Builder returns a client builder for h configured with the settings'
// base URL, timeouts and pool limits.
func (s *Settings) Builder(h *helper.Helper) *helper.ClientBuilder {
	return h.CreateClientBuilder().
		BaseURL(s.BaseURL).
		Timeouts(s.Timeouts()).
		Pool(s.MaxIdleConns, s.MaxIdleConnsPerHost, s.IdleConnTimeout.Std())
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
