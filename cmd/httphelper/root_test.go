package main

import (
	"bytes"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handiism/httphelper/internal/api"
	"github.com/handiism/httphelper/internal/config"
)

// namedServer answers every request with its name and the request path.
func namedServer(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		fmt.Fprintf(w, "%s %s", name, r.URL.Path)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig saves settings pointing every default alias at baseURL.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	s := config.DefaultSettings()
	s.BaseURL = baseURL
	s.Domains[api.DomainGitHub] = baseURL
	s.Domains[api.DomainGoogle] = baseURL
	s.DownloadRetryCooldown = 0
	s.DownloadsPath = t.TempDir()

	path := filepath.Join(t.TempDir(), "httphelper.yaml")
	require.NoError(t, s.Save(path))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestSelectRequests(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{"default", nil, []string{"getRequest1", "getRequest2", "getRequest3", "getRequest4"}, false},
		{"all", []string{"ALL"}, []string{"getRequest1", "getRequest2", "getRequest3", "getRequest4"}, false},
		{"numbers", []string{"4", "1"}, []string{"getRequest4", "getRequest1"}, false},
		{"name", []string{"getrequest2"}, []string{"getRequest2"}, false},
		{"unknown", []string{"5"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eps, err := selectRequests(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("selectRequests() error = %v, wantErr %v", err, tt.wantErr)
			}
			var got []string
			for _, ep := range eps {
				got = append(got, ep.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetCommand(t *testing.T) {
	static := namedServer(t, "static")
	cfg := writeConfig(t, static.URL)

	out, err := execute(t, "get", "1", "2", "--body", "--config", cfg)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ getRequest1")
	assert.Contains(t, out, "== getRequest2\nstatic /index.html")
}

func TestGetCommandDynamic(t *testing.T) {
	static := namedServer(t, "static")
	dynamic := namedServer(t, "dynamic")
	cfg := writeConfig(t, static.URL)

	out, err := execute(t, "get", "4", "--body", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "static /index.html", "unregistered alias keeps the static origin")

	out, err = execute(t, "get", "4", "--body", "--config", cfg, "--dynamic", dynamic.URL)
	require.NoError(t, err)
	assert.Contains(t, out, "dynamic /index.html")
}

func TestGetCommandFailure(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.NotFound(w, r)
	}))
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)

	out, err := execute(t, "get", "1", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 requests failed")
	assert.Contains(t, out, "✗ getRequest1 failed")
}

func TestGetCommandInvalidDynamic(t *testing.T) {
	_, err := execute(t, "get", "4", "--dynamic", "not a url")
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidSettings)
}

func TestDownloadCommand(t *testing.T) {
	payload := strings.Repeat("j", 4096)
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		io.WriteString(w, payload)
	}))
	defer srv.Close()
	cfg := writeConfig(t, srv.URL)
	dir := t.TempDir()

	out, err := execute(t, "download", srv.URL+"/files/lib.jar", "-o", dir, "--config", cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "lib.jar"))
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
	assert.Contains(t, out, "Complete! "+filepath.Join(dir, "lib.jar"))
}

func TestDomainsCommand(t *testing.T) {
	out, err := execute(t, "domains", "--dynamic", api.BaiduBaseURL, "--base-url", "https://global.example.com")
	require.NoError(t, err)

	assert.Contains(t, out, api.DomainDynamic)
	assert.Contains(t, out, api.BaiduBaseURL)
	assert.Contains(t, out, api.GitHubBaseURL)
	assert.Contains(t, out, "(global)")
	assert.Contains(t, out, "https://global.example.com")
	assert.Contains(t, out, "dynamic domain: true")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "httphelper dev (commit none)\n", out)
}
