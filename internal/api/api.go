// Package api declares the demo endpoints used by the httphelper binaries.
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/handiism/httphelper/internal/endpoint"
)

// Origins and aliases.
const (
	BaseURL = "https://jenly1314.github.io"

	DomainGitHub  = "github"
	DomainGoogle  = "google"
	DomainDynamic = "dynamic"

	GitHubBaseURL = "https://github.com"
	GoogleBaseURL = "https://google.com"
	BaiduBaseURL  = "https://baidu.com"

	DownloadOrigin = "https://repo1.maven.org"
	DownloadURL    = DownloadOrigin + "/maven2/com/github/jenly1314/retrofit-helper/1.1.0/retrofit-helper-1.1.0-javadoc.jar"
)

// Progress listener keys.
const (
	ResponseProgress1 = "response_progress_1"
	ResponseProgress2 = "response_progress_2"
)

var (
	// Request1 is sent to the static base URL.
	Request1 = &endpoint.Endpoint{
		Name: "getRequest1",
		Path: "index.html",
	}

	// Request2 is switched to the GitHub origin.
	Request2 = &endpoint.Endpoint{
		Name:   "getRequest2",
		Path:   "index.html",
		Domain: DomainGitHub,
	}

	// Request3 is switched to the Google origin with custom timeouts.
	Request3 = &endpoint.Endpoint{
		Name:    "getRequest3",
		Path:    "index.html",
		Domain:  DomainGoogle,
		Timeout: &endpoint.Timeout{Connect: 15 * time.Second, Read: 15 * time.Second, Write: 15 * time.Second},
	}

	// Request4 follows whatever origin is registered for the dynamic alias.
	Request4 = &endpoint.Endpoint{
		Name:   "getRequest4",
		Path:   "index.html",
		Domain: DomainDynamic,
	}

	// Download fetches the release javadoc jar and reports progress under
	// ResponseProgress1.
	Download = &endpoint.Endpoint{
		Name:             "download",
		Path:             DownloadURL,
		BaseURL:          DownloadOrigin,
		ResponseProgress: ResponseProgress1,
		Streaming:        true,
	}
)

// Requests returns the four demo requests in order.
func Requests() []*endpoint.Endpoint {
	return []*endpoint.Endpoint{Request1, Request2, Request3, Request4}
}

// Lookup finds a demo request by number ("1".."4") or name.
func Lookup(name string) (*endpoint.Endpoint, error) {
	for i, ep := range Requests() {
		if name == fmt.Sprint(i+1) || strings.EqualFold(name, ep.Name) {
			return ep, nil
		}
	}
	return nil, fmt.Errorf("unknown request %q", name)
}
