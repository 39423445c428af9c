package download

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/handiism/httphelper/internal/endpoint"
)

var (
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots  = regexp.MustCompile(`\.+$`)
	repeatedSpace = regexp.MustCompile(`\s+`)
)

// sanitizeFileName replaces characters that are invalid in file names on
// any platform.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Trailing dots → removed (Windows limitation)
//   - Multiple whitespace → single space
//   - Trailing whitespace → removed
//
// Example:
//
//	sanitizeFileName("report: 1/2")  // Returns "report_ 1_2"
//	sanitizeFileName("archive...")   // Returns "archive"
func sanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = repeatedSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}

// fileName derives the download file name from the last segment of the
// endpoint path, falling back to the endpoint name.
func fileName(ep *endpoint.Endpoint) string {
	if u, err := url.Parse(ep.Path); err == nil {
		if name := sanitizeFileName(path.Base(u.Path)); name != "" && name != "_" {
			return name
		}
	}
	if name := sanitizeFileName(ep.Name); name != "" {
		return name
	}
	return "download"
}
