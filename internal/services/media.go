package services

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const mediaDomain = "animemusicquiz.com"

// MediaHosts are the mirror subdomains a catalog file may be served from.
var MediaHosts = []string{"eudist", "nawdist", "naedist"}

var absoluteURLPattern = regexp.MustCompile(`(?i)^https?://`)

// ValidMediaHost reports whether host names a known mirror.
func ValidMediaHost(host string) bool {
	for _, h := range MediaHosts {
		if h == host {
			return true
		}
	}
	return false
}

// MediaResolver builds playable URLs for catalog file paths against a chosen
// mirror host.
type MediaResolver struct {
	host string
}

// NewMediaResolver creates a resolver for the given mirror. Unknown hosts
// fall back to nawdist.
func NewMediaResolver(host string) *MediaResolver {
	if !ValidMediaHost(host) {
		host = "nawdist"
	}
	return &MediaResolver{host: host}
}

// Host returns the active mirror host.
func (r *MediaResolver) Host() string { return r.host }

// Build turns a catalog value into a playable URL. Absolute URLs get their
// mirror host rewritten; bare filenames are resolved against the mirror.
// Path traversal attempts resolve to the empty string.
func (r *MediaResolver) Build(value string) string {
	if value == "" {
		return ""
	}
	if absoluteURLPattern.MatchString(value) {
		return r.rewriteHost(value)
	}

	clean := strings.TrimLeft(value, "/")
	if strings.Contains(clean, "..") {
		return ""
	}
	return fmt.Sprintf("https://%s.%s/%s", r.host, mediaDomain, url.PathEscape(clean))
}

// rewriteHost swaps the mirror subdomain of a full media URL, leaving URLs on
// other domains untouched.
func (r *MediaResolver) rewriteHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if !strings.HasSuffix(u.Hostname(), "."+mediaDomain) {
		return raw
	}
	parts := strings.Split(u.Hostname(), ".")
	parts[0] = r.host
	u.Host = strings.Join(parts, ".")
	return u.String()
}
