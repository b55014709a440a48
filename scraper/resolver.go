package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"propshot/apperr"
)

var listingIDPattern = regexp.MustCompile(`/listings/([0-9a-f-]+)`)

// Resolver holds the pure URL transformation rules for the target site.
type Resolver struct {
	cdnOrigin   string
	adminPrefix string
}

func NewResolver(cdnOrigin, adminPrefix string) *Resolver {
	return &Resolver{cdnOrigin: cdnOrigin, adminPrefix: adminPrefix}
}

// NormalizeDownloadTarget rewrites an admin edit URL to the download-center
// page that exposes the full photo set. Idempotent.
func (r *Resolver) NormalizeDownloadTarget(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	path := parsed.Path
	path = strings.TrimPrefix(path, r.adminPrefix)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if strings.HasSuffix(path, "/edit") {
		path = strings.TrimSuffix(path, "/edit") + "/download-center"
	} else if !strings.HasSuffix(path, "/download-center") {
		path = strings.TrimRight(path, "/") + "/download-center"
	}

	parsed.Path = path
	return parsed.String()
}

// StripToCDNOrigin maps a resized delivery URL back to its canonical form by
// slicing at the first occurrence of the CDN origin. The resized variant is
// trusted as the highest resolution served; no size-segment rewriting happens.
func (r *Resolver) StripToCDNOrigin(raw string) string {
	if idx := strings.Index(raw, r.cdnOrigin); idx != -1 {
		return raw[idx:]
	}
	return raw
}

// ExtractListingID pulls the hex-with-dashes listing id out of an admin URL.
func (r *Resolver) ExtractListingID(raw string) (string, error) {
	m := listingIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", apperr.New(apperr.KindNotFound, "no listing id in URL %q", raw)
	}
	return m[1], nil
}
