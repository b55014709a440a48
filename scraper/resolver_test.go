package scraper

import (
	"strings"
	"testing"

	"propshot/apperr"
)

func testResolver() *Resolver {
	return NewResolver("cdn.aryeo.com", "/admin")
}

func TestNormalizeDownloadTarget(t *testing.T) {
	r := testResolver()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			"edit suffix rewritten",
			"https://app.aryeo.com/admin/listings/abc-123/edit",
			"https://app.aryeo.com/listings/abc-123/download-center",
		},
		{
			"bare listing gets download-center appended",
			"https://app.aryeo.com/listings/abc-123",
			"https://app.aryeo.com/listings/abc-123/download-center",
		},
		{
			"trailing slash trimmed before append",
			"https://app.aryeo.com/listings/abc-123/",
			"https://app.aryeo.com/listings/abc-123/download-center",
		},
		{
			"query and fragment preserved",
			"https://app.aryeo.com/admin/listings/abc-123/edit?tab=photos#top",
			"https://app.aryeo.com/listings/abc-123/download-center?tab=photos#top",
		},
		{
			"already normalized left alone",
			"https://app.aryeo.com/listings/abc-123/download-center",
			"https://app.aryeo.com/listings/abc-123/download-center",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := r.NormalizeDownloadTarget(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeDownloadTarget(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeDownloadTargetIdempotent(t *testing.T) {
	r := testResolver()

	inputs := []string{
		"https://app.aryeo.com/admin/listings/abc-123/edit",
		"https://app.aryeo.com/listings/abc-123",
		"https://app.aryeo.com/listings/abc-123/download-center?tab=photos",
	}
	for _, in := range inputs {
		once := r.NormalizeDownloadTarget(in)
		twice := r.NormalizeDownloadTarget(once)
		if once != twice {
			t.Fatalf("not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestStripToCDNOrigin(t *testing.T) {
	r := testResolver()

	in := "https://images.example.net/proxy/cdn.aryeo.com/resized/800x600/photo.jpg"
	got := r.StripToCDNOrigin(in)
	want := "cdn.aryeo.com/resized/800x600/photo.jpg"
	if got != want {
		t.Fatalf("StripToCDNOrigin = %q, want %q", got, want)
	}

	// The result is exactly the substring from the marker offset onward.
	idx := strings.Index(in, "cdn.aryeo.com")
	if got != in[idx:] {
		t.Fatalf("expected suffix from offset %d, got %q", idx, got)
	}

	// No marker means the URL passes through untouched.
	plain := "https://other.example.com/photo.jpg"
	if r.StripToCDNOrigin(plain) != plain {
		t.Fatalf("URL without marker should be unchanged")
	}
}

func TestExtractListingID(t *testing.T) {
	r := testResolver()

	id, err := r.ExtractListingID("https://app.aryeo.com/admin/listings/0196a7b2-4c3d-7e89-a0b1-c2d3e4f5a6b7/edit")
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if id != "0196a7b2-4c3d-7e89-a0b1-c2d3e4f5a6b7" {
		t.Fatalf("unexpected id %s", id)
	}

	_, err = r.ExtractListingID("https://app.aryeo.com/dashboard")
	if err == nil {
		t.Fatal("expected error for URL without listing id")
	}
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not_found kind, got %v", err)
	}
}
