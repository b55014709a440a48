package compose

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"

	"propshot/apperr"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestLoadLocalFile(t *testing.T) {
	path := writeImageFile(t, t.TempDir(), "room.png", 640, 480, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	loader := NewLoader(resty.New())
	img, err := loader.Load(t.Context(), path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if img.Bounds().Dx() != 640 || img.Bounds().Dy() != 480 {
		t.Fatalf("unexpected dimensions %v", img.Bounds())
	}
}

func TestLoadRemoteCachesSecondHit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write(pngBytes(t, 320, 240))
	}))
	defer server.Close()

	loader := NewLoader(resty.New())
	url := server.URL + "/photo.png"

	for i := 0; i < 3; i++ {
		if _, err := loader.Load(t.Context(), url); err != nil {
			t.Fatalf("load %d failed: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected 1 upstream fetch, got %d", n)
	}
}

func TestLoadMissingFileNamesLocator(t *testing.T) {
	loader := NewLoader(resty.New())
	locator := filepath.Join(t.TempDir(), "nope.png")

	_, err := loader.Load(t.Context(), locator)
	if !apperr.IsKind(err, apperr.KindImageLoad) {
		t.Fatalf("expected image_load_failed, got %v", err)
	}
	if !strings.Contains(err.Error(), locator) {
		t.Fatalf("error should name the locator: %v", err)
	}
}

func TestLoadRemoteNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	loader := NewLoader(resty.New())
	url := server.URL + "/gone.jpg"

	_, err := loader.Load(t.Context(), url)
	if !apperr.IsKind(err, apperr.KindImageLoad) {
		t.Fatalf("expected image_load_failed, got %v", err)
	}
	if !strings.Contains(err.Error(), url) {
		t.Fatalf("error should name the URL: %v", err)
	}
}

func TestLoadUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>this is not an image</html>"))
	}))
	defer server.Close()

	loader := NewLoader(resty.New())
	_, err := loader.Load(t.Context(), server.URL+"/fake.jpg")
	if !apperr.IsKind(err, apperr.KindImageLoad) {
		t.Fatalf("expected image_load_failed, got %v", err)
	}
}

func TestLoadAllFailsWhenAnyImageFails(t *testing.T) {
	dir := t.TempDir()
	hero := writeImageFile(t, dir, "hero.png", 400, 300, color.White)
	good := writeImageFile(t, dir, "good.png", 400, 300, color.White)
	missing := filepath.Join(dir, "missing.png")

	loader := NewLoader(resty.New())
	_, _, err := loader.LoadAll(t.Context(), hero, []string{good, missing, good})
	if !apperr.IsKind(err, apperr.KindImageLoad) {
		t.Fatalf("expected image_load_failed, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing.png") {
		t.Fatalf("error should name the failed image: %v", err)
	}
}
