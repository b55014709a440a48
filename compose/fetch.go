package compose

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"propshot/apperr"
)

// Loader resolves image locators (remote URLs or local paths) to decoded
// images through the bounded cache.
type Loader struct {
	client *resty.Client
	cache  *imageCache
}

func NewLoader(client *resty.Client) *Loader {
	return &Loader{client: client, cache: newImageCache()}
}

// Load fetches and decodes one image. Every failure is ImageLoadFailed naming
// the locator so the caller can report which input was bad.
func (l *Loader) Load(ctx context.Context, locator string) (image.Image, error) {
	if img, ok := l.cache.Get(locator); ok {
		return img, nil
	}

	data, err := l.readBytes(ctx, locator)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindImageLoad, "failed to load image %s", locator)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindImageLoad, "failed to decode image %s", locator)
	}

	img = flattenOnWhite(img)
	l.cache.Add(locator, img)
	return img, nil
}

// LoadAll fetches the hero and detail images in parallel; layout never starts
// until all four have loaded.
func (l *Loader) LoadAll(ctx context.Context, hero string, details []string) (image.Image, []image.Image, error) {
	var heroImg image.Image
	detailImgs := make([]image.Image, len(details))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := l.Load(gctx, hero)
		if err != nil {
			return err
		}
		heroImg = img
		return nil
	})
	for i, locator := range details {
		g.Go(func() error {
			img, err := l.Load(gctx, locator)
			if err != nil {
				return err
			}
			detailImgs[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return heroImg, detailImgs, nil
}

func (l *Loader) readBytes(ctx context.Context, locator string) ([]byte, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		resp, err := l.client.R().SetContext(ctx).Get(locator)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode() != http.StatusOK {
			return nil, apperr.New(apperr.KindImageLoad, "status %d fetching %s", resp.StatusCode(), locator)
		}
		return resp.Body(), nil
	}
	return os.ReadFile(locator)
}

// flattenOnWhite composites transparent images onto a white background, since
// the output is always opaque JPEG.
func flattenOnWhite(img image.Image) image.Image {
	if img.ColorModel() == color.RGBAModel || opaque(img) {
		return img
	}
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)
	return flat
}

func opaque(img image.Image) bool {
	type opaquer interface{ Opaque() bool }
	if o, ok := img.(opaquer); ok {
		return o.Opaque()
	}
	return false
}
