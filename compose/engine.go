// Package compose renders the fixed-layout 1080x1080 social graphic from a
// hero image, three detail images, and the listing attributes.
package compose

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"propshot/apperr"
	"propshot/models"
)

const (
	canvasSize  = 1080
	jpegQuality = 95

	LayoutBand      = "band"
	LayoutFullBleed = "fullbleed"

	watermark = "PREMIUM PROPERTIES"
)

// Enhancement multipliers are a presentation choice, not a correctness
// invariant.
const (
	heroContrast   = 12.0
	heroSharpen    = 0.8
	detailContrast = 8.0
	detailSharpen  = 0.6
	bandContrast   = 6.0
	bandSharpen    = 0.4
)

type Engine struct {
	loader        *Loader
	fonts         *fontSet
	defaultLayout string
}

func NewEngine(loader *Loader, defaultLayout string) (*Engine, error) {
	fonts, err := loadFonts()
	if err != nil {
		return nil, err
	}
	if defaultLayout == "" {
		defaultLayout = LayoutFullBleed
	}
	return &Engine{loader: loader, fonts: fonts, defaultLayout: defaultLayout}, nil
}

// Generate validates inputs, loads all images, renders, and encodes. The
// detail-count check runs before any fetch is attempted.
func (e *Engine) Generate(ctx context.Context, hero string, details []string, info models.PropertyInfo, layout string) ([]byte, error) {
	if len(details) != 3 {
		return nil, apperr.New(apperr.KindInvalidInput, "exactly 3 detail images are required, got %d", len(details))
	}
	layout, err := e.resolveLayout(layout)
	if err != nil {
		return nil, err
	}

	heroImg, detailImgs, err := e.loader.LoadAll(ctx, hero, details)
	if err != nil {
		return nil, err
	}

	canvas := e.Render(heroImg, detailImgs, info, layout)
	return encodeJPEG(canvas)
}

func (e *Engine) resolveLayout(layout string) (string, error) {
	switch layout {
	case "":
		return e.defaultLayout, nil
	case LayoutBand, LayoutFullBleed:
		return layout, nil
	default:
		return "", apperr.New(apperr.KindInvalidInput, "unknown layout %q", layout)
	}
}

// Render draws the selected layout. Inputs are assumed loaded and validated.
func (e *Engine) Render(hero image.Image, details []image.Image, info models.PropertyInfo, layout string) image.Image {
	if layout == LayoutBand {
		return e.renderBand(hero, details, info)
	}
	return e.renderFullBleed(hero, details, info)
}

// cropToAspect symmetrically crops the longer axis about the center so the
// source matches the target region's aspect ratio. No distortion: only a
// crop, never a stretch.
func cropToAspect(img image.Image, targetW, targetH int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	srcAspect := float64(srcW) / float64(srcH)
	targetAspect := float64(targetW) / float64(targetH)

	if srcAspect > targetAspect {
		newW := int(float64(srcH) * targetAspect)
		left := (srcW - newW) / 2
		return imaging.Crop(img, image.Rect(left, 0, left+newW, srcH).Add(b.Min))
	}
	newH := int(float64(srcW) / targetAspect)
	top := (srcH - newH) / 2
	return imaging.Crop(img, image.Rect(0, top, srcW, top+newH).Add(b.Min))
}

// fitRegion is the aspect-preserving center-crop-then-resize applied to every
// placed image.
func fitRegion(img image.Image, w, h int) *image.NRGBA {
	return imaging.Resize(cropToAspect(img, w, h), w, h, imaging.Lanczos)
}

func enhance(img *image.NRGBA, contrast, sharpen float64) *image.NRGBA {
	out := imaging.AdjustContrast(img, contrast)
	if sharpen > 0 {
		out = imaging.Sharpen(out, sharpen)
	}
	return out
}

// renderBand is the stacked-bands layout: hero band, dark info bar in thirds,
// three detail thirds, and a dark bottom band with title and address.
func (e *Engine) renderBand(hero image.Image, details []image.Image, info models.PropertyInfo) image.Image {
	const (
		heroH   = 540
		infoH   = 90
		detailH = 270
		margin  = 25
	)

	dc := gg.NewContext(canvasSize, canvasSize)
	dc.SetRGB255(255, 255, 255)
	dc.Clear()

	dc.DrawImage(enhance(fitRegion(hero, canvasSize, heroH), bandContrast, bandSharpen), 0, 0)

	infoY := float64(heroH)
	dc.SetRGB255(20, 20, 20)
	dc.DrawRectangle(0, infoY, canvasSize, infoH)
	dc.Fill()

	section := float64(canvasSize) / 3
	dc.SetRGB255(255, 255, 255)

	// Left third: price label over value, centered as a block.
	priceValue := "$" + info.Price
	dc.SetFontFace(e.fonts.face(true, 20))
	labelW, _ := dc.MeasureString("PRICE:")
	dc.SetFontFace(e.fonts.face(true, 28))
	valueW, _ := dc.MeasureString(priceValue)
	blockW := math.Max(labelW, valueW)
	startX := (section - blockW) / 2

	dc.SetFontFace(e.fonts.face(true, 20))
	dc.DrawStringAnchored("PRICE:", startX, infoY+16, 0, 1)
	dc.SetFontFace(e.fonts.face(true, 28))
	dc.DrawStringAnchored(priceValue, startX, infoY+44, 0, 1)

	// Middle third: specs with measured phrase wrap and a two-tier font-size
	// fallback when the joined text overflows the column.
	phrases := []string{
		fmt.Sprintf("%d BEDS", info.Bedrooms),
		fmt.Sprintf("%s BATHS", formatBaths(info.Bathrooms)),
		fmt.Sprintf("%s SQ FT", formatThousands(info.SquareFeet)),
	}
	if info.YearBuilt != 0 {
		phrases = append(phrases, fmt.Sprintf("BUILT %d", info.YearBuilt))
	}

	colWidth := section - 2*margin
	dc.SetFontFace(e.fonts.face(false, 22))
	lines := wrapPhrases(dc, phrases, colWidth, " · ")
	if len(lines) > 2 {
		dc.SetFontFace(e.fonts.face(false, 18))
		lines = wrapPhrases(dc, phrases, colWidth, " · ")
	}

	lineH := 28.0
	startY := infoY + (infoH-lineH*float64(len(lines)))/2
	for i, line := range lines {
		dc.DrawStringAnchored(line, section+section/2, startY+float64(i)*lineH, 0.5, 1)
	}

	// Right third: property type.
	typeText := strings.ToUpper(info.PropertyType)
	if typeText == "" {
		typeText = "MODERN ESTATE"
	}
	dc.SetFontFace(e.fonts.face(true, 28))
	dc.DrawStringAnchored(typeText, section*2+section/2, infoY+infoH/2, 0.5, 0.5)

	// Detail band: equal thirds.
	detailY := heroH + infoH
	cellW := canvasSize / 3
	for i, img := range details {
		if i >= 3 {
			break
		}
		dc.DrawImage(enhance(fitRegion(img, cellW, detailH), bandContrast, 0), i*cellW, detailY)
	}

	// Bottom band: title plus word-wrapped address, fixed line height.
	bottomY := float64(detailY + detailH)
	dc.SetRGB255(20, 20, 20)
	dc.DrawRectangle(0, bottomY, canvasSize, canvasSize-bottomY)
	dc.Fill()

	dc.SetRGB255(255, 255, 255)
	dc.SetFontFace(e.fonts.face(true, 70))
	dc.DrawStringAnchored(typeText, 50, bottomY+25, 0, 1)

	address := fullAddress(info)
	dc.SetFontFace(e.fonts.face(false, 28))
	addrY := bottomY + 115
	for _, line := range wrapWords(dc, address, canvasSize-100) {
		dc.DrawStringAnchored(line, 50, addrY, 0, 1)
		addrY += 36
	}

	return dc.Image()
}

// renderFullBleed is the overlay layout: hero fills the canvas, a right strip
// holds the detail thumbnails, and a gradient plus rounded info card carry
// the text.
func (e *Engine) renderFullBleed(hero image.Image, details []image.Image, info models.PropertyInfo) image.Image {
	const (
		stripW   = 280
		overlayW = 300
		overlayH = 420
		cardX    = 40
		cardH    = 160
		cardPad  = 35
	)

	dc := gg.NewContext(canvasSize, canvasSize)

	heroImg := enhance(fitRegion(hero, canvasSize, canvasSize), heroContrast, heroSharpen)
	heroImg = imaging.AdjustBrightness(heroImg, 3)
	dc.DrawImage(heroImg, 0, 0)

	// Detail thumbnails in a vertical strip on the right.
	cellH := canvasSize / 3
	for i, img := range details {
		if i >= 3 {
			break
		}
		dc.DrawImage(enhance(fitRegion(img, stripW, cellH), detailContrast, detailSharpen), canvasSize-stripW, i*cellH)
	}

	// Horizontal gradient over the strip edge for legibility.
	dc.DrawImage(horizontalGradient(overlayW, canvasSize, 180), canvasSize-overlayW, 0)

	// Bottom gradient overlay, softly blurred.
	bottomY := canvasSize - overlayH
	grad := verticalGradient(canvasSize, overlayH, 8, 12, 20, 240)
	dc.DrawImage(imaging.Blur(grad, 1.5), 0, bottomY)

	// Accent line at the overlay's top edge.
	dc.SetRGBA255(251, 191, 36, 230)
	dc.DrawRectangle(0, float64(bottomY), canvasSize, 4)
	dc.Fill()

	// Info card.
	cardY := float64(bottomY + 30)
	cardW := float64(canvasSize - 2*cardX)
	dc.SetRGBA255(25, 30, 40, 200)
	dc.DrawRoundedRectangle(cardX, cardY, cardW, cardH, 15)
	dc.Fill()
	dc.SetRGBA255(251, 191, 36, 255)
	dc.SetLineWidth(3)
	dc.DrawRoundedRectangle(cardX+2, cardY+2, cardW-4, cardH-4, 15)
	dc.Stroke()

	textX := float64(cardX + cardPad)

	dc.SetFontFace(e.fonts.face(false, 16))
	dc.SetHexColor("#A0AEC0")
	dc.DrawStringAnchored("LISTED AT", textX, cardY+12, 0, 1)

	dc.SetFontFace(e.fonts.face(true, 64))
	dc.SetHexColor("#FBD38D")
	dc.DrawStringAnchored(info.Price, textX, cardY+42, 0, 1)

	// Property type badge.
	typeText := strings.ToUpper(info.PropertyType)
	if typeText != "" {
		dc.SetFontFace(e.fonts.face(true, 20))
		badgeTextW, badgeTextH := dc.MeasureString(typeText)
		badgeY := cardY + cardH - 38
		dc.SetRGBA255(251, 191, 36, 255)
		dc.DrawRectangle(textX, badgeY, badgeTextW+24, badgeTextH+12)
		dc.Fill()
		dc.SetHexColor("#1A202C")
		dc.DrawStringAnchored(typeText, textX+12, badgeY+4, 0, 1)
	}

	// Specs line, centered.
	specsY := cardY + cardH + 30
	specs := fmt.Sprintf("%d BD  •  %s BA  •  %s SF",
		info.Bedrooms, formatBaths(info.Bathrooms), formatThousands(info.SquareFeet))
	dc.SetFontFace(e.fonts.face(true, 32))
	dc.SetRGB255(255, 255, 255)
	dc.DrawStringAnchored(specs, canvasSize/2, specsY, 0.5, 1)

	// Address, centered.
	dc.SetFontFace(e.fonts.face(false, 22))
	dc.SetHexColor("#E2E8F0")
	dc.DrawStringAnchored(fullAddress(info), canvasSize/2, specsY+50, 0.5, 1)

	// Watermark, centered at the very bottom.
	dc.SetFontFace(e.fonts.face(true, 15))
	dc.SetHexColor("#9CA3AF")
	dc.DrawStringAnchored(watermark, canvasSize/2, canvasSize-35, 0.5, 1)

	return dc.Image()
}

// horizontalGradient fades black from maxAlpha at the left edge to clear at
// the right.
func horizontalGradient(w, h int, maxAlpha float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		alpha := uint8(maxAlpha * (1 - float64(x)/float64(w)))
		for y := 0; y < h; y++ {
			i := img.PixOffset(x, y)
			img.Pix[i+3] = alpha
		}
	}
	return img
}

// verticalGradient fades the given color from clear at the top to maxAlpha at
// the bottom, eased slightly toward the bottom.
func verticalGradient(w, h int, r, g, b uint8, maxAlpha float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		ratio := math.Pow(float64(y)/float64(h), 1.2)
		alpha := uint8(maxAlpha * ratio)
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			img.Pix[i] = r
			img.Pix[i+1] = g
			img.Pix[i+2] = b
			img.Pix[i+3] = alpha
		}
	}
	return img
}

func formatBaths(baths float64) string {
	if baths == math.Trunc(baths) {
		return fmt.Sprintf("%d", int(baths))
	}
	return fmt.Sprintf("%g", baths)
}

func fullAddress(info models.PropertyInfo) string {
	addr := fmt.Sprintf("%s, %s, %s", info.Address, info.City, info.State)
	if info.ZipCode != "" {
		addr += " " + info.ZipCode
	}
	return addr
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, apperr.Wrap(err, apperr.KindComposition, "encode jpeg")
	}
	return buf.Bytes(), nil
}
