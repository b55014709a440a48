package compose

import (
	"fmt"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// fontSet holds the two embedded typefaces; faces are derived per size.
// Wrapping decisions below measure rendered pixel width against these faces;
// character counts are wrong for proportional fonts.
type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

func loadFonts() (*fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	return &fontSet{regular: regular, bold: bold}, nil
}

func (f *fontSet) face(bold bool, size float64) font.Face {
	ttf := f.regular
	if bold {
		ttf = f.bold
	}
	return truetype.NewFace(ttf, &truetype.Options{Size: size})
}

// wrapPhrases greedily accumulates phrases while the joined line's measured
// width stays within maxWidth; on overflow a new line starts. Phrases are the
// wrap unit, never split internally.
func wrapPhrases(dc *gg.Context, phrases []string, maxWidth float64, sep string) []string {
	var lines []string
	var current []string

	for _, phrase := range phrases {
		test := append(append([]string(nil), current...), phrase)
		joined := strings.Join(test, sep)
		if w, _ := dc.MeasureString(joined); w <= maxWidth {
			current = test
			continue
		}
		if len(current) > 0 {
			lines = append(lines, strings.Join(current, sep))
		}
		current = []string{phrase}
	}
	if len(current) > 0 {
		lines = append(lines, strings.Join(current, sep))
	}
	return lines
}

// wrapWords is the greedy word-wrap used for the address block.
func wrapWords(dc *gg.Context, text string, maxWidth float64) []string {
	var lines []string
	var current string

	for _, word := range strings.Fields(text) {
		test := word
		if current != "" {
			test = current + " " + word
		}
		if w, _ := dc.MeasureString(test); w <= maxWidth {
			current = test
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// formatThousands renders 1800 as "1,800".
func formatThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
