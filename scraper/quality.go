package scraper

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	largeHints  = []string{"large", "_lg", "full", "original", "_orig", "hd", "2k", "4k"}
	retinaHints = []string{"@2x", "@3x", "retina"}
	thumbHints  = []string{"thumb", "_sm", "small", "_xs", "thumbnail"}
)

// ScoreImageFile rates a local image file by filename hints and decoded pixel
// dimensions. Higher is better. Unreadable files keep their filename score;
// they are ranked, not excluded.
func ScoreImageFile(path string) int {
	score := 0
	name := strings.ToLower(filepath.Base(path))

	for _, hint := range largeHints {
		if strings.Contains(name, hint) {
			score += 20
			break
		}
	}
	for _, hint := range retinaHints {
		if strings.Contains(name, hint) {
			score += 15
			break
		}
	}
	for _, hint := range thumbHints {
		if strings.Contains(name, hint) {
			score -= 5
			break
		}
	}

	if w, h, ok := imageDimensions(path); ok {
		switch {
		case w >= 1920 || h >= 1080:
			score += 25
		case w >= 1000 || h >= 1000:
			score += 15
		case w >= 800 || h >= 800:
			score += 10
		}
		if w < 300 && h < 300 {
			score -= 3
		}
	}

	if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
		score += 5
	}
	return score
}

// SortByQuality orders local image paths best-first. The sort is stable, so
// ties preserve encounter order.
func SortByQuality(paths []string) []string {
	type scored struct {
		path  string
		score int
	}
	items := make([]scored, len(paths))
	for i, p := range paths {
		items[i] = scored{path: p, score: ScoreImageFile(p)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.path
	}
	return out
}

// imageDimensions decodes only the header, not the full pixel data.
func imageDimensions(path string) (w, h int, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
