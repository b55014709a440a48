package scraper

import (
	"fmt"
	"log"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"propshot/config"
)

// Candidate is one harvested asset URL. Identity is the exact URL string;
// Source records which extraction pass found it first.
type Candidate struct {
	URL    string `json:"url"`
	Source string `json:"source"` // "attribute", "style", or "script"
}

var styleURLPattern = regexp.MustCompile(`url\(["']?(https?://[^"')\s]+?)["']?\)`)

// collectImageURLsJS runs inside the rendered page and catches assets attached
// by script after the static passes would have run. Markers are substituted in.
const collectImageURLsJS = `() => {
	const urls = new Set();
	document.querySelectorAll('img').forEach(img => {
		const src = img.src || img.dataset.src || img.dataset.lazySrc;
		if (src && src.includes(%q) && src.includes(%q)) {
			urls.add(src);
		}
	});
	document.querySelectorAll('*').forEach(el => {
		const style = window.getComputedStyle(el).backgroundImage;
		if (style && style.includes(%q) && style.includes(%q)) {
			const match = style.match(/url\(["']?(.*?)["']?\)/);
			if (match) urls.add(match[1]);
		}
	});
	return Array.from(urls);
}`

// Harvester extracts candidate asset URLs from a rendered listing page using
// three redundant passes; no single pass reliably surfaces every asset on a
// dynamically rendered page.
type Harvester struct {
	site        *config.SiteConfig
	cdnMarker   string
	downloadDir string
}

func NewHarvester(site *config.SiteConfig, downloadDir string) *Harvester {
	marker := site.CDNOrigin
	marker = strings.TrimPrefix(marker, "https://")
	marker = strings.TrimPrefix(marker, "http://")
	return &Harvester{site: site, cdnMarker: marker, downloadDir: downloadDir}
}

func (h *Harvester) accept(url string) bool {
	return strings.Contains(url, h.cdnMarker) && strings.Contains(url, h.site.ResizedMarker)
}

// Harvest runs all three passes and returns candidates deduplicated by exact
// URL in insertion order.
func (h *Harvester) Harvest(page playwright.Page) ([]Candidate, error) {
	h.scrollThrough(page)

	seen := make(map[string]bool)
	var candidates []Candidate
	add := func(url, source string) {
		if url == "" || seen[url] || !h.accept(url) {
			return
		}
		seen[url] = true
		candidates = append(candidates, Candidate{URL: url, Source: source})
	}

	// Pass 1: effective source across the lazy-load attribute conventions.
	imgs, err := page.Locator("img").All()
	if err == nil {
		log.Printf("Harvest: inspecting %d img elements", len(imgs))
		for _, img := range imgs {
			for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
				if src, err := img.GetAttribute(attr); err == nil && src != "" {
					add(src, "attribute")
					break
				}
			}
		}
	}

	// Pass 2: background-image references in inline style attributes.
	styled, err := page.Locator("[style]").All()
	if err == nil {
		log.Printf("Harvest: scanning %d styled elements", len(styled))
		for _, el := range styled {
			style, err := el.GetAttribute("style")
			if err != nil || style == "" {
				continue
			}
			for _, m := range styleURLPattern.FindAllStringSubmatch(style, -1) {
				add(m[1], "style")
			}
		}
	}

	// Pass 3: script-evaluated query over the live DOM, including computed
	// background images.
	m, r := h.cdnMarker, h.site.ResizedMarker
	script := fmt.Sprintf(collectImageURLsJS, m, r, m, r)
	if result, err := page.Evaluate(script); err == nil {
		if list, ok := result.([]interface{}); ok {
			for _, v := range list {
				if url, ok := v.(string); ok {
					add(url, "script")
				}
			}
		}
	}

	log.Printf("Harvest: %d unique candidates", len(candidates))

	if len(candidates) == 0 {
		h.captureDiagnostics(page)
	}
	return candidates, nil
}

func (h *Harvester) scrollThrough(page playwright.Page) {
	for i := 0; i < h.site.ScrollPasses; i++ {
		page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`)
		page.WaitForTimeout(2000)
	}
	page.Evaluate(`window.scrollTo(0, 0)`)
	page.WaitForTimeout(1000)
}

// captureDiagnostics saves a rendered screenshot and logs a few raw image
// sources when a harvest comes back empty. Best effort only; a diagnostic
// failure never fails the request.
func (h *Harvester) captureDiagnostics(page playwright.Page) {
	name := fmt.Sprintf("empty_harvest_%d.png", time.Now().Unix())
	path := filepath.Join(h.downloadDir, name)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{Path: playwright.String(path)}); err != nil {
		log.Printf("Harvest: diagnostic screenshot failed: %v", err)
	} else {
		log.Printf("Harvest: empty result, screenshot saved to %s", path)
	}

	if title, err := page.Title(); err == nil {
		log.Printf("Harvest: page title: %q", title)
	}
	if imgs, err := page.Locator("img").All(); err == nil {
		for i, img := range imgs {
			if i >= 3 {
				break
			}
			src, _ := img.GetAttribute("src")
			log.Printf("Harvest: sample img %d: %s", i, src)
		}
	}
}
