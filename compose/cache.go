package compose

import (
	"image"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	cacheSize = 100
	cacheTTL  = 15 * time.Minute
)

// imageCache memoizes decoded images by locator. Size- and age-bounded:
// downloaded binary content must never accumulate without eviction.
type imageCache struct {
	lru *expirable.LRU[string, image.Image]
}

func newImageCache() *imageCache {
	return &imageCache{
		lru: expirable.NewLRU[string, image.Image](cacheSize, nil, cacheTTL),
	}
}

func (c *imageCache) Get(locator string) (image.Image, bool) {
	return c.lru.Get(locator)
}

func (c *imageCache) Add(locator string, img image.Image) {
	c.lru.Add(locator, img)
}

func (c *imageCache) Len() int {
	return c.lru.Len()
}
