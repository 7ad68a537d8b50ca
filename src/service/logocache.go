package service

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

const logoTTL = 24 * time.Hour

// LogoCache memoizes institution logo URLs per item id so aggregation does
// not repeat the supplementary transactions lookup on every request. Only
// logo URLs live here; credentials and account data are never cached.
type LogoCache struct {
	cache *ristretto.Cache
}

func NewLogoCache() (*LogoCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &LogoCache{cache: cache}, nil
}

func (c *LogoCache) Get(itemID string) (string, bool) {
	if c == nil || c.cache == nil {
		return "", false
	}
	v, ok := c.cache.Get(itemID)
	if !ok {
		return "", false
	}
	url, ok := v.(string)
	return url, ok
}

func (c *LogoCache) Set(itemID, logoURL string) {
	if c == nil || c.cache == nil || logoURL == "" {
		return
	}
	c.cache.SetWithTTL(itemID, logoURL, 1, logoTTL)
}
