package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// countryCache holds the country catalogue between runs.
// The catalogue is one request for every country, so concurrent runs share a fetch.
type countryCache struct {
	source CountrySource
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	countries []CountryInfo
	built     time.Time
	sf        singleflight.Group
}

func newCountryCache(source CountrySource, ttl time.Duration, now func() time.Time) *countryCache {
	return &countryCache{source: source, ttl: ttl, now: now}
}

func (c *countryCache) fresh() ([]CountryInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.countries == nil || c.ttl <= 0 {
		return nil, false
	}
	return c.countries, c.now().Sub(c.built) <= c.ttl
}

// Get returns the cached catalogue or fetches it. An expired catalogue is
// never served; a failed fetch returns the error.
func (c *countryCache) Get(ctx context.Context) ([]CountryInfo, error) {
	if countries, ok := c.fresh(); ok {
		return countries, nil
	}

	result, err, _ := c.sf.Do("countries", func() (interface{}, error) {
		// Double-check after acquiring singleflight lock
		if countries, ok := c.fresh(); ok {
			return countries, nil
		}

		countries, err := c.source.Countries(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.countries = countries
		c.built = c.now()
		c.mu.Unlock()
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]CountryInfo), nil
}

// Invalidate drops the cached catalogue.
func (c *countryCache) Invalidate() {
	c.mu.Lock()
	c.countries = nil
	c.mu.Unlock()
}
