// Package rediscache implements Redis-backed caches for the census.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"census_server/core/domain"
	"census_server/pkg/cache"
	"census_server/pkg/metrics"
)

// DefaultMetadataTTL controls how long survey results are reused before a
// portal is probed again.
const DefaultMetadataTTL = 24 * time.Hour

// MetadataCache implements out.MetadataCache on top of pkg/cache.
type MetadataCache struct {
	cache    *cache.RedisCache
	ttl      time.Duration
	counters *metrics.CensusCounters
}

// NewMetadataCache creates a metadata cache. ttl <= 0 selects the default.
func NewMetadataCache(c *cache.RedisCache, ttl time.Duration) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	return &MetadataCache{
		cache:    c,
		ttl:      ttl,
		counters: metrics.GlobalCounters(),
	}
}

func metadataKey(host string) string {
	return fmt.Sprintf("census:meta:%s", host)
}

// GetMetadata returns cached survey metadata for a host. The bool reports
// a cache hit.
func (m *MetadataCache) GetMetadata(ctx context.Context, host string) (*domain.PortalMetadata, bool, error) {
	var meta domain.PortalMetadata
	hit, err := m.cache.GetJSON(ctx, metadataKey(host), &meta)
	if err != nil {
		return nil, false, err
	}
	if !hit {
		m.counters.CacheMiss.Add(1)
		return nil, false, nil
	}
	m.counters.CacheHits.Add(1)
	return &meta, true, nil
}

// SetMetadata stores survey metadata for a host.
func (m *MetadataCache) SetMetadata(ctx context.Context, host string, meta domain.PortalMetadata) error {
	return m.cache.SetJSON(ctx, metadataKey(host), meta, m.ttl)
}
