// Package metrics provides census pipeline counters.
package metrics

import (
	"sync"
	"sync/atomic"
)

// =============================================================================
// Census Counters
// =============================================================================

// CensusCounters tracks cumulative pipeline activity. Numbers are served by
// the stats endpoint and logged at shutdown.
type CensusCounters struct {
	Surveyed   atomic.Int64 // portals fetched from CKAN
	Classified atomic.Int64 // classification results produced
	Located    atomic.Int64 // location analyses completed
	LLMCalls   atomic.Int64
	CacheHits  atomic.Int64
	CacheMiss  atomic.Int64
	Failures   atomic.Int64 // jobs that exhausted retries

	mu       sync.RWMutex
	byStage  map[string]int64 // classification results per stage
	byRegion map[string]int64
}

// NewCensusCounters creates zeroed counters.
func NewCensusCounters() *CensusCounters {
	return &CensusCounters{
		byStage:  make(map[string]int64),
		byRegion: make(map[string]int64),
	}
}

// RecordClassification counts one classification result by producing stage.
func (c *CensusCounters) RecordClassification(stage string) {
	c.Classified.Add(1)
	c.mu.Lock()
	c.byStage[stage]++
	c.mu.Unlock()
}

// RecordRegion counts one location result by assigned region.
func (c *CensusCounters) RecordRegion(region string) {
	c.Located.Add(1)
	c.mu.Lock()
	c.byRegion[region]++
	c.mu.Unlock()
}

// CacheHitRatio returns the hit ratio, or 0 when nothing was looked up.
func (c *CensusCounters) CacheHitRatio() float64 {
	hits := c.CacheHits.Load()
	total := hits + c.CacheMiss.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// Snapshot returns a point-in-time copy for API output.
func (c *CensusCounters) Snapshot() map[string]any {
	c.mu.RLock()
	stages := make(map[string]int64, len(c.byStage))
	for k, v := range c.byStage {
		stages[k] = v
	}
	regions := make(map[string]int64, len(c.byRegion))
	for k, v := range c.byRegion {
		regions[k] = v
	}
	c.mu.RUnlock()

	return map[string]any{
		"surveyed":        c.Surveyed.Load(),
		"classified":      c.Classified.Load(),
		"located":         c.Located.Load(),
		"llm_calls":       c.LLMCalls.Load(),
		"cache_hits":      c.CacheHits.Load(),
		"cache_misses":    c.CacheMiss.Load(),
		"cache_hit_ratio": c.CacheHitRatio(),
		"failures":        c.Failures.Load(),
		"by_stage":        stages,
		"by_region":       regions,
	}
}

// =============================================================================
// Global Counters (Singleton)
// =============================================================================

var (
	globalCounters     *CensusCounters
	globalCountersOnce sync.Once
)

// GlobalCounters returns the process-wide census counters.
func GlobalCounters() *CensusCounters {
	globalCountersOnce.Do(func() {
		globalCounters = NewCensusCounters()
	})
	return globalCounters
}
