// Package ratelimit provides politeness controls for portal surveys.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// =============================================================================
// Survey Protection Layer
// Order: Semaphore -> Debounce -> Rate Limiter -> portal request
// =============================================================================

// Config holds survey protector configuration.
type Config struct {
	// Semaphore: concurrent in-flight requests across all portals
	MaxConcurrent int // default: 64

	// Rate Limiter: per-host request rate
	RequestsPerSecond int // default: 2
	BurstSize         int // default: 4

	// Debounce: skip portals surveyed recently
	DebounceDuration time.Duration // default: 10 minutes

	// Payload: cap on list sizes pulled from one portal
	MaxPayloadSize int // default: 1000
}

// DefaultConfig returns defaults suitable for polite crawling. Government
// portals tend to be small installations, so per-host rates stay low.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:     64,
		RequestsPerSecond: 2,
		BurstSize:         4,
		DebounceDuration:  10 * time.Minute,
		MaxPayloadSize:    1000,
	}
}

// =============================================================================
// SurveyProtector
// =============================================================================

// SurveyProtector gates outbound portal requests. Keys are portal hosts, so
// one slow portal cannot absorb the whole pipeline and repeated enqueues of
// the same portal collapse into one survey.
type SurveyProtector struct {
	config      *Config
	semaphore   chan struct{}
	rateLimiter *SlidingWindowLimiter
	debouncer   *Debouncer
	redis       *redis.Client
}

// NewSurveyProtector creates a new survey protector.
func NewSurveyProtector(redisClient *redis.Client, config *Config) *SurveyProtector {
	if config == nil {
		config = DefaultConfig()
	}

	return &SurveyProtector{
		config:      config,
		semaphore:   make(chan struct{}, config.MaxConcurrent),
		rateLimiter: NewSlidingWindowLimiter(redisClient, config.RequestsPerSecond, config.BurstSize),
		debouncer:   NewDebouncer(redisClient, config.DebounceDuration),
		redis:       redisClient,
	}
}

// ProtectionResult contains the result of a protection check.
type ProtectionResult struct {
	Allowed      bool
	Reason       string
	ShouldWait   bool
	WaitDuration time.Duration
	FromDebounce bool
}

// Acquire tries to acquire permission to hit a portal host.
// Returns a release function that must be called after the request completes.
func (p *SurveyProtector) Acquire(ctx context.Context, host string) (*ProtectionResult, func()) {
	select {
	case p.semaphore <- struct{}{}:
	default:
		return &ProtectionResult{
			Allowed: false,
			Reason:  "too many concurrent requests",
		}, nil
	}

	releaseFunc := func() {
		<-p.semaphore
	}

	if p.debouncer.IsDuplicate(ctx, host) {
		releaseFunc()
		return &ProtectionResult{
			Allowed:      false,
			Reason:       "portal surveyed recently (debounced)",
			FromDebounce: true,
		}, nil
	}

	allowed, waitDuration := p.rateLimiter.Allow(ctx, host)
	if !allowed {
		releaseFunc()
		return &ProtectionResult{
			Allowed:      false,
			Reason:       "rate limit exceeded",
			ShouldWait:   waitDuration > 0,
			WaitDuration: waitDuration,
		}, nil
	}

	p.debouncer.Mark(ctx, host)

	return &ProtectionResult{Allowed: true}, releaseFunc
}

// AcquireWithWait tries to acquire, sleeping through a rate limit window
// when the wait fits under maxWait.
func (p *SurveyProtector) AcquireWithWait(ctx context.Context, host string, maxWait time.Duration) (*ProtectionResult, func()) {
	result, release := p.Acquire(ctx, host)

	if !result.Allowed && result.ShouldWait && result.WaitDuration <= maxWait {
		select {
		case <-time.After(result.WaitDuration):
			return p.Acquire(ctx, host)
		case <-ctx.Done():
			return &ProtectionResult{
				Allowed: false,
				Reason:  "context cancelled",
			}, nil
		}
	}

	return result, release
}

// MaxPayloadSize returns the configured max payload size.
func (p *SurveyProtector) MaxPayloadSize() int {
	return p.config.MaxPayloadSize
}

// =============================================================================
// SlidingWindowLimiter - Redis-backed sliding window rate limiter
// =============================================================================

// SlidingWindowLimiter implements sliding window rate limiting using Redis.
type SlidingWindowLimiter struct {
	redis     *redis.Client
	rate      int           // requests per window
	window    time.Duration // window size
	burstSize int           // allowed burst
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(redisClient *redis.Client, requestsPerSecond, burstSize int) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		redis:     redisClient,
		rate:      requestsPerSecond,
		window:    time.Second,
		burstSize: burstSize,
	}
}

// Allow checks if a request is allowed and returns wait duration if not.
// Without Redis the limiter fails open.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if l.redis == nil {
		return true, 0
	}

	now := time.Now()
	windowStart := now.Add(-l.window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	// Lua script for atomic sliding window check
	script := redis.NewScript(`
		local key = KEYS[1]
		local now = tonumber(ARGV[1])
		local window_start = tonumber(ARGV[2])
		local max_requests = tonumber(ARGV[3])
		local window_ms = tonumber(ARGV[4])

		-- Remove old entries
		redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

		-- Count current requests
		local count = redis.call('ZCARD', key)

		if count < max_requests then
			-- Add new request
			redis.call('ZADD', key, now, now .. '-' .. math.random())
			redis.call('PEXPIRE', key, window_ms * 2)
			return 1
		else
			-- Get oldest entry to calculate wait time
			local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
			if #oldest > 0 then
				return -(oldest[2] + window_ms - now)
			end
			return 0
		end
	`)

	result, err := script.Run(ctx, l.redis, []string{redisKey},
		now.UnixMilli(),
		windowStart.UnixMilli(),
		l.rate+l.burstSize,
		l.window.Milliseconds(),
	).Int64()

	if err != nil {
		return true, 0
	}

	if result == 1 {
		return true, 0
	}

	// result is negative wait time in milliseconds
	if result < 0 {
		return false, time.Duration(-result) * time.Millisecond
	}

	return false, l.window
}

// =============================================================================
// Debouncer - duplicate survey suppression
// =============================================================================

// Debouncer prevents re-surveying the same portal within a time window.
type Debouncer struct {
	redis    *redis.Client
	duration time.Duration
	local    map[string]time.Time // fallback for no redis
	mu       sync.RWMutex
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(redisClient *redis.Client, duration time.Duration) *Debouncer {
	return &Debouncer{
		redis:    redisClient,
		duration: duration,
		local:    make(map[string]time.Time),
	}
}

// IsDuplicate checks if this portal was surveyed within the window.
func (d *Debouncer) IsDuplicate(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("debounce:%s", key)

	if d.redis != nil {
		exists, err := d.redis.Exists(ctx, redisKey).Result()
		if err == nil {
			return exists > 0
		}
	}

	d.mu.RLock()
	lastTime, exists := d.local[key]
	d.mu.RUnlock()

	if exists && time.Since(lastTime) < d.duration {
		return true
	}

	return false
}

// Mark records this portal as surveyed.
func (d *Debouncer) Mark(ctx context.Context, key string) {
	redisKey := fmt.Sprintf("debounce:%s", key)

	if d.redis != nil {
		d.redis.Set(ctx, redisKey, "1", d.duration)
	}

	d.mu.Lock()
	d.local[key] = time.Now()
	d.mu.Unlock()

	go d.cleanup()
}

func (d *Debouncer) cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for k, v := range d.local {
		if now.Sub(v) > d.duration*2 {
			delete(d.local, k)
		}
	}
}
