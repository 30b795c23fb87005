// Package cache provides an in-memory TTL cache used to memoize
// analysis reports by trace digest, so re-uploading an identical
// capture does not re-run the pipeline.
package cache

import (
	"sync"
	"time"

	"github.com/tracelens/trace-diag/internal/models"
)

// ReportCache maps trace digests to finished reports with expiry.
type ReportCache struct {
	mu   sync.RWMutex
	data map[string]item
	ttl  time.Duration
}

type item struct {
	report    models.Report
	expiresAt time.Time
}

// NewReportCache creates a cache whose entries live for ttl. A zero or
// negative ttl keeps entries forever.
func NewReportCache(ttl time.Duration) *ReportCache {
	return &ReportCache{data: make(map[string]item), ttl: ttl}
}

// Get returns the cached report for a digest if present and not expired.
func (c *ReportCache) Get(digest string) (models.Report, bool) {
	c.mu.RLock()
	it, ok := c.data[digest]
	c.mu.RUnlock()
	if !ok {
		return models.Report{}, false
	}
	if !it.expiresAt.IsZero() && time.Now().After(it.expiresAt) {
		c.mu.Lock()
		delete(c.data, digest)
		c.mu.Unlock()
		return models.Report{}, false
	}
	return it.report, true
}

// Set stores a report under its trace digest.
func (c *ReportCache) Set(digest string, report models.Report) {
	var expires time.Time
	if c.ttl > 0 {
		expires = time.Now().Add(c.ttl)
	}
	c.mu.Lock()
	c.data[digest] = item{report: report, expiresAt: expires}
	c.mu.Unlock()
}

// Len returns the number of cached entries, expired ones included.
func (c *ReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
