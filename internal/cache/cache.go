// Package cache provides caching for rendered plate images and group reports.
//
// The caches live in memory and pay off for long-lived sessions that redraw
// the same plate repeatedly. A single CLI invocation renders one image, so
// there every lookup misses; hit and miss counts are reported by Stats.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/platemap-hts/platemap/internal/stats"
)

// Image kinds used as key prefixes.
const (
	KindHeatmap = "heatmap"
	KindBoxplot = "boxplot"
	KindLegend  = "legend"
)

// Config contains cache configuration.
type Config struct {
	ImageCacheSizeMB int
	ImageTTL         time.Duration
	ReportCacheSize  int
}

// Manager manages the image and report caches. It is safe for concurrent use.
type Manager struct {
	imageCache  *bigcache.BigCache
	reportCache *lru.Cache[string, *stats.Report]
}

// NewManager creates a new cache manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ImageTTL <= 0 {
		cfg.ImageTTL = 10 * time.Minute
	}
	if cfg.ReportCacheSize <= 0 {
		cfg.ReportCacheSize = 32
	}

	imageCacheConfig := bigcache.Config{
		Shards:             64,
		LifeWindow:         cfg.ImageTTL,
		CleanWindow:        cfg.ImageTTL / 2,
		MaxEntriesInWindow: 1024,
		MaxEntrySize:       512 * 1024, // rendered PNGs stay well below this
		HardMaxCacheSize:   cfg.ImageCacheSizeMB,
		Verbose:            false,
	}

	imageCache, err := bigcache.New(context.Background(), imageCacheConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create image cache: %w", err)
	}

	reportCache, err := lru.New[string, *stats.Report](cfg.ReportCacheSize)
	if err != nil {
		imageCache.Close()
		return nil, fmt.Errorf("failed to create report cache: %w", err)
	}

	return &Manager{
		imageCache:  imageCache,
		reportCache: reportCache,
	}, nil
}

// GetImage retrieves an encoded image from cache.
func (m *Manager) GetImage(key string) ([]byte, bool) {
	data, err := m.imageCache.Get(key)
	if err != nil {
		return nil, false
	}
	return data, true
}

// SetImage stores an encoded image in cache.
func (m *Manager) SetImage(key string, data []byte) error {
	return m.imageCache.Set(key, data)
}

// GetReport retrieves a group report from cache.
func (m *Manager) GetReport(key string) (*stats.Report, bool) {
	return m.reportCache.Get(key)
}

// SetReport stores a group report in cache.
func (m *Manager) SetReport(key string, r *stats.Report) {
	m.reportCache.Add(key, r)
}

// ReportKey generates a cache key for the report of one classified dataset.
func ReportKey(fingerprint, positiveControl string) string {
	return "report:" + fingerprint + ":" + positiveControl
}

// ImageKey generates a cache key for a rendered image. Parameters are hashed
// in order, so callers must pass them in a fixed order.
func ImageKey(kind, fingerprint string, params ...float64) string {
	base := kind + ":" + fingerprint
	if len(params) == 0 {
		return base
	}

	h := sha256.New()
	for _, p := range params {
		h.Write([]byte(strconv.FormatFloat(p, 'g', -1, 64)))
		h.Write([]byte{0})
	}
	return base + ":" + hex.EncodeToString(h.Sum(nil))[:16]
}

// Stats returns cache statistics.
func (m *Manager) Stats() map[string]interface{} {
	st := m.imageCache.Stats()
	return map[string]interface{}{
		"image_cache_len":    m.imageCache.Len(),
		"image_cache_cap":    m.imageCache.Capacity(),
		"image_cache_hits":   st.Hits,
		"image_cache_misses": st.Misses,
		"report_cache_len":   m.reportCache.Len(),
	}
}

// Close closes the cache manager.
func (m *Manager) Close() error {
	return m.imageCache.Close()
}
