package statistics

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/cache"
)

const (
	cacheKey        = "statistics:overview"
	cacheExpiration = 30 * time.Minute
)

// Overview aggregates the numbers the admin stats endpoint serves.
type Overview struct {
	TotalImages  int64            `json:"total_images"`
	ImagesByType map[string]int64 `json:"images_by_type"`
	TotalBytes   int64            `json:"total_bytes"`
	TotalPages   int64            `json:"total_pages"`
}

// ImageCounter is the slice of the image repository the collector needs.
type ImageCounter interface {
	Count() (int64, error)
	CountByType() (map[string]int64, error)
	SumFileSize() (int64, error)
}

// PageCounter is the slice of the page repository the collector needs.
type PageCounter interface {
	Count() (int64, error)
}

// Collector computes the overview and keeps a cached copy in Redis so the
// stats endpoint does not hit the database on every call.
type Collector struct {
	images ImageCounter
	pages  PageCounter
}

func NewCollector(images ImageCounter, pages PageCounter) *Collector {
	return &Collector{images: images, pages: pages}
}

// Overview returns the cached aggregate, refreshing from the database when
// the cached copy is gone or unreadable.
func (c *Collector) Overview() (*Overview, error) {
	if raw, err := cache.Get(cacheKey); err == nil {
		var overview Overview
		if jerr := json.Unmarshal([]byte(raw), &overview); jerr == nil {
			return &overview, nil
		}
	}

	overview, err := c.collect()
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(overview); jerr == nil {
		if cerr := cache.Set(cacheKey, string(data), cacheExpiration); cerr != nil {
			log.Warnf("[Statistics] could not cache overview: %v", cerr)
		}
	}
	return overview, nil
}

func (c *Collector) collect() (*Overview, error) {
	totalImages, err := c.images.Count()
	if err != nil {
		return nil, err
	}
	byType, err := c.images.CountByType()
	if err != nil {
		return nil, err
	}
	totalBytes, err := c.images.SumFileSize()
	if err != nil {
		return nil, err
	}
	totalPages, err := c.pages.Count()
	if err != nil {
		return nil, err
	}

	return &Overview{
		TotalImages:  totalImages,
		ImagesByType: byType,
		TotalBytes:   totalBytes,
		TotalPages:   totalPages,
	}, nil
}

// Invalidate drops the cached overview, the next call recomputes it.
func Invalidate() {
	if err := cache.Delete(cacheKey); err != nil {
		log.Debugf("[Statistics] cache invalidation failed: %v", err)
	}
}
