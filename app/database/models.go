package database

import (
	"time"
)

const (
	// FeedTypeStatic marks feeds served from stored XML as-is.
	FeedTypeStatic = "static"
	// FeedTypeDynamic marks feeds regenerated from the source page once
	// the stored XML outlives its cache window.
	FeedTypeDynamic = "dynamic"
)

// Cache window bounds, in seconds.
const (
	MinCacheSeconds = 60
	MaxCacheSeconds = 604800
)

// ClampCacheSeconds bounds a cache duration to the serving window.
func ClampCacheSeconds(seconds int) int {
	if seconds < MinCacheSeconds {
		return MinCacheSeconds
	}
	if seconds > MaxCacheSeconds {
		return MaxCacheSeconds
	}
	return seconds
}

// FeedRecord is a registered feed: the source page URL plus the most
// recently generated XML and its serving configuration.
type FeedRecord struct {
	ID           string
	URL          string
	Title        string
	Type         string
	CacheSeconds int
	XMLContent   string
	PublicURL    string
	FileID       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stale reports whether the stored XML has outlived the cache window.
// Static feeds never go stale.
func (r *FeedRecord) Stale(now time.Time) bool {
	if r.Type == FeedTypeStatic {
		return false
	}
	return now.After(r.UpdatedAt.Add(time.Duration(r.CacheSeconds) * time.Second))
}
