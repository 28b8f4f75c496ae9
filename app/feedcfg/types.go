package feedcfg

import (
	"github.com/Reaperrhs/RSS-Feed-Generator/app/database"
)

// FeedConfig declares a feed to register at startup. The feed name
// derives from the file name.
type FeedConfig struct {
	Name         string `yaml:"-"`
	URL          string `yaml:"url"`
	Type         string `yaml:"type"`
	CacheSeconds int    `yaml:"cache_seconds"`
	Title        string `yaml:"title"`
}

// Record converts the definition into a registrable feed record.
func (c *FeedConfig) Record() *database.FeedRecord {
	return &database.FeedRecord{
		URL:          c.URL,
		Title:        c.Title,
		Type:         c.Type,
		CacheSeconds: c.CacheSeconds,
	}
}
