package feedcfg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Reaperrhs/RSS-Feed-Generator/app/database"
)

// Loader handles loading and validation of bootstrap feed definitions
type Loader struct {
	feedsDir            string
	defaultCacheSeconds int
}

// NewLoader creates a new definition loader
func NewLoader(feedsDir string, defaultCacheSeconds int) *Loader {
	return &Loader{feedsDir: feedsDir, defaultCacheSeconds: defaultCacheSeconds}
}

// LoadAll loads all YAML feed definitions from the feeds directory. A
// missing directory is not an error: definitions are optional.
func (l *Loader) LoadAll() ([]*FeedConfig, error) {
	if _, err := os.Stat(l.feedsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	for _, pattern := range []string{"*.yml", "*.yaml"} {
		matches, err := filepath.Glob(filepath.Join(l.feedsDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("failed to find YAML files: %w", err)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	var configs []*FeedConfig
	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs = append(configs, config)
		slog.Debug("Feed definition loaded", "feed", config.Name, "url", config.URL, "type", config.Type)
	}

	return configs, nil
}

// loadFile loads a single YAML definition file
func (l *Loader) loadFile(path string) (*FeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config FeedConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Base(path)
	config.Name = strings.TrimSuffix(base, filepath.Ext(base))

	l.setDefaults(&config)

	return &config, nil
}

// setDefaults applies default values to a definition
func (l *Loader) setDefaults(config *FeedConfig) {
	if config.Type == "" {
		config.Type = database.FeedTypeDynamic
	}
	if config.CacheSeconds == 0 {
		config.CacheSeconds = l.defaultCacheSeconds
	}
	config.CacheSeconds = database.ClampCacheSeconds(config.CacheSeconds)
}

// validate validates a definition
func (l *Loader) validate(config *FeedConfig) error {
	if config.URL == "" {
		return fmt.Errorf("feed URL is required")
	}
	if config.Type != database.FeedTypeStatic && config.Type != database.FeedTypeDynamic {
		return fmt.Errorf("feed type must be %q or %q, got %q",
			database.FeedTypeStatic, database.FeedTypeDynamic, config.Type)
	}

	return nil
}
