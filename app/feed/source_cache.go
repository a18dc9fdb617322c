package feed

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	maxCategoryLength = 100
	maxURLLength      = 500
)

type SourceCache struct {
	sourcesDir string
	cache      map[string]*Source
	mu         sync.RWMutex
}

func NewSourceCache(sourcesDir string) *SourceCache {
	return &SourceCache{
		sourcesDir: sourcesDir,
		cache:      make(map[string]*Source),
	}
}

// Run loads every source file. Invalid files are skipped and reported together in the returned error.
func (sc *SourceCache) Run() error {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	var errs []error
	for _, file := range files {
		id := strings.TrimSuffix(filepath.Base(file), ".yml")

		source, err := sc.LoadSource(id)
		if err != nil {
			slog.Warn("Skipping feed source", "file", file, "error", err)
			errs = append(errs, fmt.Errorf("error loading %s: %w", file, err))
			continue
		}

		slog.Debug("Feed source loaded", "id", id, "name", source.Name, "enabled", source.IsEnabled())
	}

	return errors.Join(errs...)
}

func (sc *SourceCache) LoadSource(id string) (*Source, error) {
	sourceFile := sc.getSourceFilePath(id)
	source, err := sc.parseSource(sourceFile)
	if err != nil {
		return nil, err
	}

	source.ID = id
	source.Name = cmp.Or(strings.TrimSpace(source.Name), id)

	if err := sc.validateSource(source); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", sourceFile, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[source.ID] = source

	return source, nil
}

func (sc *SourceCache) GetSource(id string) (*Source, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	source, ok := sc.cache[id]
	if !ok {
		return nil, fmt.Errorf("feed source with id '%s' not found", id)
	}
	return source, nil
}

// GetSources returns every loaded source ordered by name
func (sc *SourceCache) GetSources() []*Source {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sources := make([]*Source, 0, len(sc.cache))
	for _, source := range sc.cache {
		sources = append(sources, source)
	}
	sortSources(sources)
	return sources
}

// GetEnabledSources returns enabled sources ordered by name
func (sc *SourceCache) GetEnabledSources() []*Source {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sources := make([]*Source, 0, len(sc.cache))
	for _, source := range sc.cache {
		if source.IsEnabled() {
			sources = append(sources, source)
		}
	}
	sortSources(sources)
	return sources
}

func (sc *SourceCache) GetSourceCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func sortSources(sources []*Source) {
	slices.SortFunc(sources, func(a, b *Source) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}

func (sc *SourceCache) parseSource(sourceFile string) (*Source, error) {
	data, err := os.ReadFile(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var source Source
	if err := yaml.Unmarshal(data, &source); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	source.URL = strings.TrimSpace(source.URL)
	source.FeedURL = strings.TrimSpace(source.FeedURL)
	source.LogoURL = strings.TrimSpace(source.LogoURL)
	source.Category = strings.TrimSpace(source.Category)

	return &source, nil
}

func (sc *SourceCache) validateSource(source *Source) error {
	if source == nil {
		return fmt.Errorf("source is nil")
	}

	if utf8.RuneCountInString(source.Category) > maxCategoryLength {
		return fmt.Errorf("category exceeds %d characters", maxCategoryLength)
	}

	urlFields := map[string]string{
		"url":      source.URL,
		"feed_url": source.FeedURL,
		"logo_url": source.LogoURL,
	}

	for fieldName, fieldValue := range urlFields {
		if fieldValue == "" {
			continue
		}
		if utf8.RuneCountInString(fieldValue) > maxURLLength {
			return fmt.Errorf("%s exceeds %d characters", fieldName, maxURLLength)
		}
		if _, err := url.Parse(fieldValue); err != nil {
			return fmt.Errorf("invalid %s: %w", fieldName, err)
		}
	}

	return nil
}

func (sc *SourceCache) getSourceFilePath(id string) string {
	return filepath.Join(sc.sourcesDir, id+".yml")
}
