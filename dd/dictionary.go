package dd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

type dictionaryFile struct {
	Version string                         `yaml:"version"`
	IDS     map[string]map[string]PathMeta `yaml:"ids"`
}

// ParseDictionary parses a Data Dictionary metadata document.
func ParseDictionary(data []byte) (*Metadata, error) {
	var f dictionaryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file: %w", err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("dictionary file is missing a version")
	}
	meta := &Metadata{Version: f.Version, ids: make(map[string]*IDSMeta, len(f.IDS))}
	for name, paths := range f.IDS {
		if paths == nil {
			paths = map[string]PathMeta{}
		}
		meta.ids[name] = &IDSMeta{Name: name, paths: paths}
	}
	return meta, nil
}

// FileCatalog is a Catalog backed by a directory of per-version dictionary
// files named "<version>.yaml". Parsed metadata is memoized per version and
// never invalidated; the catalog is safe for concurrent use.
type FileCatalog struct {
	dir    string
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*Metadata
}

// NewFileCatalog creates a catalog reading dictionary files from dir.
func NewFileCatalog(dir string, logger *slog.Logger) *FileCatalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileCatalog{dir: dir, logger: logger, cache: make(map[string]*Metadata)}
}

// Metadata loads (or returns the memoized) metadata for version.
func (c *FileCatalog) Metadata(version string) (*Metadata, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if meta, ok := c.cache[version]; ok {
		return meta, nil
	}

	path := filepath.Join(c.dir, version+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("Data Dictionary version '%s' cannot be found", version)
		}
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}
	meta, err := ParseDictionary(data)
	if err != nil {
		return nil, err
	}
	if meta.Version != version {
		return nil, fmt.Errorf("dictionary file %s declares version %s", path, meta.Version)
	}
	c.logger.Debug("Loaded Data Dictionary metadata", slog.String("version", version), slog.String("path", path))
	c.cache[version] = meta
	return meta, nil
}
