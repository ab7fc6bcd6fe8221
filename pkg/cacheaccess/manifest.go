package cacheaccess

import (
	"io"

	"gopkg.in/yaml.v3"

	cacheerrors "github.com/fenwick/cachecoord/errors"
	"github.com/fenwick/cachecoord/pkg/indexedcache"
)

// ManifestEntry declares one cache's name, type tags, and optional TTL
// hint for bulk pre-registration. This is an enrichment over the
// distilled spec's single-cache-at-a-time NewCache API: real deployments
// frequently want to declare their cache topology declaratively.
type ManifestEntry struct {
	Name      string `yaml:"name"`
	KeyType   string `yaml:"keyType"`
	ValueType string `yaml:"valueType"`
	TTLHint   string `yaml:"ttlHint,omitempty"`
}

// Manifest is a YAML document describing a fleet of caches to
// pre-register at startup.
type Manifest struct {
	Caches []ManifestEntry `yaml:"caches"`
}

// LoadManifest parses a YAML manifest from r.
func LoadManifest(r io.Reader) (Manifest, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		return Manifest{}, cacheerrors.Build(cacheerrors.ErrManifestLoad).WithCause(err).Err()
	}
	return m, nil
}

// RegisterStringStringCache pre-registers a string→string cache declared
// in a manifest entry, using the default string serializer on both sides.
// Callers whose manifest declares other key/value type combinations
// should call the generic NewCache directly with the appropriate type
// parameters; this helper exists to exercise the common case declared
// entirely from YAML without per-type Go call sites.
func RegisterStringStringCache(c *CacheAccessCoordinator, entry ManifestEntry) (MultiProcessSafeCache[string, string], error) {
	params := CacheParameters[string, string]{Name: entry.Name}
	return NewCache[string, string](c, params, func(file string, keySer, valSer indexedcache.Serializer[string]) (indexedcache.IndexedCache[string, string], error) {
		return indexedcache.New[string, string](file, 0, keySer, valSer)
	})
}
