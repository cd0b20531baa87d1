package cache

import "time"

const (
	// DefaultKeyPrefix is used when a namespace is built without a prefix
	DefaultKeyPrefix = "nextrep_cache_"

	// DefaultTTL applies when a namespace is built without a default TTL
	DefaultTTL = 30 * time.Minute
)

// Namespace partitions one storage substrate into an independent cache.
// Entries live under KeyPrefix+key. Prefixes are expected to be
// collision-free; the Store does not check this, the Registry does.
type Namespace struct {
	KeyPrefix  string
	DefaultTTL time.Duration
}

func (n Namespace) withDefaults() Namespace {
	if n.KeyPrefix == "" {
		n.KeyPrefix = DefaultKeyPrefix
	}
	if n.DefaultTTL <= 0 {
		n.DefaultTTL = DefaultTTL
	}
	return n
}

func (n Namespace) key(logical string) string {
	return n.KeyPrefix + logical
}
