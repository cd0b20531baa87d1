package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"nextrep/internal/storage"
	"nextrep/pkg/logger"
)

// lookupResult classifies a raw read before it reaches the public API.
// Faults never escape: Get maps lookupFault to a miss.
type lookupResult int

const (
	lookupMiss lookupResult = iota
	lookupHit
	lookupStale
	lookupFault
)

func (r lookupResult) String() string {
	switch r {
	case lookupHit:
		return "hit"
	case lookupStale:
		return "stale"
	case lookupFault:
		return "fault"
	default:
		return "miss"
	}
}

// Info describes the entry stored under a key without reading its payload
type Info struct {
	Exists       bool
	CreatedAt    time.Time
	ExpiresAt    time.Time
	RemainingTTL time.Duration
}

// Handle is the type-independent surface of a Store, used for
// administration and diagnostics
type Handle interface {
	Prefix() string
	DefaultTTL() time.Duration
	Remove(ctx context.Context, key string)
	Clear(ctx context.Context)
	Info(ctx context.Context, key string) Info
	IsValid(ctx context.Context, key string) bool
	Stats() StatsSnapshot
}

type options struct {
	codec  Codec
	clock  Clock
	logger *logger.Logger
}

// Option configures a Store
type Option func(*options)

// WithCodec selects the entry serialization format
func WithCodec(c Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithClock overrides the time source
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for fault diagnostics
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Store is a namespaced, TTL-bounded cache of T values on top of a
// Substrate. Its methods never return errors: substrate and codec faults
// are logged and degrade to a miss or a no-op.
type Store[T any] struct {
	substrate storage.Substrate
	ns        Namespace
	codec     Codec
	clock     Clock
	log       *logger.Logger
	stats     Stats
}

var _ Handle = (*Store[any])(nil)

// New creates a Store for one namespace
func New[T any](substrate storage.Substrate, ns Namespace, opts ...Option) *Store[T] {
	o := options{codec: JSONCodec{}, clock: SystemClock, logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	ns = ns.withDefaults()

	return &Store[T]{
		substrate: substrate,
		ns:        ns,
		codec:     o.codec,
		clock:     o.clock,
		log:       o.logger.WithFields(map[string]interface{}{"namespace": ns.KeyPrefix}),
	}
}

// Prefix returns the namespace key prefix
func (s *Store[T]) Prefix() string { return s.ns.KeyPrefix }

// DefaultTTL returns the TTL applied by Set
func (s *Store[T]) DefaultTTL() time.Duration { return s.ns.DefaultTTL }

// Stats returns the namespace counters
func (s *Store[T]) Stats() StatsSnapshot { return s.stats.snapshot() }

// Set caches value under key for the namespace default TTL
func (s *Store[T]) Set(ctx context.Context, key string, value T) {
	s.SetWithTTL(ctx, key, value, s.ns.DefaultTTL)
}

// SetWithTTL caches value under key for ttl. A non-positive ttl falls back
// to the namespace default.
func (s *Store[T]) SetWithTTL(ctx context.Context, key string, value T, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.ns.DefaultTTL
	}
	ttlMs := ttl.Milliseconds()
	if ttlMs < 1 {
		ttlMs = 1
	}

	now := millis(s.clock.Now())
	raw, err := s.codec.Encode(entry[T]{Data: value, CreatedAt: now, ExpiresAt: now + ttlMs})
	if err != nil {
		s.fault("cache set: encode failed", key, err)
		return
	}
	if err := s.substrate.SetItem(ctx, s.ns.key(key), raw); err != nil {
		s.fault("cache set: write failed", key, err)
		return
	}
	s.stats.writes.Inc()
}

// Get returns the cached value and true when a fresh entry exists. Stale
// entries are evicted on the way out.
func (s *Store[T]) Get(ctx context.Context, key string) (T, bool) {
	var zero T

	e, result := s.lookup(ctx, key)
	s.log.Debugw("cache lookup", "key", key, "result", result.String())
	switch result {
	case lookupHit:
		s.stats.hits.Inc()
		return e.Data, true
	case lookupStale:
		s.stats.stale.Inc()
		s.Remove(ctx, key)
	case lookupMiss:
		s.stats.misses.Inc()
	}
	return zero, false
}

func (s *Store[T]) lookup(ctx context.Context, key string) (entry[T], lookupResult) {
	var e entry[T]

	raw, err := s.substrate.GetItem(ctx, s.ns.key(key))
	if errors.Is(err, storage.ErrNotFound) {
		return e, lookupMiss
	}
	if err != nil {
		s.fault("cache get: read failed", key, err)
		return e, lookupFault
	}
	if err := s.codec.Decode(raw, &e); err != nil {
		s.fault("cache get: decode failed", key, err)
		return e, lookupFault
	}

	header := entryHeader{CreatedAt: e.CreatedAt, ExpiresAt: e.ExpiresAt}
	if !header.freshAt(millis(s.clock.Now())) {
		return e, lookupStale
	}
	return e, lookupHit
}

// Remove deletes the entry under key. Removing an absent key is a no-op.
func (s *Store[T]) Remove(ctx context.Context, key string) {
	if err := s.substrate.RemoveItem(ctx, s.ns.key(key)); err != nil {
		s.fault("cache remove failed", key, err)
		return
	}
	s.stats.removals.Inc()
}

// Clear removes every entry under this namespace's prefix and nothing else
func (s *Store[T]) Clear(ctx context.Context) {
	keys, err := s.substrate.GetAllKeys(ctx)
	if err != nil {
		s.fault("cache clear: list keys failed", "", err)
		return
	}

	owned := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, s.ns.KeyPrefix) {
			owned = append(owned, k)
		}
	}
	if len(owned) == 0 {
		return
	}

	if err := s.substrate.MultiRemove(ctx, owned); err != nil {
		s.fault("cache clear: remove failed", "", err)
		return
	}
	s.stats.removals.Add(int64(len(owned)))
	s.log.Debugw("cache cleared", "removed", len(owned))
}

// Info reports whether an entry is stored under key and its timestamps.
// A stale entry still reports Exists with zero RemainingTTL; Info never evicts.
func (s *Store[T]) Info(ctx context.Context, key string) Info {
	raw, err := s.substrate.GetItem(ctx, s.ns.key(key))
	if errors.Is(err, storage.ErrNotFound) {
		return Info{}
	}
	if err != nil {
		s.fault("cache info: read failed", key, err)
		return Info{}
	}

	var h entryHeader
	if err := s.codec.Decode(raw, &h); err != nil {
		s.fault("cache info: decode failed", key, err)
		return Info{}
	}

	return Info{
		Exists:       true,
		CreatedAt:    time.UnixMilli(h.CreatedAt),
		ExpiresAt:    time.UnixMilli(h.ExpiresAt),
		RemainingTTL: h.remaining(millis(s.clock.Now())),
	}
}

// IsValid reports whether a fresh entry with time left exists under key
func (s *Store[T]) IsValid(ctx context.Context, key string) bool {
	info := s.Info(ctx, key)
	return info.Exists && info.RemainingTTL > 0
}

func (s *Store[T]) fault(msg, key string, err error) {
	s.stats.faults.Inc()
	if key == "" {
		s.log.Warnw(msg, "error", err)
		return
	}
	s.log.Warnw(msg, "key", key, "error", err)
}
