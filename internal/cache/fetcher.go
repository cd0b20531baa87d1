package cache

import (
	"context"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"nextrep/pkg/logger"
)

// FetchFunc performs the remote call for a single resource
type FetchFunc[T any] func(ctx context.Context) (T, error)

// KeyFetchFunc performs the remote call for the resource named by key
type KeyFetchFunc[T any] func(ctx context.Context, key string) (T, error)

type fetcherOptions struct {
	singleFlight bool
	logger       *logger.Logger
}

// FetcherOption configures a Fetcher
type FetcherOption func(*fetcherOptions)

// WithSingleFlight makes concurrent misses on the same key share one
// remote call. Off by default: every miss calls the remote independently.
func WithSingleFlight() FetcherOption {
	return func(o *fetcherOptions) {
		o.singleFlight = true
	}
}

// WithFetcherLogger sets the logger used for preload diagnostics
func WithFetcherLogger(l *logger.Logger) FetcherOption {
	return func(o *fetcherOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// Fetcher puts a Store in front of remote lookups (cache-aside)
type Fetcher[T any] struct {
	store  *Store[T]
	log    *logger.Logger
	flight *singleflight.Group
}

// NewFetcher wraps store
func NewFetcher[T any](store *Store[T], opts ...FetcherOption) *Fetcher[T] {
	o := fetcherOptions{logger: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Fetcher[T]{
		store: store,
		log:   o.logger.WithFields(map[string]interface{}{"namespace": store.Prefix()}),
	}
	if o.singleFlight {
		f.flight = &singleflight.Group{}
	}
	return f
}

// Store returns the underlying cache
func (f *Fetcher[T]) Store() *Store[T] {
	return f.store
}

// FetchCached returns the fresh cached value for key, or calls fetch and
// caches its result with the namespace default TTL. Errors from fetch are
// returned unchanged and never cached.
func (f *Fetcher[T]) FetchCached(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	if v, ok := f.store.Get(ctx, key); ok {
		return v, nil
	}

	if f.flight == nil {
		return f.load(ctx, key, fetch)
	}

	// The shared call outlives any one caller; each caller still stops
	// waiting when its own ctx is done.
	ch := f.flight.DoChan(key, func() (interface{}, error) {
		return f.load(context.WithoutCancel(ctx), key, fetch)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		val, _ := res.Val.(T)
		return val, nil
	}
}

func (f *Fetcher[T]) load(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	f.store.Set(ctx, key, v)
	return v, nil
}

// Preload warms the cache for keys concurrently. It waits for every key to
// settle; one failure does not cancel the others. Failures are logged and
// otherwise dropped.
func (f *Fetcher[T]) Preload(ctx context.Context, keys []string, fetch KeyFetchFunc[T]) {
	if len(keys) == 0 {
		return
	}

	var g errgroup.Group
	var failed atomic.Int64

	for _, key := range keys {
		key := key
		g.Go(func() error {
			_, err := f.FetchCached(ctx, key, func(ctx context.Context) (T, error) {
				return fetch(ctx, key)
			})
			if err != nil {
				failed.Inc()
				f.log.Warnw("preload failed", "key", key, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	f.log.Infow("preload finished", "keys", len(keys), "failed", failed.Load())
}
