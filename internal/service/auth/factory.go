package auth

import (
	"sync"

	"github.com/palaska/tasks-api/internal/platform/database"
)

// Factory builds the Provider for a database handle.
type Factory interface {
	New(db *database.DB) (Provider, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc func(db *database.DB) (Provider, error)

// New calls f.
func (f FactoryFunc) New(db *database.DB) (Provider, error) {
	return f(db)
}

// NewFactory returns a Factory that builds a fresh SessionProvider on every call.
func NewFactory(deps Dependencies) Factory {
	return FactoryFunc(func(db *database.DB) (Provider, error) {
		if db == nil {
			return nil, ErrNilDatabase
		}
		return NewSessionProvider(db, deps)
	})
}

// CachingFactory memoises providers per database handle. Entries are keyed by
// handle identity, so a cached provider is only ever returned for the exact
// handle it was built with.
type CachingFactory struct {
	inner Factory

	mu        sync.Mutex
	providers map[*database.DB]Provider
}

var _ Factory = (*CachingFactory)(nil)

// NewCachingFactory wraps inner with a per-handle cache.
func NewCachingFactory(inner Factory) *CachingFactory {
	return &CachingFactory{
		inner:     inner,
		providers: make(map[*database.DB]Provider),
	}
}

// New returns the cached provider for db, building it on first use. Build
// failures are not cached.
func (f *CachingFactory) New(db *database.DB) (Provider, error) {
	if db == nil {
		return nil, ErrNilDatabase
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if p, ok := f.providers[db]; ok {
		return p, nil
	}
	p, err := f.inner.New(db)
	if err != nil {
		return nil, err
	}
	f.providers[db] = p
	return p, nil
}

// Forget drops the provider cached for db, e.g. after the handle is closed.
func (f *CachingFactory) Forget(db *database.DB) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.providers, db)
}

// Len reports how many providers are cached.
func (f *CachingFactory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.providers)
}
