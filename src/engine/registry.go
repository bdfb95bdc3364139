package engine

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/parakeet-chat/parakeet/src/concurrent"
	"github.com/parakeet-chat/parakeet/src/provider"
)

// Registry caches one engine per account for the application session.
// Concurrent first-access from several tabs constructs exactly one engine;
// the losers observe the cached instance.
type Registry struct {
	mu      sync.RWMutex
	engines map[uuid.UUID]Engine
	group   singleflight.Group

	// construct is replaceable in tests.
	construct func(ctx context.Context, account provider.Account) (Engine, error)
}

// NewRegistry creates a registry backed by the default engine factory.
func NewRegistry() *Registry {
	return &Registry{
		engines:   make(map[uuid.UUID]Engine),
		construct: New,
	}
}

// Get returns the account's engine, constructing and caching it on first
// access.
func (r *Registry) Get(ctx context.Context, account provider.Account) (Engine, error) {
	r.mu.RLock()
	eng, ok := r.engines[account.ID]
	r.mu.RUnlock()
	if ok {
		return eng, nil
	}

	v, err, _ := r.group.Do(account.ID.String(), func() (any, error) {
		r.mu.RLock()
		cached, ok := r.engines[account.ID]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}
		built, err := r.construct(ctx, account)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.engines[account.ID] = built
		r.mu.Unlock()
		log.Printf("engine ready for account %s (%s)", account.Name, account.Provider.ID)
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Engine), nil
}

// Invalidate drops an account's cached engine, as after a settings change.
func (r *Registry) Invalidate(accountID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, accountID)
}

// Len returns the number of cached engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// WarmUp constructs engines and prefetches model catalogs for the given
// accounts with bounded parallelism. Catalog failures are joined and
// returned; every account is still attempted.
func (r *Registry) WarmUp(ctx context.Context, accounts []provider.Account, maxConcurrency int) error {
	return concurrent.ForEach(ctx, accounts, func(account provider.Account) error {
		eng, err := r.Get(ctx, account)
		if err != nil {
			return err
		}
		if _, err := eng.Models(ctx); err != nil {
			return err
		}
		return nil
	}, maxConcurrency)
}
