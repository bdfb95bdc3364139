package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/parakeet-chat/parakeet/src/provider"
)

func testAccount(t *testing.T, providerID string) provider.Account {
	t.Helper()
	p, err := provider.Get(providerID)
	if err != nil {
		t.Fatal(err)
	}
	acc, err := provider.NewAccount("test", p, "test-key", "", provider.SourceConfig)
	if err != nil {
		t.Fatal(err)
	}
	return acc
}

func TestRegistryConstructsOncePerAccount(t *testing.T) {
	var built atomic.Int32
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		built.Add(1)
		return NewDummyEngine(), nil
	}
	acc := testAccount(t, "openai")

	const callers = 16
	engines := make([]Engine, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			eng, err := r.Get(context.Background(), acc)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			engines[i] = eng
		}(i)
	}
	wg.Wait()

	if built.Load() != 1 {
		t.Fatalf("engine constructed %d times, want 1", built.Load())
	}
	for i := 1; i < callers; i++ {
		if engines[i] != engines[0] {
			t.Fatal("callers observed different engine instances")
		}
	}
	if r.Len() != 1 {
		t.Fatalf("registry len = %d", r.Len())
	}
}

func TestRegistryKeysByAccount(t *testing.T) {
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		return NewDummyEngine(), nil
	}
	a := testAccount(t, "openai")
	b := testAccount(t, "openai")

	engA, _ := r.Get(context.Background(), a)
	engB, _ := r.Get(context.Background(), b)
	if engA == engB {
		t.Fatal("distinct accounts must get distinct engines")
	}
	if r.Len() != 2 {
		t.Fatalf("registry len = %d", r.Len())
	}
}

func TestRegistryConstructionFailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("transient construction failure")
		}
		return NewDummyEngine(), nil
	}
	acc := testAccount(t, "openai")

	if _, err := r.Get(context.Background(), acc); err == nil {
		t.Fatal("expected the first construction to fail")
	}
	if _, err := r.Get(context.Background(), acc); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("construct called %d times, want 2", calls.Load())
	}
}

func TestRegistryInvalidate(t *testing.T) {
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		return NewDummyEngine(), nil
	}
	acc := testAccount(t, "openai")

	first, _ := r.Get(context.Background(), acc)
	r.Invalidate(acc.ID)
	second, _ := r.Get(context.Background(), acc)
	if first == second {
		t.Fatal("invalidate must force reconstruction")
	}
}

func TestWarmUpPrefetchesCatalogs(t *testing.T) {
	var catalogFetches atomic.Int32
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		eng := NewDummyEngine()
		eng.Catalog = nil
		eng.CatalogErr = nil
		return &countingEngine{DummyEngine: eng, fetches: &catalogFetches}, nil
	}

	accounts := []provider.Account{
		testAccount(t, "openai"),
		testAccount(t, "anthropic"),
		testAccount(t, "ollama"),
	}
	if err := r.WarmUp(context.Background(), accounts, 2); err != nil {
		t.Fatalf("WarmUp: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("registry len = %d", r.Len())
	}
	if catalogFetches.Load() != 3 {
		t.Fatalf("catalog fetches = %d", catalogFetches.Load())
	}
}

func TestWarmUpJoinsFailuresButTriesEveryAccount(t *testing.T) {
	boom := errors.New("no such host")
	r := NewRegistry()
	r.construct = func(ctx context.Context, account provider.Account) (Engine, error) {
		eng := NewDummyEngine()
		if account.Provider.ID == "anthropic" {
			eng.CatalogErr = boom
		}
		return eng, nil
	}

	accounts := []provider.Account{
		testAccount(t, "openai"),
		testAccount(t, "anthropic"),
		testAccount(t, "ollama"),
	}
	err := r.WarmUp(context.Background(), accounts, 2)
	if !errors.Is(err, boom) {
		t.Fatalf("joined error lost the cause: %v", err)
	}
	if r.Len() != 3 {
		t.Fatalf("failures must not stop other accounts, len=%d", r.Len())
	}
}

// countingEngine counts catalog fetches on top of the dummy.
type countingEngine struct {
	*DummyEngine
	fetches *atomic.Int32
}

func (c *countingEngine) Models(ctx context.Context) ([]provider.AIModel, error) {
	c.fetches.Add(1)
	return c.DummyEngine.Models(ctx)
}
