package store_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innovationhub/store"
	memstore "github.com/innovationhub/store/memory"
)

func TestRegistryMemoizesHandlers(t *testing.T) {
	r := newRegistry(t, memstore.New())

	first, err := r.Handler("Challenge")
	require.NoError(t, err)
	second, err := r.Handler("Challenge")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "Challenge", first.Entity())
	assert.Equal(t, "challenges", first.Table())
}

func TestRegistryConcurrentFirstUse(t *testing.T) {
	r := newRegistry(t, memstore.New())

	const workers = 32
	got := make([]*store.Handler, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.MustHandler("Pilot")
		}(i)
	}
	wg.Wait()

	for _, h := range got {
		assert.Same(t, got[0], h)
	}
	assert.Equal(t, []string{"Pilot"}, r.Entities())
}

func TestRegistryIsolation(t *testing.T) {
	a := newRegistry(t, memstore.New())
	b := newRegistry(t, memstore.New())

	assert.NotSame(t, a.MustHandler("Challenge"), b.MustHandler("Challenge"))
}

func TestRegistryBlankName(t *testing.T) {
	r := newRegistry(t, memstore.New())

	for _, name := range []string{"", "   "} {
		_, err := r.Handler(name)
		assert.ErrorIs(t, err, store.ErrInvalidInput)
		assert.True(t, store.IsValidationError(err))
	}
	assert.Empty(t, r.Entities())
	assert.Panics(t, func() { r.MustHandler("") })
}

func TestRegistryLookup(t *testing.T) {
	r := newRegistry(t, memstore.New())

	_, ok := r.Lookup("Challenge")
	assert.False(t, ok)
	assert.Empty(t, r.Entities())

	built := r.MustHandler("Challenge")
	h, ok := r.Lookup("Challenge")
	assert.True(t, ok)
	assert.Same(t, built, h)
}

func TestRegistryEntitiesSorted(t *testing.T) {
	r := newRegistry(t, memstore.New())
	for _, name := range []string{"Pilot", "Challenge", "RDProject"} {
		r.MustHandler(name)
	}
	assert.Equal(t, []string{"Challenge", "Pilot", "RDProject"}, r.Entities())
}

func TestRegistryCustomFactory(t *testing.T) {
	r := newRegistry(t, memstore.New())

	var calls int
	require.NoError(t, r.Register("UserFollow", func(backend store.Backend, entity, table string, opts ...store.HandlerOption) *store.Handler {
		calls++
		return store.NewHandler(backend, entity, table, append(opts, store.WithoutSoftDelete())...)
	}))

	h := r.MustHandler("UserFollow")
	r.MustHandler("UserFollow")
	assert.Equal(t, 1, calls)
	assert.Equal(t, "follows", h.Table())
	assert.False(t, h.SoftDelete())

	err := r.Register("UserFollow", store.NewHandler)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestRegistryRejectsBadFactories(t *testing.T) {
	r := newRegistry(t, memstore.New())

	assert.Error(t, r.Register("Challenge", nil))
	assert.Error(t, r.Register("", store.NewHandler))

	require.NoError(t, r.Register("Pilot", func(store.Backend, string, string, ...store.HandlerOption) *store.Handler {
		return nil
	}))
	_, err := r.Handler("Pilot")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
	_, ok := r.Lookup("Pilot")
	assert.False(t, ok)
}

func TestRegistryTableOverrides(t *testing.T) {
	cfg := store.DefaultConfig().Entities
	cfg.Tables["Challenge"] = "municipal_challenges"
	r := newRegistry(t, memstore.New(), store.WithEntityConfig(cfg))

	assert.Equal(t, "municipal_challenges", r.MustHandler("Challenge").Table())
	assert.Equal(t, "municipal_challenges", r.Resolver().Resolve("Challenge"))
}

func TestRegistryWithResolver(t *testing.T) {
	resolver := store.NewResolver(nil, map[string]string{"Pilot": "pilot_projects"})
	r := newRegistry(t, memstore.New(), store.WithResolver(resolver))

	assert.Same(t, resolver, r.Resolver())
	assert.Equal(t, "pilot_projects", r.MustHandler("Pilot").Table())
}
