package player

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryIdempotentCreate(t *testing.T) {
	r := NewRegistry()

	a := r.GetOrCreate("g1")
	b := r.GetOrCreate("g1")
	require.Same(t, a, b)

	other := r.GetOrCreate("g2")
	require.NotSame(t, a, other)
	require.ElementsMatch(t, []string{"g1", "g2"}, r.IDs())
}

func TestRegistryRemoveInvalidates(t *testing.T) {
	r := NewRegistry()

	s := r.GetOrCreate("g1")
	r.Remove("g1")

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	require.True(t, closed)

	_, ok := r.Get("g1")
	require.False(t, ok)
	require.NotSame(t, s, r.GetOrCreate("g1"))
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	r := NewRegistry()

	const n = 32
	got := make([]*Session, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.GetOrCreate("g1")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		require.Same(t, got[0], got[i])
	}
}
