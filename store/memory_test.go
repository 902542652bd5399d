package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	"github.com/warden-labs/zerotrust/api/model"
)

func storedPolicy(id string, priority int) model.Policy {
	return model.Policy{
		ID:       id,
		Name:     "policy " + id,
		Type:     model.PolicyAccess,
		Priority: priority,
		Enabled:  true,
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storedPolicy("p1", 10)))

	got, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	// Mutating the returned copy must not leak into the store.
	got.Name = "mutated"
	again, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "policy p1", again.Name)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ztx_errors.ErrPolicyNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storedPolicy("p1", 10)))
	require.NoError(t, s.Delete(ctx, "p1"))

	_, err := s.Get(ctx, "p1")
	assert.ErrorIs(t, err, ztx_errors.ErrPolicyNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "p1"), ztx_errors.ErrPolicyNotFound)
}

func TestMemoryStoreListOrdering(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, storedPolicy("b", 10)))
	require.NoError(t, s.Put(ctx, storedPolicy("a", 10)))
	require.NoError(t, s.Put(ctx, storedPolicy("c", 50)))

	policies, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, policies, 3)
	assert.Equal(t, "c", policies[0].ID)
	assert.Equal(t, "a", policies[1].ID)
	assert.Equal(t, "b", policies[2].ID)
}

func TestMemoryStoreListPagination(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Put(ctx, storedPolicy(id, 10)))
	}

	page, err := s.List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].ID)
	assert.Equal(t, "c", page[1].ID)

	past, err := s.List(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestMemoryStoreSearch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	contractor := storedPolicy("contractor-block", 90)
	contractor.Name = "Block contractor access"
	require.NoError(t, s.Put(ctx, contractor))

	lowPrio := storedPolicy("baseline", 5)
	require.NoError(t, s.Put(ctx, lowPrio))

	disabled := storedPolicy("retired", 50)
	disabled.Enabled = false
	require.NoError(t, s.Put(ctx, disabled))

	byName, err := s.Search(ctx, model.PolicySearchCriteria{Name: "contractor"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "contractor-block", byName[0].ID)

	enabled := true
	byPriority, err := s.Search(ctx, model.PolicySearchCriteria{MinPriority: 10, Enabled: &enabled})
	require.NoError(t, err)
	require.Len(t, byPriority, 1)
	assert.Equal(t, "contractor-block", byPriority[0].ID)

	limited, err := s.Search(ctx, model.PolicySearchCriteria{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMemoryStoreConcurrentReadersAndWriters(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		id := fmt.Sprintf("p%d", i)
		go func(id string, priority int) {
			defer wg.Done()
			assert.NoError(t, s.Put(ctx, storedPolicy(id, priority)))
		}(id, i)
		go func() {
			defer wg.Done()
			// Listed policies are snapshots; a concurrent Put must never
			// surface a half-written entry.
			policies, err := s.List(ctx, 0, 0)
			assert.NoError(t, err)
			for _, p := range policies {
				assert.NotEmpty(t, p.ID)
				assert.Equal(t, "policy "+p.ID, p.Name)
			}
		}()
	}
	wg.Wait()

	policies, err := s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, policies, 8)
}
