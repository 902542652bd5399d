// api/store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	"github.com/warden-labs/zerotrust/api/model"
)

// MemoryStore is an RW-locked in-memory PolicyStore. Reads copy policy values
// out of the map, so an in-flight evaluation keeps a consistent snapshot even
// if an administrative write lands mid-evaluation.
type MemoryStore struct {
	mu       sync.RWMutex
	policies map[string]model.Policy
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		policies: make(map[string]model.Policy),
	}
}

func (s *MemoryStore) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	policy, ok := s.policies[policyID]
	if !ok {
		return nil, ztx_errors.ErrPolicyNotFound
	}
	copied := policy
	return &copied, nil
}

func (s *MemoryStore) Put(ctx context.Context, policy model.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.policies[policy.ID] = policy
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, policyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.policies[policyID]; !ok {
		return ztx_errors.ErrPolicyNotFound
	}
	delete(s.policies, policyID)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit, offset int) ([]*model.Policy, error) {
	s.mu.RLock()
	snapshot := make([]model.Policy, 0, len(s.policies))
	for _, policy := range s.policies {
		snapshot = append(snapshot, policy)
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].Priority != snapshot[j].Priority {
			return snapshot[i].Priority > snapshot[j].Priority
		}
		return snapshot[i].ID < snapshot[j].ID
	})

	if offset > 0 {
		if offset >= len(snapshot) {
			return nil, nil
		}
		snapshot = snapshot[offset:]
	}
	if limit > 0 && limit < len(snapshot) {
		snapshot = snapshot[:limit]
	}

	result := make([]*model.Policy, len(snapshot))
	for i := range snapshot {
		result[i] = &snapshot[i]
	}
	return result, nil
}

func (s *MemoryStore) Search(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	s.mu.RLock()
	snapshot := make([]model.Policy, 0, len(s.policies))
	for _, policy := range s.policies {
		snapshot = append(snapshot, policy)
	}
	s.mu.RUnlock()

	var matched []model.Policy
	for _, policy := range snapshot {
		if criteria.Name != "" && !strings.Contains(strings.ToLower(policy.Name), strings.ToLower(criteria.Name)) {
			continue
		}
		if criteria.Type != "" && policy.Type != criteria.Type {
			continue
		}
		if criteria.MinPriority > 0 && policy.Priority < criteria.MinPriority {
			continue
		}
		if criteria.MaxPriority > 0 && policy.Priority > criteria.MaxPriority {
			continue
		}
		if criteria.Enabled != nil && policy.Enabled != *criteria.Enabled {
			continue
		}
		if !criteria.FromDate.IsZero() && policy.CreatedAt.Before(criteria.FromDate) {
			continue
		}
		if !criteria.ToDate.IsZero() && policy.CreatedAt.After(criteria.ToDate) {
			continue
		}
		matched = append(matched, policy)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})

	if criteria.Limit > 0 && criteria.Limit < len(matched) {
		matched = matched[:criteria.Limit]
	}

	result := make([]*model.Policy, len(matched))
	for i := range matched {
		result[i] = &matched[i]
	}
	return result, nil
}
