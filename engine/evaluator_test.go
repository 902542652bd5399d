package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/store"
)

type failingStore struct{}

func (failingStore) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	return nil, errors.New("store down")
}
func (failingStore) Put(ctx context.Context, policy model.Policy) error {
	return errors.New("store down")
}
func (failingStore) Delete(ctx context.Context, policyID string) error {
	return errors.New("store down")
}
func (failingStore) List(ctx context.Context, limit, offset int) ([]*model.Policy, error) {
	return nil, errors.New("store down")
}
func (failingStore) Search(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	return nil, errors.New("store down")
}

func matchingPolicy(id string, effect model.ActionType) *model.Policy {
	policy := enabledPolicy(id, 10, wildcardScope())
	policy.Conditions = []model.Condition{
		{Field: "identity.user_id", Operator: model.OpEquals, Value: "alice", Weight: 1},
	}
	policy.Actions = []model.Action{{Type: effect}}
	return policy
}

func seededEvaluator(t *testing.T, policies ...*model.Policy) *Evaluator {
	t.Helper()
	memStore := store.NewMemoryStore()
	for _, policy := range policies {
		require.NoError(t, memStore.Put(context.Background(), *policy))
	}
	return NewEvaluator(memStore, nil, nil, nil, DefaultParams())
}

func TestEvaluateAllowPath(t *testing.T) {
	evaluator := seededEvaluator(t, matchingPolicy("allow-all", model.ActionAllow))

	decision, trace := evaluator.Evaluate(context.Background(), healthyRequest())

	assert.Equal(t, model.DecisionAllow, decision.Decision)
	require.NotNil(t, decision.ExpiresAt)
	assert.Equal(t, []string{"allow-all"}, trace.MatchedPolicies)
	require.NotNil(t, trace.Risk)
	assert.Equal(t, model.RiskLow, trace.Risk.Level)
	assert.Empty(t, trace.Conflicts)
	assert.Greater(t, trace.Duration, time.Duration(0))
}

func TestEvaluateDenyPath(t *testing.T) {
	evaluator := seededEvaluator(t, matchingPolicy("block", model.ActionDeny))

	decision, _ := evaluator.Evaluate(context.Background(), healthyRequest())

	assert.Equal(t, model.DecisionDeny, decision.Decision)
	assert.Nil(t, decision.ExpiresAt)
}

func TestEvaluateConflictFlagsReview(t *testing.T) {
	evaluator := seededEvaluator(t,
		matchingPolicy("allow", model.ActionAllow),
		matchingPolicy("deny", model.ActionDeny),
	)

	decision, trace := evaluator.Evaluate(context.Background(), healthyRequest())

	assert.Equal(t, model.DecisionDeny, decision.Decision)
	assert.True(t, decision.ReviewRequired)
	require.Len(t, trace.Conflicts, 1)
	assert.Equal(t, model.ConflictPrecedence, trace.Conflicts[0].Type)
	assert.Equal(t, "deny_wins", trace.Conflicts[0].Resolution)
}

func TestEvaluateNoPoliciesDenies(t *testing.T) {
	evaluator := seededEvaluator(t)

	decision, _ := evaluator.Evaluate(context.Background(), healthyRequest())

	assert.Equal(t, model.DecisionDeny, decision.Decision)
	assert.Equal(t, 100.0, decision.Confidence)
}

func TestEvaluateStoreFailureFailsClosed(t *testing.T) {
	evaluator := NewEvaluator(failingStore{}, nil, nil, nil, DefaultParams())

	decision, _ := evaluator.Evaluate(context.Background(), healthyRequest())

	assert.Equal(t, model.DecisionDeny, decision.Decision)
	assert.Equal(t, 100.0, decision.Confidence)
	assert.True(t, decision.ReviewRequired)
	assert.Contains(t, decision.Reasons, "policy store unavailable")
}

func TestEvaluateCachesAllowDecisions(t *testing.T) {
	cache, err := NewDecisionCache(100, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	memStore := store.NewMemoryStore()
	policy := matchingPolicy("allow-all", model.ActionAllow)
	require.NoError(t, memStore.Put(context.Background(), *policy))
	evaluator := NewEvaluator(memStore, nil, cache, nil, DefaultParams())

	first, _ := evaluator.Evaluate(context.Background(), healthyRequest())
	require.Equal(t, model.DecisionAllow, first.Decision)

	// Ristretto applies writes asynchronously.
	cache.Wait()

	cached, found := cache.Get(CacheKey(healthyRequest()))
	require.True(t, found)
	assert.Equal(t, first.Decision, cached.Decision)

	second, _ := evaluator.Evaluate(context.Background(), healthyRequest())
	assert.Equal(t, model.DecisionAllow, second.Decision)
}

func TestEvaluateDenyNotCached(t *testing.T) {
	cache, err := NewDecisionCache(100, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	memStore := store.NewMemoryStore()
	require.NoError(t, memStore.Put(context.Background(), *matchingPolicy("block", model.ActionDeny)))
	evaluator := NewEvaluator(memStore, nil, cache, nil, DefaultParams())

	decision, _ := evaluator.Evaluate(context.Background(), healthyRequest())
	require.Equal(t, model.DecisionDeny, decision.Decision)

	cache.Wait()
	_, found := cache.Get(CacheKey(healthyRequest()))
	assert.False(t, found)
}

func TestEvaluateCriticalRiskOverridesAllowMatch(t *testing.T) {
	evaluator := seededEvaluator(t, matchingPolicy("allow-all", model.ActionAllow))

	request := healthyRequest()
	request.Identity.TrustLevel = model.TrustUntrusted
	request.Identity.AuthStrength = model.AuthWeak
	request.Device.Managed = false
	request.Device.Certified = false
	request.Device.Compliance = model.ComplianceRecord{Compliant: false, Score: 10}
	request.Device.Trust = model.DeviceTrust{Level: model.TrustUntrusted, Score: 5}
	request.Network.Reputation = model.NetworkReputation{Score: 2, Blacklisted: true}

	decision, trace := evaluator.Evaluate(context.Background(), request)

	require.NotNil(t, trace.Risk)
	assert.Equal(t, model.RiskCritical, trace.Risk.Level)
	assert.Equal(t, []string{"allow-all"}, trace.MatchedPolicies)
	assert.Equal(t, model.DecisionDeny, decision.Decision)
	assert.True(t, decision.ReviewRequired)
	assert.Nil(t, decision.ExpiresAt)
	assert.Zero(t, decision.Confidence)
}
