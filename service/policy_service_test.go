package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/service"
	"github.com/warden-labs/zerotrust/api/store"
	"github.com/warden-labs/zerotrust/api/util"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

func newPolicyService() (*service.PolicyService, *store.MemoryStore) {
	memStore := store.NewMemoryStore()
	eventBus := util.NewEventBus()
	svc := service.NewPolicyService(
		memStore,
		util.NewValidationUtil(),
		util.NewCacheService(),
		util.NewNotificationService(),
		eventBus,
		nil,
	)
	return svc, memStore
}

func validPolicy(name string) model.Policy {
	return model.Policy{
		Name: name,
		Type: model.PolicyAccess,
		Conditions: []model.Condition{
			{Field: "identity.user_id", Operator: model.OpEquals, Value: "alice", Weight: 1},
		},
		Actions:  []model.Action{{Type: model.ActionAllow}},
		Priority: 10,
		Enabled:  true,
	}
}

func TestCreatePolicyAssignsMetadata(t *testing.T) {
	svc, memStore := newPolicyService()

	created, err := svc.CreatePolicy(context.Background(), validPolicy("Baseline"), "admin")
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, "admin", created.CreatedBy)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := memStore.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Baseline", stored.Name)
}

func TestCreatePolicyRejectsInvalid(t *testing.T) {
	svc, _ := newPolicyService()

	invalid := validPolicy("No Conditions")
	invalid.Conditions = nil

	_, err := svc.CreatePolicy(context.Background(), invalid, "admin")
	assert.Error(t, err)
}

func TestUpdatePolicyBumpsVersion(t *testing.T) {
	svc, _ := newPolicyService()
	ctx := context.Background()

	created, err := svc.CreatePolicy(ctx, validPolicy("Baseline"), "admin")
	require.NoError(t, err)

	changed := *created
	changed.Priority = 99

	updated, err := svc.UpdatePolicy(ctx, changed, "operator")
	require.NoError(t, err)

	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 99, updated.Priority)
	// Creation metadata survives updates.
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "admin", updated.CreatedBy)
}

func TestUpdatePolicySkipsNoopChanges(t *testing.T) {
	svc, _ := newPolicyService()
	ctx := context.Background()

	created, err := svc.CreatePolicy(ctx, validPolicy("Baseline"), "admin")
	require.NoError(t, err)

	updated, err := svc.UpdatePolicy(ctx, *created, "operator")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Version)
}

func TestUpdatePolicyNotFound(t *testing.T) {
	svc, _ := newPolicyService()

	missing := validPolicy("Ghost")
	missing.ID = "does-not-exist"

	_, err := svc.UpdatePolicy(context.Background(), missing, "admin")
	assert.ErrorIs(t, err, ztx_errors.ErrPolicyNotFound)
}

func TestListPolicies(t *testing.T) {
	svc, _ := newPolicyService()
	ctx := context.Background()

	_, err := svc.CreatePolicy(ctx, validPolicy("First"), "admin")
	require.NoError(t, err)
	_, err = svc.CreatePolicy(ctx, validPolicy("Second"), "admin")
	require.NoError(t, err)

	policies, err := svc.ListPolicies(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, policies, 2)
}

func TestSearchPolicies(t *testing.T) {
	svc, _ := newPolicyService()
	ctx := context.Background()

	_, err := svc.CreatePolicy(ctx, validPolicy("Contractor block"), "admin")
	require.NoError(t, err)
	_, err = svc.CreatePolicy(ctx, validPolicy("Baseline"), "admin")
	require.NoError(t, err)

	found, err := svc.SearchPolicies(ctx, model.PolicySearchCriteria{Name: "contractor"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Contractor block", found[0].Name)
}

func TestBulkCreatePolicies(t *testing.T) {
	svc, memStore := newPolicyService()
	ctx := context.Background()

	policies := []model.Policy{
		validPolicy("Bulk 1"),
		validPolicy("Bulk 2"),
		validPolicy("Bulk 3"),
	}

	ids, err := svc.BulkCreatePolicies(ctx, policies, "admin")
	require.NoError(t, err)
	require.Len(t, ids, 3)

	for _, id := range ids {
		assert.NotEmpty(t, id)
		_, err := memStore.Get(ctx, id)
		assert.NoError(t, err)
	}
}

func TestBulkCreatePoliciesFailsOnInvalidEntry(t *testing.T) {
	svc, _ := newPolicyService()

	bad := validPolicy("Bad")
	bad.Actions = nil

	_, err := svc.BulkCreatePolicies(context.Background(), []model.Policy{validPolicy("Good"), bad}, "admin")
	assert.Error(t, err)
}
