// test/mock/service.go
package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/warden-labs/zerotrust/api/model"
)

// MockPolicyService is a mock implementation of service.IPolicyService
type MockPolicyService struct {
	mock.Mock
}

func (m *MockPolicyService) CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	args := m.Called(ctx, policy, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	args := m.Called(ctx, policy, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) DeletePolicy(ctx context.Context, policyID string, userID string) error {
	args := m.Called(ctx, policyID, userID)
	return args.Error(0)
}

func (m *MockPolicyService) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Policy), args.Error(1)
}

func (m *MockPolicyService) ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Policy), args.Error(1)
}

func (m *MockPolicyService) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	args := m.Called(ctx, criteria)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Policy), args.Error(1)
}

func (m *MockPolicyService) BulkCreatePolicies(ctx context.Context, policies []model.Policy, userID string) ([]string, error) {
	args := m.Called(ctx, policies, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAccessService is a mock implementation of service.IAccessService
type MockAccessService struct {
	mock.Mock
}

func (m *MockAccessService) EvaluateAccess(ctx context.Context, request model.AccessRequest) (*model.AccessDecision, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AccessDecision), args.Error(1)
}

func (m *MockAccessService) RecordTrustSignal(ctx context.Context, signal model.TrustSignal) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}
