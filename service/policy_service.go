package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warden-labs/zerotrust/api/engine"
	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/store"
	"github.com/warden-labs/zerotrust/api/util"
)

type IPolicyService interface {
	CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error)
	UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error)
	DeletePolicy(ctx context.Context, policyID string, userID string) error
	GetPolicy(ctx context.Context, policyID string) (*model.Policy, error)
	ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error)
	SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error)
	BulkCreatePolicies(ctx context.Context, policies []model.Policy, userID string) ([]string, error)
}

// PolicyService handles business logic for policy operations
type PolicyService struct {
	policyStore     store.PolicyStore
	validationUtil  *util.ValidationUtil
	cacheService    *util.CacheService
	notificationSvc *util.NotificationService
	eventBus        *util.EventBus
	metrics         *engine.Metrics
}

// NewPolicyService creates a new instance of PolicyService
func NewPolicyService(policyStore store.PolicyStore, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus, metrics *engine.Metrics) *PolicyService {
	service := &PolicyService{
		policyStore:     policyStore,
		validationUtil:  validationUtil,
		cacheService:    cacheService,
		notificationSvc: notificationSvc,
		eventBus:        eventBus,
		metrics:         metrics,
	}

	// Set up event subscriptions
	eventBus.Subscribe(util.EventPolicyCreated, service.handlePolicyCreated)
	eventBus.Subscribe(util.EventPolicyUpdated, service.handlePolicyUpdated)
	eventBus.Subscribe(util.EventPolicyDeleted, service.handlePolicyDeleted)

	return service
}

func (s *PolicyService) handlePolicyCreated(ctx context.Context, event util.Event) error {
	policy := event.Payload.(model.Policy)
	logger.Info("Policy created event received", zap.String("policyID", policy.ID))

	if err := s.notificationSvc.NotifyPolicyChange(ctx, "created", policy); err != nil {
		logger.Warn("Failed to send policy creation notification", zap.Error(err), zap.String("policyID", policy.ID))
	}
	return nil
}

func (s *PolicyService) handlePolicyUpdated(ctx context.Context, event util.Event) error {
	payload, ok := event.Payload.(map[string]interface{})
	if !ok {
		logger.Error("Invalid event payload type", zap.Any("payload", event.Payload))
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	newPolicy, ok := payload["new"].(model.Policy)
	if !ok {
		logger.Error("New policy not found in event payload", zap.Any("payload", payload))
		return errors.New("new policy not found in event payload")
	}

	logger.Info("Policy updated event received",
		zap.String("policyID", newPolicy.ID),
		zap.Int("version", newPolicy.Version))

	if err := s.notificationSvc.NotifyPolicyChange(ctx, "updated", newPolicy); err != nil {
		logger.Warn("Failed to send policy update notification", zap.Error(err), zap.String("policyID", newPolicy.ID))
	}
	return nil
}

func (s *PolicyService) handlePolicyDeleted(ctx context.Context, event util.Event) error {
	policyID, ok := event.Payload.(string)
	if !ok {
		logger.Error("Invalid event payload type", zap.Any("payload", event.Payload))
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	logger.Info("Policy deleted event received", zap.String("policyID", policyID))

	if err := s.notificationSvc.NotifyPolicyChange(ctx, "deleted", model.Policy{ID: policyID}); err != nil {
		logger.Warn("Failed to send policy deletion notification", zap.Error(err), zap.String("policyID", policyID))
	}
	return nil
}

// CreatePolicy handles the creation of a new policy
func (s *PolicyService) CreatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	if err := s.validationUtil.ValidatePolicy(policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	if policy.ID == "" {
		policy.ID = uuid.New().String()
	}
	policy.CreatedAt = time.Now()
	policy.UpdatedAt = time.Now()
	policy.Version = 1
	policy.CreatedBy = userID

	err := s.policyStore.Put(ctx, policy)
	s.recordOp("create", err)
	if err != nil {
		logger.Error("Error creating policy", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}

	// Update cache
	if err := s.cacheService.SetPolicy(ctx, policy); err != nil {
		logger.Warn("Failed to cache policy", zap.Error(err), zap.String("policyID", policy.ID))
	}

	// Publish event for asynchronous processing
	s.eventBus.Publish(ctx, util.EventPolicyCreated, policy)

	logger.Info("Policy created successfully", zap.String("policyID", policy.ID), zap.String("userID", userID))
	return &policy, nil
}

// UpdatePolicy handles updates to an existing policy
func (s *PolicyService) UpdatePolicy(ctx context.Context, policy model.Policy, userID string) (*model.Policy, error) {
	if err := s.validationUtil.ValidatePolicy(policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	oldPolicy, err := s.policyStore.Get(ctx, policy.ID)
	if err != nil {
		logger.Error("Error retrieving existing policy", zap.Error(err), zap.String("policyID", policy.ID))
		return nil, err
	}

	// Check if there are any differences between the old and new policies
	if !s.hasPolicyChanged(oldPolicy, &policy) {
		logger.Info("No changes detected in the policy, skipping update", zap.String("policyID", policy.ID))
		return oldPolicy, nil
	}

	policy.CreatedAt = oldPolicy.CreatedAt
	policy.CreatedBy = oldPolicy.CreatedBy
	policy.UpdatedAt = time.Now()
	policy.Version = oldPolicy.Version + 1

	err = s.policyStore.Put(ctx, policy)
	s.recordOp("update", err)
	if err != nil {
		logger.Error("Error updating policy", zap.Error(err), zap.String("policyID", policy.ID), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to update policy: %w", err)
	}

	// Update cache
	if err := s.cacheService.SetPolicy(ctx, policy); err != nil {
		logger.Warn("Failed to update policy in cache", zap.Error(err), zap.String("policyID", policy.ID))
	}

	// Publish event for asynchronous processing
	s.eventBus.Publish(ctx, util.EventPolicyUpdated, map[string]interface{}{
		"old": *oldPolicy,
		"new": policy,
	})

	logger.Info("Policy updated successfully", zap.String("policyID", policy.ID), zap.String("userID", userID))
	return &policy, nil
}

// DeletePolicy handles the deletion of a policy
func (s *PolicyService) DeletePolicy(ctx context.Context, policyID string, userID string) error {
	err := s.policyStore.Delete(ctx, policyID)
	s.recordOp("delete", err)
	if err != nil {
		if errors.Is(err, ztx_errors.ErrPolicyNotFound) {
			return ztx_errors.ErrPolicyNotFound
		}
		logger.Error("Error deleting policy", zap.Error(err), zap.String("policyID", policyID), zap.String("userID", userID))
		return fmt.Errorf("failed to delete policy: %w", err)
	}

	// Remove from cache
	if err := s.cacheService.DeletePolicy(ctx, policyID); err != nil {
		logger.Warn("Failed to delete policy from cache", zap.Error(err), zap.String("policyID", policyID))
	}

	// Publish event for asynchronous processing
	s.eventBus.Publish(ctx, util.EventPolicyDeleted, policyID)

	logger.Info("Policy deleted successfully", zap.String("policyID", policyID), zap.String("userID", userID))
	return nil
}

// GetPolicy retrieves a policy by its ID
func (s *PolicyService) GetPolicy(ctx context.Context, policyID string) (*model.Policy, error) {
	// Try to get from cache first
	cachedPolicy, err := s.cacheService.GetPolicy(ctx, policyID)
	if err == nil && cachedPolicy != nil {
		return cachedPolicy, nil
	}

	policy, err := s.policyStore.Get(ctx, policyID)
	if err != nil {
		if errors.Is(err, ztx_errors.ErrPolicyNotFound) {
			return nil, ztx_errors.ErrPolicyNotFound
		}
		logger.Error("Error retrieving policy", zap.Error(err), zap.String("policyID", policyID))
		return nil, ztx_errors.ErrInternalServer
	}

	// Update cache
	if err := s.cacheService.SetPolicy(ctx, *policy); err != nil {
		logger.Warn("Failed to cache policy", zap.Error(err), zap.String("policyID", policyID))
	}

	return policy, nil
}

// ListPolicies retrieves all policies, possibly with pagination
func (s *PolicyService) ListPolicies(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	policies, err := s.policyStore.List(ctx, limit, offset)
	if err != nil {
		logger.Error("Error listing policies", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}

	return policies, nil
}

// SearchPolicies searches for policies based on given criteria
func (s *PolicyService) SearchPolicies(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	if criteria.Limit < 0 {
		return nil, fmt.Errorf("%w: negative limit", ztx_errors.ErrInvalidSearchCriteria)
	}
	if criteria.MaxPriority > 0 && criteria.MinPriority > criteria.MaxPriority {
		return nil, fmt.Errorf("%w: min_priority above max_priority", ztx_errors.ErrInvalidSearchCriteria)
	}

	policies, err := s.policyStore.Search(ctx, criteria)
	if err != nil {
		logger.Error("Error searching policies", zap.Error(err), zap.Any("criteria", criteria))
		return nil, fmt.Errorf("failed to search policies: %w", err)
	}

	return policies, nil
}

// BulkCreatePolicies creates multiple policies in parallel
func (s *PolicyService) BulkCreatePolicies(ctx context.Context, policies []model.Policy, userID string) ([]string, error) {
	g, ctx := errgroup.WithContext(ctx)
	policyIDs := make([]string, len(policies))

	// Limit concurrency to avoid overwhelming the store
	semaphore := make(chan struct{}, 10)

	for i, policy := range policies {
		i, policy := i, policy
		g.Go(func() error {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			createdPolicy, err := s.CreatePolicy(ctx, policy, userID)
			if err != nil {
				return err
			}
			policyIDs[i] = createdPolicy.ID
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Error in bulk create policies", zap.Error(err), zap.String("userID", userID))
		return nil, fmt.Errorf("failed to bulk create policies: %w", err)
	}

	logger.Info("Bulk create policies completed", zap.Int("count", len(policyIDs)), zap.String("userID", userID))
	return policyIDs, nil
}

func (s *PolicyService) recordOp(operation string, err error) {
	if s.metrics != nil {
		s.metrics.RecordPolicyOp(operation, err)
	}
}

// hasPolicyChanged checks if there are any differences between the old and new policies
func (s *PolicyService) hasPolicyChanged(oldPolicy, newPolicy *model.Policy) bool {
	if oldPolicy.Name != newPolicy.Name ||
		oldPolicy.Description != newPolicy.Description ||
		oldPolicy.Type != newPolicy.Type ||
		oldPolicy.Priority != newPolicy.Priority ||
		oldPolicy.Enabled != newPolicy.Enabled ||
		!reflect.DeepEqual(oldPolicy.Scope, newPolicy.Scope) ||
		!reflect.DeepEqual(oldPolicy.Conditions, newPolicy.Conditions) ||
		!reflect.DeepEqual(oldPolicy.Actions, newPolicy.Actions) {
		return true
	}
	return false
}
