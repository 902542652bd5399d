// api/dao/policy_dao.go
package dao

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

// PolicyDAO is the Neo4j-backed policy store. Nested scope, condition and
// action structures are stored as JSON strings on the policy node.
type PolicyDAO struct {
	Driver neo4j.Driver
}

func NewPolicyDAO(driver neo4j.Driver) *PolicyDAO {
	dao := &PolicyDAO{Driver: driver}
	// Ensure unique constraint on Policy ID
	ctx := context.Background()
	if err := dao.EnsureUniqueConstraint(ctx); err != nil {
		logger.Fatal("Failed to ensure unique constraint", zap.Error(err))
	}
	return dao
}

// EnsureUniqueConstraint ensures the unique constraint on the Policy ID
func (dao *PolicyDAO) EnsureUniqueConstraint(ctx context.Context) error {
	logger.Info("Ensuring unique constraint on Policy ID")
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(); err != nil {
			logger.Error("Failed to close Neo4j session", zap.Error(err))
		}
	}()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        CREATE CONSTRAINT unique_policy_id IF NOT EXISTS
        FOR (p:POLICY) REQUIRE p.id IS UNIQUE
        `
		_, err := transaction.Run(query, nil)
		if err != nil {
			logger.Error("Failed to create unique constraint", zap.Error(err))
			return nil, fmt.Errorf("failed to create unique constraint: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		logger.Error("Failed to ensure unique constraint on Policy ID", zap.Error(err))
		return err
	}

	return nil
}

// Put upserts a policy node in Neo4j.
func (dao *PolicyDAO) Put(ctx context.Context, policy model.Policy) error {
	start := time.Now()
	logger.Info("Storing policy", zap.String("policyID", policy.ID), zap.String("policyName", policy.Name))
	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MERGE (p:POLICY {id: $id})
        ON CREATE SET p += $props
        ON MATCH SET p += $props
        RETURN p.id as id
        `

		// Convert scope, conditions, and actions to JSON strings
		scopeJSON, _ := json.Marshal(policy.Scope)
		conditionsJSON, _ := json.Marshal(policy.Conditions)
		actionsJSON, _ := json.Marshal(policy.Actions)

		parameters := map[string]interface{}{
			"id": policy.ID,
			"props": map[string]interface{}{
				"name":        policy.Name,
				"description": policy.Description,
				"type":        string(policy.Type),
				"priority":    policy.Priority,
				"enabled":     policy.Enabled,
				"version":     policy.Version,
				"createdAt":   policy.CreatedAt.Format(time.RFC3339),
				"updatedAt":   policy.UpdatedAt.Format(time.RFC3339),
				"createdBy":   policy.CreatedBy,
				"scope":       string(scopeJSON),
				"conditions":  string(conditionsJSON),
				"actions":     string(actionsJSON),
			},
		}
		result, err := transaction.Run(query, parameters)
		if err != nil {
			return nil, ztx_errors.ErrDatabaseOperation
		}
		if result.Next() {
			return nil, nil
		}
		return nil, ztx_errors.ErrInternalServer
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to store policy",
			zap.Error(err),
			zap.String("policyID", policy.ID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy stored successfully",
		zap.String("policyID", policy.ID),
		zap.Duration("duration", duration))
	return nil
}

// Delete deletes a policy from Neo4j
func (dao *PolicyDAO) Delete(ctx context.Context, policyID string) error {
	start := time.Now()
	logger.Info("Deleting policy", zap.String("policyID", policyID))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close()

	_, err := session.WriteTransaction(func(transaction neo4j.Transaction) (interface{}, error) {
		query := `
        MATCH (p:POLICY {id: $id})
        DETACH DELETE p
        `
		result, err := transaction.Run(query, map[string]interface{}{"id": policyID})
		if err != nil {
			return nil, fmt.Errorf("failed to execute delete query: %w", err)
		}
		summary, err := result.Consume()
		if err != nil {
			return nil, fmt.Errorf("failed to consume delete result: %w", err)
		}
		if summary.Counters().NodesDeleted() == 0 {
			return nil, ztx_errors.ErrPolicyNotFound
		}
		return nil, nil
	})

	duration := time.Since(start)
	if err != nil {
		logger.Error("Failed to delete policy",
			zap.Error(err),
			zap.String("policyID", policyID),
			zap.Duration("duration", duration))
		return err
	}

	logger.Info("Policy deleted successfully",
		zap.String("policyID", policyID),
		zap.Duration("duration", duration))
	return nil
}

// Get retrieves a policy from Neo4j by its ID
func (dao *PolicyDAO) Get(ctx context.Context, policyID string) (*model.Policy, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:POLICY {id: $id})
    RETURN p
    `
	result, err := session.Run(query, map[string]interface{}{"id": policyID})
	if err != nil {
		logger.Error("Failed to execute get policy query",
			zap.Error(err),
			zap.String("policyID", policyID),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to execute get policy query: %w", err)
	}

	if result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct",
				zap.Error(err),
				zap.String("policyID", policyID),
				zap.Duration("duration", time.Since(start)))
			return nil, fmt.Errorf("failed to map policy node to struct: %w", err)
		}
		return policy, nil
	}

	logger.Warn("Policy not found",
		zap.String("policyID", policyID),
		zap.Duration("duration", time.Since(start)))
	return nil, ztx_errors.ErrPolicyNotFound
}

// List retrieves all policies from Neo4j ordered for evaluation, with
// optional pagination. Priority descending with ID tie-break keeps the order
// deterministic for the matcher.
func (dao *PolicyDAO) List(ctx context.Context, limit int, offset int) ([]*model.Policy, error) {
	start := time.Now()

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	query := `
    MATCH (p:POLICY)
    RETURN p
    ORDER BY p.priority DESC, p.id ASC
    `
	params := map[string]interface{}{}
	if offset > 0 {
		query += " SKIP $offset"
		params["offset"] = offset
	}
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = limit
	}

	result, err := session.Run(query, params)
	if err != nil {
		logger.Error("Failed to execute list policies query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to execute list policies query: %w", err)
	}

	var policies []*model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct",
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			return nil, fmt.Errorf("failed to map policy node to struct: %w", err)
		}
		policies = append(policies, policy)
	}

	logger.Debug("Policies listed successfully",
		zap.Int("count", len(policies)),
		zap.Duration("duration", time.Since(start)))

	return policies, nil
}

// Search searches for policies based on given criteria
func (dao *PolicyDAO) Search(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error) {
	start := time.Now()
	logger.Info("Searching policies", zap.Any("criteria", criteria))

	session := dao.Driver.NewSession(neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close()

	var queryBuilder strings.Builder
	queryBuilder.WriteString("MATCH (p:POLICY) WHERE 1=1")

	params := make(map[string]interface{})

	if criteria.Name != "" {
		queryBuilder.WriteString(" AND toLower(p.name) CONTAINS toLower($name)")
		params["name"] = criteria.Name
	}

	if criteria.Type != "" {
		queryBuilder.WriteString(" AND p.type = $type")
		params["type"] = string(criteria.Type)
	}

	if criteria.MinPriority > 0 {
		queryBuilder.WriteString(" AND p.priority >= $minPriority")
		params["minPriority"] = criteria.MinPriority
	}

	if criteria.MaxPriority > 0 {
		queryBuilder.WriteString(" AND p.priority <= $maxPriority")
		params["maxPriority"] = criteria.MaxPriority
	}

	if criteria.Enabled != nil {
		queryBuilder.WriteString(" AND p.enabled = $enabled")
		params["enabled"] = *criteria.Enabled
	}

	if !criteria.FromDate.IsZero() {
		queryBuilder.WriteString(" AND p.createdAt >= $fromDate")
		params["fromDate"] = criteria.FromDate.Format(time.RFC3339)
	}

	if !criteria.ToDate.IsZero() {
		queryBuilder.WriteString(" AND p.createdAt <= $toDate")
		params["toDate"] = criteria.ToDate.Format(time.RFC3339)
	}

	queryBuilder.WriteString(" RETURN p ORDER BY p.priority DESC, p.id ASC")

	if criteria.Limit > 0 {
		queryBuilder.WriteString(" LIMIT $limit")
		params["limit"] = criteria.Limit
	}

	result, err := session.Run(queryBuilder.String(), params)
	if err != nil {
		logger.Error("Failed to execute search policies query",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to execute search policies query: %w", err)
	}

	var policies []*model.Policy
	for result.Next() {
		node := result.Record().Values[0].(neo4j.Node)
		policy, err := mapNodeToPolicy(node)
		if err != nil {
			logger.Error("Failed to map policy node to struct",
				zap.Error(err),
				zap.Duration("duration", time.Since(start)))
			return nil, fmt.Errorf("failed to map policy node to struct: %w", err)
		}
		policies = append(policies, policy)
	}

	logger.Info("Policies searched successfully",
		zap.Int("count", len(policies)),
		zap.Duration("duration", time.Since(start)))

	return policies, nil
}

// Helper function to map Neo4j Node to Policy struct
func mapNodeToPolicy(node neo4j.Node) (*model.Policy, error) {
	props := node.Props
	policy := &model.Policy{}

	// ID
	if id, ok := props["id"].(string); ok {
		policy.ID = id
	} else {
		return nil, fmt.Errorf("failed to assert type for policy ID: %v", props["id"])
	}

	// Name
	if name, ok := props["name"].(string); ok {
		policy.Name = name
	} else {
		return nil, fmt.Errorf("failed to assert type for policy name: %v", props["name"])
	}

	// Description
	if description, ok := props["description"].(string); ok {
		policy.Description = description
	}

	// Type
	if policyType, ok := props["type"].(string); ok {
		policy.Type = model.PolicyType(policyType)
	} else {
		return nil, fmt.Errorf("failed to assert type for policy type: %v", props["type"])
	}

	// Priority
	if priority, ok := props["priority"].(int64); ok {
		policy.Priority = int(priority)
	} else {
		return nil, fmt.Errorf("failed to assert type for policy priority: %v", props["priority"])
	}

	// Version
	if version, ok := props["version"].(int64); ok {
		policy.Version = int(version)
	} else {
		return nil, fmt.Errorf("failed to assert type for policy version: %v", props["version"])
	}

	// Enabled
	if enabled, ok := props["enabled"].(bool); ok {
		policy.Enabled = enabled
	} else {
		return nil, fmt.Errorf("failed to assert type for policy enabled: %v", props["enabled"])
	}

	// CreatedAt
	if createdAt, ok := props["createdAt"].(string); ok {
		policy.CreatedAt = parseTime(createdAt)
	} else {
		return nil, fmt.Errorf("failed to assert type for policy createdAt: %v", props["createdAt"])
	}

	// UpdatedAt
	if updatedAt, ok := props["updatedAt"].(string); ok {
		policy.UpdatedAt = parseTime(updatedAt)
	} else {
		return nil, fmt.Errorf("failed to assert type for policy updatedAt: %v", props["updatedAt"])
	}

	// CreatedBy
	if createdBy, ok := props["createdBy"].(string); ok {
		policy.CreatedBy = createdBy
	}

	// Scope
	if scopeJSON, ok := props["scope"].(string); ok {
		if err := json.Unmarshal([]byte(scopeJSON), &policy.Scope); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy scope: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to assert type for policy scope: %v", props["scope"])
	}

	// Conditions
	if conditionsJSON, ok := props["conditions"].(string); ok {
		if err := json.Unmarshal([]byte(conditionsJSON), &policy.Conditions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy conditions: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to assert type for policy conditions: %v", props["conditions"])
	}

	// Actions
	if actionsJSON, ok := props["actions"].(string); ok {
		if err := json.Unmarshal([]byte(actionsJSON), &policy.Actions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy actions: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to assert type for policy actions: %v", props["actions"])
	}

	return policy, nil
}

// Helper function to parse time
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
