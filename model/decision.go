// api/model/decision.go
package model

import "time"

// RequestContext carries per-request circumstances that are not part of the
// four context dimensions.
type RequestContext struct {
	SessionID     string    `json:"session_id"`
	PriorRequests int       `json:"prior_requests"`
	Timestamp     time.Time `json:"timestamp"`
	Unusual       bool      `json:"unusual"`
	Emergency     bool      `json:"emergency"`
}

// AccessRequest is the transient input to one evaluation. It is owned
// exclusively by that evaluation and never persisted beyond audit logging.
type AccessRequest struct {
	Identity *IdentityContext `json:"identity"`
	Device   *DeviceContext   `json:"device"`
	Network  *NetworkContext  `json:"network"`
	Resource *ResourceContext `json:"resource"`
	Action   string           `json:"action"`
	Context  RequestContext   `json:"context"`
}

// DecisionValue is the final verdict of an evaluation.
type DecisionValue string

const (
	DecisionAllow     DecisionValue = "allow"
	DecisionDeny      DecisionValue = "deny"
	DecisionChallenge DecisionValue = "challenge"
)

// AccessCondition is an obligation attached to a non-deny decision, such as
// step-up authentication or enhanced monitoring.
type AccessCondition struct {
	Type       string                 `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// AccessDecision is the engine's final, auditable verdict for one request.
// ExpiresAt is only ever set on allow decisions; denials are not time-bound
// grants.
type AccessDecision struct {
	Decision       DecisionValue     `json:"decision"`
	Confidence     float64           `json:"confidence"` // 0-100
	Reasons        []string          `json:"reasons"`
	Conditions     []AccessCondition `json:"conditions,omitempty"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	ReviewRequired bool              `json:"review_required"`
	EvaluatedAt    time.Time         `json:"evaluated_at"`
}

// ConditionResult records how one policy condition scored.
type ConditionResult struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Matched  bool     `json:"matched"`
	Score    float64  `json:"score"`
	Weight   float64  `json:"weight"`
	Reason   string   `json:"reason,omitempty"`
}

// PolicyResult is the per-policy verdict produced by the condition evaluator.
type PolicyResult struct {
	PolicyID   string            `json:"policy_id"`
	PolicyName string            `json:"policy_name"`
	Priority   int               `json:"priority"`
	Matched    bool              `json:"matched"`
	Result     Effect            `json:"result"`
	Score      float64           `json:"score"` // weighted condition average, 0-1
	Conditions []ConditionResult `json:"conditions,omitempty"`
}

// ConflictType classifies a disagreement between matched policies.
type ConflictType string

const (
	ConflictPrecedence ConflictType = "precedence"
	ConflictOverride   ConflictType = "override"
)

// ConflictResolution records one detected policy conflict and how the fixed
// precedence rules resolved it.
type ConflictResolution struct {
	Type        ConflictType `json:"type"`
	PolicyIDs   []string     `json:"policy_ids"`
	Resolution  string       `json:"resolution"`
	Description string       `json:"description,omitempty"`
}
