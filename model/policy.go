// api/model/policy.go
package model

import (
	"time"
)

// PolicyType classifies what a policy governs.
type PolicyType string

const (
	PolicyAccess      PolicyType = "access"
	PolicyNetwork     PolicyType = "network"
	PolicyData        PolicyType = "data"
	PolicyDevice      PolicyType = "device"
	PolicyApplication PolicyType = "application"
)

// Effect is the verdict a matched policy resolves to.
type Effect string

const (
	EffectAllow     Effect = "allow"
	EffectDeny      Effect = "deny"
	EffectChallenge Effect = "challenge"
)

// Wildcard matches anything in a scope dimension.
const Wildcard = "*"

type Policy struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Type        PolicyType  `json:"type"`
	Scope       Scope       `json:"scope"`
	Conditions  []Condition `json:"conditions"`
	Actions     []Action    `json:"actions"`
	Priority    int         `json:"priority"`
	Enabled     bool        `json:"enabled"`
	Version     int         `json:"version"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	CreatedBy   string      `json:"created_by,omitempty"`
}

// Scope is the set of users, devices, networks, resources, time windows and
// locations a policy applies to. An empty dimension never matches; the
// wildcard "*" matches anything in that dimension.
type Scope struct {
	Users               []string     `json:"users,omitempty"`
	Groups              []string     `json:"groups,omitempty"`
	Devices             []string     `json:"devices,omitempty"`
	Networks            []string     `json:"networks,omitempty"`
	Applications        []string     `json:"applications,omitempty"`
	DataClassifications []string     `json:"data_classifications,omitempty"`
	Locations           []string     `json:"locations,omitempty"`
	TimeWindows         []TimeWindow `json:"time_windows,omitempty"`
}

// TimeWindow is a recurring weekly window. Start and End are local "HH:MM"
// strings in Timezone; bounds are inclusive. Multiple windows on a scope are
// OR'd together; a scope with no windows applies at all times.
type TimeWindow struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Days     []string `json:"days"` // lowercase weekday names
	Timezone string   `json:"timezone,omitempty"`
}

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

// Condition is one weighted predicate over a request field. Field names come
// from the engine's closed field registry; unknown fields evaluate as
// unmatched rather than failing the policy outright.
type Condition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    interface{} `json:"value"`
	Weight   float64     `json:"weight"`
	Required bool        `json:"required"`
}

// ActionType is what a matched policy does.
type ActionType string

const (
	ActionAllow      ActionType = "allow"
	ActionDeny       ActionType = "deny"
	ActionChallenge  ActionType = "challenge"
	ActionQuarantine ActionType = "quarantine"
	ActionMonitor    ActionType = "monitor"
	ActionAudit      ActionType = "audit"
	ActionStepUpAuth ActionType = "step_up_auth"
)

// Action carries the policy's effect plus optional parameters. Monitor and
// audit actions are side effects that never change the verdict.
type Action struct {
	Type       ActionType             `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	Conditions []Condition            `json:"conditions,omitempty"`
}

type PolicySearchCriteria struct {
	Name        string     `json:"name,omitempty"`
	Type        PolicyType `json:"type,omitempty"`
	MinPriority int        `json:"min_priority,omitempty"`
	MaxPriority int        `json:"max_priority,omitempty"`
	Enabled     *bool      `json:"enabled,omitempty"`
	FromDate    time.Time  `json:"from_date,omitempty"`
	ToDate      time.Time  `json:"to_date,omitempty"`
	Limit       int        `json:"limit,omitempty"`
}
