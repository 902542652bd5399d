// api/audit/model.go
package audit

import (
	"time"

	"github.com/warden-labs/zerotrust/api/model"
)

// Record is one audited access decision plus its evaluation trace. Fail-safe
// denials carry the same shape as policy-driven ones and are told apart by
// the decision's reasons list.
type Record struct {
	Timestamp       time.Time                  `json:"timestamp"`
	UserID          string                     `json:"user_id"`
	DeviceID        string                     `json:"device_id,omitempty"`
	ResourceID      string                     `json:"resource_id"`
	Action          string                     `json:"action"`
	Decision        model.AccessDecision       `json:"decision"`
	MatchedPolicies []string                   `json:"matched_policies,omitempty"`
	RiskScore       float64                    `json:"risk_score"`
	RiskLevel       model.RiskLevel            `json:"risk_level"`
	RiskFactors     []model.RiskFactor         `json:"risk_factors,omitempty"`
	Conflicts       []model.ConflictResolution `json:"conflicts,omitempty"`
	DurationMillis  int64                      `json:"duration_ms"`
}
