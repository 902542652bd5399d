// api/util/validation_util.go

package util

import (
	"fmt"

	"github.com/warden-labs/zerotrust/api/model"
)

type ValidationUtil struct{}

func NewValidationUtil() *ValidationUtil {
	return &ValidationUtil{}
}

var validPolicyTypes = map[model.PolicyType]bool{
	model.PolicyAccess:      true,
	model.PolicyNetwork:     true,
	model.PolicyData:        true,
	model.PolicyDevice:      true,
	model.PolicyApplication: true,
}

var validOperators = map[model.Operator]bool{
	model.OpEquals:      true,
	model.OpNotEquals:   true,
	model.OpContains:    true,
	model.OpNotContains: true,
	model.OpGreaterThan: true,
	model.OpLessThan:    true,
	model.OpIn:          true,
	model.OpNotIn:       true,
}

var validActionTypes = map[model.ActionType]bool{
	model.ActionAllow:      true,
	model.ActionDeny:       true,
	model.ActionChallenge:  true,
	model.ActionQuarantine: true,
	model.ActionMonitor:    true,
	model.ActionAudit:      true,
	model.ActionStepUpAuth: true,
}

func (v *ValidationUtil) ValidatePolicy(policy model.Policy) error {
	if policy.Name == "" {
		return fmt.Errorf("policy name cannot be empty")
	}
	if !validPolicyTypes[policy.Type] {
		return fmt.Errorf("invalid policy type: %s", policy.Type)
	}
	if policy.Priority < 0 {
		return fmt.Errorf("policy priority cannot be negative")
	}
	if len(policy.Conditions) == 0 {
		return fmt.Errorf("policy must have at least one condition")
	}
	for i, condition := range policy.Conditions {
		if condition.Field == "" {
			return fmt.Errorf("condition %d: field cannot be empty", i)
		}
		if !validOperators[condition.Operator] {
			return fmt.Errorf("condition %d: invalid operator: %s", i, condition.Operator)
		}
		if condition.Weight < 0 {
			return fmt.Errorf("condition %d: weight cannot be negative", i)
		}
	}
	if len(policy.Actions) == 0 {
		return fmt.Errorf("policy must have at least one action")
	}
	for i, action := range policy.Actions {
		if !validActionTypes[action.Type] {
			return fmt.Errorf("action %d: invalid action type: %s", i, action.Type)
		}
	}
	for i, window := range policy.Scope.TimeWindows {
		if err := v.validateTimeWindow(window); err != nil {
			return fmt.Errorf("time window %d: %w", i, err)
		}
	}
	return nil
}

func (v *ValidationUtil) validateTimeWindow(window model.TimeWindow) error {
	if len(window.Start) != 5 || window.Start[2] != ':' {
		return fmt.Errorf("start must be HH:MM, got %q", window.Start)
	}
	if len(window.End) != 5 || window.End[2] != ':' {
		return fmt.Errorf("end must be HH:MM, got %q", window.End)
	}
	if window.Start > window.End {
		return fmt.Errorf("start %q is after end %q", window.Start, window.End)
	}
	if len(window.Days) == 0 {
		return fmt.Errorf("time window must name at least one day")
	}
	return nil
}

func (v *ValidationUtil) ValidateAccessRequest(request model.AccessRequest) error {
	if request.Identity == nil || request.Identity.UserID == "" {
		return fmt.Errorf("access request must carry an identity with a user ID")
	}
	if request.Resource == nil || request.Resource.ResourceID == "" {
		return fmt.Errorf("access request must carry a target resource")
	}
	if request.Action == "" {
		return fmt.Errorf("access request action cannot be empty")
	}
	return nil
}

func (v *ValidationUtil) ValidateTrustSignal(signal model.TrustSignal) error {
	if signal.IdentityID == "" {
		return fmt.Errorf("trust signal identity ID cannot be empty")
	}
	if signal.Type == "" {
		return fmt.Errorf("trust signal type cannot be empty")
	}
	if signal.Value < 0 || signal.Value > 100 {
		return fmt.Errorf("trust signal value must be within [0, 100], got %f", signal.Value)
	}
	if signal.Weight < 0 {
		return fmt.Errorf("trust signal weight cannot be negative")
	}
	return nil
}
