// api/engine/condition.go
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

// ConditionEvaluator scores a policy's weighted conditions against a request
// and determines the per-policy verdict.
type ConditionEvaluator struct {
	params Params
}

func NewConditionEvaluator(params Params) *ConditionEvaluator {
	return &ConditionEvaluator{params: params}
}

// EvaluatePolicy scores every condition of the policy. The policy matches
// when all required conditions match AND the weighted average score reaches
// the configured threshold. A faulting policy is reported unmatched instead
// of aborting the evaluation of its peers.
func (ce *ConditionEvaluator) EvaluatePolicy(policy *model.Policy, request *model.AccessRequest) (result model.PolicyResult) {
	result = model.PolicyResult{
		PolicyID:   policy.ID,
		PolicyName: policy.Name,
		Priority:   policy.Priority,
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Policy evaluation panicked, excluding policy",
				zap.String("policyID", policy.ID),
				zap.Any("panic", r))
			result.Matched = false
			result.Result = ""
			result.Score = 0
		}
	}()

	// Conditions are mandatory for a verdict to be meaningful; a policy
	// without any never auto-matches.
	if len(policy.Conditions) == 0 {
		return result
	}

	var weightedSum, totalWeight float64
	requiredFailed := false

	for _, condition := range policy.Conditions {
		conditionResult := ce.evaluateCondition(condition, request)
		result.Conditions = append(result.Conditions, conditionResult)

		weight := condition.Weight
		if weight <= 0 {
			weight = 1
		}
		weightedSum += conditionResult.Score * weight
		totalWeight += weight

		if condition.Required && !conditionResult.Matched {
			requiredFailed = true
		}
	}

	if totalWeight > 0 {
		result.Score = weightedSum / totalWeight
	}

	result.Matched = !requiredFailed && result.Score >= ce.params.ConditionMatchThreshold
	if result.Matched {
		result.Result = verdictFromActions(policy.Actions)
	}
	return result
}

func (ce *ConditionEvaluator) evaluateCondition(condition model.Condition, request *model.AccessRequest) model.ConditionResult {
	conditionResult := model.ConditionResult{
		Field:    condition.Field,
		Operator: condition.Operator,
		Weight:   condition.Weight,
	}

	value, ok := ExtractField(condition.Field, request)
	if !ok {
		conditionResult.Reason = fmt.Sprintf("field %q not available", condition.Field)
		return conditionResult
	}

	matched := compare(value, condition.Operator, condition.Value)
	conditionResult.Matched = matched
	if matched {
		conditionResult.Score = 1.0
	}
	return conditionResult
}

// verdictFromActions picks the first non-monitor, non-audit action as the
// policy verdict. Monitor and audit are always-effects that never change the
// outcome. A policy whose actions are all side effects resolves to deny.
func verdictFromActions(actions []model.Action) model.Effect {
	for _, action := range actions {
		switch action.Type {
		case model.ActionAllow:
			return model.EffectAllow
		case model.ActionDeny, model.ActionQuarantine:
			return model.EffectDeny
		case model.ActionChallenge, model.ActionStepUpAuth:
			return model.EffectChallenge
		case model.ActionMonitor, model.ActionAudit:
			continue
		}
	}
	return model.EffectDeny
}

// compare applies the operator with type-aware semantics: ordinals compare
// by rank, numbers numerically, strings lexically.
func compare(value FieldValue, operator model.Operator, comparison interface{}) bool {
	switch operator {
	case model.OpEquals:
		return valueEquals(value, comparison)
	case model.OpNotEquals:
		return !valueEquals(value, comparison)
	case model.OpContains:
		return valueContains(value, comparison)
	case model.OpNotContains:
		return !valueContains(value, comparison)
	case model.OpGreaterThan:
		cmp, ok := valueCompare(value, comparison)
		return ok && cmp > 0
	case model.OpLessThan:
		cmp, ok := valueCompare(value, comparison)
		return ok && cmp < 0
	case model.OpIn:
		return valueIn(value, comparison)
	case model.OpNotIn:
		return !valueIn(value, comparison)
	default:
		logger.Warn("Unknown condition operator", zap.String("operator", string(operator)))
		return false
	}
}

func valueEquals(value FieldValue, comparison interface{}) bool {
	switch value.Kind {
	case KindNumber:
		num, ok := toFloat(comparison)
		return ok && value.Num == num
	case KindBool:
		b, ok := toBool(comparison)
		return ok && value.Bool == b
	case KindList:
		// A list equals a scalar when it is exactly that one element.
		str, ok := toString(comparison)
		return ok && len(value.List) == 1 && value.List[0] == str
	default:
		str, ok := toString(comparison)
		return ok && value.Str == str
	}
}

func valueContains(value FieldValue, comparison interface{}) bool {
	str, ok := toString(comparison)
	if !ok {
		return false
	}
	switch value.Kind {
	case KindList:
		for _, item := range value.List {
			if item == str {
				return true
			}
		}
		return false
	case KindString, KindOrdinal:
		return strings.Contains(value.Str, str)
	default:
		return false
	}
}

// valueCompare returns -1/0/+1 for ordered kinds; ok is false when the kinds
// cannot be ordered against the comparison value.
func valueCompare(value FieldValue, comparison interface{}) (int, bool) {
	switch value.Kind {
	case KindNumber:
		num, ok := toFloat(comparison)
		if !ok {
			return 0, false
		}
		switch {
		case value.Num > num:
			return 1, true
		case value.Num < num:
			return -1, true
		default:
			return 0, true
		}
	case KindOrdinal:
		str, ok := toString(comparison)
		if !ok {
			return 0, false
		}
		rank := rankInDomain(value.Domain, str)
		if rank < 0 {
			return 0, false
		}
		switch {
		case value.Rank > rank:
			return 1, true
		case value.Rank < rank:
			return -1, true
		default:
			return 0, true
		}
	case KindString:
		str, ok := toString(comparison)
		if !ok {
			return 0, false
		}
		return strings.Compare(value.Str, str), true
	default:
		return 0, false
	}
}

func valueIn(value FieldValue, comparison interface{}) bool {
	members, ok := toList(comparison)
	if !ok {
		return false
	}
	switch value.Kind {
	case KindNumber:
		for _, member := range members {
			if num, err := strconv.ParseFloat(member, 64); err == nil && num == value.Num {
				return true
			}
		}
		return false
	case KindList:
		// Any element of the field list present in the comparison set.
		for _, item := range value.List {
			for _, member := range members {
				if item == member {
					return true
				}
			}
		}
		return false
	default:
		for _, member := range members {
			if value.Str == member {
				return true
			}
		}
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}

func toString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	default:
		return "", false
	}
}

func toList(v interface{}) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []interface{}:
		members := make([]string, 0, len(list))
		for _, item := range list {
			switch s := item.(type) {
			case string:
				members = append(members, s)
			case float64:
				members = append(members, strconv.FormatFloat(s, 'f', -1, 64))
			default:
				return nil, false
			}
		}
		return members, true
	default:
		return nil, false
	}
}
