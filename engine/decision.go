// api/engine/decision.go
package engine

import (
	"fmt"
	"time"

	"github.com/warden-labs/zerotrust/api/model"
)

// DecisionSynthesizer folds policy verdicts, conflict resolutions and the
// risk assessment into the final access decision.
type DecisionSynthesizer struct {
	params Params
}

func NewDecisionSynthesizer(params Params) *DecisionSynthesizer {
	return &DecisionSynthesizer{params: params}
}

func (ds *DecisionSynthesizer) Decide(results []model.PolicyResult, conflicts []model.ConflictResolution, risk *model.RiskAssessment, now time.Time) *model.AccessDecision {
	decision := &model.AccessDecision{
		Confidence:  100,
		EvaluatedAt: now,
	}

	var matched []model.PolicyResult
	for _, result := range results {
		if result.Matched {
			matched = append(matched, result)
		}
	}

	if len(matched) == 0 {
		decision.Decision = model.DecisionDeny
		decision.Reasons = append(decision.Reasons, "no applicable policies matched the request")
		ds.applyRisk(decision, risk)
		decision.ReviewRequired = len(conflicts) > 0 || risk.Level == model.RiskCritical
		return decision
	}

	verdict := ds.combinedVerdict(matched)

	switch verdict {
	case model.EffectDeny:
		decision.Decision = model.DecisionDeny
		for _, result := range matched {
			if result.Result == model.EffectDeny {
				decision.Reasons = append(decision.Reasons, fmt.Sprintf("denied by policy %s", result.PolicyName))
			}
		}
	case model.EffectChallenge:
		decision.Decision = model.DecisionChallenge
		decision.Reasons = append(decision.Reasons, "additional verification required by policy")
		decision.Conditions = append(decision.Conditions, stepUpCondition(ds.params.StepUpTimeout))
	case model.EffectAllow:
		decision.Decision = model.DecisionAllow
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("allowed by %d matching policies", len(matched)))
	}

	ds.applyRisk(decision, risk)

	// Confidence measures agreement with the decision as issued, so a risk
	// escalation that overrules the policy verdicts lowers it.
	decision.Confidence = confidence(matched, effectFor(decision.Decision))

	// Expiry is only meaningful while access is granted.
	if decision.Decision == model.DecisionAllow {
		expiresAt := now.Add(ds.params.Expiry(risk.Level))
		decision.ExpiresAt = &expiresAt
	} else {
		decision.ExpiresAt = nil
	}

	decision.ReviewRequired = len(conflicts) > 0 || risk.Level == model.RiskCritical
	return decision
}

func (ds *DecisionSynthesizer) combinedVerdict(matched []model.PolicyResult) model.Effect {
	hasDeny, hasChallenge := false, false
	for _, result := range matched {
		switch result.Result {
		case model.EffectDeny:
			hasDeny = true
		case model.EffectChallenge:
			hasChallenge = true
		}
	}
	if hasDeny {
		return model.EffectDeny
	}
	if hasChallenge {
		return model.EffectChallenge
	}
	return model.EffectAllow
}

// applyRisk escalates the decision by assessed risk. Critical risk denies
// outright, high risk downgrades an allow to a challenge, medium risk keeps
// the allow but attaches enhanced monitoring.
func (ds *DecisionSynthesizer) applyRisk(decision *model.AccessDecision, risk *model.RiskAssessment) {
	switch risk.Level {
	case model.RiskCritical:
		if decision.Decision != model.DecisionDeny {
			decision.Decision = model.DecisionDeny
			decision.Conditions = nil
		}
		decision.Reasons = append(decision.Reasons, fmt.Sprintf("critical risk score %.1f", risk.Score))
	case model.RiskHigh:
		if decision.Decision == model.DecisionAllow {
			decision.Decision = model.DecisionChallenge
			decision.Conditions = append(decision.Conditions, stepUpCondition(ds.params.StepUpTimeout))
			decision.Reasons = append(decision.Reasons, fmt.Sprintf("high risk score %.1f requires step-up", risk.Score))
		}
	case model.RiskMedium:
		if decision.Decision == model.DecisionAllow {
			decision.Conditions = append(decision.Conditions, model.AccessCondition{
				Type: "enhanced_monitoring",
				Parameters: map[string]interface{}{
					"reason": fmt.Sprintf("medium risk score %.1f", risk.Score),
				},
			})
		}
	}
}

func effectFor(decision model.DecisionValue) model.Effect {
	switch decision {
	case model.DecisionAllow:
		return model.EffectAllow
	case model.DecisionChallenge:
		return model.EffectChallenge
	default:
		return model.EffectDeny
	}
}

// confidence is the share of matched policies agreeing with the final
// verdict. Unanimity yields 100.
func confidence(matched []model.PolicyResult, verdict model.Effect) float64 {
	if len(matched) == 0 {
		return 100
	}
	agreeing := 0
	for _, result := range matched {
		if result.Result == verdict {
			agreeing++
		}
	}
	return float64(agreeing) / float64(len(matched)) * 100
}

func stepUpCondition(timeout time.Duration) model.AccessCondition {
	return model.AccessCondition{
		Type: "step_up_auth",
		Parameters: map[string]interface{}{
			"methods":        []string{"mfa", "biometric"},
			"timeoutSeconds": int(timeout.Seconds()),
		},
	}
}
