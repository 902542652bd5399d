// api/engine/params.go
package engine

import (
	"time"

	"github.com/warden-labs/zerotrust/api/model"
)

// Params holds the engine's tunable thresholds. The defaults are the values
// the product ships with, but none of them is an invariant: deployments
// override them through configuration.
type Params struct {
	// ConditionMatchThreshold is the minimum weighted-average condition
	// score a policy needs to match.
	ConditionMatchThreshold float64

	// Risk level cutoffs: score < Medium isLow, < High is medium,
	// < Critical is high, else critical.
	MediumRiskThreshold   float64
	HighRiskThreshold     float64
	CriticalRiskThreshold float64

	// ExpiryByLevel bounds allow grants per risk level. DefaultExpiry covers
	// levels without an entry.
	ExpiryByLevel map[model.RiskLevel]time.Duration
	DefaultExpiry time.Duration

	// StepUpTimeout is how long a challenged user has to complete step-up
	// authentication.
	StepUpTimeout time.Duration
}

func DefaultParams() Params {
	return Params{
		ConditionMatchThreshold: 0.5,
		MediumRiskThreshold:     25,
		HighRiskThreshold:       50,
		CriticalRiskThreshold:   75,
		ExpiryByLevel: map[model.RiskLevel]time.Duration{
			model.RiskLow:    480 * time.Minute,
			model.RiskMedium: 240 * time.Minute,
			model.RiskHigh:   60 * time.Minute,
		},
		DefaultExpiry: 30 * time.Minute,
		StepUpTimeout: 300 * time.Second,
	}
}

// RiskLevel maps an aggregate score onto the discrete level using the
// configured cutoffs.
func (p Params) RiskLevel(score float64) model.RiskLevel {
	switch {
	case score < p.MediumRiskThreshold:
		return model.RiskLow
	case score < p.HighRiskThreshold:
		return model.RiskMedium
	case score < p.CriticalRiskThreshold:
		return model.RiskHigh
	default:
		return model.RiskCritical
	}
}

// Expiry returns the allow-grant lifetime for a risk level.
func (p Params) Expiry(level model.RiskLevel) time.Duration {
	if d, ok := p.ExpiryByLevel[level]; ok {
		return d
	}
	return p.DefaultExpiry
}
