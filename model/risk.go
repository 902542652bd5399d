// api/model/risk.go
package model

import "time"

// RiskLevel is the discrete classification of an aggregate risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskFactor is one weighted contributor to an aggregate risk score. Value is
// the raw signal the factor was derived from; Impact is its 0-100 risk
// contribution before weighting.
type RiskFactor struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Impact   float64 `json:"impact"`
}

// RiskMitigation is a suggested countermeasure for an elevated factor.
type RiskMitigation struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Factor      string `json:"factor"`
}

// RiskAssessment aggregates the per-dimension risk factors for one request.
// Score is always the weighted mean of factor impacts, never a sum, so the
// number of factors cannot skew the result.
type RiskAssessment struct {
	Score       float64          `json:"score"` // 0-100
	Level       RiskLevel        `json:"level"`
	Factors     []RiskFactor     `json:"factors"`
	Confidence  float64          `json:"confidence"` // 0-100
	Mitigations []RiskMitigation `json:"mitigations,omitempty"`
	AssessedAt  time.Time        `json:"assessed_at"`
}
