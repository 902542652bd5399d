// api/engine/risk.go
package engine

import (
	"time"

	"github.com/warden-labs/zerotrust/api/model"
)

// TrustReader exposes the trust scorer's latest published snapshot for an
// identity. Reads must never block on a recompute in progress.
type TrustReader interface {
	TrustFor(identityID string) (model.TrustSnapshot, bool)
}

// Factor categories and their fixed weights. The weights sum to 1.0; the
// behavioral factor is deliberately small because it is a heuristic signal,
// not a hard one.
const (
	factorIdentityTrust     = "identity_trust"
	factorAuthStrength      = "auth_strength"
	factorDeviceTrust       = "device_trust"
	factorDeviceCompliance  = "device_compliance"
	factorNetworkReputation = "network_reputation"
	factorNetworkLocation   = "network_location"
	factorBehavioral        = "behavioral"
)

var riskFactorWeights = map[string]float64{
	factorIdentityTrust:     0.20,
	factorAuthStrength:      0.15,
	factorDeviceTrust:       0.20,
	factorDeviceCompliance:  0.15,
	factorNetworkReputation: 0.15,
	factorNetworkLocation:   0.10,
	factorBehavioral:        0.05,
}

// worstImpact is the impact assigned to any factor whose underlying context
// is absent. Missing telemetry must never read as low risk.
const worstImpact = 100.0

// RiskAssessor combines weighted risk factors from the four context
// dimensions into a single assessment. It is a pure function of the request
// plus the trust scorer's cached output.
type RiskAssessor struct {
	params Params
	trust  TrustReader
}

func NewRiskAssessor(params Params, trust TrustReader) *RiskAssessor {
	return &RiskAssessor{params: params, trust: trust}
}

// Assess builds the fixed factor set for a request. It never returns an
// error: missing or malformed context degrades to the risk-conservative
// worst case instead of aborting.
func (ra *RiskAssessor) Assess(request *model.AccessRequest) model.RiskAssessment {
	factors := []model.RiskFactor{
		ra.identityTrustFactor(request.Identity),
		ra.authStrengthFactor(request.Identity),
		ra.deviceTrustFactor(request.Device),
		ra.deviceComplianceFactor(request.Device),
		ra.networkReputationFactor(request.Network),
		ra.networkLocationFactor(request.Network),
		ra.behavioralFactor(request),
	}

	var weightedSum, totalWeight float64
	for _, factor := range factors {
		weightedSum += factor.Impact * factor.Weight
		totalWeight += factor.Weight
	}

	score := 0.0
	if totalWeight > 0 {
		score = clamp(weightedSum/totalWeight, 0, 100)
	}

	return model.RiskAssessment{
		Score:       score,
		Level:       ra.params.RiskLevel(score),
		Factors:     factors,
		Confidence:  ra.confidence(request),
		Mitigations: ra.mitigations(factors),
		AssessedAt:  time.Now(),
	}
}

func (ra *RiskAssessor) identityTrustFactor(identity *model.IdentityContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorIdentityTrust, Weight: riskFactorWeights[factorIdentityTrust], Impact: worstImpact}
	if identity == nil {
		return factor
	}

	trustScore := identity.TrustLevel.Score()
	if ra.trust != nil {
		if snapshot, ok := ra.trust.TrustFor(identity.UserID); ok {
			trustScore = snapshot.Score
		}
	}
	factor.Value = trustScore
	factor.Impact = clamp(100-trustScore, 0, 100)
	return factor
}

func (ra *RiskAssessor) authStrengthFactor(identity *model.IdentityContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorAuthStrength, Weight: riskFactorWeights[factorAuthStrength], Impact: worstImpact}
	if identity == nil {
		return factor
	}
	authScore := identity.AuthStrength.Score()
	factor.Value = authScore
	factor.Impact = clamp(100-authScore, 0, 100)
	return factor
}

func (ra *RiskAssessor) deviceTrustFactor(device *model.DeviceContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorDeviceTrust, Weight: riskFactorWeights[factorDeviceTrust], Impact: worstImpact}
	if device == nil {
		return factor
	}
	factor.Value = device.Trust.Score
	factor.Impact = clamp(100-device.Trust.Score, 0, 100)
	return factor
}

func (ra *RiskAssessor) deviceComplianceFactor(device *model.DeviceContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorDeviceCompliance, Weight: riskFactorWeights[factorDeviceCompliance], Impact: worstImpact}
	if device == nil {
		return factor
	}
	factor.Value = device.Compliance.Score
	impact := clamp(100-device.Compliance.Score, 0, 100)
	if !device.Compliance.Compliant && impact < 60 {
		// A non-compliant device floors the impact even if its numeric
		// score has not caught up with the violation yet.
		impact = 60
	}
	factor.Impact = impact
	return factor
}

func (ra *RiskAssessor) networkReputationFactor(network *model.NetworkContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorNetworkReputation, Weight: riskFactorWeights[factorNetworkReputation], Impact: worstImpact}
	if network == nil {
		return factor
	}
	factor.Value = network.Reputation.Score
	if network.Reputation.Blacklisted {
		factor.Impact = worstImpact
		return factor
	}
	factor.Impact = clamp(100-network.Reputation.Score, 0, 100)
	return factor
}

func (ra *RiskAssessor) networkLocationFactor(network *model.NetworkContext) model.RiskFactor {
	factor := model.RiskFactor{Category: factorNetworkLocation, Weight: riskFactorWeights[factorNetworkLocation], Impact: worstImpact}
	if network == nil {
		return factor
	}
	impact := clamp(network.Geo.RiskScore, 0, 100)
	if network.Geo.Tor && impact < 90 {
		impact = 90
	}
	if (network.Geo.VPN || network.Geo.Proxy) && impact < 60 {
		impact = 60
	}
	factor.Value = network.Geo.RiskScore
	factor.Impact = impact
	return factor
}

func (ra *RiskAssessor) behavioralFactor(request *model.AccessRequest) model.RiskFactor {
	factor := model.RiskFactor{Category: factorBehavioral, Weight: riskFactorWeights[factorBehavioral]}

	var impact float64
	if request.Identity != nil {
		impact += float64(len(request.Identity.Session.Anomalies)) * 20
	}
	if request.Device != nil {
		if !request.Device.Managed {
			impact += 25
		}
		if !request.Device.Certified {
			impact += 15
		}
	}
	ts := request.Context.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if hour := ts.Hour(); hour < 6 || hour >= 22 {
		impact += 20
	}
	if request.Context.Unusual {
		impact += 20
	}

	factor.Value = impact
	factor.Impact = clamp(impact, 0, 100)
	return factor
}

// confidence degrades with each missing context dimension.
func (ra *RiskAssessor) confidence(request *model.AccessRequest) float64 {
	confidence := 100.0
	if request.Identity == nil {
		confidence -= 15
	}
	if request.Device == nil {
		confidence -= 15
	}
	if request.Network == nil {
		confidence -= 15
	}
	if request.Resource == nil {
		confidence -= 15
	}
	return clamp(confidence, 40, 100)
}

func (ra *RiskAssessor) mitigations(factors []model.RiskFactor) []model.RiskMitigation {
	var mitigations []model.RiskMitigation
	for _, factor := range factors {
		switch factor.Category {
		case factorAuthStrength:
			if factor.Impact > 20 {
				mitigations = append(mitigations, model.RiskMitigation{
					Type:        "require_mfa",
					Description: "Require multi-factor authentication for this identity",
					Factor:      factor.Category,
				})
			}
		case factorDeviceTrust, factorDeviceCompliance:
			if factor.Impact > 40 {
				mitigations = append(mitigations, model.RiskMitigation{
					Type:        "remediate_device",
					Description: "Bring the device back into compliance before granting broad access",
					Factor:      factor.Category,
				})
			}
		case factorNetworkReputation, factorNetworkLocation:
			if factor.Impact > 50 {
				mitigations = append(mitigations, model.RiskMitigation{
					Type:        "restrict_network",
					Description: "Restrict access to low-sensitivity resources from this network path",
					Factor:      factor.Category,
				})
			}
		case factorBehavioral:
			if factor.Impact > 40 {
				mitigations = append(mitigations, model.RiskMitigation{
					Type:        "enhanced_monitoring",
					Description: "Enable enhanced session monitoring for anomalous behavior",
					Factor:      factor.Category,
				})
			}
		}
	}
	return mitigations
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
