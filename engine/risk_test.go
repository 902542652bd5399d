package engine

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func healthyRequest() *model.AccessRequest {
	return &model.AccessRequest{
		Identity: &model.IdentityContext{
			UserID:       "alice",
			Groups:       []string{"engineering"},
			TrustLevel:   model.TrustVerified,
			AuthMethod:   "webauthn",
			AuthStrength: model.AuthVeryStrong,
		},
		Device: &model.DeviceContext{
			DeviceID:  "laptop-1",
			Platform:  "macos",
			Managed:   true,
			Certified: true,
			Compliance: model.ComplianceRecord{
				Compliant: true,
				Score:     100,
			},
			Trust: model.DeviceTrust{
				Level: model.TrustVerified,
				Score: 100,
			},
		},
		Network: &model.NetworkContext{
			SourceIP: "10.0.0.5",
			Segment:  model.SegmentInternal,
			Reputation: model.NetworkReputation{
				Score:       100,
				Whitelisted: true,
			},
			Geo: model.GeoLocation{Country: "DE"},
		},
		Resource: &model.ResourceContext{
			ResourceID:     "wallet-api",
			Type:           model.ResourceApplication,
			Classification: "internal",
		},
		Action: "read",
		Context: model.RequestContext{
			Timestamp: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestAssessHealthyRequestIsLowRisk(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	assessment := assessor.Assess(healthyRequest())

	assert.Equal(t, model.RiskLow, assessment.Level)
	assert.Zero(t, assessment.Score)
	assert.Equal(t, 100.0, assessment.Confidence)
	assert.Len(t, assessment.Factors, 7)
	assert.Empty(t, assessment.Mitigations)
}

func TestAssessScoreIsWeightedMeanNotSum(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	request := healthyRequest()
	request.Identity.TrustLevel = model.TrustUntrusted

	assessment := assessor.Assess(request)

	// Only identity trust (weight 0.20) contributes, so the aggregate stays
	// well below the raw 100 impact.
	assert.InDelta(t, 20.0, assessment.Score, 0.01)
	assert.Equal(t, model.RiskLow, assessment.Level)
}

func TestAssessMissingContextIsWorstCase(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	request := &model.AccessRequest{
		Action: "read",
		Context: model.RequestContext{
			Timestamp: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		},
	}

	assessment := assessor.Assess(request)

	for _, factor := range assessment.Factors {
		if factor.Category == "behavioral" {
			continue
		}
		assert.Equal(t, 100.0, factor.Impact, "factor %s should be worst case", factor.Category)
	}
	assert.Equal(t, model.RiskCritical, assessment.Level)
	assert.Equal(t, 40.0, assessment.Confidence)
}

func TestAssessHostileRequestIsCritical(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	request := healthyRequest()
	request.Identity.TrustLevel = model.TrustUntrusted
	request.Identity.AuthStrength = model.AuthWeak
	request.Identity.Session.Anomalies = []string{"impossible_travel", "new_fingerprint"}
	request.Device.Managed = false
	request.Device.Certified = false
	request.Device.Compliance = model.ComplianceRecord{Compliant: false, Score: 10}
	request.Device.Trust = model.DeviceTrust{Level: model.TrustUntrusted, Score: 5}
	request.Network.Reputation = model.NetworkReputation{Score: 2, Blacklisted: true}
	request.Network.Geo = model.GeoLocation{Country: "XX", Tor: true, RiskScore: 95}

	assessment := assessor.Assess(request)

	assert.Equal(t, model.RiskCritical, assessment.Level)
	assert.Greater(t, assessment.Score, 75.0)
	assert.NotEmpty(t, assessment.Mitigations)
}

func TestAssessBlacklistedNetworkOverridesReputationScore(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	request := healthyRequest()
	request.Network.Reputation = model.NetworkReputation{Score: 100, Blacklisted: true}

	assessment := assessor.Assess(request)

	var reputation *model.RiskFactor
	for i := range assessment.Factors {
		if assessment.Factors[i].Category == "network_reputation" {
			reputation = &assessment.Factors[i]
		}
	}
	require.NotNil(t, reputation)
	assert.Equal(t, 100.0, reputation.Impact)
}

func TestAssessNonCompliantDeviceFloorsImpact(t *testing.T) {
	assessor := NewRiskAssessor(DefaultParams(), nil)

	request := healthyRequest()
	request.Device.Compliance = model.ComplianceRecord{Compliant: false, Score: 95}

	assessment := assessor.Assess(request)

	for _, factor := range assessment.Factors {
		if factor.Category == "device_compliance" {
			assert.GreaterOrEqual(t, factor.Impact, 60.0)
		}
	}
}

type stubTrustReader struct {
	snapshot model.TrustSnapshot
	ok       bool
}

func (s stubTrustReader) TrustFor(string) (model.TrustSnapshot, bool) {
	return s.snapshot, s.ok
}

func TestAssessPrefersScorerSnapshotOverDeclaredLevel(t *testing.T) {
	reader := stubTrustReader{
		snapshot: model.TrustSnapshot{IdentityID: "alice", Score: 10, Level: model.TrustUntrusted},
		ok:       true,
	}
	assessor := NewRiskAssessor(DefaultParams(), reader)

	request := healthyRequest() // declares verified trust
	assessment := assessor.Assess(request)

	var identityImpact float64
	for _, factor := range assessment.Factors {
		if factor.Category == "identity_trust" {
			identityImpact = factor.Impact
		}
	}
	assert.Equal(t, 90.0, identityImpact)
}
