// api/model/context.go
package model

import "time"

// TrustLevel is an ordinal classification of confidence in an identity or device.
type TrustLevel string

const (
	TrustUntrusted TrustLevel = "untrusted"
	TrustLow       TrustLevel = "low"
	TrustMedium    TrustLevel = "medium"
	TrustHigh      TrustLevel = "high"
	TrustVerified  TrustLevel = "verified"
)

var trustLevelRanks = map[TrustLevel]int{
	TrustUntrusted: 0,
	TrustLow:       1,
	TrustMedium:    2,
	TrustHigh:      3,
	TrustVerified:  4,
}

// Rank returns the ordinal position of the trust level. Unknown levels rank
// below untrusted so that malformed input is treated as maximally risky.
func (t TrustLevel) Rank() int {
	if rank, ok := trustLevelRanks[t]; ok {
		return rank
	}
	return -1
}

// Score maps the trust level onto a 0-100 trust score.
func (t TrustLevel) Score() float64 {
	switch t {
	case TrustVerified:
		return 100
	case TrustHigh:
		return 75
	case TrustMedium:
		return 50
	case TrustLow:
		return 25
	default:
		return 0
	}
}

// TrustLevelForScore maps a 0-100 trust score back onto a discrete level.
func TrustLevelForScore(score float64) TrustLevel {
	switch {
	case score >= 90:
		return TrustVerified
	case score >= 70:
		return TrustHigh
	case score >= 45:
		return TrustMedium
	case score >= 20:
		return TrustLow
	default:
		return TrustUntrusted
	}
}

// AuthStrength is an ordinal classification of how strongly the requesting
// identity was authenticated.
type AuthStrength string

const (
	AuthNone       AuthStrength = "none"
	AuthWeak       AuthStrength = "weak"
	AuthModerate   AuthStrength = "moderate"
	AuthStrong     AuthStrength = "strong"
	AuthVeryStrong AuthStrength = "very_strong"
)

var authStrengthRanks = map[AuthStrength]int{
	AuthNone:       0,
	AuthWeak:       1,
	AuthModerate:   2,
	AuthStrong:     3,
	AuthVeryStrong: 4,
}

func (a AuthStrength) Rank() int {
	if rank, ok := authStrengthRanks[a]; ok {
		return rank
	}
	return -1
}

// Score maps the authentication strength onto a 0-100 score.
func (a AuthStrength) Score() float64 {
	switch a {
	case AuthVeryStrong:
		return 100
	case AuthStrong:
		return 80
	case AuthModerate:
		return 55
	case AuthWeak:
		return 25
	default:
		return 0
	}
}

// SessionInfo describes the authenticated session the request arrived on.
type SessionInfo struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	Anomalies    []string  `json:"anomalies,omitempty"`
}

// IdentityContext describes the requesting identity at the moment of a
// request. It is assembled by the identity provider and is read-only to the
// decision engine; only the trust scorer updates trust level and risk score.
type IdentityContext struct {
	UserID       string       `json:"user_id"`
	Roles        []string     `json:"roles,omitempty"`
	Groups       []string     `json:"groups,omitempty"`
	TrustLevel   TrustLevel   `json:"trust_level"`
	RiskScore    float64      `json:"risk_score"` // 0-100, inverse of trust score
	AuthMethod   string       `json:"auth_method"`
	AuthStrength AuthStrength `json:"auth_strength"`
	Session      SessionInfo  `json:"session"`
}

// ComplianceRecord is the device's most recent compliance evaluation.
type ComplianceRecord struct {
	Compliant bool     `json:"compliant"`
	Score     float64  `json:"score"` // 0-100
	Issues    []string `json:"issues,omitempty"`
}

// SecurityPosture captures the device's endpoint protection state.
type SecurityPosture struct {
	AntivirusEnabled bool `json:"antivirus_enabled"`
	FirewallEnabled  bool `json:"firewall_enabled"`
	DiskEncrypted    bool `json:"disk_encrypted"`
	PatchCurrent     bool `json:"patch_current"`
	MalwareDetected  bool `json:"malware_detected"`
}

// TrustFactor is one weighted contributor to a device trust score.
type TrustFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Score  float64 `json:"score"` // 0-100
}

// DeviceTrust is the device's aggregate trust evaluation. The score is a
// weighted mean of its factors, computed by the posture-assessment jobs.
type DeviceTrust struct {
	Level   TrustLevel    `json:"level"`
	Score   float64       `json:"score"` // 0-100
	Factors []TrustFactor `json:"factors,omitempty"`
}

// DeviceContext describes the requesting device. Updated by periodic
// posture-assessment jobs; consumed read-only per request.
type DeviceContext struct {
	DeviceID   string           `json:"device_id"`
	Platform   string           `json:"platform"`
	Managed    bool             `json:"managed"`
	Certified  bool             `json:"certified"`
	Compliance ComplianceRecord `json:"compliance"`
	Posture    SecurityPosture  `json:"posture"`
	Trust      DeviceTrust      `json:"trust"`
}

// NetworkSegment classifies the network path of a request.
type NetworkSegment string

const (
	SegmentInternal   NetworkSegment = "internal"
	SegmentExternal   NetworkSegment = "external"
	SegmentDMZ        NetworkSegment = "dmz"
	SegmentGuest      NetworkSegment = "guest"
	SegmentQuarantine NetworkSegment = "quarantine"
)

// NetworkReputation is the reputation verdict for the source address.
type NetworkReputation struct {
	Score       float64 `json:"score"` // 0-100, higher is better
	Blacklisted bool    `json:"blacklisted"`
	Whitelisted bool    `json:"whitelisted"`
}

// GeoLocation describes where the request appears to originate from.
type GeoLocation struct {
	Country   string  `json:"country"`
	City      string  `json:"city,omitempty"`
	VPN       bool    `json:"vpn"`
	Tor       bool    `json:"tor"`
	Proxy     bool    `json:"proxy"`
	RiskScore float64 `json:"risk_score"` // 0-100, higher is riskier
}

// NetworkContext describes the network path of a request.
type NetworkContext struct {
	SourceIP      string            `json:"source_ip"`
	DestinationIP string            `json:"destination_ip"`
	Protocol      string            `json:"protocol"`
	Port          int               `json:"port"`
	Reputation    NetworkReputation `json:"reputation"`
	Geo           GeoLocation       `json:"geo"`
	Segment       NetworkSegment    `json:"segment"`
}

// ResourceType classifies the target resource.
type ResourceType string

const (
	ResourceApplication ResourceType = "application"
	ResourceData        ResourceType = "data"
	ResourceNetwork     ResourceType = "network"
	ResourceSystem      ResourceType = "system"
)

// ResourceContext describes the target resource of a request.
type ResourceContext struct {
	ResourceID     string       `json:"resource_id"`
	Type           ResourceType `json:"type"`
	Classification string       `json:"classification"`
	Owner          string       `json:"owner,omitempty"`
}
