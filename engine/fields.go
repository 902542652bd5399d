// api/engine/fields.go
package engine

import (
	"strings"
	"time"

	"github.com/warden-labs/zerotrust/api/model"
)

// ValueKind tells the condition evaluator how to compare a field value.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
	KindList
	KindOrdinal
)

// FieldValue is a typed view of one extractable request field.
type FieldValue struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []string
	// Rank orders ordinal values; Domain names the enum so condition values
	// can be ranked in the same space.
	Rank   int
	Domain string
}

const (
	domainTrustLevel   = "trust_level"
	domainAuthStrength = "auth_strength"
)

// fieldGetter extracts a field from a request. ok is false when the owning
// context object is absent, which the evaluator treats as unmatched.
type fieldGetter func(request *model.AccessRequest) (FieldValue, bool)

// fieldRegistry is the closed set of condition fields. Policies referencing
// a field outside this set evaluate it as unmatched; they never fail hard.
var fieldRegistry = map[string]fieldGetter{
	"identity.user_id": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Identity.UserID}, true
	},
	"identity.roles": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindList, List: r.Identity.Roles}, true
	},
	"identity.groups": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindList, List: r.Identity.Groups}, true
	},
	"identity.trust_level": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{
			Kind:   KindOrdinal,
			Str:    string(r.Identity.TrustLevel),
			Rank:   r.Identity.TrustLevel.Rank(),
			Domain: domainTrustLevel,
		}, true
	},
	"identity.risk_score": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: r.Identity.RiskScore}, true
	},
	"identity.auth_method": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Identity.AuthMethod}, true
	},
	"identity.auth_strength": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{
			Kind:   KindOrdinal,
			Str:    string(r.Identity.AuthStrength),
			Rank:   r.Identity.AuthStrength.Rank(),
			Domain: domainAuthStrength,
		}, true
	},
	"identity.session.anomaly_count": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Identity == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: float64(len(r.Identity.Session.Anomalies))}, true
	},
	"device.id": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Device.DeviceID}, true
	},
	"device.platform": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Device.Platform}, true
	},
	"device.managed": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Device.Managed}, true
	},
	"device.certified": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Device.Certified}, true
	},
	"device.compliance.compliant": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Device.Compliance.Compliant}, true
	},
	"device.compliance.score": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: r.Device.Compliance.Score}, true
	},
	"device.trust_level": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{
			Kind:   KindOrdinal,
			Str:    string(r.Device.Trust.Level),
			Rank:   r.Device.Trust.Level.Rank(),
			Domain: domainTrustLevel,
		}, true
	},
	"device.trust_score": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: r.Device.Trust.Score}, true
	},
	"device.posture.malware_detected": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Device == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Device.Posture.MalwareDetected}, true
	},
	"network.segment": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: string(r.Network.Segment)}, true
	},
	"network.reputation.score": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: r.Network.Reputation.Score}, true
	},
	"network.blacklisted": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Network.Reputation.Blacklisted}, true
	},
	"network.whitelisted": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Network.Reputation.Whitelisted}, true
	},
	"network.geo.country": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Network.Geo.Country}, true
	},
	"network.geo.vpn": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Network.Geo.VPN}, true
	},
	"network.geo.tor": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Network.Geo.Tor}, true
	},
	"network.geo.proxy": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindBool, Bool: r.Network.Geo.Proxy}, true
	},
	"network.geo.risk_score": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Network == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindNumber, Num: r.Network.Geo.RiskScore}, true
	},
	"resource.id": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Resource == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Resource.ResourceID}, true
	},
	"resource.type": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Resource == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: string(r.Resource.Type)}, true
	},
	"resource.classification": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Resource == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Resource.Classification}, true
	},
	"resource.owner": func(r *model.AccessRequest) (FieldValue, bool) {
		if r.Resource == nil {
			return FieldValue{}, false
		}
		return FieldValue{Kind: KindString, Str: r.Resource.Owner}, true
	},
	"request.action": func(r *model.AccessRequest) (FieldValue, bool) {
		return FieldValue{Kind: KindString, Str: r.Action}, true
	},
	"request.emergency": func(r *model.AccessRequest) (FieldValue, bool) {
		return FieldValue{Kind: KindBool, Bool: r.Context.Emergency}, true
	},
	"request.unusual": func(r *model.AccessRequest) (FieldValue, bool) {
		return FieldValue{Kind: KindBool, Bool: r.Context.Unusual}, true
	},
	"request.prior_requests": func(r *model.AccessRequest) (FieldValue, bool) {
		return FieldValue{Kind: KindNumber, Num: float64(r.Context.PriorRequests)}, true
	},
	"request.hour": func(r *model.AccessRequest) (FieldValue, bool) {
		ts := r.Context.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		return FieldValue{Kind: KindNumber, Num: float64(ts.Hour())}, true
	},
	"request.day_of_week": func(r *model.AccessRequest) (FieldValue, bool) {
		ts := r.Context.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		return FieldValue{Kind: KindString, Str: strings.ToLower(ts.Weekday().String())}, true
	},
}

// ExtractField resolves a condition field name against the registry.
func ExtractField(name string, request *model.AccessRequest) (FieldValue, bool) {
	getter, ok := fieldRegistry[name]
	if !ok {
		return FieldValue{}, false
	}
	return getter(request)
}

// rankInDomain ranks a condition comparison value in the same ordinal space
// as the field it is compared to.
func rankInDomain(domain, value string) int {
	switch domain {
	case domainTrustLevel:
		return model.TrustLevel(value).Rank()
	case domainAuthStrength:
		return model.AuthStrength(value).Rank()
	default:
		return -1
	}
}
