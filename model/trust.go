// api/model/trust.go
package model

import "time"

// TrustSignal is one observation contributing to an identity's trust score.
// Value is a 0-100 trust contribution; Weight controls how strongly the
// signal pulls the windowed mean.
type TrustSignal struct {
	IdentityID string    `json:"identity_id"`
	DeviceID   string    `json:"device_id,omitempty"`
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	Weight     float64   `json:"weight"`
	Source     string    `json:"source,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
}

// TrustSnapshot is the trust scorer's published view of one identity. The
// decision path reads the latest snapshot and tolerates staleness up to the
// scorer's refresh interval.
type TrustSnapshot struct {
	IdentityID  string     `json:"identity_id"`
	Level       TrustLevel `json:"level"`
	Score       float64    `json:"score"` // 0-100
	SignalCount int        `json:"signal_count"`
	ComputedAt  time.Time  `json:"computed_at"`
}
