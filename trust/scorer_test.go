package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	m.Run()
}

func newTestScorer() *Scorer {
	return NewScorer(time.Minute, 24*time.Hour)
}

func TestRecordSignalValidation(t *testing.T) {
	scorer := newTestScorer()

	tests := []struct {
		name   string
		signal model.TrustSignal
		err    error
	}{
		{"missing identity", model.TrustSignal{Value: 50}, ztx_errors.ErrInvalidTrustSignal},
		{"value below range", model.TrustSignal{IdentityID: "alice", Value: -1}, ztx_errors.ErrInvalidTrustSignal},
		{"value above range", model.TrustSignal{IdentityID: "alice", Value: 101}, ztx_errors.ErrInvalidTrustSignal},
		{"valid", model.TrustSignal{IdentityID: "alice", Value: 80}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := scorer.RecordSignal(tc.signal)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRecomputeWeightedMean(t *testing.T) {
	scorer := newTestScorer()
	now := time.Now()

	require.NoError(t, scorer.RecordSignal(model.TrustSignal{
		IdentityID: "alice", Type: "mfa_success", Value: 90, Weight: 3, ObservedAt: now,
	}))
	require.NoError(t, scorer.RecordSignal(model.TrustSignal{
		IdentityID: "alice", Type: "new_device", Value: 30, Weight: 1, ObservedAt: now,
	}))

	scorer.Recompute(now)

	snapshot, ok := scorer.TrustFor("alice")
	require.True(t, ok)
	assert.InDelta(t, 75.0, snapshot.Score, 0.001) // (90*3 + 30*1) / 4
	assert.Equal(t, model.TrustHigh, snapshot.Level)
	assert.Equal(t, 2, snapshot.SignalCount)
	assert.Equal(t, now, snapshot.ComputedAt)
}

func TestRecomputeDefaultsWeight(t *testing.T) {
	scorer := newTestScorer()
	now := time.Now()

	require.NoError(t, scorer.RecordSignal(model.TrustSignal{IdentityID: "bob", Value: 40}))
	scorer.Recompute(now)

	snapshot, ok := scorer.TrustFor("bob")
	require.True(t, ok)
	assert.InDelta(t, 40.0, snapshot.Score, 0.001)
}

func TestRecomputePrunesExpiredSignals(t *testing.T) {
	scorer := NewScorer(time.Minute, time.Hour)
	now := time.Now()

	require.NoError(t, scorer.RecordSignal(model.TrustSignal{
		IdentityID: "alice", Value: 100, Weight: 1, ObservedAt: now.Add(-2 * time.Hour),
	}))
	require.NoError(t, scorer.RecordSignal(model.TrustSignal{
		IdentityID: "alice", Value: 20, Weight: 1, ObservedAt: now.Add(-time.Minute),
	}))

	scorer.Recompute(now)

	snapshot, ok := scorer.TrustFor("alice")
	require.True(t, ok)
	assert.InDelta(t, 20.0, snapshot.Score, 0.001, "stale signal dropped from the mean")
	assert.Equal(t, 1, snapshot.SignalCount)
}

func TestRecomputeDropsIdentityWithoutFreshSignals(t *testing.T) {
	scorer := NewScorer(time.Minute, time.Hour)
	now := time.Now()

	require.NoError(t, scorer.RecordSignal(model.TrustSignal{
		IdentityID: "gone", Value: 90, Weight: 1, ObservedAt: now.Add(-2 * time.Hour),
	}))

	scorer.Recompute(now)

	_, ok := scorer.TrustFor("gone")
	assert.False(t, ok)
}

func TestTrustForUnknownIdentity(t *testing.T) {
	scorer := newTestScorer()
	scorer.Recompute(time.Now())

	_, ok := scorer.TrustFor("nobody")
	assert.False(t, ok)
}

func TestRecomputeFiresHook(t *testing.T) {
	scorer := newTestScorer()
	fired := 0
	scorer.SetRecomputeHook(func() { fired++ })

	scorer.Recompute(time.Now())
	scorer.Recompute(time.Now())

	assert.Equal(t, 2, fired)
}

func TestTrustLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		level model.TrustLevel
	}{
		{95, model.TrustVerified},
		{90, model.TrustVerified},
		{75, model.TrustHigh},
		{50, model.TrustMedium},
		{25, model.TrustLow},
		{5, model.TrustUntrusted},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.level, model.TrustLevelForScore(tc.score))
	}
}
