// api/trust/scorer.go
package trust

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

// Scorer continuously folds observed trust signals into per-identity trust
// snapshots. Signal ingestion and snapshot reads never block each other:
// readers get an immutable map swapped in atomically at each recompute.
type Scorer struct {
	refreshInterval time.Duration
	signalWindow    time.Duration

	mu      sync.Mutex
	signals map[string][]model.TrustSignal

	snapshots atomic.Value // map[string]model.TrustSnapshot

	recomputeHook func()

	stopOnce sync.Once
	stopped  chan struct{}
}

func NewScorer(refreshInterval, signalWindow time.Duration) *Scorer {
	s := &Scorer{
		refreshInterval: refreshInterval,
		signalWindow:    signalWindow,
		signals:         make(map[string][]model.TrustSignal),
		stopped:         make(chan struct{}),
	}
	s.snapshots.Store(make(map[string]model.TrustSnapshot))
	return s
}

// SetRecomputeHook installs a callback fired after every recompute cycle,
// used to bump the recompute counter metric.
func (s *Scorer) SetRecomputeHook(hook func()) {
	s.recomputeHook = hook
}

// RecordSignal queues a signal for the next recompute cycle.
func (s *Scorer) RecordSignal(signal model.TrustSignal) error {
	if signal.IdentityID == "" || signal.Value < 0 || signal.Value > 100 {
		return ztx_errors.ErrInvalidTrustSignal
	}
	if signal.Weight <= 0 {
		signal.Weight = 1
	}
	if signal.ObservedAt.IsZero() {
		signal.ObservedAt = time.Now()
	}

	s.mu.Lock()
	s.signals[signal.IdentityID] = append(s.signals[signal.IdentityID], signal)
	s.mu.Unlock()
	return nil
}

// Start runs the recompute loop until the context is cancelled or Stop is
// called. It blocks and is intended to run on its own goroutine.
func (s *Scorer) Start(ctx context.Context) {
	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	logger.Info("Trust scorer started",
		zap.Duration("refreshInterval", s.refreshInterval),
		zap.Duration("signalWindow", s.signalWindow))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopped:
			return
		case <-ticker.C:
			s.Recompute(time.Now())
		}
	}
}

func (s *Scorer) Stop() {
	s.stopOnce.Do(func() { close(s.stopped) })
}

// Recompute prunes signals older than the window, computes the weighted mean
// per identity and publishes a fresh snapshot map.
func (s *Scorer) Recompute(now time.Time) {
	cutoff := now.Add(-s.signalWindow)
	next := make(map[string]model.TrustSnapshot)

	s.mu.Lock()
	for identityID, signals := range s.signals {
		fresh := signals[:0]
		for _, signal := range signals {
			if signal.ObservedAt.After(cutoff) {
				fresh = append(fresh, signal)
			}
		}
		if len(fresh) == 0 {
			delete(s.signals, identityID)
			continue
		}
		s.signals[identityID] = fresh

		var weightedSum, totalWeight float64
		for _, signal := range fresh {
			weightedSum += signal.Value * signal.Weight
			totalWeight += signal.Weight
		}
		score := weightedSum / totalWeight
		next[identityID] = model.TrustSnapshot{
			IdentityID:  identityID,
			Level:       model.TrustLevelForScore(score),
			Score:       score,
			SignalCount: len(fresh),
			ComputedAt:  now,
		}
	}
	s.mu.Unlock()

	s.snapshots.Store(next)
	if s.recomputeHook != nil {
		s.recomputeHook()
	}
}

// TrustFor returns the most recent snapshot for the identity. It satisfies
// the risk assessor's trust reader and never blocks on ingestion.
func (s *Scorer) TrustFor(identityID string) (model.TrustSnapshot, bool) {
	snapshots := s.snapshots.Load().(map[string]model.TrustSnapshot)
	snapshot, ok := snapshots[identityID]
	return snapshot, ok
}
