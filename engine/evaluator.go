// api/engine/evaluator.go
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/store"
)

// Trace carries the intermediate pipeline state alongside the decision for
// auditing.
type Trace struct {
	MatchedPolicies []string
	PolicyResults   []model.PolicyResult
	Risk            *model.RiskAssessment
	Conflicts       []model.ConflictResolution
	Duration        time.Duration
}

// Evaluator runs the decision pipeline: risk assessment and policy matching
// feed condition evaluation, whose verdicts pass through conflict resolution
// into the synthesizer. Any internal fault resolves to deny.
type Evaluator struct {
	store       store.PolicyStore
	risk        *RiskAssessor
	conditions  *ConditionEvaluator
	synthesizer *DecisionSynthesizer
	cache       *DecisionCache
	metrics     *Metrics
	params      Params
}

func NewEvaluator(policyStore store.PolicyStore, trust TrustReader, cache *DecisionCache, metrics *Metrics, params Params) *Evaluator {
	return &Evaluator{
		store:       policyStore,
		risk:        NewRiskAssessor(params, trust),
		conditions:  NewConditionEvaluator(params),
		synthesizer: NewDecisionSynthesizer(params),
		cache:       cache,
		metrics:     metrics,
		params:      params,
	}
}

// Evaluate decides the request. The returned trace is always non-nil.
func (e *Evaluator) Evaluate(ctx context.Context, request *model.AccessRequest) (decision *model.AccessDecision, trace *Trace) {
	started := time.Now()
	trace = &Trace{}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Evaluation pipeline panicked, failing closed", zap.Any("panic", r))
			decision = e.failClosed(started, "internal evaluation fault")
		}
		trace.Duration = time.Since(started)
		if e.metrics != nil {
			e.metrics.RecordEvaluation(string(decision.Decision), trace.Duration)
		}
	}()

	cacheKey := CacheKey(request)
	if e.cache != nil {
		if cached, found := e.cache.Get(cacheKey); found {
			if e.metrics != nil {
				e.metrics.RecordCacheLookup(true)
			}
			return cached, trace
		}
		if e.metrics != nil {
			e.metrics.RecordCacheLookup(false)
		}
	}

	risk := e.risk.Assess(request)
	trace.Risk = &risk
	if e.metrics != nil {
		e.metrics.RecordRiskScore(risk.Score)
	}

	policies, err := e.store.List(ctx, 0, 0)
	if err != nil {
		logger.Error("Policy store unavailable, failing closed", zap.Error(err))
		decision = e.failClosed(started, "policy store unavailable")
		return decision, trace
	}

	applicable := SelectApplicable(started, request, policies)
	for _, policy := range applicable {
		result := e.conditions.EvaluatePolicy(policy, request)
		trace.PolicyResults = append(trace.PolicyResults, result)
		if result.Matched {
			trace.MatchedPolicies = append(trace.MatchedPolicies, result.PolicyID)
		}
	}

	trace.Conflicts = ResolveConflicts(trace.PolicyResults)
	decision = e.synthesizer.Decide(trace.PolicyResults, trace.Conflicts, &risk, started)

	if e.cache != nil && decision.Decision == model.DecisionAllow {
		e.cache.Set(cacheKey, decision)
	}
	return decision, trace
}

// failClosed produces the deny issued when the pipeline itself cannot run.
func (e *Evaluator) failClosed(now time.Time, reason string) *model.AccessDecision {
	return &model.AccessDecision{
		Decision:       model.DecisionDeny,
		Confidence:     100,
		Reasons:        []string{reason},
		ReviewRequired: true,
		EvaluatedAt:    now,
	}
}
