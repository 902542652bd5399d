package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warden-labs/zerotrust/api/audit"
	"github.com/warden-labs/zerotrust/api/engine"
	ztx_errors "github.com/warden-labs/zerotrust/api/errors"
	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
	"github.com/warden-labs/zerotrust/api/trust"
	"github.com/warden-labs/zerotrust/api/util"
)

type IAccessService interface {
	EvaluateAccess(ctx context.Context, request model.AccessRequest) (*model.AccessDecision, error)
	RecordTrustSignal(ctx context.Context, signal model.TrustSignal) error
}

// AccessService fronts the decision pipeline. Evaluations run under a hard
// deadline; a pipeline that cannot answer in time denies the request.
type AccessService struct {
	evaluator         *engine.Evaluator
	scorer            *trust.Scorer
	validationUtil    *util.ValidationUtil
	cacheService      *util.CacheService
	notificationSvc   *util.NotificationService
	eventBus          *util.EventBus
	auditSvc          audit.Service
	evaluationTimeout time.Duration
}

func NewAccessService(evaluator *engine.Evaluator, scorer *trust.Scorer, validationUtil *util.ValidationUtil, cacheService *util.CacheService, notificationSvc *util.NotificationService, eventBus *util.EventBus, auditSvc audit.Service, evaluationTimeout time.Duration) *AccessService {
	service := &AccessService{
		evaluator:         evaluator,
		scorer:            scorer,
		validationUtil:    validationUtil,
		cacheService:      cacheService,
		notificationSvc:   notificationSvc,
		eventBus:          eventBus,
		auditSvc:          auditSvc,
		evaluationTimeout: evaluationTimeout,
	}

	eventBus.Subscribe(util.EventAccessDecided, service.handleAccessDecided)

	return service
}

type evaluationOutcome struct {
	decision *model.AccessDecision
	trace    *engine.Trace
}

// EvaluateAccess runs the pipeline against the request. The only error it
// returns is for an invalid request; every pipeline failure mode resolves to
// a deny decision instead.
func (s *AccessService) EvaluateAccess(ctx context.Context, request model.AccessRequest) (*model.AccessDecision, error) {
	if err := s.validationUtil.ValidateAccessRequest(request); err != nil {
		return nil, fmt.Errorf("%w: %v", ztx_errors.ErrInvalidAccessRequest, err)
	}

	cacheKey := engine.CacheKey(&request)
	if cached := s.cachedDecision(ctx, cacheKey); cached != nil {
		return cached, nil
	}

	started := time.Now()
	evalCtx, cancel := context.WithTimeout(ctx, s.evaluationTimeout)
	defer cancel()

	results := make(chan evaluationOutcome, 1)
	go func() {
		decision, trace := s.evaluator.Evaluate(evalCtx, &request)
		results <- evaluationOutcome{decision: decision, trace: trace}
	}()

	var outcome evaluationOutcome
	select {
	case outcome = <-results:
	case <-evalCtx.Done():
		logger.Warn("Access evaluation timed out, denying",
			zap.Error(ztx_errors.ErrEvaluationTimeout),
			zap.String("userID", request.Identity.UserID),
			zap.Duration("timeout", s.evaluationTimeout))
		outcome = evaluationOutcome{
			decision: &model.AccessDecision{
				Decision:       model.DecisionDeny,
				Confidence:     100,
				Reasons:        []string{fmt.Sprintf("evaluation exceeded %s deadline", s.evaluationTimeout)},
				ReviewRequired: true,
				EvaluatedAt:    started,
			},
			trace: &engine.Trace{Duration: time.Since(started)},
		}
	}

	s.publishDecision(ctx, request, outcome)
	s.cacheDecision(ctx, cacheKey, outcome.decision)

	if outcome.decision.ReviewRequired {
		if err := s.notificationSvc.NotifyReviewRequired(ctx, request.Identity.UserID, resourceID(&request), *outcome.decision); err != nil {
			logger.Warn("Failed to send review notification", zap.Error(err))
		}
	}

	return outcome.decision, nil
}

// cachedDecision checks the cross-instance Redis tier for a still-valid allow
// decision. Deny and challenge outcomes are never served from cache.
func (s *AccessService) cachedDecision(ctx context.Context, key string) *model.AccessDecision {
	if s.cacheService == nil {
		return nil
	}
	decision, err := s.cacheService.GetDecision(ctx, key)
	if err != nil || decision == nil {
		return nil
	}
	if decision.Decision != model.DecisionAllow || decision.ReviewRequired {
		return nil
	}
	if decision.ExpiresAt == nil || !decision.ExpiresAt.After(time.Now()) {
		return nil
	}
	return decision
}

func (s *AccessService) cacheDecision(ctx context.Context, key string, decision *model.AccessDecision) {
	if s.cacheService == nil {
		return
	}
	if decision.Decision != model.DecisionAllow || decision.ReviewRequired {
		return
	}
	if err := s.cacheService.SetDecision(ctx, key, *decision); err != nil {
		logger.Debug("Failed to cache decision", zap.Error(err), zap.String("key", key))
	}
}

// RecordTrustSignal validates and queues a signal for the trust scorer.
func (s *AccessService) RecordTrustSignal(ctx context.Context, signal model.TrustSignal) error {
	if err := s.validationUtil.ValidateTrustSignal(signal); err != nil {
		return fmt.Errorf("%w: %v", ztx_errors.ErrInvalidTrustSignal, err)
	}
	return s.scorer.RecordSignal(signal)
}

// publishDecision hands the audit record to the event bus so evaluation
// latency never includes the Elasticsearch write.
func (s *AccessService) publishDecision(ctx context.Context, request model.AccessRequest, outcome evaluationOutcome) {
	record := audit.Record{
		Timestamp:       outcome.decision.EvaluatedAt,
		UserID:          request.Identity.UserID,
		ResourceID:      resourceID(&request),
		Action:          request.Action,
		Decision:        *outcome.decision,
		MatchedPolicies: outcome.trace.MatchedPolicies,
		Conflicts:       outcome.trace.Conflicts,
		DurationMillis:  outcome.trace.Duration.Milliseconds(),
	}
	if request.Device != nil {
		record.DeviceID = request.Device.DeviceID
	}
	if outcome.trace.Risk != nil {
		record.RiskScore = outcome.trace.Risk.Score
		record.RiskLevel = outcome.trace.Risk.Level
		record.RiskFactors = outcome.trace.Risk.Factors
	}
	s.eventBus.Publish(ctx, util.EventAccessDecided, record)
}

func (s *AccessService) handleAccessDecided(ctx context.Context, event util.Event) error {
	record, ok := event.Payload.(audit.Record)
	if !ok {
		logger.Error("Invalid event payload type", zap.Any("payload", event.Payload))
		return fmt.Errorf("invalid event payload type: %T", event.Payload)
	}

	if err := s.auditSvc.LogDecision(ctx, record); err != nil {
		logger.Error("Failed to log access decision",
			zap.Error(err),
			zap.String("userID", record.UserID),
			zap.String("resourceID", record.ResourceID))
		return err
	}
	return nil
}

func resourceID(request *model.AccessRequest) string {
	if request.Resource == nil {
		return ""
	}
	return request.Resource.ResourceID
}
