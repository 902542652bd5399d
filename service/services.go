// api/service/services.go
package service

import (
	"time"

	"github.com/warden-labs/zerotrust/api/audit"
	"github.com/warden-labs/zerotrust/api/engine"
	"github.com/warden-labs/zerotrust/api/store"
	"github.com/warden-labs/zerotrust/api/trust"
	"github.com/warden-labs/zerotrust/api/util"
)

type Services struct {
	Policy IPolicyService
	Access IAccessService
}

func InitializeServices(
	policyStore store.PolicyStore,
	evaluator *engine.Evaluator,
	scorer *trust.Scorer,
	auditService audit.Service,
	validationUtil *util.ValidationUtil,
	cacheService *util.CacheService,
	notificationSvc *util.NotificationService,
	eventBus *util.EventBus,
	metrics *engine.Metrics,
	evaluationTimeout time.Duration,
) (*Services, error) {
	services := &Services{
		Policy: NewPolicyService(policyStore, validationUtil, cacheService, notificationSvc, eventBus, metrics),
		Access: NewAccessService(evaluator, scorer, validationUtil, cacheService, notificationSvc, eventBus, auditService, evaluationTimeout),
	}

	return services, nil
}
