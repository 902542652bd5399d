// api/util/notification_service.go

package util

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

type NotificationService struct {
	// You might want to add dependencies here, such as a message queue client
}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

func (n *NotificationService) NotifyPolicyChange(ctx context.Context, changeType string, policy model.Policy) error {
	switch changeType {
	case "created":
		logger.Info("NOTIFICATION: New policy created",
			zap.String("policyID", policy.ID),
			zap.String("policyName", policy.Name))
	case "updated":
		logger.Info("NOTIFICATION: Policy updated",
			zap.String("policyID", policy.ID),
			zap.String("policyName", policy.Name))
	case "deleted":
		logger.Info("NOTIFICATION: Policy deleted",
			zap.String("policyID", policy.ID))
	default:
		return fmt.Errorf("unknown change type: %s", changeType)
	}

	return nil
}

// NotifyReviewRequired flags a decision for compliance review. In a real
// deployment this would land in a case-management queue.
func (n *NotificationService) NotifyReviewRequired(ctx context.Context, userID, resourceID string, decision model.AccessDecision) error {
	logger.Warn("NOTIFICATION: Access decision flagged for review",
		zap.String("userID", userID),
		zap.String("resourceID", resourceID),
		zap.String("decision", string(decision.Decision)),
		zap.Strings("reasons", decision.Reasons))
	return nil
}

func (n *NotificationService) NotifyAdmins(ctx context.Context, message string) error {
	logger.Info("Notifying admins", zap.String("message", message))
	return nil
}
