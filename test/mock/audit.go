// test/mock/audit.go
package mock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/warden-labs/zerotrust/api/audit"
)

// MockAuditService is a mock implementation of audit.Service
type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogDecision(ctx context.Context, record audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditService) QueryDecisions(ctx context.Context, from, to time.Time, userID, resourceID string) ([]audit.Record, error) {
	args := m.Called(ctx, from, to, userID, resourceID)
	return args.Get(0).([]audit.Record), args.Error(1)
}
