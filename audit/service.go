// api/audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogDecision(ctx context.Context, record Record) error
	QueryDecisions(ctx context.Context, from, to time.Time, userID, resourceID string) ([]Record, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogDecision(ctx context.Context, record Record) error {
	return s.repo.LogDecision(ctx, record)
}

func (s *service) QueryDecisions(ctx context.Context, from, to time.Time, userID, resourceID string) ([]Record, error) {
	return s.repo.QueryDecisions(ctx, from, to, userID, resourceID)
}
