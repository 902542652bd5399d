// api/store/store.go
package store

import (
	"context"

	"github.com/warden-labs/zerotrust/api/model"
)

// PolicyStore is the policy persistence abstraction injected into the
// service layer and the decision engine. Implementations must support safe
// concurrent reads while administrative writes are in flight: an evaluation
// listing policies always sees a consistent set.
type PolicyStore interface {
	Get(ctx context.Context, policyID string) (*model.Policy, error)
	Put(ctx context.Context, policy model.Policy) error
	Delete(ctx context.Context, policyID string) error
	List(ctx context.Context, limit, offset int) ([]*model.Policy, error)
	Search(ctx context.Context, criteria model.PolicySearchCriteria) ([]*model.Policy, error)
}
