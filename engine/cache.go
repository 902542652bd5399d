// api/engine/cache.go
package engine

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/warden-labs/zerotrust/api/model"
)

// DecisionCache keeps recent decisions in-process so repeated identical
// requests skip the pipeline while the previous grant is still fresh.
type DecisionCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func NewDecisionCache(maxEntries int64, ttl time.Duration) (*DecisionCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &DecisionCache{cache: cache, ttl: ttl}, nil
}

// CacheKey identifies a request by the fields that drive the decision.
func CacheKey(request *model.AccessRequest) string {
	userID, deviceID, resourceID := "", "", ""
	if request.Identity != nil {
		userID = request.Identity.UserID
	}
	if request.Device != nil {
		deviceID = request.Device.DeviceID
	}
	if request.Resource != nil {
		resourceID = request.Resource.ResourceID
	}
	return fmt.Sprintf("%s:%s:%s:%s", userID, deviceID, resourceID, request.Action)
}

func (dc *DecisionCache) Get(key string) (*model.AccessDecision, bool) {
	value, found := dc.cache.Get(key)
	if !found {
		return nil, false
	}
	decision, ok := value.(*model.AccessDecision)
	if !ok {
		return nil, false
	}
	// A grant past its expiry must be re-evaluated even if ristretto has
	// not evicted it yet.
	if decision.ExpiresAt != nil && time.Now().After(*decision.ExpiresAt) {
		dc.cache.Del(key)
		return nil, false
	}
	return decision, true
}

func (dc *DecisionCache) Set(key string, decision *model.AccessDecision) {
	ttl := dc.ttl
	if decision.ExpiresAt != nil {
		if remaining := time.Until(*decision.ExpiresAt); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}
	dc.cache.SetWithTTL(key, decision, 1, ttl)
}

// Wait blocks until buffered writes have been applied.
func (dc *DecisionCache) Wait() {
	dc.cache.Wait()
}

func (dc *DecisionCache) Clear() {
	dc.cache.Clear()
}

func (dc *DecisionCache) Close() {
	dc.cache.Close()
}
