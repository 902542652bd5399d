package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warden-labs/zerotrust/api/model"
)

func wildcardScope() model.Scope {
	return model.Scope{
		Users:        []string{model.Wildcard},
		Groups:       []string{model.Wildcard},
		Devices:      []string{model.Wildcard},
		Networks:     []string{model.Wildcard},
		Applications: []string{model.Wildcard},
		Locations:    []string{model.Wildcard},
	}
}

func enabledPolicy(id string, priority int, scope model.Scope) *model.Policy {
	return &model.Policy{
		ID:       id,
		Name:     "policy " + id,
		Type:     model.PolicyAccess,
		Scope:    scope,
		Priority: priority,
		Enabled:  true,
	}
}

func TestSelectApplicableSortsByPriorityThenID(t *testing.T) {
	request := healthyRequest()
	policies := []*model.Policy{
		enabledPolicy("b", 10, wildcardScope()),
		enabledPolicy("a", 10, wildcardScope()),
		enabledPolicy("c", 50, wildcardScope()),
	}

	applicable := SelectApplicable(time.Now(), request, policies)

	assert.Len(t, applicable, 3)
	assert.Equal(t, "c", applicable[0].ID)
	assert.Equal(t, "a", applicable[1].ID)
	assert.Equal(t, "b", applicable[2].ID)
}

func TestSelectApplicableSkipsDisabled(t *testing.T) {
	request := healthyRequest()
	disabled := enabledPolicy("off", 100, wildcardScope())
	disabled.Enabled = false

	applicable := SelectApplicable(time.Now(), request, []*model.Policy{disabled})

	assert.Empty(t, applicable)
}

func TestScopeEmptyDimensionNeverMatches(t *testing.T) {
	request := healthyRequest()
	scope := wildcardScope()
	scope.Users = nil

	applicable := SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)})

	assert.Empty(t, applicable)
}

func TestScopeExactMembership(t *testing.T) {
	request := healthyRequest()
	scope := wildcardScope()
	scope.Users = []string{"bob", "alice"}
	scope.Networks = []string{"internal"}
	scope.Locations = []string{"DE", "FR"}

	applicable := SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)})

	assert.Len(t, applicable, 1)
}

func TestScopeGroupMembership(t *testing.T) {
	request := healthyRequest() // groups: engineering
	scope := wildcardScope()
	scope.Groups = []string{"finance"}

	assert.Empty(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}))

	scope.Groups = []string{"finance", "engineering"}
	assert.Len(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}), 1)
}

func TestScopeDataClassificationOnlyConstrainsDataResources(t *testing.T) {
	request := healthyRequest() // resource type application
	scope := wildcardScope()
	scope.DataClassifications = []string{"public"}

	// Non-data resource ignores the classification dimension.
	assert.Len(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}), 1)

	request.Resource.Type = model.ResourceData
	request.Resource.Classification = "confidential"
	assert.Empty(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}))

	request.Resource.Classification = "public"
	assert.Len(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}), 1)
}

func TestScopeTimeWindow(t *testing.T) {
	request := healthyRequest()
	scope := wildcardScope()
	scope.TimeWindows = []model.TimeWindow{{
		Start:    "09:00",
		End:      "17:00",
		Days:     []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		Timezone: "UTC",
	}}
	policy := enabledPolicy("office-hours", 1, scope)

	// 2026-03-02 is a Monday.
	inside := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	assert.Len(t, SelectApplicable(inside, request, []*model.Policy{policy}), 1)

	boundary := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	assert.Len(t, SelectApplicable(boundary, request, []*model.Policy{policy}), 1, "bounds are inclusive")

	after := time.Date(2026, 3, 2, 17, 1, 0, 0, time.UTC)
	assert.Empty(t, SelectApplicable(after, request, []*model.Policy{policy}))

	weekend := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	assert.Empty(t, SelectApplicable(weekend, request, []*model.Policy{policy}))
}

func TestScopeBadTimezoneFailsClosed(t *testing.T) {
	request := healthyRequest()
	scope := wildcardScope()
	scope.TimeWindows = []model.TimeWindow{{
		Start:    "00:00",
		End:      "23:59",
		Days:     []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
		Timezone: "Not/AZone",
	}}

	assert.Empty(t, SelectApplicable(time.Now(), request, []*model.Policy{enabledPolicy("p", 1, scope)}))
}
