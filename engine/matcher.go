// api/engine/matcher.go
package engine

import (
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	logger "github.com/warden-labs/zerotrust/api/logging"
	"github.com/warden-labs/zerotrust/api/model"
)

// SelectApplicable filters the policy set down to enabled policies whose
// scope covers the request, sorted by priority descending with policy ID as
// the deterministic tie-break.
func SelectApplicable(now time.Time, request *model.AccessRequest, policies []*model.Policy) []*model.Policy {
	var applicable []*model.Policy
	for _, policy := range policies {
		if policy == nil || !policy.Enabled {
			continue
		}
		if scopeCovers(now, policy.Scope, request) {
			applicable = append(applicable, policy)
		}
	}

	sort.Slice(applicable, func(i, j int) bool {
		if applicable[i].Priority != applicable[j].Priority {
			return applicable[i].Priority > applicable[j].Priority
		}
		return applicable[i].ID < applicable[j].ID
	})

	return applicable
}

// scopeCovers requires every dimension to match. A dimension matches via the
// wildcard or exact membership; an empty dimension matches nothing, so a
// zero-value scope fails closed.
func scopeCovers(now time.Time, scope model.Scope, request *model.AccessRequest) bool {
	userID, groups := "", []string(nil)
	if request.Identity != nil {
		userID = request.Identity.UserID
		groups = request.Identity.Groups
	}
	if !dimensionMatches(scope.Users, userID) {
		return false
	}
	if !anyDimensionMatches(scope.Groups, groups) {
		return false
	}

	deviceID := ""
	if request.Device != nil {
		deviceID = request.Device.DeviceID
	}
	if !dimensionMatches(scope.Devices, deviceID) {
		return false
	}

	segment, country := "", ""
	if request.Network != nil {
		segment = string(request.Network.Segment)
		country = request.Network.Geo.Country
	}
	if !dimensionMatches(scope.Networks, segment) {
		return false
	}
	if !dimensionMatches(scope.Locations, country) {
		return false
	}

	resourceID := ""
	if request.Resource != nil {
		resourceID = request.Resource.ResourceID
	}
	if !dimensionMatches(scope.Applications, resourceID) {
		return false
	}

	// Data classification only constrains data resources.
	if request.Resource != nil && request.Resource.Type == model.ResourceData {
		if !dimensionMatches(scope.DataClassifications, request.Resource.Classification) {
			return false
		}
	}

	if len(scope.TimeWindows) > 0 && !anyWindowContains(now, scope.TimeWindows) {
		return false
	}

	return true
}

func dimensionMatches(set []string, value string) bool {
	for _, member := range set {
		if member == model.Wildcard {
			return true
		}
		if value != "" && member == value {
			return true
		}
	}
	return false
}

func anyDimensionMatches(set []string, values []string) bool {
	for _, member := range set {
		if member == model.Wildcard {
			return true
		}
		for _, value := range values {
			if member == value {
				return true
			}
		}
	}
	return false
}

// anyWindowContains ORs the scope's time windows.
func anyWindowContains(now time.Time, windows []model.TimeWindow) bool {
	for _, window := range windows {
		if windowContains(now, window) {
			return true
		}
	}
	return false
}

// windowContains checks day-of-week membership and the inclusive [start, end]
// HH:MM range in the window's timezone. A timezone that fails to load makes
// the window not match; time scoping fails closed rather than guessing.
func windowContains(now time.Time, window model.TimeWindow) bool {
	local := now
	if window.Timezone != "" {
		loc, err := time.LoadLocation(window.Timezone)
		if err != nil {
			logger.Warn("Unknown time window timezone", zap.String("timezone", window.Timezone))
			return false
		}
		local = now.In(loc)
	}

	day := strings.ToLower(local.Weekday().String())
	dayMatched := false
	for _, d := range window.Days {
		if strings.ToLower(d) == day {
			dayMatched = true
			break
		}
	}
	if !dayMatched {
		return false
	}

	// HH:MM strings compare chronologically as strings.
	clock := local.Format("15:04")
	return window.Start <= clock && clock <= window.End
}
