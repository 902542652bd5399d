// api/engine/conflict.go
package engine

import "github.com/warden-labs/zerotrust/api/model"

// ResolveConflicts detects disagreements between matched policies and records
// how each was settled. Deny beats allow regardless of priority. A challenge
// verdict alongside any other verdict forces the challenge first.
func ResolveConflicts(results []model.PolicyResult) []model.ConflictResolution {
	var allowIDs, denyIDs, challengeIDs []string
	for _, result := range results {
		if !result.Matched {
			continue
		}
		switch result.Result {
		case model.EffectAllow:
			allowIDs = append(allowIDs, result.PolicyID)
		case model.EffectDeny:
			denyIDs = append(denyIDs, result.PolicyID)
		case model.EffectChallenge:
			challengeIDs = append(challengeIDs, result.PolicyID)
		}
	}

	var conflicts []model.ConflictResolution

	if len(denyIDs) > 0 && len(allowIDs) > 0 {
		conflicts = append(conflicts, model.ConflictResolution{
			Type:        model.ConflictPrecedence,
			PolicyIDs:   append(append([]string{}, denyIDs...), allowIDs...),
			Resolution:  "deny_wins",
			Description: "deny and allow verdicts both matched; deny takes precedence",
		})
	}

	if len(challengeIDs) > 0 && (len(allowIDs) > 0 || len(denyIDs) > 0) {
		others := append(append([]string{}, denyIDs...), allowIDs...)
		conflicts = append(conflicts, model.ConflictResolution{
			Type:        model.ConflictOverride,
			PolicyIDs:   append(append([]string{}, challengeIDs...), others...),
			Resolution:  "challenge_first",
			Description: "challenge verdict matched alongside other verdicts; additional verification required before the underlying verdict applies",
		})
	}

	return conflicts
}
