// Package classifier holds the deterministic risk rules: the three-tier
// verdict for incoming calls and the offline heuristics used whenever the
// AI collaborator is unavailable. Everything here is pure computation.
package classifier

import (
	"github.com/truthshield/callguard/internal/domain"
)

// scamReportThreshold is the community report count at which an unknown
// number is escalated to dangerous.
const scamReportThreshold = 5

// Classify produces the tier verdict for an incoming call.
//
// Rule precedence, first match wins:
//  1. Safe: explicit safe override, or a known contact. A known contact is
//     always safe regardless of community data.
//  2. Dangerous: explicit scam override, or community evidence (scam tag or
//     enough reports) unless an explicit suspicious override caps it.
//  3. Suspicious: everything else, including unknown numbers with no data.
//
// A community lookup still in flight is passed as nil and treated as
// absent; the tier may upgrade once data arrives.
func Classify(contactName string, override domain.RiskStatus, community *domain.PhoneLookupResult) domain.Tier {
	if override == domain.RiskSafe || contactName != "" {
		return domain.TierSafe
	}

	dbScam := community.HasTag(domain.TagScam)
	reports := 0
	if community != nil {
		reports = community.ReportCount
	}

	if override == domain.RiskScam ||
		((dbScam || reports >= scamReportThreshold) && override != domain.RiskSuspicious) {
		return domain.TierDangerous
	}

	return domain.TierSuspicious
}
