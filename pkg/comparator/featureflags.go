// Package comparator implements §4.H: the pairwise Baseline diff, with
// protocol-version-aware field gating, per-aspect severity rules, and
// confidence aggregation via pkg/confidence. Grounded on falcon's
// pkg/core/tools/shared/diff.go CompareResponsesTool end-to-end flow
// (field-added/field-removed/value-changed vocabulary) and its
// security_scanner severity roll-up.
package comparator

import (
	"strconv"
	"strings"

	"github.com/blang/semver"
)

// featureIntroducedAt records the protocol version each gated field was
// introduced at. MCP protocol versions are date-stamped (YYYY-MM-DD) and
// ordered the same way semver orders MAJOR.MINOR.PATCH, so dates are
// parsed into semver.Version{Major:year, Minor:month, Patch:day} rather
// than through semver.Parse (which rejects the leading-zero month/day
// components a strict SemVer string would forbid).
var featureIntroducedAt = map[string]semver.Version{
	"annotations":  {Major: 2025, Minor: 3, Patch: 26},
	"toolTitle":    {Major: 2025, Minor: 6, Patch: 18},
	"outputSchema": {Major: 2025, Minor: 6, Patch: 18},
	"execution":    {Major: 2025, Minor: 6, Patch: 18},
}

// ParseProtocolVersion parses an MCP-style "YYYY-MM-DD" protocol version
// string into a semver.Version for range comparison. Unparseable strings
// return the zero version, which gates every feature off rather than
// panicking — an unrecognized server reports the most conservative
// feature set.
func ParseProtocolVersion(s string) semver.Version {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return semver.Version{}
	}
	year, err1 := strconv.ParseUint(parts[0], 10, 64)
	month, err2 := strconv.ParseUint(parts[1], 10, 64)
	day, err3 := strconv.ParseUint(parts[2], 10, 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return semver.Version{}
	}
	return semver.Version{Major: year, Minor: month, Patch: day}
}

// featureFlags returns the set of gated fields available at protocol
// version v.
func featureFlags(v semver.Version) map[string]bool {
	out := map[string]bool{}
	for flag, introducedAt := range featureIntroducedAt {
		if v.GTE(introducedAt) {
			out[flag] = true
		}
	}
	return out
}

// sharedFeatureFlags computes the §4.H gating set: flags available under
// both protocol versions. An aspect not in this set never contributes to
// severity, regardless of which baseline is older — invariant 8.
func sharedFeatureFlags(beforeVersion, afterVersion string) map[string]bool {
	before := featureFlags(ParseProtocolVersion(beforeVersion))
	after := featureFlags(ParseProtocolVersion(afterVersion))
	shared := map[string]bool{}
	for flag := range before {
		if after[flag] {
			shared[flag] = true
		}
	}
	return shared
}
