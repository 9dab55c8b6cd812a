package baseline

import (
	"strconv"

	"github.com/arcflow-dev/bellwether/pkg/errs"
)

// oldestSupportedVersion bounds how far back Migrate will walk; anything
// older is an UnsupportedFormat per §7.
const oldestSupportedVersion = 1

// transform upgrades a raw baseline document from one schemaVersion to
// the next. Transforms compose sequentially, so each only needs to know
// about its own step.
type transform func(map[string]interface{}) map[string]interface{}

var migrations = map[int]transform{
	1: migrateV1ToV2,
	2: migrateV2ToV3,
}

// Migrate composes the transform chain from fromVersion up to
// CurrentSchemaVersion. Unknown or pre-oldestSupportedVersion versions
// fail with UnsupportedFormat.
func Migrate(raw map[string]interface{}, fromVersion int) (map[string]interface{}, error) {
	if fromVersion > CurrentSchemaVersion || fromVersion < oldestSupportedVersion {
		return nil, errs.NewUnsupportedFormat(strconv.Itoa(fromVersion))
	}
	current := raw
	for v := fromVersion; v < CurrentSchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return nil, errs.NewUnsupportedFormat(strconv.Itoa(v))
		}
		current = step(current)
	}
	current["schemaVersion"] = CurrentSchemaVersion
	return current, nil
}

// migrateV1ToV2 introduces the metadata.warnings field (absent in v1
// baselines, which predate partial-baseline tagging).
func migrateV1ToV2(raw map[string]interface{}) map[string]interface{} {
	metadata, ok := raw["metadata"].(map[string]interface{})
	if !ok {
		metadata = map[string]interface{}{}
		raw["metadata"] = metadata
	}
	if _, ok := metadata["warnings"]; !ok {
		metadata["warnings"] = []interface{}{}
	}
	return raw
}

// migrateV2ToV3 backfills p99 from p95 for any tool whose performance
// block only recorded p95 — v2 baselines were generated before p99 was
// captured directly. This estimate is legacy-migration-only: current
// fingerprint computation always derives p99 from real samples and never
// applies this multiplier.
func migrateV2ToV3(raw map[string]interface{}) map[string]interface{} {
	caps, ok := raw["capabilities"].(map[string]interface{})
	if !ok {
		return raw
	}
	tools, ok := caps["tools"].([]interface{})
	if !ok {
		return raw
	}
	for _, t := range tools {
		tool, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		perf, ok := tool["performance"].(map[string]interface{})
		if !ok {
			continue
		}
		if _, hasP99 := perf["p99"]; hasP99 {
			continue
		}
		p95, ok := perf["p95"].(float64)
		if !ok {
			continue
		}
		perf["p99"] = p95 * 1.2
	}
	return raw
}
