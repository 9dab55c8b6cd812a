package comparator

import (
	"fmt"
	"sort"
)

// schemaChange is the intermediate result of comparing two JSON Schema
// documents before it's wrapped into a ToolChange.
type schemaChange struct {
	severity    Severity
	description string
}

// compareSchema implements the §4.H `schema` aspect severity rule:
// property removal, type narrowing, new required, tightened constraint,
// or removed enum value → breaking; new optional property or new enum
// value → info. Loosened constraints and description-only edits are not
// detected and produce no change.
func compareSchema(before, after map[string]interface{}) schemaChange {
	if before == nil && after == nil {
		return schemaChange{severity: SeverityNone}
	}

	beforeProps, _ := before["properties"].(map[string]interface{})
	afterProps, _ := after["properties"].(map[string]interface{})
	beforeRequired := stringSet(before["required"])
	afterRequired := stringSet(after["required"])

	var breaking, info []string

	for name := range beforeProps {
		if _, ok := afterProps[name]; !ok {
			breaking = append(breaking, fmt.Sprintf("property %q removed", name))
		}
	}
	for name := range afterProps {
		if _, ok := beforeProps[name]; !ok {
			info = append(info, fmt.Sprintf("property %q added", name))
		}
	}
	for name := range afterRequired {
		if !beforeRequired[name] {
			breaking = append(breaking, fmt.Sprintf("property %q became required", name))
		}
	}

	for name, beforeProp := range beforeProps {
		afterProp, ok := afterProps[name]
		if !ok {
			continue
		}
		bp, _ := beforeProp.(map[string]interface{})
		ap, _ := afterProp.(map[string]interface{})
		if bp == nil || ap == nil {
			continue
		}
		if bt, at := fmt.Sprint(bp["type"]), fmt.Sprint(ap["type"]); bt != at && bt != "<nil>" && at != "<nil>" {
			breaking = append(breaking, fmt.Sprintf("property %q type changed from %s to %s", name, bt, at))
		}
		beforeEnum := stringSet(bp["enum"])
		afterEnum := stringSet(ap["enum"])
		for v := range beforeEnum {
			if !afterEnum[v] {
				breaking = append(breaking, fmt.Sprintf("property %q removed enum value %q", name, v))
			}
		}
		for v := range afterEnum {
			if !beforeEnum[v] {
				info = append(info, fmt.Sprintf("property %q gained enum value %q", name, v))
			}
		}
		if tightened, desc := constraintTightened(name, bp, ap); tightened {
			breaking = append(breaking, desc)
		}
	}

	sort.Strings(breaking)
	sort.Strings(info)

	switch {
	case len(breaking) > 0:
		return schemaChange{severity: SeverityBreaking, description: joinOrDefault(breaking, "schema tightened")}
	case len(info) > 0:
		return schemaChange{severity: SeverityInfo, description: joinOrDefault(info, "schema loosened")}
	default:
		return schemaChange{severity: SeverityNone}
	}
}

// constraintTightened checks minimum/maximum/minLength/maxLength for a
// narrower range in after than before.
func constraintTightened(name string, before, after map[string]interface{}) (bool, string) {
	if n1, n2, ok := numericPair(before["minimum"], after["minimum"]); ok && n2 > n1 {
		return true, fmt.Sprintf("property %q minimum raised from %v to %v", name, n1, n2)
	}
	if n1, n2, ok := numericPair(before["maximum"], after["maximum"]); ok && n2 < n1 {
		return true, fmt.Sprintf("property %q maximum lowered from %v to %v", name, n1, n2)
	}
	if n1, n2, ok := numericPair(before["minLength"], after["minLength"]); ok && n2 > n1 {
		return true, fmt.Sprintf("property %q minLength raised from %v to %v", name, n1, n2)
	}
	if n1, n2, ok := numericPair(before["maxLength"], after["maxLength"]); ok && n2 < n1 {
		return true, fmt.Sprintf("property %q maxLength lowered from %v to %v", name, n1, n2)
	}
	return false, ""
}

func numericPair(a, b interface{}) (float64, float64, bool) {
	af, ok1 := toFloat(a)
	bf, ok2 := toFloat(b)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return af, bf, true
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func stringSet(v interface{}) map[string]bool {
	out := map[string]bool{}
	arr, ok := v.([]interface{})
	if !ok {
		return out
	}
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out[s] = true
		}
	}
	return out
}

func joinOrDefault(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	out := items[0]
	for _, s := range items[1:] {
		out += "; " + s
	}
	return out
}
