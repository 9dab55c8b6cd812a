package testgen

import (
	"fmt"
	"regexp"
	"strings"
)

// valueGenerator implements the smart value priority chain from spec.md
// §4.C: fixture exact match, fixture pattern match, schema examples[0],
// schema default, enum[0], const, format-field, description regex hints,
// property-name heuristics, constraint-aware defaults, type fallback.
type valueGenerator struct {
	fixtures       Fixtures
	patternCache   []*regexp.Regexp
	dateHintRe     *regexp.Regexp
}

func newValueGenerator(fixtures Fixtures) *valueGenerator {
	vg := &valueGenerator{fixtures: fixtures}
	for _, p := range fixtures.Pattern {
		if re, err := regexp.Compile(p.Pattern); err == nil {
			vg.patternCache = append(vg.patternCache, re)
		} else {
			vg.patternCache = append(vg.patternCache, nil)
		}
	}
	vg.dateHintRe = regexp.MustCompile(`(?i)YYYY-MM-DD`)
	return vg
}

// generateValid produces a value satisfying schema's constraints as best
// it can, following the priority chain. name is the property name (used
// for fixture/heuristic lookups); it may be "" for array items.
func (vg *valueGenerator) generateValid(name string, schema *Schema) interface{} {
	if schema == nil {
		return nil
	}

	if v, ok := vg.fixtures.Exact[name]; ok {
		return v
	}
	for i, re := range vg.patternCache {
		if re != nil && re.MatchString(name) {
			return vg.fixtures.Pattern[i].Value
		}
	}
	if len(schema.Examples) > 0 {
		return schema.Examples[0]
	}
	if schema.Default != nil {
		return schema.Default
	}
	if len(schema.Enum) > 0 {
		return schema.Enum[0]
	}
	if schema.Const != nil {
		return schema.Const
	}
	if v, ok := vg.fromFormat(schema.Format); ok {
		return v
	}
	if v, ok := vg.fromDescriptionHints(schema.Description); ok {
		return v
	}
	if v, ok := vg.fromNameHeuristics(name, schema); ok {
		return v
	}
	return vg.constraintAwareDefault(schema)
}

func (vg *valueGenerator) fromFormat(format string) (interface{}, bool) {
	switch format {
	case "date":
		return "2024-01-15", true
	case "date-time":
		return "2024-01-15T10:30:00Z", true
	case "email":
		return "user@example.com", true
	case "uri", "url":
		return "https://example.com/resource", true
	case "uuid":
		return "550e8400-e29b-41d4-a716-446655440000", true
	case "ipv4":
		return "192.168.1.1", true
	case "time":
		return "10:30:00", true
	}
	return nil, false
}

func (vg *valueGenerator) fromDescriptionHints(description string) (interface{}, bool) {
	if description == "" {
		return nil, false
	}
	if vg.dateHintRe.MatchString(description) {
		return "2024-01-15", true
	}
	return nil, false
}

// semanticHeuristics maps substrings of a property name to a semantic
// category, used both for smart value generation and for the §4.C step 8
// semantic-invalid-value pass.
var semanticHeuristics = []struct {
	needle  string
	valid   interface{}
	invalid interface{}
}{
	{"email", "user@example.com", "not-an-email"},
	{"url", "https://example.com", "not a url"},
	{"uri", "https://example.com", "not a uri"},
	{"uuid", "550e8400-e29b-41d4-a716-446655440000", "not-a-uuid"},
	{"date", "2024-01-15", "not-a-date"},
	{"ip", "192.168.1.1", "999.999.999.999"},
	{"lat", 37.7749, 999.0},
	{"lon", -122.4194, -999.0},
	{"page", 1, -1},
	{"currency", "USD", "XXX_INVALID"},
	{"percentage", 50, 150},
	{"percent", 50, 150},
	{"phone", "+15551234567", "not-a-phone"},
	{"name", "Test User", 12345},
}

func (vg *valueGenerator) fromNameHeuristics(name string, schema *Schema) (interface{}, bool) {
	lower := strings.ToLower(name)
	for _, h := range semanticHeuristics {
		if strings.Contains(lower, h.needle) {
			if schema.Type == "string" || schema.Type == "" {
				if s, ok := h.valid.(string); ok {
					return s, true
				}
			}
			return h.valid, true
		}
	}
	return nil, false
}

// semanticInvalidValue returns an invalid value for a parameter whose name
// or format implies a semantic type, for §4.C step 8. ok is false if no
// semantic type was detected.
func semanticInvalidValue(name string, schema *Schema) (interface{}, bool) {
	lower := strings.ToLower(name)
	for _, h := range semanticHeuristics {
		if strings.Contains(lower, h.needle) {
			return h.invalid, true
		}
	}
	switch schema.Format {
	case "date", "date-time":
		return "not-a-date", true
	case "email":
		return "not-an-email", true
	case "uri", "url":
		return "not a uri", true
	case "uuid":
		return "not-a-uuid", true
	case "ipv4":
		return "999.999.999.999", true
	}
	return nil, false
}

func (vg *valueGenerator) constraintAwareDefault(schema *Schema) interface{} {
	switch schema.Type {
	case "string":
		minLen := 0
		if schema.MinLength != nil {
			minLen = *schema.MinLength
		}
		base := "value"
		if len(base) < minLen {
			base = strings.Repeat("x", minLen)
		}
		return base
	case "integer":
		return midpointInt(schema)
	case "number":
		return midpointFloat(schema)
	case "boolean":
		return true
	case "array":
		return []interface{}{}
	case "object":
		return map[string]interface{}{}
	case "null":
		return nil
	default:
		return "default_value"
	}
}

func midpointInt(schema *Schema) int {
	min, max := 0.0, 100.0
	if schema.Minimum != nil {
		min = *schema.Minimum
	}
	if schema.Maximum != nil {
		max = *schema.Maximum
	}
	return int((min + max) / 2)
}

func midpointFloat(schema *Schema) float64 {
	min, max := 0.0, 100.0
	if schema.Minimum != nil {
		min = *schema.Minimum
	}
	if schema.Maximum != nil {
		max = *schema.Maximum
	}
	return (min + max) / 2
}

// wrongTypeValue returns a value of a deliberately wrong primitive type
// for §4.C step 3 (type coercion).
func wrongTypeValue(schema *Schema) interface{} {
	switch schema.Type {
	case "string":
		return 12345
	case "integer", "number":
		return "not_a_number"
	case "boolean":
		return "not_a_boolean"
	case "array":
		return "not_an_array"
	case "object":
		return "not_an_object"
	default:
		return fmt.Sprintf("wrong_type_for_%s", schema.Type)
	}
}
