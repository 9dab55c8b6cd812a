package fingerprint

import (
	"sort"

	"github.com/arcflow-dev/bellwether/pkg/value"
)

// InferredSchema is the §3 "Inferred schema" shape, built bottom-up from
// observed response values rather than declared by the server.
type InferredSchema struct {
	Type       string                     `json:"type"`
	Properties map[string]*InferredSchema `json:"properties,omitempty"`
	Items      *InferredSchema            `json:"items,omitempty"`
	Required   []string                   `json:"required,omitempty"`
	Nullable   bool                       `json:"nullable,omitempty"`
	Enum       []string                   `json:"enum,omitempty"`
}

// InferSchema builds a single-sample InferredSchema from a parsed value.
func InferSchema(v value.Value) *InferredSchema {
	switch v.Kind {
	case value.KindNull:
		return &InferredSchema{Type: "null"}
	case value.KindBool:
		return &InferredSchema{Type: "boolean"}
	case value.KindNumber:
		return &InferredSchema{Type: "number"}
	case value.KindString:
		return &InferredSchema{Type: "string"}
	case value.KindArray:
		s := &InferredSchema{Type: "array"}
		for _, item := range v.Arr {
			itemSchema := InferSchema(item)
			if s.Items == nil {
				s.Items = itemSchema
			} else {
				s.Items = MergeSchemas(s.Items, itemSchema)
			}
		}
		return s
	case value.KindObject:
		s := &InferredSchema{Type: "object", Properties: map[string]*InferredSchema{}}
		for _, k := range v.Keys {
			s.Properties[k] = InferSchema(v.Fields[k])
			if v.Fields[k].Kind != value.KindNull {
				s.Required = append(s.Required, k)
			}
		}
		sort.Strings(s.Required)
		return s
	default:
		return &InferredSchema{Type: "mixed"}
	}
}

// MergeSchemas implements the §3 merge rule, associative and commutative
// up to key ordering: properties union, required = present-in-both
// (present-in-all across a fold), integer∪number→number, null∪T→T with
// nullable=true, incompatible types→mixed.
func MergeSchemas(a, b *InferredSchema) *InferredSchema {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	if a.Type == "null" && b.Type != "null" {
		merged := cloneSchema(b)
		merged.Nullable = true
		return merged
	}
	if b.Type == "null" && a.Type != "null" {
		merged := cloneSchema(a)
		merged.Nullable = true
		return merged
	}

	mergedType := mergeType(a.Type, b.Type)
	if mergedType == "mixed" {
		return &InferredSchema{Type: "mixed", Nullable: a.Nullable || b.Nullable}
	}

	merged := &InferredSchema{Type: mergedType, Nullable: a.Nullable || b.Nullable}

	if mergedType == "object" {
		merged.Properties = map[string]*InferredSchema{}
		for name, schema := range a.Properties {
			merged.Properties[name] = schema
		}
		for name, schema := range b.Properties {
			if existing, ok := merged.Properties[name]; ok {
				merged.Properties[name] = MergeSchemas(existing, schema)
			} else {
				merged.Properties[name] = schema
			}
		}
		merged.Required = intersectSorted(a.Required, b.Required)
	}

	if mergedType == "array" {
		merged.Items = MergeSchemas(a.Items, b.Items)
	}

	merged.Enum = unionEnum(a.Enum, b.Enum)

	return merged
}

func mergeType(a, b string) string {
	if a == b {
		return a
	}
	if isNumeric(a) && isNumeric(b) {
		return "number"
	}
	return "mixed"
}

func isNumeric(t string) bool {
	return t == "integer" || t == "number"
}

func cloneSchema(s *InferredSchema) *InferredSchema {
	clone := *s
	return &clone
}

// intersectSorted returns properties present in both required lists,
// i.e. fields that were non-null present in every sample folded so far.
func intersectSorted(a, b []string) []string {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	var out []string
	for _, s := range b {
		if set[s] {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func unionEnum(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	set := map[string]bool{}
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if !set[s] {
			set[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
