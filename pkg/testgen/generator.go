// Package testgen implements §4.C: turning a tool's input schema into a
// bounded, deduplicated battery of deterministic test cases spanning
// happy-path, boundary, type-coercion, enum, array-shape, nullability,
// error-handling, and semantic passes. Grounded on falcon's
// functional_test_generator strategy engine (HappyPathStrategy /
// NegativeStrategy / BoundaryStrategy), adapted from HTTP parameters to
// JSON-Schema properties.
package testgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/arcflow-dev/bellwether/pkg/errs"
	"github.com/xeipuuv/gojsonschema"
)

// Generate produces the test battery for a tool named toolName with the
// given input schema, per spec.md §4.C. Cases are deduplicated by
// structural equality of args and bounded by opts.Min/MaxTestsPerTool.
func Generate(toolName string, schema *Schema, opts Options) ([]TestCase, error) {
	if schema == nil {
		return nil, errs.NewSchemaError(toolName, fmt.Errorf("nil schema"))
	}
	if opts.MaxTestsPerTool <= 0 {
		opts = DefaultOptions()
	}

	g := &gen{
		toolName: toolName,
		schema:   schema,
		opts:     opts,
		vg:       newValueGenerator(opts.Fixtures),
		seen:     make(map[string]bool),
		validator: compileValidator(schema),
	}

	passes := []func(){
		g.happyPath,
		g.boundary,
		g.typeCoercion,
		g.enumPass,
		g.arrayShapes,
		g.nullability,
		g.errorHandling,
		g.semantic,
	}

	for _, pass := range passes {
		if len(g.cases) >= opts.MaxTestsPerTool {
			break
		}
		pass()
	}

	g.padToFloor()

	if len(g.cases) > opts.MaxTestsPerTool {
		g.cases = g.cases[:opts.MaxTestsPerTool]
	}

	return g.cases, nil
}

type gen struct {
	toolName  string
	schema    *Schema
	opts      Options
	vg        *valueGenerator
	cases     []TestCase
	seen      map[string]bool
	validator *gojsonschema.Schema
}

func compileValidator(schema *Schema) *gojsonschema.Schema {
	data, err := schemaToJSON(schema)
	if err != nil {
		return nil
	}
	loader := gojsonschema.NewBytesLoader(data)
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil
	}
	return compiled
}

// add appends a case if it hasn't been seen and the ceiling isn't reached.
// Happy-path cases are, best-effort, checked against the compiled JSON
// Schema so a generation bug doesn't emit a case documented as "success"
// that the schema itself would reject.
func (g *gen) add(tc TestCase) bool {
	if len(g.cases) >= g.opts.MaxTestsPerTool {
		return false
	}
	key := canonicalArgsKey(tc.Args)
	if g.seen[key] {
		return false
	}
	if tc.ExpectedOutcome == OutcomeSuccess && g.validator != nil {
		if !g.validArgs(tc.Args) {
			return false
		}
	}
	tc.ID = deterministicID(tc.Category, tc.Description, len(g.cases))
	g.seen[key] = true
	g.cases = append(g.cases, tc)
	return true
}

func (g *gen) validArgs(args map[string]interface{}) bool {
	result, err := g.validator.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return true // can't validate; don't block generation on validator bugs
	}
	return result.Valid()
}

func deterministicID(cat Category, description string, ordinal int) string {
	s := strings.ToLower(description)
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	if len(s) > 48 {
		s = s[:48]
	}
	return fmt.Sprintf("%s_%s_%d", cat, s, ordinal)
}

// --- pass 1: happy path ---

func (g *gen) happyPath() {
	required := g.schema.requiredSet()

	if len(required) == 0 {
		g.add(TestCase{
			Description:     "empty arguments",
			Category:        CategoryHappyPath,
			Args:            map[string]interface{}{},
			ExpectedOutcome: OutcomeSuccess,
		})
	}

	minimal := g.buildArgs(func(name string, required bool) bool { return required })
	g.add(TestCase{
		Description:     "minimal required arguments with smart defaults",
		Category:        CategoryHappyPath,
		Args:            minimal,
		ExpectedOutcome: OutcomeSuccess,
	})

	const maxOptionalFilled = 3
	filled := 0
	full := g.buildArgs(func(name string, required bool) bool {
		if required {
			return true
		}
		if filled < maxOptionalFilled {
			filled++
			return true
		}
		return false
	})
	g.add(TestCase{
		Description:     "full arguments with optional parameters populated",
		Category:        CategoryHappyPath,
		Args:            full,
		ExpectedOutcome: OutcomeSuccess,
	})
}

func (g *gen) buildArgs(include func(name string, required bool) bool) map[string]interface{} {
	args := map[string]interface{}{}
	required := g.schema.requiredSet()
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		if !include(name, required[name]) {
			continue
		}
		args[name] = g.valueForSchema(name, prop)
	}
	return args
}

func (g *gen) valueForSchema(name string, prop *Schema) interface{} {
	if prop.Type == "array" {
		item := g.vg.generateValid(name, itemSchemaOr(prop))
		return []interface{}{item}
	}
	if prop.Type == "object" && prop.Properties != nil {
		obj := map[string]interface{}{}
		for _, sub := range prop.sortedPropertyNames() {
			obj[sub] = g.vg.generateValid(sub, prop.Properties[sub])
		}
		return obj
	}
	return g.vg.generateValid(name, prop)
}

func itemSchemaOr(prop *Schema) *Schema {
	if prop.Items != nil {
		return prop.Items
	}
	return &Schema{Type: "string"}
}

// --- pass 2: boundary ---

func (g *gen) boundary() {
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		base := g.buildArgs(func(n string, required bool) bool { return required })

		switch prop.Type {
		case "string":
			args := cloneArgs(base)
			args[name] = ""
			g.add(TestCase{
				Description:     fmt.Sprintf("empty string for %s", name),
				Category:        CategoryEdgeCase,
				Args:            args,
				ExpectedOutcome: OutcomeEither,
			})
			if prop.MaxLength == nil {
				args = cloneArgs(base)
				args[name] = strings.Repeat("x", 5000)
				g.add(TestCase{
					Description:     fmt.Sprintf("very long string for %s", name),
					Category:        CategoryEdgeCase,
					Args:            args,
					ExpectedOutcome: OutcomeEither,
				})
			}
		case "integer", "number":
			args := cloneArgs(base)
			args[name] = 0
			g.add(TestCase{
				Description:     fmt.Sprintf("zero value for %s", name),
				Category:        CategoryEdgeCase,
				Args:            args,
				ExpectedOutcome: OutcomeEither,
			})
			if prop.Minimum == nil || *prop.Minimum < 0 {
				args = cloneArgs(base)
				args[name] = -1
				g.add(TestCase{
					Description:     fmt.Sprintf("negative value for %s", name),
					Category:        CategoryEdgeCase,
					Args:            args,
					ExpectedOutcome: OutcomeEither,
				})
			}
			args = cloneArgs(base)
			args[name] = 2147483647
			g.add(TestCase{
				Description:     fmt.Sprintf("large positive value for %s", name),
				Category:        CategoryEdgeCase,
				Args:            args,
				ExpectedOutcome: OutcomeEither,
			})
		case "array":
			args := cloneArgs(base)
			if prop.MinItems == nil || *prop.MinItems == 0 {
				args[name] = []interface{}{}
				g.add(TestCase{
					Description:     fmt.Sprintf("empty array for %s", name),
					Category:        CategoryEdgeCase,
					Args:            args,
					ExpectedOutcome: OutcomeEither,
				})
			}
			if prop.MinItems != nil && *prop.MinItems > 0 {
				args = cloneArgs(base)
				args[name] = repeatItems(g.vg.generateValid(name, itemSchemaOr(prop)), *prop.MinItems-1)
				g.add(TestCase{
					Description:     fmt.Sprintf("under minItems for %s", name),
					Category:        CategoryErrorHandling,
					Args:            args,
					ExpectedOutcome: OutcomeError,
				})
			}
			if prop.MaxItems != nil {
				args = cloneArgs(base)
				args[name] = repeatItems(g.vg.generateValid(name, itemSchemaOr(prop)), *prop.MaxItems+1)
				g.add(TestCase{
					Description:     fmt.Sprintf("over maxItems for %s", name),
					Category:        CategoryErrorHandling,
					Args:            args,
					ExpectedOutcome: OutcomeError,
				})
			}
		}
	}
}

func repeatItems(item interface{}, n int) []interface{} {
	if n < 0 {
		n = 0
	}
	out := make([]interface{}, n)
	for i := range out {
		out[i] = item
	}
	return out
}

// --- pass 3: type coercion ---

func (g *gen) typeCoercion() {
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		base := g.buildArgs(func(n string, required bool) bool { return required })
		args := cloneArgs(base)
		args[name] = wrongTypeValue(prop)
		g.add(TestCase{
			Description:     fmt.Sprintf("wrong type for %s", name),
			Category:        CategoryErrorHandling,
			Args:            args,
			ExpectedOutcome: OutcomeError,
		})
	}
}

// --- pass 4: enum ---

func (g *gen) enumPass() {
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		if len(prop.Enum) == 0 {
			continue
		}
		base := g.buildArgs(func(n string, required bool) bool { return required })
		args := cloneArgs(base)
		args[name] = "__not_in_enum__"
		g.add(TestCase{
			Description:     fmt.Sprintf("value outside enum for %s", name),
			Category:        CategoryErrorHandling,
			Args:            args,
			ExpectedOutcome: OutcomeError,
		})
	}
}

// --- pass 5: array shapes ---

func (g *gen) arrayShapes() {
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		if prop.Type != "array" {
			continue
		}
		base := g.buildArgs(func(n string, required bool) bool { return required })
		item := g.vg.generateValid(name, itemSchemaOr(prop))

		shapes := map[string]int{"single item": 1, "many items": 8}
		if prop.MinItems != nil {
			shapes["exact minItems"] = *prop.MinItems
		}
		if prop.MaxItems != nil {
			shapes["exact maxItems"] = *prop.MaxItems
		}
		for _, label := range []string{"single item", "many items", "exact minItems", "exact maxItems"} {
			n, ok := shapes[label]
			if !ok {
				continue
			}
			args := cloneArgs(base)
			args[name] = repeatItems(item, n)
			g.add(TestCase{
				Description:     fmt.Sprintf("%s for %s", label, name),
				Category:        CategoryHappyPath,
				Args:            args,
				ExpectedOutcome: OutcomeSuccess,
			})
		}
	}
}

// --- pass 6: nullability ---

func (g *gen) nullability() {
	required := g.schema.requiredSet()
	count := 0
	for _, name := range g.schema.sortedPropertyNames() {
		if required[name] || count >= 2 {
			continue
		}
		base := g.buildArgs(func(n string, req bool) bool { return req })
		args := cloneArgs(base)
		args[name] = nil
		g.add(TestCase{
			Description:     fmt.Sprintf("null for optional %s", name),
			Category:        CategoryEdgeCase,
			Args:            args,
			ExpectedOutcome: OutcomeEither,
		})
		count++
	}
}

// --- pass 7: error handling ---

func (g *gen) errorHandling() {
	required := g.schema.requiredSet()
	if len(required) > 0 {
		g.add(TestCase{
			Description:     "empty arguments when required fields exist",
			Category:        CategoryErrorHandling,
			Args:            map[string]interface{}{},
			ExpectedOutcome: OutcomeError,
		})
	}

	for _, dropped := range g.schema.Required {
		args := g.buildArgs(func(n string, req bool) bool { return req && n != dropped })
		g.add(TestCase{
			Description:     fmt.Sprintf("missing required field %s", dropped),
			Category:        CategoryErrorHandling,
			Args:            args,
			ExpectedOutcome: OutcomeError,
		})
	}
}

// --- pass 8: semantic ---

func (g *gen) semantic() {
	for _, name := range g.schema.sortedPropertyNames() {
		prop := g.schema.Properties[name]
		invalid, ok := semanticInvalidValue(name, prop)
		if !ok {
			continue
		}
		base := g.buildArgs(func(n string, required bool) bool { return required })
		args := cloneArgs(base)
		args[name] = invalid
		g.add(TestCase{
			Description:     fmt.Sprintf("semantically invalid value for %s", name),
			Category:        CategorySemantic,
			Args:            args,
			ExpectedOutcome: OutcomeError,
		})
	}
}

// padToFloor adds varied happy-path mutations until the floor is met:
// alternative valid strings, numeric quartiles, boolean permutations, and
// repeated consistency checks of the minimal-required case.
func (g *gen) padToFloor() {
	variants := []string{"alternate_value_a", "alternate_value_b", "alternate_value_c"}
	quartiles := []float64{0.25, 0.5, 0.75}
	attempt := 0
	for len(g.cases) < g.opts.MinTestsPerTool && attempt < g.opts.MinTestsPerTool*4 {
		attempt++
		args := g.buildArgs(func(n string, required bool) bool { return required })
		mutated := false
		for _, name := range g.schema.sortedPropertyNames() {
			prop := g.schema.Properties[name]
			if !g.schema.requiredSet()[name] {
				continue
			}
			switch prop.Type {
			case "string":
				args[name] = variants[attempt%len(variants)]
				mutated = true
			case "integer":
				min, max := 0.0, 100.0
				if prop.Minimum != nil {
					min = *prop.Minimum
				}
				if prop.Maximum != nil {
					max = *prop.Maximum
				}
				q := quartiles[attempt%len(quartiles)]
				args[name] = int(min + (max-min)*q)
				mutated = true
			case "boolean":
				args[name] = attempt%2 == 0
				mutated = true
			}
		}
		if !mutated {
			args["__consistency_check__"] = attempt
		}
		g.add(TestCase{
			Description:     fmt.Sprintf("varied happy-path consistency check %d", attempt),
			Category:        CategoryHappyPath,
			Args:            args,
			ExpectedOutcome: OutcomeSuccess,
		})
	}
}

func cloneArgs(args map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(args))
	for k, v := range args {
		out[k] = v
	}
	return out
}

func schemaToJSON(schema *Schema) ([]byte, error) {
	return json.Marshal(schema)
}
