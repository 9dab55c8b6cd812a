package testgen

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func schemaFrom(t *testing.T, raw string) *Schema {
	t.Helper()
	s, err := ParseSchema(json.RawMessage(raw))
	require.NoError(t, err)
	return s
}

func TestGenerateDeduplicatesAndBoundsCases(t *testing.T) {
	schema := schemaFrom(t, `{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "search query"},
			"limit": {"type": "integer", "minimum": 1, "maximum": 50}
		},
		"required": ["query"]
	}`)

	opts := Options{MinTestsPerTool: 5, MaxTestsPerTool: 15}
	cases, err := Generate("search_items", schema, opts)
	require.NoError(t, err)
	require.LessOrEqual(t, len(cases), opts.MaxTestsPerTool)
	require.GreaterOrEqual(t, len(cases), opts.MinTestsPerTool)

	seen := map[string]bool{}
	for _, tc := range cases {
		key := canonicalArgsKey(tc.Args)
		require.False(t, seen[key], "duplicate args for case %q", tc.Description)
		seen[key] = true
		require.NotEmpty(t, tc.ID)
	}
}

func TestGenerateCoversRequiredFieldOmission(t *testing.T) {
	schema := schemaFrom(t, `{
		"type": "object",
		"properties": {
			"email": {"type": "string", "format": "email"}
		},
		"required": ["email"]
	}`)

	cases, err := Generate("send_invite", schema, DefaultOptions())
	require.NoError(t, err)

	foundMissing := false
	foundSemantic := false
	for _, tc := range cases {
		if tc.Category == CategoryErrorHandling {
			if _, ok := tc.Args["email"]; !ok {
				foundMissing = true
			}
		}
		if tc.Category == CategorySemantic {
			foundSemantic = true
		}
	}
	require.True(t, foundMissing, "expected a case omitting the required email field")
	require.True(t, foundSemantic, "expected a semantic-invalid case for the email field")
}

func TestGenerateHappyPathArgsAreValidAgainstSchema(t *testing.T) {
	schema := schemaFrom(t, `{
		"type": "object",
		"properties": {
			"page": {"type": "integer", "minimum": 1}
		},
		"required": ["page"]
	}`)

	cases, err := Generate("list_page", schema, DefaultOptions())
	require.NoError(t, err)

	for _, tc := range cases {
		if tc.Category != CategoryHappyPath {
			continue
		}
		page, ok := tc.Args["page"]
		require.True(t, ok)
		switch v := page.(type) {
		case int:
			require.GreaterOrEqual(t, v, 1)
		case float64:
			require.GreaterOrEqual(t, v, 1.0)
		}
	}
}

func TestGenerateNilSchemaReturnsSchemaError(t *testing.T) {
	_, err := Generate("broken_tool", nil, DefaultOptions())
	require.Error(t, err)
}

func TestGenerateIsDeterministic(t *testing.T) {
	schema := schemaFrom(t, `{
		"type": "object",
		"properties": {
			"name": {"type": "string"},
			"tags": {"type": "array", "items": {"type": "string"}}
		},
		"required": ["name"]
	}`)

	a, err := Generate("tag_resource", schema, DefaultOptions())
	require.NoError(t, err)
	b, err := Generate("tag_resource", schema, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].ID, b[i].ID)
		require.Equal(t, a[i].Description, b[i].Description)
	}
}
