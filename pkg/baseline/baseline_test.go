package baseline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleBaseline() *Baseline {
	return &Baseline{
		SchemaVersion: CurrentSchemaVersion,
		Metadata: Metadata{
			Mode:          "full",
			GeneratedAt:   "2026-01-01T00:00:00Z",
			CLIVersion:    "0.1.0",
			ServerCommand: "node server.js",
			Personas:      []string{"default"},
		},
		Server: ServerInfo{Name: "demo", Version: "1.0.0", ProtocolVersion: "2025-06-18", Capabilities: []string{"tools"}},
		Capabilities: Capabilities{
			Tools: []Tool{
				{Name: "get_weather", Description: "fetch weather", SchemaHash: "abc123"},
			},
		},
		Summary: "complete baseline for demo: 1 tools interviewed (0 failed), 0 prompts, 0 resources",
	}
}

func TestSaveLoadRoundTripPreservesIntegrityHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	b := sampleBaseline()
	require.NoError(t, Save(b, path))

	loaded, err := Load(path, false)
	require.NoError(t, err)
	require.Equal(t, b.IntegrityHash, loaded.IntegrityHash)
	require.Equal(t, b.Server.Name, loaded.Server.Name)
}

func TestSingleByteMutationChangesHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baseline.json")

	b := sampleBaseline()
	require.NoError(t, Save(b, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	mutated := make([]byte, len(data))
	copy(mutated, data)
	idx := -1
	for i, c := range mutated {
		if c == 'e' {
			idx = i
			break
		}
	}
	require.GreaterOrEqual(t, idx, 0)
	mutated[idx] = 'E'
	mutatedPath := filepath.Join(dir, "mutated.json")
	require.NoError(t, os.WriteFile(mutatedPath, mutated, 0o644))

	_, err = Load(mutatedPath, false)
	require.Error(t, err)

	loaded, err := Load(mutatedPath, true)
	require.NoError(t, err)
	require.NotEmpty(t, loaded)
}

func TestNamedStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	b := sampleBaseline()
	require.NoError(t, store.SaveNamed("staging", b))

	loaded, err := store.LoadNamed("staging", false)
	require.NoError(t, err)
	require.Equal(t, b.Server.Name, loaded.Server.Name)
}

func TestMigrateV1AddsWarnings(t *testing.T) {
	raw := map[string]interface{}{
		"schemaVersion": float64(1),
		"metadata":      map[string]interface{}{},
		"server":        map[string]interface{}{},
		"capabilities":  map[string]interface{}{},
	}
	migrated, err := Migrate(raw, 1)
	require.NoError(t, err)
	metadata := migrated["metadata"].(map[string]interface{})
	require.Contains(t, metadata, "warnings")
	require.Equal(t, CurrentSchemaVersion, migrated["schemaVersion"])
}

func TestMigrateV2BackfillsP99FromP95(t *testing.T) {
	raw := map[string]interface{}{
		"schemaVersion": float64(2),
		"metadata":      map[string]interface{}{"warnings": []interface{}{}},
		"server":        map[string]interface{}{},
		"capabilities": map[string]interface{}{
			"tools": []interface{}{
				map[string]interface{}{
					"name":        "get_weather",
					"performance": map[string]interface{}{"p95": float64(100)},
				},
			},
		},
	}
	migrated, err := Migrate(raw, 2)
	require.NoError(t, err)
	tools := migrated["capabilities"].(map[string]interface{})["tools"].([]interface{})
	perf := tools[0].(map[string]interface{})["performance"].(map[string]interface{})
	require.InDelta(t, 120.0, perf["p99"], 0.001)
}

func TestMigrateRejectsUnsupportedVersion(t *testing.T) {
	_, err := Migrate(map[string]interface{}{}, 0)
	require.Error(t, err)

	_, err = Migrate(map[string]interface{}{}, CurrentSchemaVersion+1)
	require.Error(t, err)
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	b := sampleBaseline()
	data, err := CanonicalJSON(b)
	require.NoError(t, err)

	var generic map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &generic))
	require.Contains(t, generic, "schemaVersion")
	require.Contains(t, generic, "integrityHash")
	require.Less(t, strings.Index(string(data), `"capabilities"`), strings.Index(string(data), `"schemaVersion"`))
}
