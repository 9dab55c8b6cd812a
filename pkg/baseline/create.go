package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/arcflow-dev/bellwether/pkg/discovery"
	"github.com/arcflow-dev/bellwether/pkg/interview"
)

// CreateOptions carries the metadata fields CreateBaseline can't derive
// from the interview result itself.
type CreateOptions struct {
	Mode          string
	CLIVersion    string
	ServerCommand string
	DurationMs    float64
	Personas      []string
	Model         string
	GeneratedAt   string // RFC 3339 UTC; supplied by the caller so this package never reads the clock.
}

// CreateBaseline builds the §4.G root entity from a completed interview
// result, per the §4.F contract `CreateBaseline(result, serverCommand) →
// Baseline`. Baseline creation observes a single consistent snapshot: it
// only ever reads from result, never reaches back into a live session.
func CreateBaseline(result *interview.Result, opts CreateOptions) *Baseline {
	b := &Baseline{
		SchemaVersion: CurrentSchemaVersion,
		Metadata: Metadata{
			Mode:          opts.Mode,
			GeneratedAt:   opts.GeneratedAt,
			CLIVersion:    opts.CLIVersion,
			ServerCommand: opts.ServerCommand,
			DurationMs:    opts.DurationMs,
			Personas:      opts.Personas,
			Model:         opts.Model,
			Partial:       result.Partial,
			Warnings:      result.Warnings,
		},
	}

	if result.Discovery != nil {
		b.Server = ServerInfo{
			Name:            result.Discovery.Server.Name,
			Version:         result.Discovery.Server.Version,
			ProtocolVersion: result.Discovery.Server.ProtocolVersion,
			Capabilities:    result.Discovery.Server.Capabilities,
		}
		b.Capabilities.Prompts = convertPrompts(result.Discovery.Prompts)
		b.Capabilities.Resources = convertResources(result.Discovery.Resources)
		b.Capabilities.ResourceTemplates = convertResourceTemplates(result.Discovery.ResourceTemplates)
	}

	for _, tr := range result.Tools {
		b.Capabilities.Tools = append(b.Capabilities.Tools, convertToolResult(tr))
	}

	b.Summary = summarize(b)

	hash, err := ComputeIntegrityHash(b)
	if err == nil {
		b.IntegrityHash = hash
	}

	return b
}

func convertToolResult(tr interview.ToolResult) Tool {
	t := Tool{
		Name:            tr.Tool.Name,
		Title:           tr.Tool.Title,
		Description:     tr.Tool.Description,
		InputSchema:     rawToMap(tr.Tool.InputSchema),
		OutputSchema:    rawToMap(tr.Tool.OutputSchema),
		SchemaHash:      schemaHashOf(tr.Tool.InputSchema),
		Response:        tr.Fingerprint.Response,
		ErrorPatterns:   tr.Fingerprint.Errors,
		Performance:     tr.Fingerprint.Performance,
		SchemaEvolution: tr.SchemaHistory,
		Evolution:       tr.Fingerprint.Evolution,
		Failed:          tr.Failed,
		FailureReason:   tr.FailureReason,
	}
	if tr.Tool.Annotations != nil {
		t.Annotations = map[string]interface{}{}
		if tr.Tool.Annotations.ReadOnlyHint != nil {
			t.Annotations["readOnlyHint"] = *tr.Tool.Annotations.ReadOnlyHint
		}
		if tr.Tool.Annotations.DestructiveHint != nil {
			t.Annotations["destructiveHint"] = *tr.Tool.Annotations.DestructiveHint
		}
		if tr.Tool.Annotations.IdempotentHint != nil {
			t.Annotations["idempotentHint"] = *tr.Tool.Annotations.IdempotentHint
		}
	}
	return t
}

func rawToMap(raw json.RawMessage) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// schemaHashOf is the §3 ToolDescriptor.schemaHash: a stable SHA-256 over
// the canonicalized schema. Reuses this package's canonicalize so field
// ordering matches the rest of the baseline.
func schemaHashOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	canon, err := canonicalize(m)
	if err != nil {
		return ""
	}
	data, err := json.Marshal(canon)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func convertPrompts(in []discovery.Prompt) []Prompt {
	out := make([]Prompt, 0, len(in))
	for _, p := range in {
		out = append(out, Prompt{Name: p.Name, Description: p.Description})
	}
	return out
}

func convertResources(in []discovery.Resource) []Resource {
	out := make([]Resource, 0, len(in))
	for _, r := range in {
		out = append(out, Resource{URI: r.URI, Name: r.Name, Description: r.Description})
	}
	return out
}

func convertResourceTemplates(in []discovery.ResourceTemplate) []ResourceTemplate {
	out := make([]ResourceTemplate, 0, len(in))
	for _, r := range in {
		out = append(out, ResourceTemplate{URITemplate: r.URITemplate, Name: r.Name})
	}
	return out
}

// summarize builds the one-line human summary attached to the baseline.
func summarize(b *Baseline) string {
	failed := 0
	for _, t := range b.Capabilities.Tools {
		if t.Failed {
			failed++
		}
	}
	status := "complete"
	if b.Metadata.Partial {
		status = "partial"
	}
	return fmt.Sprintf("%s baseline for %s: %d tools interviewed (%d failed), %d prompts, %d resources",
		status, b.Server.Name, len(b.Capabilities.Tools), failed, len(b.Capabilities.Prompts), len(b.Capabilities.Resources))
}
