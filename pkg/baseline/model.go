// Package baseline implements §4.G: the canonical Baseline root entity,
// its serialization and integrity hashing, schema-version migration, and
// named-baseline persistence. Grounded on falcon's
// pkg/core/tools/persistence/state.go PersistenceManager (named,
// on-disk environment snapshots) and pkg/core/tools/shared/diff.go's
// Baseline struct (a named, timestamped saved response).
package baseline

import "github.com/arcflow-dev/bellwether/pkg/fingerprint"

// CurrentSchemaVersion is the format version this package writes.
const CurrentSchemaVersion = 3

// Metadata is the §3 baseline metadata block.
type Metadata struct {
	Mode          string   `json:"mode"`
	GeneratedAt   string   `json:"generatedAt"`
	CLIVersion    string   `json:"cliVersion"`
	ServerCommand string   `json:"serverCommand"`
	DurationMs    float64  `json:"durationMs"`
	Personas      []string `json:"personas"`
	Model         string   `json:"model,omitempty"`
	Partial       bool     `json:"partial,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
}

// ServerInfo mirrors discovery.ServerInfo as a separate type, so the
// persisted shape does not change when discovery's own type does.
type ServerInfo struct {
	Name            string   `json:"name"`
	Version         string   `json:"version"`
	ProtocolVersion string   `json:"protocolVersion"`
	Capabilities    []string `json:"capabilities"`
}

// Tool is the §3 ToolDescriptor enriched with runtime evidence
// ("ToolDescriptor ⊕ fingerprints ⊕ perf ⊕ security ⊕ schemaEvolution").
type Tool struct {
	Name            string                  `json:"name"`
	Title           string                  `json:"title,omitempty"`
	Description     string                  `json:"description"`
	InputSchema     map[string]interface{}  `json:"inputSchema"`
	OutputSchema    map[string]interface{}  `json:"outputSchema,omitempty"`
	Annotations     map[string]interface{}  `json:"annotations,omitempty"`
	SchemaHash      string                  `json:"schemaHash"`
	Response        fingerprint.ResponseFingerprint `json:"responseFingerprint"`
	ErrorPatterns   []fingerprint.ErrorPattern      `json:"errorPatterns,omitempty"`
	Performance     fingerprint.PerformanceMetrics  `json:"performance"`
	SchemaEvolution []fingerprint.SchemaVersion     `json:"schemaEvolution,omitempty"`
	Evolution       fingerprint.Evolution           `json:"evolution"`
	Security        *SecurityFingerprint            `json:"securityFingerprint,omitempty"`
	Failed          bool                             `json:"failed,omitempty"`
	FailureReason   string                           `json:"failureReason,omitempty"`
}

// SecurityFinding is one §3 security-fingerprint finding.
type SecurityFinding struct {
	Category    string `json:"category"`
	RiskLevel   string `json:"riskLevel"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Evidence    string `json:"evidence,omitempty"`
	Remediation string `json:"remediation,omitempty"`
	CWEID       string `json:"cweId,omitempty"`
	Parameter   string `json:"parameter,omitempty"`
	Tool        string `json:"tool"`
}

// SecurityFingerprint is the §3 security-fingerprint shape, attached by
// an external security probe and never mutating any other baseline field.
type SecurityFingerprint struct {
	Tested          bool              `json:"tested"`
	CategoriesTested []string         `json:"categoriesTested,omitempty"`
	Findings        []SecurityFinding `json:"findings,omitempty"`
	RiskScore       float64           `json:"riskScore"`
	TestedAt        string            `json:"testedAt"`
	FindingsHash    string            `json:"findingsHash"`
}

// Prompt, Resource, and ResourceTemplate mirror pkg/discovery's shapes.
type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name,omitempty"`
}

// Capabilities is the §3 baseline capabilities block.
type Capabilities struct {
	Tools             []Tool             `json:"tools"`
	Prompts           []Prompt           `json:"prompts"`
	Resources         []Resource         `json:"resources"`
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

// Baseline is the §3 root entity. It owns its entities exclusively; once
// built, nothing else mutates it — the comparator reads two immutable
// baselines and produces a fresh diff.
type Baseline struct {
	SchemaVersion int          `json:"schemaVersion"`
	Metadata      Metadata     `json:"metadata"`
	Server        ServerInfo   `json:"server"`
	Capabilities  Capabilities `json:"capabilities"`
	Summary       string       `json:"summary"`
	IntegrityHash string       `json:"integrityHash"`
}
