// Package discovery performs the §4.B initialize + list handshakes against
// a connected transport.Session: protocolVersion negotiation, server
// capability flags, and the tools/prompts/resources/resource-templates
// catalogues. Optional endpoints degrade to an empty list plus a recorded
// warning; initialize and tools/list failures are fatal.
package discovery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/arcflow-dev/bellwether/pkg/errs"
	"github.com/arcflow-dev/bellwether/pkg/transport"
	"go.uber.org/zap"
)

// ToolDescriptor mirrors spec.md §3's tool descriptor shape, pre-fingerprint.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	OutputSchema json.RawMessage `json:"outputSchema,omitempty"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
	IdempotentHint *bool        `json:"-"`
}

// ToolAnnotations carries the gated hint fields from spec.md §4.H's
// tool_annotations aspect.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
}

// Prompt, Resource, ResourceTemplate are the remaining catalogue entries;
// the spec treats their runtime contents as opaque for comparison purposes
// beyond presence/name.
type Prompt struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Raw         json.RawMessage `json:"-"`
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

// ServerInfo is the negotiated handshake result.
type ServerInfo struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	ProtocolVersion  string   `json:"protocolVersion"`
	Capabilities     []string `json:"capabilities"`
}

// Result is everything discovery produces, normalized so missing optional
// fields become empty slices rather than nil.
type Result struct {
	Server            ServerInfo
	Tools             []ToolDescriptor
	Prompts           []Prompt
	Resources         []Resource
	ResourceTemplates []ResourceTemplate
	Warnings          []string
}

type initializeResult struct {
	ProtocolVersion string                 `json:"protocolVersion"`
	ServerInfo      struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"serverInfo"`
	Capabilities map[string]json.RawMessage `json:"capabilities"`
}

// Discover runs the handshake sequence over session. perCallTimeout bounds
// each individual RPC.
func Discover(ctx context.Context, session transport.Session, perCallTimeout time.Duration, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	initRaw, err := session.Call(ctx, "initialize", map[string]interface{}{
		"protocolVersion": "2025-06-18",
	}, perCallTimeout)
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, "initialize", err)
	}

	var initRes initializeResult
	if err := json.Unmarshal(initRaw, &initRes); err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, "initialize", err)
	}

	caps := make([]string, 0, len(initRes.Capabilities))
	for k := range initRes.Capabilities {
		caps = append(caps, k)
	}

	res := &Result{
		Server: ServerInfo{
			Name:            initRes.ServerInfo.Name,
			Version:         initRes.ServerInfo.Version,
			ProtocolVersion: initRes.ProtocolVersion,
			Capabilities:    caps,
		},
		Tools:             []ToolDescriptor{},
		Prompts:           []Prompt{},
		Resources:         []Resource{},
		ResourceTemplates: []ResourceTemplate{},
		Warnings:          []string{},
	}

	tools, err := listTools(ctx, session, perCallTimeout)
	if err != nil {
		return nil, errs.NewTransportError(errs.PhaseProtocol, "tools/list", err)
	}
	res.Tools = tools

	if hasCapability(initRes.Capabilities, "prompts") {
		prompts, err := listPrompts(ctx, session, perCallTimeout)
		if err != nil {
			res.Warnings = append(res.Warnings, "prompts/list failed: "+err.Error())
			logger.Warn("optional endpoint degraded", zap.String("method", "prompts/list"), zap.Error(err))
		} else {
			res.Prompts = prompts
		}
	}

	if hasCapability(initRes.Capabilities, "resources") {
		resources, err := listResources(ctx, session, perCallTimeout)
		if err != nil {
			res.Warnings = append(res.Warnings, "resources/list failed: "+err.Error())
			logger.Warn("optional endpoint degraded", zap.String("method", "resources/list"), zap.Error(err))
		} else {
			res.Resources = resources
		}

		templates, err := listResourceTemplates(ctx, session, perCallTimeout)
		if err != nil {
			res.Warnings = append(res.Warnings, "resources/templates/list failed: "+err.Error())
			logger.Warn("optional endpoint degraded", zap.String("method", "resources/templates/list"), zap.Error(err))
		} else {
			res.ResourceTemplates = templates
		}
	}

	return res, nil
}

func hasCapability(caps map[string]json.RawMessage, name string) bool {
	_, ok := caps[name]
	return ok
}

func listTools(ctx context.Context, session transport.Session, timeout time.Duration) ([]ToolDescriptor, error) {
	raw, err := session.Call(ctx, "tools/list", nil, timeout)
	if err != nil {
		return nil, err
	}
	var body struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body.Tools == nil {
		body.Tools = []ToolDescriptor{}
	}
	for i := range body.Tools {
		if ann := body.Tools[i].Annotations; ann != nil {
			body.Tools[i].IdempotentHint = ann.IdempotentHint
		}
	}
	return body.Tools, nil
}

func listPrompts(ctx context.Context, session transport.Session, timeout time.Duration) ([]Prompt, error) {
	raw, err := session.Call(ctx, "prompts/list", nil, timeout)
	if err != nil {
		return nil, err
	}
	var body struct {
		Prompts []Prompt `json:"prompts"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body.Prompts == nil {
		body.Prompts = []Prompt{}
	}
	return body.Prompts, nil
}

func listResources(ctx context.Context, session transport.Session, timeout time.Duration) ([]Resource, error) {
	raw, err := session.Call(ctx, "resources/list", nil, timeout)
	if err != nil {
		return nil, err
	}
	var body struct {
		Resources []Resource `json:"resources"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body.Resources == nil {
		body.Resources = []Resource{}
	}
	return body.Resources, nil
}

func listResourceTemplates(ctx context.Context, session transport.Session, timeout time.Duration) ([]ResourceTemplate, error) {
	raw, err := session.Call(ctx, "resources/templates/list", nil, timeout)
	if err != nil {
		return nil, err
	}
	var body struct {
		ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, err
	}
	if body.ResourceTemplates == nil {
		body.ResourceTemplates = []ResourceTemplate{}
	}
	return body.ResourceTemplates, nil
}
