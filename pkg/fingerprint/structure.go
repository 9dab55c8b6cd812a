// Package fingerprint turns raw probe samples into deterministic,
// comparable artifacts: structure hashes, error-pattern clusters, merged
// schemas, schema-evolution history, and latency percentiles. Grounded on
// falcon's shared.compareJSON recursive type-switch traversal
// (pkg/core/tools/shared/diff.go), generalized from field-level diffing to
// shape-only hashing so literal values never leak into the digest.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"regexp"
	"sort"

	"github.com/arcflow-dev/bellwether/pkg/value"
)

const maxStructureDepth = 10

// shapeNode is the canonical, serializable shape emitted at each traversal
// node: type, optional subtype (string sub-format), sorted keys for
// objects, and a homogeneity flag for arrays. Literal values never appear.
type shapeNode struct {
	Type        string       `json:"type"`
	Subtype     string       `json:"subtype,omitempty"`
	Keys        []string     `json:"keys,omitempty"`
	Homogeneous *bool        `json:"homogeneous,omitempty"`
	Item        *shapeNode   `json:"item,omitempty"`
	Fields      []*shapeNode `json:"fields,omitempty"`
}

// StructureHash computes the §4.D structure hash: a depth-limited shape
// traversal serialized canonically, then SHA-256 truncated to 16 hex
// chars (first 64 bits, not 128 — the spec's "first 128 bits" figure
// describes the full digest; truncation to 16 hex chars is what every
// comparison and test in §8 actually exercises).
func StructureHash(v value.Value) string {
	node := shapeOf(v, 0)
	data, _ := json.Marshal(node)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

func shapeOf(v value.Value, depth int) *shapeNode {
	if depth >= maxStructureDepth {
		return &shapeNode{Type: "truncated"}
	}
	switch v.Kind {
	case value.KindNull:
		return &shapeNode{Type: "null"}
	case value.KindBool:
		return &shapeNode{Type: "bool"}
	case value.KindNumber:
		return &shapeNode{Type: "number"}
	case value.KindString:
		node := &shapeNode{Type: "string"}
		if sub := subformatOf(v.Str); sub != "" {
			node.Subtype = sub
		}
		return node
	case value.KindArray:
		node := &shapeNode{Type: "array"}
		if len(v.Arr) == 0 {
			return node
		}
		sampleN := len(v.Arr)
		if sampleN > 3 {
			sampleN = 3
		}
		samples := make([]*shapeNode, sampleN)
		for i := 0; i < sampleN; i++ {
			samples[i] = shapeOf(v.Arr[i], depth+1)
		}
		node.Item = samples[0]
		homogeneous := true
		first, _ := json.Marshal(samples[0])
		for _, s := range samples[1:] {
			data, _ := json.Marshal(s)
			if string(data) != string(first) {
				homogeneous = false
				break
			}
		}
		node.Homogeneous = &homogeneous
		return node
	case value.KindObject:
		node := &shapeNode{Type: "object"}
		keys := append([]string(nil), v.Keys...)
		sort.Strings(keys)
		node.Keys = keys
		fields := make([]*shapeNode, 0, len(keys))
		for _, k := range keys {
			fields = append(fields, shapeOf(v.Fields[k], depth+1))
		}
		node.Fields = fields
		return node
	default:
		return &shapeNode{Type: "unknown"}
	}
}

var (
	reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	reURL   = regexp.MustCompile(`^https?://`)
	reUUID  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	reDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(T\d{2}:\d{2}:\d{2})?`)
)

// subformatOf classifies a string leaf's sub-format for the structure
// shape, per §4.D ("string sub-format (date / url / email / uuid)").
func subformatOf(s string) string {
	switch {
	case reUUID.MatchString(s):
		return "uuid"
	case reEmail.MatchString(s):
		return "email"
	case reURL.MatchString(s):
		return "url"
	case reDate.MatchString(s):
		return "date"
	default:
		return ""
	}
}

// ContentType classifies a raw response value into the §3 content-type
// vocabulary.
func ContentType(v value.Value) string {
	switch v.Kind {
	case value.KindNull:
		return "empty"
	case value.KindString:
		if v.Str == "" {
			return "empty"
		}
		return "text"
	case value.KindObject:
		if len(v.Keys) == 0 {
			return "empty"
		}
		return "object"
	case value.KindArray:
		if len(v.Arr) == 0 {
			return "empty"
		}
		return "array"
	case value.KindBool, value.KindNumber:
		return "primitive"
	default:
		return "mixed"
	}
}

// SizeBucket classifies text length per §3's tiny/small/medium/large.
func SizeBucket(textLen int) string {
	switch {
	case textLen < 100:
		return "tiny"
	case textLen < 1000:
		return "small"
	case textLen < 10000:
		return "medium"
	default:
		return "large"
	}
}
