package fingerprint

import (
	"sort"

	"github.com/arcflow-dev/bellwether/pkg/value"
)

// Outcome mirrors testgen.Outcome's success/error vocabulary for a single
// probe result, kept as its own type so this package has no dependency on
// the test generator.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// Sample is the §3 "Sample" shape: one probe result for one tool call.
type Sample struct {
	ToolName        string                 `json:"toolName"`
	Args            map[string]interface{} `json:"args"`
	Outcome         Outcome                `json:"outcome"`
	DurationMs      float64                `json:"durationMs"`
	ResponseContent []byte                  `json:"responseContent,omitempty"`
	ErrorMessage    string                  `json:"errorMessage,omitempty"`
	ObservedAt      string                  `json:"observedAt"`
}

// ResponseFingerprint is the §3 "Response fingerprint" shape, aggregated
// over all samples for one tool.
type ResponseFingerprint struct {
	StructureHash       string   `json:"structureHash"`
	ContentType         string   `json:"contentType"`
	Fields              []string `json:"fields,omitempty"`
	ArrayItemStructure  string   `json:"arrayItemStructure,omitempty"`
	Size                string   `json:"size"`
	IsEmpty             bool     `json:"isEmpty"`
	SampleCount         int      `json:"sampleCount"`
	Confidence          float64  `json:"confidence"`
}

// ComputeResponseFingerprint aggregates successful-sample responses into
// one ResponseFingerprint. The dominant structure hash (the one seen most
// often) supplies the reported shape; confidence is its share of the
// successful samples that parse as JSON, per §3 ("dominant-hash count ÷
// total"). Samples that do not parse are skipped.
func ComputeResponseFingerprint(successResponses [][]byte) (ResponseFingerprint, error) {
	if len(successResponses) == 0 {
		return ResponseFingerprint{ContentType: "empty", Size: "tiny", IsEmpty: true}, nil
	}

	counts := map[string]int{}
	parsed := make([]value.Value, 0, len(successResponses))
	for _, raw := range successResponses {
		v, err := value.Parse(raw)
		if err != nil {
			continue
		}
		parsed = append(parsed, v)
		counts[StructureHash(v)]++
	}
	if len(parsed) == 0 {
		return ResponseFingerprint{}, nil
	}

	dominantHash, dominantCount := "", 0
	var hashes []string
	for h := range counts {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	for _, h := range hashes {
		if counts[h] > dominantCount {
			dominantHash, dominantCount = h, counts[h]
		}
	}

	var representative value.Value
	for _, v := range parsed {
		if StructureHash(v) == dominantHash {
			representative = v
			break
		}
	}

	fp := ResponseFingerprint{
		StructureHash: dominantHash,
		ContentType:   ContentType(representative),
		Size:          SizeBucket(representative.TextLen()),
		IsEmpty:       representative.IsEmpty(),
		SampleCount:   len(parsed),
		Confidence:    float64(dominantCount) / float64(len(parsed)),
	}

	if representative.Kind == value.KindObject {
		fp.Fields = append([]string(nil), representative.Keys...)
	}
	if representative.Kind == value.KindArray && len(representative.Arr) > 0 {
		fp.ArrayItemStructure = StructureHash(representative.Arr[0])
	}

	return fp, nil
}
