package baseline

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// canonicalize round-trips v through encoding/json with UseNumber so
// object keys come out sorted lexicographically at every level (Go's
// json.Marshal always sorts map[string]interface{} keys) while arrays
// keep insertion order and numbers keep their source literal — exactly
// the §4.G canonicalization rule. Dates must already be RFC 3339 UTC
// strings by the time they reach this function; canonicalization doesn't
// reformat them.
func canonicalize(v interface{}) (interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return generic, nil
}

// CanonicalJSON returns b's canonical JSON encoding, including
// integrityHash.
func CanonicalJSON(b *Baseline) ([]byte, error) {
	generic, err := canonicalize(b)
	if err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// canonicalJSONForHash returns the canonical encoding with integrityHash
// elided, per §4.G's hash definition.
func canonicalJSONForHash(b *Baseline) ([]byte, error) {
	without := *b
	without.IntegrityHash = ""
	generic, err := canonicalize(&without)
	if err != nil {
		return nil, err
	}
	m, ok := generic.(map[string]interface{})
	if ok {
		delete(m, "integrityHash")
	}
	return json.Marshal(m)
}

// ComputeIntegrityHash is SHA-256 over the canonical JSON encoding of b
// with integrityHash elided.
func ComputeIntegrityHash(b *Baseline) (string, error) {
	data, err := canonicalJSONForHash(b)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
