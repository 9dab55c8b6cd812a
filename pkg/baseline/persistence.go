package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/arcflow-dev/bellwether/pkg/errs"
)

// defaultFilename is the conventional on-disk baseline filename per §6.
const defaultFilename = "bellwether-baseline.json"

// Save writes b's canonical JSON encoding to path, recomputing
// integrityHash first so the file always reflects its own contents.
func Save(b *Baseline, path string) error {
	hash, err := ComputeIntegrityHash(b)
	if err != nil {
		return err
	}
	b.IntegrityHash = hash

	data, err := CanonicalJSON(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads and verifies a baseline file, migrating it if its
// schemaVersion is older than CurrentSchemaVersion. force skips
// integrity verification (for baselines deliberately hand-edited).
func Load(path string, force bool) (*Baseline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return loadBytes(data, path, force)
}

// LoadBytes is Load without the filesystem read, for callers that
// already hold the bytes (e.g. fetched over the wire).
func LoadBytes(data []byte, force bool) (*Baseline, error) {
	return loadBytes(data, "<bytes>", force)
}

func loadBytes(data []byte, path string, force bool) (*Baseline, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	version := 1
	if v, ok := raw["schemaVersion"].(float64); ok {
		version = int(v)
	}

	migrated, err := Migrate(raw, version)
	if err != nil {
		return nil, err
	}

	migratedData, err := json.Marshal(migrated)
	if err != nil {
		return nil, err
	}
	var b Baseline
	if err := json.Unmarshal(migratedData, &b); err != nil {
		return nil, err
	}

	expected := b.IntegrityHash
	actual, err := ComputeIntegrityHash(&b)
	if err != nil {
		return nil, err
	}
	// Hash the document's own keys too: struct decoding matches field
	// names case-insensitively, so a key changed only in case would
	// otherwise decode to the same Baseline and the same hash.
	delete(migrated, "integrityHash")
	doc, err := json.Marshal(migrated)
	if err != nil {
		return nil, err
	}
	docSum := sha256.Sum256(doc)
	if !force && (expected != actual || expected != hex.EncodeToString(docSum[:])) {
		return nil, errs.NewIntegrityError(path, expected, actual)
	}
	b.IntegrityHash = actual

	return &b, nil
}

// Store is a named, directory-backed baseline collection, grounded in
// falcon's PersistenceManager (pkg/core/tools/persistence/state.go):
// one file per named baseline under baseDir, looked up by name rather
// than by caller-supplied path.
type Store struct {
	baseDir string
}

// NewStore constructs a Store rooted at baseDir, creating it if absent.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, err
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) pathFor(name string) string {
	if name == "" {
		name = "default"
	}
	return filepath.Join(s.baseDir, name+".json")
}

// SaveNamed persists b under name.
func (s *Store) SaveNamed(name string, b *Baseline) error {
	return Save(b, s.pathFor(name))
}

// LoadNamed loads the baseline previously saved under name.
func (s *Store) LoadNamed(name string, force bool) (*Baseline, error) {
	return Load(s.pathFor(name), force)
}

// DefaultPath returns the conventional filename for ad hoc (unnamed)
// save/load outside the named store.
func DefaultPath(dir string) string {
	return filepath.Join(dir, defaultFilename)
}
