package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"ai-salesbot-be/pkg/store"
)

// SnapshotRepository persists one JSON snapshot file per session,
// overwriting the previous snapshot on every write.
type SnapshotRepository struct {
	dir string
}

func NewSnapshotRepository(dir string) *SnapshotRepository {
	return &SnapshotRepository{dir: dir}
}

// Session ids are opaque client-supplied strings; anything outside this
// set is flattened so an id can never escape the snapshot directory.
var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func (r *SnapshotRepository) pathFor(sessionID string) string {
	return filepath.Join(r.dir, unsafeChars.ReplaceAllString(sessionID, "_")+".json")
}

// Save overwrites the session's snapshot atomically (write + rename).
func (r *SnapshotRepository) Save(session *store.Session) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	raw, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", session.ID, err)
	}
	path := r.pathFor(session.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return os.Rename(tmp, path)
}

// Load reads a session snapshot; a missing snapshot returns (nil, nil).
func (r *SnapshotRepository) Load(sessionID string) (*store.Session, error) {
	raw, err := os.ReadFile(r.pathFor(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot for %s: %w", sessionID, err)
	}
	var session store.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("parse snapshot for %s: %w", sessionID, err)
	}
	return &session, nil
}
