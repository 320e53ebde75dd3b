package sessionstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/optionchain/simulator/internal/models"
)

// FileStore wraps a Store (normally a MemoryStore) and mirrors every
// mutating operation with a best-effort snapshot written to disk using an
// atomic temp-file-then-rename-then-fsync sequence. It exists purely for
// operational convenience (inspecting or backing up live state) — the
// in-memory store is still the sole source of truth read on every request,
// so a failed or delayed snapshot write never affects correctness.
type FileStore struct {
	Store
	path   string
	logger *logrus.Logger
}

// snapshot is the on-disk shape: every session keyed by id.
type snapshot struct {
	WrittenAt time.Time                  `json:"written_at"`
	Sessions  map[string]*models.Session `json:"sessions"`
}

// NewFileStore wraps inner with snapshotting to path. logger may be nil, in
// which case a default logrus.Logger is used.
func NewFileStore(inner Store, path string, logger *logrus.Logger) *FileStore {
	if logger == nil {
		logger = logrus.New()
	}
	return &FileStore{Store: inner, path: path, logger: logger}
}

// Save mirrors the write into the wrapped store, then snapshots.
func (f *FileStore) Save(s *models.Session) error {
	if err := f.Store.Save(s); err != nil {
		return err
	}
	f.snapshotAsync()
	return nil
}

// Delete mirrors the removal into the wrapped store, then snapshots.
func (f *FileStore) Delete(id string) (bool, error) {
	removed, err := f.Store.Delete(id)
	if err != nil {
		return removed, err
	}
	if removed {
		f.snapshotAsync()
	}
	return removed, nil
}

// Cleanup mirrors the reclamation into the wrapped store, then snapshots if
// anything was actually reclaimed.
func (f *FileStore) Cleanup(now time.Time, ttl time.Duration) (int, error) {
	n, err := f.Store.Cleanup(now, ttl)
	if err != nil {
		return n, err
	}
	if n > 0 {
		f.snapshotAsync()
	}
	return n, nil
}

// snapshotAsync fires the write in its own goroutine so request latency
// never waits on disk I/O; failures are logged, never surfaced to callers.
func (f *FileStore) snapshotAsync() {
	go func() {
		if err := f.writeSnapshot(); err != nil {
			f.logger.WithError(err).Warn("session snapshot write failed")
		}
	}()
}

func (f *FileStore) writeSnapshot() error {
	ids := f.Store.ActiveIDs()
	sessions := make(map[string]*models.Session, len(ids))
	for _, id := range ids {
		s, err := f.Store.Get(id)
		if err != nil {
			continue // removed between ActiveIDs and Get; skip it
		}
		sessions[id] = s
	}
	snap := snapshot{WrittenAt: time.Now().UTC(), Sessions: sessions}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".sessions-*")
	if err != nil {
		return fmt.Errorf("creating temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("renaming snapshot into place: %w", err)
	}

	if dirHandle, err := os.Open(dir); err == nil {
		_ = dirHandle.Sync()
		_ = dirHandle.Close()
	}
	return nil
}

// LoadSnapshot reads the sessions of a previously written snapshot, keyed by
// id, for rehydrating a MemoryStore. A missing file yields an empty map; an
// unreadable or corrupt file yields an error.
func LoadSnapshot(path string) (map[string]*models.Session, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is operator-configured, not request input
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.Session{}, nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}
	if snap.Sessions == nil {
		return map[string]*models.Session{}, nil
	}
	return snap.Sessions, nil
}

var _ Store = (*FileStore)(nil)
