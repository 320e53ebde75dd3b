package sessionstore

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_SnapshotsAfterSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sessions.json")

	fs := NewFileStore(NewMemoryStore(), path, nil)
	now := time.Now().UTC()
	if err := fs.Save(newTestSession("a", now)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// snapshotAsync is fire-and-forget; poll briefly for the file to land.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		sessions, err := LoadSnapshot(path)
		if err == nil && len(sessions) == 1 {
			if _, ok := sessions["a"]; !ok {
				t.Fatalf("snapshot missing session a: %+v", sessions)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("snapshot file never appeared with expected contents")
}

func TestLoadSnapshot_MissingFileYieldsEmpty(t *testing.T) {
	sessions, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("expected empty map, got %d entries", len(sessions))
	}
}
