package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gatewaykit/portage/internal/bundle"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	// Verify file was created
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	// Verify we can query it
	var count int
	err = s2.db.QueryRow("SELECT COUNT(*) FROM entities").Scan(&count)
	if err != nil {
		t.Errorf("query failed: %v", err)
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("foreign_keys", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_SetsSchemaVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("get user_version: %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("user_version = %d, expected %d", version, currentSchemaVersion)
	}
}

func TestCountEntities(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedEntity(t, s, bundle.Item{ID: "p1", Type: bundle.TypePolicy, Name: "audit-sink"})
	seedEntity(t, s, bundle.Item{ID: "p2", Type: bundle.TypePolicy, Name: "rate-limit"})
	seedEntity(t, s, bundle.Item{ID: "c1", Type: bundle.TypeClusterProperty, Name: "timeout"})

	all, err := s.CountEntities(ctx, "")
	if err != nil {
		t.Fatalf("CountEntities() failed: %v", err)
	}
	if all != 3 {
		t.Errorf("total = %d, expected 3", all)
	}

	policies, err := s.CountEntities(ctx, string(bundle.TypePolicy))
	if err != nil {
		t.Fatalf("CountEntities(POLICY) failed: %v", err)
	}
	if policies != 2 {
		t.Errorf("policies = %d, expected 2", policies)
	}
}

// openTestStore opens a fresh in-memory store cleaned up with the test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedEntity inserts one committed entity.
func seedEntity(t *testing.T, s *Store, item bundle.Item) {
	t.Helper()
	if err := s.InsertEntity(context.Background(), item, false); err != nil {
		t.Fatalf("InsertEntity(%s) failed: %v", item.ID, err)
	}
}
