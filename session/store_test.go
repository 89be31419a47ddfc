package session

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "session.db")
	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore(%q) failed: %v", path, err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)

	rec := Record{
		Token:    "tok-abc",
		Username: "alice",
		SavedAt:  time.Now().UTC(),
	}
	if err := store.Save("http://localhost:8000", rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load("http://localhost:8000")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil for a saved session")
	}
	if got.Token != rec.Token {
		t.Errorf("Token = %q, want %q", got.Token, rec.Token)
	}
	if got.Username != rec.Username {
		t.Errorf("Username = %q, want %q", got.Username, rec.Username)
	}
	if !got.SavedAt.Equal(rec.SavedAt) {
		t.Errorf("SavedAt = %v, want %v", got.SavedAt, rec.SavedAt)
	}
}

func TestLoadMissingSession(t *testing.T) {
	store := newTestStore(t)

	got, err := store.Load("http://localhost:9999")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Load = %+v, want nil for an unknown server", got)
	}
}

func TestSaveOverwrites(t *testing.T) {
	store := newTestStore(t)
	server := "http://localhost:8000"

	if err := store.Save(server, Record{Token: "old", Username: "alice"}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(server, Record{Token: "new", Username: "alice"}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := store.Load(server)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || got.Token != "new" {
		t.Errorf("Load = %+v, want record with token %q", got, "new")
	}
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	server := "http://localhost:8000"

	if err := store.Save(server, Record{Token: "tok"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(server); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	got, err := store.Load(server)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got != nil {
		t.Errorf("Load after Delete = %+v, want nil", got)
	}

	// Deleting a missing session is not an error.
	if err := store.Delete(server); err != nil {
		t.Errorf("Delete of missing session failed: %v", err)
	}
}

func TestServerURLNormalization(t *testing.T) {
	store := newTestStore(t)

	if err := store.Save("http://localhost:8000/", Record{Token: "tok"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Load("http://localhost:8000")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || got.Token != "tok" {
		t.Errorf("Load without trailing slash = %+v, want the saved record", got)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := store.Save("http://localhost:8000", Record{Token: "tok", Username: "bob"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore on existing file failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load("http://localhost:8000")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || got.Username != "bob" {
		t.Errorf("Load after reopen = %+v, want the saved record", got)
	}
}

func TestCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "session.db")

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore(%q) failed: %v", path, err)
	}
	defer store.Close()

	if err := store.Save("http://localhost:8000", Record{Token: "tok"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func TestEmptyPathDisablesPersistence(t *testing.T) {
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	defer store.Close()

	if err := store.Save("http://localhost:8000", Record{Token: "tok"}); err != nil {
		t.Fatalf("Save on no-op store failed: %v", err)
	}
	got, err := store.Load("http://localhost:8000")
	if err != nil {
		t.Fatalf("Load on no-op store failed: %v", err)
	}
	if got != nil {
		t.Errorf("no-op store returned %+v, want nil", got)
	}
}
