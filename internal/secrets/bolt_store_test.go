package secrets

import (
	"path/filepath"
	"testing"
)

func TestBoltStorePutSecretDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secrets.db")
	store, err := openBolt(path)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if secret, err := store.Secret("wx1"); err != nil || secret != "" {
		t.Fatalf("expected unknown appid, secret=%q err=%v", secret, err)
	}

	if err := store.Put("wx1", "s1"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Put("wx0", "s0"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	secret, err := store.Secret(" wx1 ")
	if err != nil || secret != "s1" {
		t.Fatalf("Secret = %q err=%v", secret, err)
	}

	ids, err := store.AppIDs()
	if err != nil || len(ids) != 2 || ids[0] != "wx0" || ids[1] != "wx1" {
		t.Fatalf("AppIDs = %v err=%v", ids, err)
	}

	if err := store.Delete("wx1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if secret, _ := store.Secret("wx1"); secret != "" {
		t.Fatalf("expected deleted secret, got %q", secret)
	}
}

func TestBoltStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.db")

	store, err := NewStore(TypeBBolt, path, map[string]string{"wx1": "s1"})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(TypeBBolt, path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if secret, err := reopened.Secret("wx1"); err != nil || secret != "s1" {
		t.Fatalf("Secret after reopen = %q err=%v", secret, err)
	}
}

func TestBoltStoreRejectsEmpty(t *testing.T) {
	store, err := openBolt(filepath.Join(t.TempDir(), "secrets.db"))
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer store.Close()

	if err := store.Put("", "s"); err == nil {
		t.Fatalf("expected error for empty appid")
	}
	if err := store.Put("wx1", ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
