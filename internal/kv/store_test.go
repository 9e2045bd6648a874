package kv

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get("missing"); ok {
		t.Fatal("expected miss for absent key")
	}

	s.Set("last-table", "7")
	value, ok := s.Get("last-table")
	if !ok || value != "7" {
		t.Fatalf("expected 7, got %q ok=%v", value, ok)
	}

	s.Delete("last-table")
	if _, ok := s.Get("last-table"); ok {
		t.Fatal("expected key to be gone after delete")
	}
}

func TestClearPreservesListedKeys(t *testing.T) {
	s := NewMemoryStore()
	s.Set("last-table", "5")
	s.Set("order-cart:5", "[]")
	s.Set("cash_payment_requests", "{}")

	s.Clear("last-table")

	if value, ok := s.Get("last-table"); !ok || value != "5" {
		t.Fatalf("preserved key lost: %q ok=%v", value, ok)
	}
	if _, ok := s.Get("order-cart:5"); ok {
		t.Fatal("cart should be gone after clear")
	}
	if _, ok := s.Get("cash_payment_requests"); ok {
		t.Fatal("cash requests should be gone after clear")
	}
}

func TestSubscribeDeliversChangedKey(t *testing.T) {
	s := NewMemoryStore()

	var got []string
	unsubscribe := s.Subscribe(func(key string) { got = append(got, key) })

	s.Set("order-cart:3", "[]")
	s.Clear()
	unsubscribe()
	s.Set("order-cart:3", "[]")

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] != "order-cart:3" {
		t.Fatalf("expected cart key, got %q", got[0])
	}
	if got[1] != "" {
		t.Fatalf("expected empty key for clear, got %q", got[1])
	}
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	s, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	s.Set("last-table", "12")
	s.Set("order-cart:12", `[{"id":"soup","qty":1}]`)

	reopened, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if value, ok := reopened.Get("last-table"); !ok || value != "12" {
		t.Fatalf("sticky table lost across restart: %q ok=%v", value, ok)
	}
	if _, ok := reopened.Get("order-cart:12"); !ok {
		t.Fatal("cart lost across restart")
	}
}

func TestFileStoreCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := NewFileStore(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if keys := s.Keys(); len(keys) != 0 {
		t.Fatalf("expected empty store, got keys %v", keys)
	}
}
