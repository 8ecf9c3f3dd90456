package store

import (
	"bytes"
	"testing"
	"time"
)

func openTestDB(t *testing.T) {
	t.Helper()
	if err := Open(t.TempDir()); err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
}

func TestSaveGetRoundtrip(t *testing.T) {
	openTestDB(t)

	payload := []byte(`{"symbol":"NVDA"}`)
	if err := SaveResponse("market/NVDA", payload, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := GetResponse("market/NVDA")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("fresh entry reported as miss")
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload %q", got)
	}
}

func TestMissingKeyIsMissNotError(t *testing.T) {
	openTestDB(t)

	_, ok, err := GetResponse("never-stored")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("absent key reported as hit")
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	openTestDB(t)

	if err := SaveResponse("market/OLD", []byte("stale"), time.Nanosecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	_, ok, err := GetResponse("market/OLD")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("expired entry reported as hit")
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	openTestDB(t)

	if err := SaveResponse("config/static", []byte("keep"), 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(2 * time.Millisecond)

	_, ok, err := GetResponse("config/static")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("ttl-less entry expired")
	}
}

func TestDeleteResponse(t *testing.T) {
	openTestDB(t)

	if err := SaveResponse("news/world", []byte("x"), time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := DeleteResponse("news/world"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := GetResponse("news/world"); ok {
		t.Fatal("deleted entry still readable")
	}
}

func TestSweepExpiredRemovesOnlyStale(t *testing.T) {
	openTestDB(t)

	if err := SaveResponse("stale/a", []byte("a"), time.Nanosecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveResponse("stale/b", []byte("b"), time.Nanosecond); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveResponse("fresh/c", []byte("c"), time.Hour); err != nil {
		t.Fatalf("save: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	deleted, err := SweepExpired(1, 0)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted %d, want 2", deleted)
	}
	if _, ok, _ := GetResponse("fresh/c"); !ok {
		t.Fatal("sweep removed a fresh entry")
	}
}

func TestOperationsWithoutOpenDB(t *testing.T) {
	if Ready() {
		t.Fatal("db unexpectedly open")
	}
	if err := SaveResponse("k", []byte("v"), 0); err == nil {
		t.Fatal("save must fail without an open db")
	}
	if _, _, err := GetResponse("k"); err == nil {
		t.Fatal("get must fail without an open db")
	}
	if _, err := SweepExpired(0, 0); err == nil {
		t.Fatal("sweep must fail without an open db")
	}
}
