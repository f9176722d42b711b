package kvstore

import (
	"context"
	"errors"
	"testing"
)

func TestInMemoryRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	r := NewInMemoryRepository(map[string]string{KeyUserID: "u1"})

	v, err := r.Get(ctx, KeyUserID)
	if err != nil || v != "u1" {
		t.Fatalf("expected seeded u1, got %q err=%v", v, err)
	}

	if _, err := r.Get(ctx, KeyCartID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing key, got %v", err)
	}

	if err := r.Set(ctx, KeyPrasadType, "self-serving"); err != nil {
		t.Fatal(err)
	}
	got, _ := r.MultiGet(ctx, KeyUserID, KeyPrasadType, KeyCartID)
	if len(got) != 2 || got[KeyPrasadType] != "self-serving" {
		t.Fatalf("unexpected multiget result %v", got)
	}

	if err := r.Delete(ctx, KeyUserID, KeyPrasadType); err != nil {
		t.Fatal(err)
	}
	got, _ = r.MultiGet(ctx, KeyUserID, KeyPrasadType)
	if len(got) != 0 {
		t.Fatalf("expected empty after delete, got %v", got)
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, closeFn, err := Open(context.Background(), "etcd", "", "")
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if closeFn == nil {
		t.Fatalf("close func must never be nil")
	}
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	if _, _, err := Open(context.Background(), "postgres", "", ""); err == nil {
		t.Fatalf("expected error when DATABASE_URL is empty")
	}
}
