package coordinator

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
	"github.com/atomixdata/atomix/pkg/universe"
)

func TestKeyspaceResolverCaches(t *testing.T) {
	dir := universe.NewInMemory()
	ks := atomixtypes.Keyspace{Namespace: "ns", Name: "a"}
	id := uuid.New()
	dir.Register(ks, id)

	r := newKeyspaceResolver(dir)
	got, err := r.resolve(context.Background(), ks)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != id {
		t.Fatalf("got %v, want %v", got, id)
	}

	// A rename in the directory must not affect an already-resolved
	// transaction's cache.
	dir.Register(ks, uuid.New())
	got2, err := r.resolve(context.Background(), ks)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if got2 != id {
		t.Fatalf("cached resolve drifted: got %v, want %v", got2, id)
	}
}

func TestKeyspaceResolverNotFoundIsNotCached(t *testing.T) {
	dir := universe.NewInMemory()
	ks := atomixtypes.Keyspace{Namespace: "ns", Name: "late"}
	r := newKeyspaceResolver(dir)

	_, err := r.resolve(context.Background(), ks)
	if !IsKeyspaceDoesNotExist(err) {
		t.Fatalf("err = %v, want KeyspaceDoesNotExist", err)
	}

	id := uuid.New()
	dir.Register(ks, id)
	got, err := r.resolve(context.Background(), ks)
	if err != nil {
		t.Fatalf("resolve after late registration: %v", err)
	}
	if got != id {
		t.Fatalf("got %v, want %v", got, id)
	}
}
