package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/atomixdata/atomix/pkg/atomixtypes"
)

func TestInMemoryRegisterAndResolve(t *testing.T) {
	d := NewInMemory()
	ks := atomixtypes.Keyspace{Namespace: "ns", Name: "ks"}
	id := uuid.New()
	d.Register(ks, id)

	got, err := d.GetKeyspaceInfo(context.Background(), ks)
	if err != nil {
		t.Fatalf("GetKeyspaceInfo: %v", err)
	}
	if got != id {
		t.Fatalf("got %v, want %v", got, id)
	}
}

func TestInMemoryNotFound(t *testing.T) {
	d := NewInMemory()
	ks := atomixtypes.Keyspace{Namespace: "ns", Name: "missing"}
	_, err := d.GetKeyspaceInfo(context.Background(), ks)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestInMemoryUnregister(t *testing.T) {
	d := NewInMemory()
	ks := atomixtypes.Keyspace{Namespace: "ns", Name: "ks"}
	d.Register(ks, uuid.New())
	d.Unregister(ks)
	_, err := d.GetKeyspaceInfo(context.Background(), ks)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound after Unregister", err)
	}
}
