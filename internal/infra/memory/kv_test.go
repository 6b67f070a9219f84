package memory

import (
	"context"
	"testing"
)

func TestKVRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewKV()

	if value, err := kv.Get(ctx, "missing"); err != nil || value != nil {
		t.Fatalf("expected nil for missing key, got %v err=%v", value, err)
	}

	if err := kv.Put(ctx, "stage:1:c", []byte("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := kv.Get(ctx, "stage:1:c")
	if err != nil || string(value) != "payload" {
		t.Fatalf("expected payload back, got %q err=%v", value, err)
	}

	if err := kv.Delete(ctx, "stage:1:c"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if value, _ := kv.Get(ctx, "stage:1:c"); value != nil {
		t.Fatalf("expected key removed")
	}
}
