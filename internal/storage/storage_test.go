package storage

import (
	"context"
	"testing"

	"github.com/bazaar-market/apiserver/config"
)

func TestNewFromConfigDisabled(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		media, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: backend})
		if err != nil {
			t.Fatalf("backend %q: unexpected error: %v", backend, err)
		}
		if media != nil {
			t.Fatalf("backend %q: expected nil Storage", backend)
		}
	}
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	if _, err := NewFromConfig(context.Background(), config.StorageConfig{Backend: "s3"}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
