package mq

import (
	"context"
	"testing"

	"github.com/bazaar-market/apiserver/config"
)

func TestNewFromConfigDisabled(t *testing.T) {
	for _, backend := range []string{"", "none"} {
		events, err := NewFromConfig(context.Background(), config.MQConfig{Backend: backend})
		if err != nil {
			t.Fatalf("backend %q: unexpected error: %v", backend, err)
		}
		if events != nil {
			t.Fatalf("backend %q: expected nil MQ", backend)
		}
	}
}

func TestNewFromConfigUnknownBackend(t *testing.T) {
	if _, err := NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"}); err == nil {
		t.Fatal("expected an error for an unknown backend")
	}
}
