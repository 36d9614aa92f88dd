package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected a usable logger without Init")
	}

	scoped := zap.NewNop().With(zap.String("request_id", "r-1"))
	ctx := WithContext(context.Background(), scoped)
	if FromContext(ctx) != scoped {
		t.Fatalf("expected scoped logger from context")
	}
}

func TestInitDevelopment(t *testing.T) {
	log, err := Init(Config{Level: "debug", Environment: "development", ServiceName: "test"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if L() != log {
		t.Fatalf("expected Init to install the global logger")
	}
}
