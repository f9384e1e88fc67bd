package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromZapWritesStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := FromZap(zap.New(core))

	log.WarnObj("weixin response error", "weixin_error", map[string]any{"errcode": 40013})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Fatalf("level = %v", entries[0].Level)
	}
	if _, ok := entries[0].ContextMap()["weixin_error"]; !ok {
		t.Fatalf("missing weixin_error field: %v", entries[0].ContextMap())
	}
}

func TestParseLevel(t *testing.T) {
	if parseLevel("warning") != zapcore.WarnLevel || parseLevel("bogus") != zapcore.InfoLevel {
		t.Fatalf("unexpected level mapping")
	}
}

func TestFromZapNil(t *testing.T) {
	if _, ok := FromZap(nil).(NopLogger); !ok {
		t.Fatalf("expected NopLogger for nil zap logger")
	}
}
