package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"macrocal/internal/config"
)

func TestComponentTagsEntries(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Component(zap.New(core), "orchestrator").Info("sync finished")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d want=1", len(entries))
	}
	if entries[0].LoggerName != "orchestrator" {
		t.Fatalf("logger name=%q want=orchestrator", entries[0].LoggerName)
	}
	if got := entries[0].ContextMap()["component"]; got != "orchestrator" {
		t.Fatalf("component=%v want=orchestrator", got)
	}
}

func TestComponentNilParent(t *testing.T) {
	Component(nil, "fetcher").Info("dropped")
}

func TestNewFallsBackToInfo(t *testing.T) {
	l, err := New(config.LogConfig{Level: "loud", Encoding: "json"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if l.Core().Enabled(zap.DebugLevel) || !l.Core().Enabled(zap.InfoLevel) {
		t.Fatalf("level fallback not applied")
	}
}
