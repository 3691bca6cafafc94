package app

import (
	"testing"
	"time"

	"github.com/ent0n29/prawnking/internal/config"
	"github.com/ent0n29/prawnking/internal/memory"
)

func TestBuildWiresServiceGraph(t *testing.T) {
	cfg := config.Config{
		BindAddr:          ":0",
		MetricsNamespace:  "prawnking_test",
		PageAccessToken:   "page-token",
		VerifyToken:       "verify-token",
		GroqAPIKey:        "gsk-test",
		GroqAPIURL:        "http://127.0.0.1:0/chat",
		GraphAPIBaseURL:   "http://127.0.0.1:0",
		ModelHierarchy:    []string{"model-a"},
		SystemPrompt:      "test prompt",
		Temperature:       0.7,
		MaxTokens:         100,
		RequestTimeout:    time.Second,
		MemoryMaxMessages: 10,
		MemoryIdleTimeout: time.Minute,
		MessageCacheSize:  10,
		MessageStoreSize:  10,
	}

	built := Build(cfg)

	if built.API == nil || built.Orchestrator == nil || built.Memory == nil || built.Metrics == nil {
		t.Fatalf("Build() left components nil: %+v", built)
	}
	if built.API.Router() == nil {
		t.Fatalf("Router() should not be nil")
	}

	built.Memory.Append("u1", memory.RoleUser, "hello")
	if got := built.Memory.History("u1"); len(got) != 1 {
		t.Fatalf("shared memory store not functional, history = %v", got)
	}
}
