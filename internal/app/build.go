package app

import (
	"github.com/ent0n29/prawnking/internal/config"
	"github.com/ent0n29/prawnking/internal/groq"
	"github.com/ent0n29/prawnking/internal/memory"
	"github.com/ent0n29/prawnking/internal/messenger"
	"github.com/ent0n29/prawnking/internal/msgcache"
	"github.com/ent0n29/prawnking/internal/observability"
	"github.com/ent0n29/prawnking/internal/relay"
	"github.com/ent0n29/prawnking/internal/webhook"
)

// BuildResult holds the wired service graph.
type BuildResult struct {
	Config       config.Config
	API          *webhook.Server
	Orchestrator *relay.Orchestrator
	Memory       *memory.Store
	Metrics      *observability.Metrics
}

// Build constructs the stores, clients, orchestrator, and HTTP surface.
// Stores are created once here and shared by all in-flight turns.
func Build(cfg config.Config) *BuildResult {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	mem := memory.NewStore(cfg.MemoryMaxMessages, cfg.MemoryIdleTimeout)
	seen := msgcache.NewSeenSet(cfg.MessageCacheSize)
	replies := msgcache.NewReplyCache(cfg.MessageStoreSize)

	completer := groq.NewClient(groq.Config{
		APIKey:       cfg.GroqAPIKey,
		APIURL:       cfg.GroqAPIURL,
		Models:       cfg.ModelHierarchy,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  cfg.Temperature,
		MaxTokens:    cfg.MaxTokens,
		Timeout:      cfg.RequestTimeout,
	}, metrics)

	sink := messenger.NewClient(cfg.GraphAPIBaseURL, cfg.PageAccessToken)

	orchestrator := relay.NewOrchestrator(mem, seen, replies, completer, sink, metrics)
	api := webhook.New(cfg, orchestrator, metrics)

	return &BuildResult{
		Config:       cfg,
		API:          api,
		Orchestrator: orchestrator,
		Memory:       mem,
		Metrics:      metrics,
	}
}
