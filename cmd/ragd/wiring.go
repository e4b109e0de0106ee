package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/llmc/ragcore/internal/config"
	"github.com/llmc/ragcore/internal/embedding"
	"github.com/llmc/ragcore/internal/enrichment"
	"github.com/llmc/ragcore/internal/ragerr"
	"github.com/llmc/ragcore/internal/retrieval"
	"github.com/llmc/ragcore/internal/schemagraph"
	"github.com/llmc/ragcore/internal/store"
	"github.com/llmc/ragcore/internal/sync"
)

// components bundles everything a subcommand needs for one repository,
// built once per invocation from the repository's config file.
type components struct {
	Store      *store.Store
	Config     *config.Config
	Pipeline   *retrieval.Pipeline
	Controller *sync.Controller
}

func (c *components) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
}

// buildComponents opens the repository's store, loads its config, and
// wires the query pipeline and sync controller around them. The
// enrichment engine is left nil when no chain is configured, which the
// controller treats as "enrichment is not this invocation's concern."
func buildComponents(repoRoot string) (*components, error) {
	absRoot, err := filepath.Abs(repoRoot)
	if err != nil {
		return nil, ragerr.Config("failed to resolve repository root", err)
	}

	cfg, err := config.Load(configPath(absRoot))
	if err != nil {
		return nil, err
	}

	s, err := store.Open(storePath(absRoot))
	if err != nil {
		return nil, err
	}

	embedder, err := embedding.NewEngine(cfg.Embeddings, embedding.Provider(cfg.Embeddings.Provider), apiKeyFor(cfg.Embeddings.Provider), "")
	if err != nil {
		s.Close()
		return nil, err
	}

	graph, err := schemagraph.Load(graphPath(absRoot))
	if err != nil {
		s.Close()
		return nil, err
	}

	pipeline := &retrieval.Pipeline{
		Store:      s,
		Graph:      graph,
		Embedder:   embedder,
		Config:     cfg,
		RepoName:   filepath.Base(absRoot),
		RepoRoot:   absRoot,
		StatusPath: statusPath(absRoot),
	}

	var enrichEngine *enrichment.Engine
	if len(cfg.Chain) > 0 {
		apiKeys := map[string]string{
			"openai":    apiKeyFor("openai"),
			"anthropic": apiKeyFor("anthropic"),
			"genai":     apiKeyFor("genai"),
		}
		cost := enrichment.NewCostTracker(cfg.Enrichment.DailyCostCapUSD)
		chain, err := enrichment.BuildChain(cfg.Chain, cfg.Enrichment.DefaultChain, cfg.Enrichment.MaxFailuresPerSpan, cfg.Enrichment.EnforceLatin1Enrichment, apiKeys, cost)
		if err != nil {
			s.Close()
			return nil, err
		}
		enrichEngine = enrichment.NewEngine(s, chain, cfg, 30*time.Second)
	}

	controller := &sync.Controller{
		RepoRoot:   absRoot,
		GraphPath:  graphPath(absRoot),
		StatusPath: statusPath(absRoot),
		Store:      s,
		Embedder:   embedder,
		ConfigPath: configPath(absRoot),
	}
	if enrichEngine != nil {
		controller.EnrichEngine = enrichEngine
	}

	return &components{Store: s, Config: cfg, Pipeline: pipeline, Controller: controller}, nil
}

// apiKeyFor resolves a provider's API key from its conventional
// environment variable. Empty for providers (e.g. "local", "ollama")
// that don't need one.
func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "genai":
		return os.Getenv("GENAI_API_KEY")
	default:
		return ""
	}
}
