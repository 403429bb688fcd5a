package cli

import (
	"context"
	"fmt"

	"github.com/docpilot-labs/docpilot/internal/adapters/driven/ai"
	"github.com/docpilot-labs/docpilot/internal/adapters/driven/storage/memory"
	"github.com/docpilot-labs/docpilot/internal/adapters/driven/storage/postgres"
	"github.com/docpilot-labs/docpilot/internal/chunker"
	"github.com/docpilot-labs/docpilot/internal/config"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/core/services"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// app holds the wired services for one command invocation. It replaces
// any process-wide service singleton: commands receive it explicitly
// and initialise it on first use.
type app struct {
	configPath string
	verbose    bool
	storeKind  string

	cfg      *config.Config
	docs     driven.DocumentStore
	vectors  driven.VectorSearcher
	search   driving.SearchService
	agent    driving.AgentService
	indexer  driving.IndexService
	splitter *chunker.Splitter

	ready   bool
	closers []func() error
}

// init loads configuration and wires the store, providers and core
// services. Idempotent; tests preset the service fields and ready.
func (a *app) init(ctx context.Context) error {
	if a.ready {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	usingPostgres := false
	switch a.storeKind {
	case "memory":
		store := memory.NewStore()
		a.docs, a.vectors = store, store
	case "postgres", "":
		usingPostgres = true
		if err := cfg.Validate(); err != nil {
			return err
		}
		store, err := postgres.NewStore(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		a.closers = append(a.closers, store.Close)
		a.docs, a.vectors = store, store
	default:
		return fmt.Errorf("unknown store backend %q", a.storeKind)
	}

	svcs, err := ai.CreateServices(ctx, cfg.Provider)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error {
		svcs.Close()
		return nil
	})

	if usingPostgres {
		if err := postgres.ValidateEmbeddingDim(svcs.Embedding.Dimensions()); err != nil {
			return err
		}
	}

	a.splitter = chunker.New(
		chunker.WithMaxChars(cfg.Chunking.MaxChars),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	retriever := services.NewRetriever(svcs.Embedding, a.vectors)
	builder := services.NewContextBuilder(cfg.Agent.MaxContextChars)

	a.search = retriever
	a.agent = services.NewAgent(retriever, builder, svcs.LLM,
		services.WithMinContextChunks(cfg.Agent.MinContextChunks),
		services.WithGeneration(cfg.Agent.MaxTokens, cfg.Agent.Temperature),
	)
	a.indexer = services.NewIndexer(a.docs, svcs.Embedding,
		services.WithSplitter(a.splitter),
	)

	a.ready = true
	logger.Debug("services initialised (store=%s, provider=%s)", a.storeKind, cfg.Provider.Name)
	return nil
}

// defaultFilter builds the search filter from configured defaults.
func (a *app) defaultFilter() domain.SearchFilter {
	filter := domain.DefaultFilter()
	if a.cfg != nil && a.cfg.Agent.SimilarityThreshold > 0 {
		filter.SimilarityThreshold = a.cfg.Agent.SimilarityThreshold
	}
	return filter
}

// close releases store and provider resources in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("closing resource: %v", err)
		}
	}
	a.closers = nil
	a.ready = false
}
