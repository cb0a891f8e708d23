package usecase

import (
	"fmt"
	"time"

	"docqa/config"
	"docqa/internal/adapter/analyzer"
	"docqa/internal/adapter/cache"
	"docqa/internal/adapter/chunker"
	"docqa/internal/adapter/embedding"
	"docqa/internal/adapter/extract"
	"docqa/internal/adapter/fs"
	"docqa/internal/adapter/llm"
	"docqa/internal/adapter/retriever"
	"docqa/internal/adapter/store"
	"docqa/internal/logger"
	"docqa/internal/port"
)

// App holds every wired component behind the CLI. Commands receive an App
// instead of reaching into package state; build one, use it, close it.
type App struct {
	Config    *config.Config
	StoreDir  string
	Store     *store.BoltStore
	Embedder  port.Embedder
	Tokenizer *analyzer.Tokenizer
	Cache     *cache.QueryCache
	Tools     extract.Tools

	Sync   *SyncUseCase
	Search *SearchUseCase
	Pack   *PackUseCase

	pipeline *AnswerPipeline
}

// BuildApp wires the application from configuration. Credentials are
// resolved here, before anything touches the network or the index, so a
// missing key fails fast as a configuration error. The LLM client is the
// exception: it is built on first use, since most commands never generate.
func BuildApp(cfg *config.Config, storeDir string) (*App, error) {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	if err := config.EnsureStoreDir(storeDir); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	boltStore, err := store.NewBoltStore(config.IndexDBPath(storeDir), embedder.Dimension())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	check, err := boltStore.CheckMigration(cfg)
	if err != nil {
		boltStore.Close()
		return nil, err
	}
	if check.NeedsRebuild {
		logger.Warnf("rebuilding index: %s", check.Reason)
		if err := boltStore.Clear(); err != nil {
			boltStore.Close()
			return nil, fmt.Errorf("failed to clear store for rebuild: %w", err)
		}
	}
	if check.NeedsMigration || check.NeedsRebuild {
		if err := boltStore.Migrate(cfg); err != nil {
			boltStore.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}

	tokenizer := analyzer.NewTokenizer()

	tools := extract.Tools{
		Pdftotext: cfg.Extract.PdftotextPath,
		Pdfinfo:   cfg.Extract.PdfinfoPath,
		Pdftoppm:  cfg.Extract.PdftoppmPath,
		Tesseract: cfg.Extract.TesseractPath,
	}
	runner := extract.NewRunner()
	pdf := extract.NewPDFExtractor(runner, tools)
	var ocr *extract.OCRExtractor
	if cfg.Extract.OCREnabled {
		ocr = extract.NewOCRExtractor(runner, tools, cfg.Extract.OCRDPI, cfg.Extract.OCRLanguage)
	}
	extractor := extract.NewDocExtractor(pdf, ocr)

	splitter := chunker.NewRecursiveSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	walker := fs.NewWalker(cfg.Ingest.Patterns)

	unified := retriever.NewUnifiedRetriever(boltStore, embedder)
	var searchRetriever port.Retriever = unified
	var queryCache *cache.QueryCache
	if cfg.Retrieve.CacheEnabled {
		queryCache = cache.NewQueryCache(cfg.Retrieve.CacheSize, time.Duration(cfg.Retrieve.CacheTTLSeconds)*time.Second)
		searchRetriever = cache.NewCachedRetriever(unified, queryCache)
	}

	var reranker port.DiversityReranker
	if cfg.Retrieve.MMRLambda > 0 {
		reranker = retriever.NewMMRReranker(cfg.Retrieve.MMRLambda, cfg.Retrieve.DedupJaccard, boltStore.Order())
	}

	var expander *ContextExpander
	if cfg.Retrieve.ExpandNeighbors {
		expander = NewContextExpander(boltStore, boltStore.Order())
	}

	search := NewSearchUseCase(searchRetriever, reranker, expander)

	return &App{
		Config:    cfg,
		StoreDir:  storeDir,
		Store:     boltStore,
		Embedder:  embedder,
		Tokenizer: tokenizer,
		Cache:     queryCache,
		Tools:     tools,
		Sync:      NewSyncUseCase(boltStore, extractor, splitter, walker, embedder, queryCache),
		Search:    search,
		Pack:      NewPackUseCase(tokenizer, boltStore.Order()),
	}, nil
}

// Pipeline returns the answer pipeline, building the LLM client on first
// use. Commands that never generate answers do not need the LLM credential.
func (a *App) Pipeline() (*AnswerPipeline, error) {
	if a.pipeline != nil {
		return a.pipeline, nil
	}

	client, err := buildLLM(a.Config)
	if err != nil {
		return nil, err
	}

	delay := time.Duration(a.Config.LLM.RequestDelayMS) * time.Millisecond
	a.pipeline = NewAnswerPipeline(
		client,
		a.Search,
		a.Tokenizer,
		a.Config.Retrieve.TopK,
		delay,
		a.Config.Retrieve.MaxContextTokens,
	)
	return a.pipeline, nil
}

func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "mistral":
		return embedding.NewMistralEmbedder(e.APIKeyEnv, e.Model)
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, e.BaseURL)
	case "mock":
		return embedding.NewMockEmbedder(1024), nil
	default:
		return embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL)
	}
}

func buildLLM(cfg *config.Config) (port.LLM, error) {
	l := cfg.LLM
	opts := llm.Options{
		Temperature: l.Temperature,
		MaxTokens:   l.MaxTokens,
	}
	switch l.Provider {
	case "mistral":
		return llm.NewMistralClient(l.APIKeyEnv, l.Model, opts)
	case "openai":
		return llm.NewOpenAIClient(l.APIKeyEnv, l.Model, opts)
	case "ollama":
		return llm.NewOllamaClient(l.Model, l.BaseURL, opts)
	default:
		return llm.NewOpenAICompatibleClient(l.APIKeyEnv, l.Model, l.BaseURL, opts)
	}
}
