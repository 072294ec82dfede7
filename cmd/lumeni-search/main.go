package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"lumeni-retrieval/internal/config"
	"lumeni-retrieval/internal/embedding/openai"
	"lumeni-retrieval/internal/logger"
	"lumeni-retrieval/internal/retrieval"
	"lumeni-retrieval/internal/store"
	"lumeni-retrieval/internal/tui"
	"lumeni-retrieval/internal/vectorindex"
	"lumeni-retrieval/internal/vectorindex/chroma"
	"lumeni-retrieval/internal/vectorindex/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config YAML (defaults to config.yaml, then ~/.config/lumeni/config.yaml)")
	moduleID := flag.Int64("module", 0, "Module to search; 0 searches the video catalog")
	limit := flag.Int("k", 0, "Maximum number of results")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	logger.SetVerbose(*verbose)
	_ = godotenv.Load()

	var cfg *config.AppConfig
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	videos := store.NewVideos(db)

	emb, err := openai.NewClient(openai.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("failed to configure embedder: %v", err)
	}

	index := openIndex(cfg)

	svc := retrieval.New(emb, index, videos)

	k := *limit
	if k <= 0 {
		if *moduleID > 0 {
			k = retrieval.DefaultModuleLimit
		} else {
			k = retrieval.DefaultCatalogLimit
		}
	}

	m := tui.New(svc, *moduleID, k)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

// openIndex builds the configured vector index. Failure to reach the
// backend is not fatal; retrieval degrades to title search instead.
func openIndex(cfg *config.AppConfig) vectorindex.Index {
	switch cfg.Index.Type {
	case "chroma":
		idx, err := chroma.Open(context.Background(), chroma.Config{
			URL:        cfg.Index.URL,
			Collection: cfg.Index.Collection,
			Timeout:    time.Duration(cfg.Index.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Warn("vector index unreachable, semantic search disabled: %v", err)
			return nil
		}
		return idx
	case "memory":
		return memory.NewIndex()
	case "disabled", "":
		return nil
	default:
		log.Fatalf("unknown index type: %s", cfg.Index.Type)
		return nil
	}
}
