package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"lumeni-retrieval/internal/chunker"
	"lumeni-retrieval/internal/config"
	"lumeni-retrieval/internal/domain"
	"lumeni-retrieval/internal/embedding/openai"
	"lumeni-retrieval/internal/extractor"
	"lumeni-retrieval/internal/ingest"
	"lumeni-retrieval/internal/logger"
	"lumeni-retrieval/internal/store"
	"lumeni-retrieval/internal/vectorindex"
	"lumeni-retrieval/internal/vectorindex/chroma"
	"lumeni-retrieval/internal/vectorindex/memory"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config YAML (defaults to config.yaml, then ~/.config/lumeni/config.yaml)")
	moduleID := flag.Int64("module", 0, "Module the materials belong to")
	uploaderID := flag.Int64("uploader", 0, "Faculty member registering the materials")
	tag := flag.String("tag", "", "Tag applied to the materials (e.g. lecture, homework)")
	deleteID := flag.Int64("delete", 0, "Delete the material with this ID and exit")
	reindexVideos := flag.Bool("reindex-videos", false, "Recompute embeddings for every catalog video and exit")
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
	materials := store.NewMaterials(db)
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

	ch, err := chunker.NewWindow(cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		log.Fatalf("bad chunker config: %v", err)
	}

	svc := ingest.New(materials, videos, extractor.NewFile(), ch, emb, openIndex(cfg), cfg.UploadDir)
	ctx := context.Background()

	switch {
	case *deleteID > 0:
		deleteMaterial(ctx, materials, svc, *deleteID)
	case *reindexVideos:
		reindexCatalog(ctx, videos, svc)
	default:
		registerFiles(ctx, materials, svc, cfg.UploadDir, *moduleID, *uploaderID, *tag, flag.Args())
	}
}

func registerFiles(ctx context.Context, materials *store.Materials, svc *ingest.Service, uploadDir string, moduleID, uploaderID int64, tag string, paths []string) {
	if moduleID <= 0 {
		log.Fatalf("a -module is required to register materials")
	}
	if len(paths) == 0 {
		fmt.Println("Usage: lumeni-ingest -module=ID [-uploader=ID] [-tag=lecture] file1.pdf [file2.docx ...]")
		os.Exit(1)
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		log.Fatalf("failed to create upload dir: %v", err)
	}

	for _, path := range paths {
		name := filepath.Base(path)
		stored, err := copyToUploads(path, uploadDir)
		if err != nil {
			color.Red("✗ %s: %v", name, err)
			continue
		}
		m := &domain.Material{
			ModuleID:         moduleID,
			UploaderID:       uploaderID,
			OriginalFilename: name,
			StorageFilename:  stored,
			ContentType:      mime.TypeByExtension(filepath.Ext(path)),
			Tag:              tag,
		}
		// the row is committed before indexing so the material exists
		// even if the index backend is down
		if err := materials.Create(ctx, m); err != nil {
			color.Red("✗ %s: %v", name, err)
			continue
		}
		if err := svc.Ingest(ctx, m.ID); err != nil {
			color.Yellow("! %s registered as material %d, indexing failed: %v", name, m.ID, err)
			continue
		}
		color.Green("✓ %s registered as material %d", name, m.ID)
	}
}

func deleteMaterial(ctx context.Context, materials *store.Materials, svc *ingest.Service, id int64) {
	if err := materials.Delete(ctx, id); err != nil {
		log.Fatalf("failed to delete material %d: %v", id, err)
	}
	if err := svc.DeleteIndexFor(ctx, id); err != nil {
		log.Fatalf("material %d deleted, index cleanup failed: %v", id, err)
	}
	color.Green("✓ material %d deleted", id)
}

func reindexCatalog(ctx context.Context, videos *store.Videos, svc *ingest.Service) {
	all, err := videos.All(ctx)
	if err != nil {
		log.Fatalf("failed to list videos: %v", err)
	}
	for _, v := range all {
		if err := svc.RefreshVideoEmbedding(ctx, v.ID); err != nil {
			color.Red("✗ video %d (%s): %v", v.ID, v.Title, err)
			continue
		}
		color.Green("✓ video %d (%s)", v.ID, v.Title)
	}
}

// copyToUploads stores the file under a collision-free name and returns
// that name.
func copyToUploads(path, uploadDir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := strings.ReplaceAll(uuid.NewString(), "-", "") + filepath.Ext(path)
	dst, err := os.Create(filepath.Join(uploadDir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return name, nil
}

func openIndex(cfg *config.AppConfig) vectorindex.Index {
	switch cfg.Index.Type {
	case "chroma":
		idx, err := chroma.Open(context.Background(), chroma.Config{
			URL:        cfg.Index.URL,
			Collection: cfg.Index.Collection,
			Timeout:    time.Duration(cfg.Index.TimeoutSecs) * time.Second,
		})
		if err != nil {
			logger.Warn("vector index unreachable, materials will not be indexed: %v", err)
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
