// Package ingest turns stored materials into indexed, embedded chunks and
// keeps the vector index in step with the material rows. Re-ingesting a
// material atomically replaces its whole chunk set: the prior set is
// invalidated before anything new is inserted, so a failure part-way
// leaves the material absent from the index, never stale or mixed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"lumeni-retrieval/internal/chunker"
	"lumeni-retrieval/internal/embedding"
	"lumeni-retrieval/internal/extractor"
	"lumeni-retrieval/internal/logger"
	"lumeni-retrieval/internal/store"
	"lumeni-retrieval/internal/vectorindex"
)

// Service drives extract -> chunk -> invalidate -> embed -> upsert for one
// material at a time, and recomputes catalog item embeddings.
type Service struct {
	materials *store.Materials
	videos    *store.Videos
	extractor extractor.Extractor
	chunker   *chunker.Window
	embedder  embedding.Embedder
	index     vectorindex.Index // nil when the backend is not configured
	uploadDir string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New assembles the ingestion service. index may be nil, in which case
// every index-touching operation is a logged no-op.
func New(
	materials *store.Materials,
	videos *store.Videos,
	ext extractor.Extractor,
	ch *chunker.Window,
	emb embedding.Embedder,
	index vectorindex.Index,
	uploadDir string,
) *Service {
	return &Service{
		materials: materials,
		videos:    videos,
		extractor: ext,
		chunker:   ch,
		embedder:  emb,
		index:     index,
		uploadDir: uploadDir,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// materialLock returns the mutex serializing index mutations for one
// material. Two ingestions of the same material racing would otherwise let
// a delayed insert from the older run land after the newer run's
// invalidation and reintroduce stale chunks.
func (s *Service) materialLock(materialID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[materialID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[materialID] = l
	}
	return l
}

// Ingest replaces the indexed chunk set for one material with chunks of
// its current stored content. It is idempotent at material granularity and
// safe to retry after a failure. Queries never block on it; a concurrent
// query may observe the old set, the new set, or neither.
func (s *Service) Ingest(ctx context.Context, materialID int64) error {
	if s.index == nil {
		logger.Debug("ingest: index disabled, skipping material %d", materialID)
		return nil
	}

	material, err := s.materials.Get(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted between commit and the background run.
			logger.Warn("ingest: material %d no longer exists", materialID)
			return nil
		}
		return fmt.Errorf("ingest: load material %d: %w", materialID, err)
	}

	text := s.extractor.Extract(ctx, filepath.Join(s.uploadDir, material.StorageFilename))
	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		logger.Info("ingest: material %d produced no chunks", materialID)
		return nil
	}

	l := s.materialLock(materialID)
	l.Lock()
	defer l.Unlock()

	// Invalidate unconditionally, even on first ingestion. Delete before
	// insert is what makes re-upload replace instead of merge.
	if err := s.index.DeleteWhere(ctx, vectorindex.Filter{MaterialID: materialID}); err != nil {
		return fmt.Errorf("ingest: invalidate material %d: %w", materialID, err)
	}

	vectors, err := s.embedder.EmbedMany(ctx, chunks)
	if err != nil {
		return fmt.Errorf("ingest: embed material %d: %w", materialID, err)
	}

	entries := make([]vectorindex.Entry, 0, len(chunks))
	for i, chunk := range chunks {
		if len(vectors[i]) == 0 {
			logger.Warn("ingest: no vector for material %d chunk %d", materialID, i)
			continue
		}
		entries = append(entries, vectorindex.Entry{
			ID:     entryID(materialID, i),
			Vector: vectors[i],
			Metadata: vectorindex.Metadata{
				ModuleID:   material.ModuleID,
				MaterialID: material.ID,
				ChunkIndex: i,
				Tag:        material.Tag,
				Source:     material.OriginalFilename,
			},
			Text: chunk,
		})
	}
	if len(entries) == 0 {
		return nil
	}
	if err := s.index.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("ingest: index material %d: %w", materialID, err)
	}
	logger.Info("ingest: indexed %d chunks for material %d", len(entries), materialID)
	return nil
}

// DeleteIndexFor removes every indexed chunk of the material. It runs
// independently of whether the stored file still exists, and is invoked by
// the document-management layer after the row is gone.
func (s *Service) DeleteIndexFor(ctx context.Context, materialID int64) error {
	if s.index == nil {
		logger.Debug("ingest: index disabled, skipping delete for material %d", materialID)
		return nil
	}
	l := s.materialLock(materialID)
	l.Lock()
	defer l.Unlock()
	if err := s.index.DeleteWhere(ctx, vectorindex.Filter{MaterialID: materialID}); err != nil {
		return fmt.Errorf("ingest: delete material %d: %w", materialID, err)
	}
	return nil
}

// RefreshVideoEmbedding recomputes the summary vector for one video from
// its current title and description. Blank text clears the vector, which
// drops the video from semantic catalog search.
func (s *Service) RefreshVideoEmbedding(ctx context.Context, videoID int64) error {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return fmt.Errorf("ingest: load video %d: %w", videoID, err)
	}

	text := strings.TrimSpace(video.Title + " " + video.Description)
	if text == "" {
		return s.videos.SaveEmbedding(ctx, videoID, nil)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("ingest: embed video %d: %w", videoID, err)
	}
	return s.videos.SaveEmbedding(ctx, videoID, vec)
}

// entryID builds a globally unique id for one chunk. The random suffix
// keeps ids from colliding with entries written by a racing ingestion of
// the same material.
func entryID(materialID int64, chunkIndex int) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%d-%d-%s", materialID, chunkIndex, suffix)
}
