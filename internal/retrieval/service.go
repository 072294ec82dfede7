// Package retrieval answers free-text queries against indexed course
// material and the video catalog. Retrieval augments features that must
// keep working without it, so every failure on this path degrades toward
// fewer or no results instead of surfacing an error.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"lumeni-retrieval/internal/domain"
	"lumeni-retrieval/internal/embedding"
	"lumeni-retrieval/internal/logger"
	"lumeni-retrieval/internal/store"
	"lumeni-retrieval/internal/vectorindex"
)

// DefaultModuleLimit is how many snippets a module query returns.
const DefaultModuleLimit = 5

// DefaultCatalogLimit is how many videos a catalog search returns.
const DefaultCatalogLimit = 20

// Snippet is one retrieved piece of course material with its provenance
// label, ready for the caller to quote and cite.
type Snippet struct {
	Text   string
	Source string
}

// Service answers retrieval queries.
type Service struct {
	embedder embedding.Embedder
	index    vectorindex.Index // nil when the backend is not configured
	videos   *store.Videos
}

// New assembles the retrieval service. index may be nil; module retrieval
// then always returns empty and catalog search falls back to title match.
func New(emb embedding.Embedder, index vectorindex.Index, videos *store.Videos) *Service {
	return &Service{embedder: emb, index: index, videos: videos}
}

// RetrieveForModule returns up to limit snippets of the module's material
// ranked by similarity to the query. Blank queries, a disabled index, and
// backend failures all yield an empty result.
func (s *Service) RetrieveForModule(ctx context.Context, query string, moduleID int64, limit int) []Snippet {
	if limit <= 0 {
		limit = DefaultModuleLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	if s.index == nil {
		logger.Debug("retrieval: index disabled, no snippets for module %d", moduleID)
		return nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		logger.Warn("retrieval: query embedding unavailable: %v", err)
		return nil
	}

	matches, err := s.index.Query(ctx, vector, limit, vectorindex.Filter{ModuleID: moduleID})
	if err != nil {
		logger.Warn("retrieval: module %d query failed: %v", moduleID, err)
		return nil
	}

	snippets := make([]Snippet, 0, len(matches))
	for _, m := range matches {
		snippets = append(snippets, Snippet{
			Text:   m.Entry.Text,
			Source: SourceLabel(m.Entry.Metadata),
		})
	}
	return snippets
}

// SourceLabel renders the provenance label for one index entry: the
// uploaded file's display name plus its declared tag.
func SourceLabel(m vectorindex.Metadata) string {
	if m.Tag == "" {
		return m.Source
	}
	return fmt.Sprintf("%s (%s)", m.Source, m.Tag)
}

// Sources lists the label of every snippet, in result order. Duplicates
// are kept deliberately: repeated citation of one source stays visible to
// the caller rendering the provenance list.
func Sources(snippets []Snippet) []string {
	labels := make([]string, len(snippets))
	for i, s := range snippets {
		labels[i] = s.Source
	}
	return labels
}

// SearchVideos searches the catalog. The primary path embeds the query and
// ranks videos by vector similarity; when that path fails or finds
// nothing, it degrades to a case-insensitive title-substring match. The
// two result sets are never merged.
func (s *Service) SearchVideos(ctx context.Context, query string, limit int) ([]domain.Video, error) {
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if results := s.semanticVideos(ctx, query, limit); len(results) > 0 {
		return results, nil
	}
	logger.Debug("retrieval: falling back to title search for %q", query)
	return s.videos.SearchTitles(ctx, query, limit)
}

func (s *Service) semanticVideos(ctx context.Context, query string, limit int) []domain.Video {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		logger.Warn("retrieval: catalog query embedding unavailable: %v", err)
		return nil
	}
	results, err := s.videos.SemanticSearch(ctx, vector, limit)
	if err != nil {
		logger.Warn("retrieval: semantic catalog search failed: %v", err)
		return nil
	}
	return results
}

// SuggestTitles returns up to limit video titles containing q, for
// autocomplete. Blank input yields nothing.
func (s *Service) SuggestTitles(ctx context.Context, q string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	return s.videos.SuggestTitles(ctx, q, limit)
}
