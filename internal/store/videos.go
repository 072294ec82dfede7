package store

import (
	"context"
	"sort"
	"strings"

	"gorm.io/gorm"

	"lumeni-retrieval/internal/domain"
	"lumeni-retrieval/internal/vectorindex"
)

// Videos provides access to the video catalog and its summary embeddings.
type Videos struct {
	db *gorm.DB
}

// NewVideos wraps the database handle.
func NewVideos(db *gorm.DB) *Videos { return &Videos{db: db} }

// Get fetches one video by id.
func (s *Videos) Get(ctx context.Context, id int64) (*domain.Video, error) {
	var v domain.Video
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

// Create inserts the video row.
func (s *Videos) Create(ctx context.Context, v *domain.Video) error {
	return s.db.WithContext(ctx).Create(v).Error
}

// All returns every video.
func (s *Videos) All(ctx context.Context) ([]domain.Video, error) {
	var videos []domain.Video
	err := s.db.WithContext(ctx).Find(&videos).Error
	return videos, err
}

// SaveEmbedding stores the summary vector for one video, clearing it when
// vec is empty.
func (s *Videos) SaveEmbedding(ctx context.Context, id int64, vec []float64) error {
	var v domain.Video
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return err
	}
	v.SetVector(vec)
	return s.db.WithContext(ctx).Model(&domain.Video{ID: id}).Update("embedding", v.Embedding).Error
}

// SemanticSearch brute-force scans every embedded video, scores it by
// cosine similarity to the query vector, and returns the top limit videos
// by descending score. Ties keep retrieval order. Videos without a usable
// vector are skipped.
func (s *Videos) SemanticSearch(ctx context.Context, query []float64, limit int) ([]domain.Video, error) {
	if len(query) == 0 {
		return nil, nil
	}

	var candidates []domain.Video
	err := s.db.WithContext(ctx).Where("embedding IS NOT NULL").Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	type scored struct {
		sim   float64
		video domain.Video
	}
	results := make([]scored, 0, len(candidates))
	for _, v := range candidates {
		sim, ok := vectorindex.Cosine(query, v.Vector())
		if !ok {
			continue
		}
		results = append(results, scored{sim: sim, video: v})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].sim > results[j].sim })

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	videos := make([]domain.Video, len(results))
	for i, r := range results {
		videos[i] = r.video
	}
	return videos, nil
}

// SearchTitles returns videos whose title contains q, case-insensitively,
// capped at limit.
func (s *Videos) SearchTitles(ctx context.Context, q string, limit int) ([]domain.Video, error) {
	var videos []domain.Video
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%").
		Limit(limit).
		Find(&videos).Error
	return videos, err
}

// SuggestTitles returns up to limit titles containing q, for autocomplete.
func (s *Videos) SuggestTitles(ctx context.Context, q string, limit int) ([]string, error) {
	var titles []string
	err := s.db.WithContext(ctx).
		Model(&domain.Video{}).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(q)+"%").
		Limit(limit).
		Pluck("title", &titles).Error
	return titles, err
}
