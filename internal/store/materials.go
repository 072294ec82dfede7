package store

import (
	"context"

	"gorm.io/gorm"

	"lumeni-retrieval/internal/domain"
)

// Materials provides access to uploaded module materials.
type Materials struct {
	db *gorm.DB
}

// NewMaterials wraps the database handle.
func NewMaterials(db *gorm.DB) *Materials { return &Materials{db: db} }

// Get fetches one material by id. Returns gorm.ErrRecordNotFound when the
// row no longer exists.
func (s *Materials) Get(ctx context.Context, id int64) (*domain.Material, error) {
	var m domain.Material
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Create inserts the material row.
func (s *Materials) Create(ctx context.Context, m *domain.Material) error {
	return s.db.WithContext(ctx).Create(m).Error
}

// Save persists changes to an existing material.
func (s *Materials) Save(ctx context.Context, m *domain.Material) error {
	return s.db.WithContext(ctx).Save(m).Error
}

// Delete removes the material row. Index invalidation is a separate step
// that runs after the row is gone.
func (s *Materials) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Delete(&domain.Material{}, id).Error
}

// ListByModule returns a module's materials, newest first.
func (s *Materials) ListByModule(ctx context.Context, moduleID int64) ([]domain.Material, error) {
	var materials []domain.Material
	err := s.db.WithContext(ctx).
		Where("module_id = ?", moduleID).
		Order("created_at DESC").
		Find(&materials).Error
	return materials, err
}
