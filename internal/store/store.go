// Package store persists materials and videos, the system-of-record rows
// the retrieval pipeline reads. Video embeddings live as JSON alongside
// their rows so catalog search can brute-force scan them in process.
package store

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lumeni-retrieval/internal/domain"
)

// Open opens (or creates) the SQLite database at path and migrates the
// schema. Use "file::memory:?cache=shared" for an in-memory database.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Material{}, &domain.Video{}); err != nil {
		return nil, err
	}
	return db, nil
}
