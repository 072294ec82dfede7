package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Material is one uploaded course document owned by a module. Its indexed
// chunks must always reflect the current stored content: re-upload replaces
// the whole chunk set, delete removes it.
type Material struct {
	ID               int64     `gorm:"primaryKey" json:"id"`
	ModuleID         int64     `gorm:"not null;index" json:"module_id"`
	UploaderID       int64     `gorm:"not null" json:"uploader_id"`
	OriginalFilename string    `gorm:"not null" json:"original_filename"`
	StorageFilename  string    `gorm:"not null" json:"storage_filename"`
	ContentType      string    `json:"content_type"`
	Tag              string    `gorm:"index" json:"tag"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Video is an independently searchable catalog item. It is never chunked:
// one video carries at most one summary embedding, stored as JSON alongside
// the row and recomputed wholesale whenever title or description change.
type Video struct {
	ID          int64          `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"not null;index" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	URL         string         `json:"url"`
	Embedding   datatypes.JSON `json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Vector decodes the stored embedding. A missing or malformed column
// decodes to nil, which scoring treats as "no vector".
func (v *Video) Vector() []float64 {
	if len(v.Embedding) == 0 {
		return nil
	}
	var vec []float64
	if err := json.Unmarshal(v.Embedding, &vec); err != nil {
		return nil
	}
	return vec
}

// SetVector stores the embedding, or clears it when vec is empty.
func (v *Video) SetVector(vec []float64) {
	if len(vec) == 0 {
		v.Embedding = nil
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		v.Embedding = nil
		return
	}
	v.Embedding = datatypes.JSON(data)
}
