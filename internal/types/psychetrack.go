package types

import (
	"time"

	"github.com/google/uuid"
)

// PsycheTrack is a curated (hand-added) track in the psyche library, distinct
// from the generated ledger.
type PsycheTrack struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null;column:name" json:"name"`
	Category  string    `gorm:"index;not null;column:category" json:"category"`
	ObjectKey string    `gorm:"not null;column:object_key" json:"object_key"`
	AudioURL  string    `gorm:"not null;column:audio_url" json:"audio_url"`
	SortOrder int       `gorm:"not null;default:0;column:sort_order" json:"sort_order"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (PsycheTrack) TableName() string {
	return "psyche_track"
}

// PsycheLibraryVersion is a single-row counter bumped whenever the curated
// library changes, so clients can cheaply detect staleness.
type PsycheLibraryVersion struct {
	ID        int       `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Version   int64     `gorm:"not null;default:0;column:version" json:"version"`
	UpdatedAt time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (PsycheLibraryVersion) TableName() string {
	return "psyche_library_version"
}
