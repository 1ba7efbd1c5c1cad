package types

import (
	"time"

	"github.com/google/uuid"
)

// Creation is a user-saved audio file. VIP uploads are permanent library
// entries; free-tier uploads live under a temp prefix and carry an expiry the
// sweeper enforces.
type Creation struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"index;not null;column:user_id" json:"user_id"`
	User      *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	Title     string     `gorm:"not null;column:title" json:"title"`
	ObjectKey string     `gorm:"not null;column:object_key" json:"object_key"`
	AudioURL  string     `gorm:"not null;column:audio_url" json:"audio_url"`
	Temporary bool       `gorm:"not null;default:false;column:temporary" json:"temporary"`
	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

func (Creation) TableName() string {
	return "creation"
}
