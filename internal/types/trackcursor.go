package types

import (
	"time"

	"github.com/google/uuid"
)

// TrackCursor remembers the last track served to a user. There is exactly one
// cursor per user, shared across every category; switching categories resumes
// from wherever the user last was, not from the top of the new category.
type TrackCursor struct {
	UserID     uuid.UUID `gorm:"type:uuid;primaryKey;column:user_id" json:"user_id"`
	LastEpoch  int64     `gorm:"not null;column:last_epoch" json:"last_epoch"`
	LastSuffix string    `gorm:"not null;column:last_suffix" json:"last_suffix"`
	UpdatedAt  time.Time `gorm:"not null;column:updated_at" json:"updated_at"`
}

func (TrackCursor) TableName() string {
	return "track_cursor"
}

func (c *TrackCursor) LastTrackID() string {
	return FormatTrackID(c.LastEpoch, c.LastSuffix)
}
