package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Track is one row of the append-only generated-audio ledger. Rows are never
// updated or deleted once written.
//
// The chronological sort key is the (created_epoch, sort_suffix) pair, compared
// numerically on the epoch and lexically on the suffix. The user-facing track
// id is the rendering "epoch-suffix"; comparing those strings directly would
// order "9-..." after "10-...", so all ordering goes through the pair.
type Track struct {
	CreatedEpoch int64          `gorm:"primaryKey;autoIncrement:false;column:created_epoch" json:"created_epoch"`
	SortSuffix   string         `gorm:"primaryKey;column:sort_suffix" json:"sort_suffix"`
	Category     string         `gorm:"index:idx_track_category_fingerprint;not null;column:category" json:"category"`
	Fingerprint  string         `gorm:"index:idx_track_category_fingerprint;not null;column:fingerprint" json:"fingerprint"`
	Prompt       string         `gorm:"column:prompt" json:"prompt"`
	DurationSecs int            `gorm:"column:duration_secs" json:"duration_secs"`
	ObjectKey    string         `gorm:"not null;column:object_key" json:"object_key"`
	AudioURL     string         `gorm:"not null;column:audio_url" json:"audio_url"`
	Metadata     datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;column:created_at" json:"created_at"`
}

func (Track) TableName() string {
	return "track"
}

// TrackID renders the exposed id.
func (t *Track) TrackID() string {
	return FormatTrackID(t.CreatedEpoch, t.SortSuffix)
}

func FormatTrackID(epoch int64, suffix string) string {
	return fmt.Sprintf("%d-%s", epoch, suffix)
}

// ParseTrackID splits an exposed id back into its sort-key pair.
func ParseTrackID(id string) (int64, string, error) {
	epochStr, suffix, ok := strings.Cut(id, "-")
	if !ok || epochStr == "" || suffix == "" {
		return 0, "", fmt.Errorf("malformed track id %q", id)
	}
	epoch, err := strconv.ParseInt(epochStr, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed track id %q: %w", id, err)
	}
	return epoch, suffix, nil
}
