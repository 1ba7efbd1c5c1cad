package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

func TestTrackCursorGetAbsent(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackCursorRepo(db, log)

	cursor, err := repo.Get(context.Background(), nil, uuid.New())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil cursor for unseen user, got %+v", cursor)
	}
}

func TestTrackCursorUpsertLastWriteWins(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackCursorRepo(db, log)
	ctx := context.Background()
	userID := uuid.New()

	if err := repo.Upsert(ctx, nil, &types.TrackCursor{UserID: userID, LastEpoch: 100, LastSuffix: "aaaaaa"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, nil, &types.TrackCursor{UserID: userID, LastEpoch: 50, LastSuffix: "zzzzzz"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	cursor, err := repo.Get(ctx, nil, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if cursor == nil {
		t.Fatalf("expected cursor after upserts")
	}
	// Last write wins even when it moves the cursor backwards; ordering is
	// the serve lock's job, not the store's.
	if cursor.LastEpoch != 50 || cursor.LastSuffix != "zzzzzz" {
		t.Fatalf("expected last write to win, got %+v", cursor)
	}

	var count int64
	if err := db.Model(&types.TrackCursor{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count cursors: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one cursor row per user, got %d", count)
	}
}
