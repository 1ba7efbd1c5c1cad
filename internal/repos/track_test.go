package repos

import (
	"context"
	"testing"
	"time"

	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

func insertTrack(t *testing.T, repo TrackRepo, epoch int64, suffix, category, fingerprint string) *types.Track {
	t.Helper()
	track := &types.Track{
		CreatedEpoch: epoch,
		SortSuffix:   suffix,
		Category:     category,
		Fingerprint:  fingerprint,
		ObjectKey:    "tracks/" + category + "/" + types.FormatTrackID(epoch, suffix) + ".wav",
		AudioURL:     "https://example.test/" + types.FormatTrackID(epoch, suffix),
		CreatedAt:    time.Unix(epoch, 0),
	}
	if err := repo.Insert(context.Background(), nil, track); err != nil {
		t.Fatalf("insert track: %v", err)
	}
	return track
}

// A nine-digit epoch compared as a string sorts after a ten-digit one; the
// pair key must not fall into that trap.
func TestNextInCategoryOrdersNumerically(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackRepo(db, log)
	ctx := context.Background()

	insertTrack(t, repo, 999999999, "aaaaaa", "meditation", "f1")
	insertTrack(t, repo, 1000000000, "aaaaaa", "meditation", "f2")

	got, err := repo.NextInCategory(ctx, nil, "meditation", 999999999, "aaaaaa", "")
	if err != nil {
		t.Fatalf("NextInCategory: %v", err)
	}
	if got == nil || got.CreatedEpoch != 1000000000 {
		t.Fatalf("expected the ten-digit epoch to sort after the nine-digit one, got %+v", got)
	}
}

func TestNextInCategoryTieBreaksOnSuffix(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackRepo(db, log)
	ctx := context.Background()

	insertTrack(t, repo, 1700000000, "aaa111", "sleep", "f1")
	insertTrack(t, repo, 1700000000, "bbb222", "sleep", "f2")

	got, err := repo.NextInCategory(ctx, nil, "sleep", 1700000000, "aaa111", "")
	if err != nil {
		t.Fatalf("NextInCategory: %v", err)
	}
	if got == nil || got.SortSuffix != "bbb222" {
		t.Fatalf("expected suffix tie-break, got %+v", got)
	}
}

func TestNextInCategoryScopesAndExcludes(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackRepo(db, log)
	ctx := context.Background()

	insertTrack(t, repo, 100, "aaaaaa", "focus", "f1")
	insertTrack(t, repo, 200, "bbbbbb", "sleep", "f1")
	insertTrack(t, repo, 300, "cccccc", "focus", "f2")

	t.Run("other categories invisible", func(t *testing.T) {
		got, err := repo.NextInCategory(ctx, nil, "focus", 0, "", "")
		if err != nil {
			t.Fatalf("NextInCategory: %v", err)
		}
		if got == nil || got.CreatedEpoch != 100 {
			t.Fatalf("expected the epoch-100 focus track, got %+v", got)
		}
	})

	t.Run("fingerprint exclusion applies", func(t *testing.T) {
		got, err := repo.NextInCategory(ctx, nil, "focus", 0, "", "f1")
		if err != nil {
			t.Fatalf("NextInCategory: %v", err)
		}
		if got == nil || got.Fingerprint != "f2" {
			t.Fatalf("expected the f2 track, got %+v", got)
		}
	})

	t.Run("past the end returns nil", func(t *testing.T) {
		got, err := repo.NextInCategory(ctx, nil, "focus", 300, "cccccc", "")
		if err != nil {
			t.Fatalf("NextInCategory: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil past the end, got %+v", got)
		}
	})
}

func TestFirstByFingerprint(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackRepo(db, log)
	ctx := context.Background()

	a1 := insertTrack(t, repo, 100, "aaaaaa", "meditation", "f1")
	a2 := insertTrack(t, repo, 200, "bbbbbb", "meditation", "f1")
	insertTrack(t, repo, 300, "cccccc", "meditation", "f2")

	t.Run("oldest match wins", func(t *testing.T) {
		got, err := repo.FirstByFingerprint(ctx, nil, "meditation", "f1", 0, "")
		if err != nil {
			t.Fatalf("FirstByFingerprint: %v", err)
		}
		if got == nil || got.TrackID() != a1.TrackID() {
			t.Fatalf("expected oldest f1 track, got %+v", got)
		}
	})

	t.Run("cursor track skipped", func(t *testing.T) {
		got, err := repo.FirstByFingerprint(ctx, nil, "meditation", "f1", a1.CreatedEpoch, a1.SortSuffix)
		if err != nil {
			t.Fatalf("FirstByFingerprint: %v", err)
		}
		if got == nil || got.TrackID() != a2.TrackID() {
			t.Fatalf("expected second f1 track, got %+v", got)
		}
	})

	t.Run("only cursor in pool yields nil", func(t *testing.T) {
		got, err := repo.FirstByFingerprint(ctx, nil, "meditation", "f2", 300, "cccccc")
		if err != nil {
			t.Fatalf("FirstByFingerprint: %v", err)
		}
		if got != nil {
			t.Fatalf("expected nil when the cursor is the only match, got %+v", got)
		}
	})
}

func TestExistsByObjectKey(t *testing.T) {
	db, log := newTestDB(t)
	repo := NewTrackRepo(db, log)
	ctx := context.Background()

	track := insertTrack(t, repo, 100, "aaaaaa", "energy", "f1")

	exists, err := repo.ExistsByObjectKey(ctx, nil, track.ObjectKey)
	if err != nil {
		t.Fatalf("ExistsByObjectKey: %v", err)
	}
	if !exists {
		t.Fatalf("expected object key to exist")
	}
	exists, err = repo.ExistsByObjectKey(ctx, nil, "energy/unknown.wav")
	if err != nil {
		t.Fatalf("ExistsByObjectKey: %v", err)
	}
	if exists {
		t.Fatalf("expected unknown object key to not exist")
	}
}
