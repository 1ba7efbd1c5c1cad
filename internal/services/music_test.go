package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/repos"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

// ---- fakes ----

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	err   error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, durationSecs int, profile GenProfile) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	return []byte("RIFF-fake-audio:" + prompt), nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	created map[string]time.Time
	upErr   error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}, created: map[string]time.Time{}}
}

func (b *fakeBucket) UploadFile(ctx context.Context, key string, file io.Reader) error {
	if b.upErr != nil {
		return b.upErr
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.created[key] = time.Now()
	return nil
}

func (b *fakeBucket) ReadFile(ctx context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return data, nil
}

func (b *fakeBucket) DeleteFile(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.objects[key]; !ok {
		return fmt.Errorf("object %q not found", key)
	}
	delete(b.objects, key)
	delete(b.created, key)
	return nil
}

func (b *fakeBucket) ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []ObjectInfo
	for k, v := range b.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, Size: int64(len(v)), Created: b.created[k]})
		}
	}
	return out, nil
}

func (b *fakeBucket) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (b *fakeBucket) GetSignedURL(key string, ttl time.Duration) (string, error) {
	return "https://signed.test/" + key, nil
}

func (b *fakeBucket) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// ---- harness ----

type serveHarness struct {
	db         *gorm.DB
	log        *logger.Logger
	trackRepo  repos.TrackRepo
	cursorRepo repos.TrackCursorRepo
	generator  *fakeGenerator
	bucket     *fakeBucket
	music      MusicService
}

func newServeHarness(t *testing.T) *serveHarness {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every pooled connection to :memory: sees its own database; pin to one.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&types.Track{}, &types.TrackCursor{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	trackRepo := repos.NewTrackRepo(db, log)
	cursorRepo := repos.NewTrackCursorRepo(db, log)
	generator := &fakeGenerator{}
	bucket := newFakeBucket()

	selector := NewSelectorService(db, log, trackRepo)
	generation := NewGenerationService(db, log, trackRepo, generator, bucket, defaultProfiles)
	music := NewMusicService(db, log, cursorRepo, selector, generation, NewKeyedMutexLocker())

	return &serveHarness{
		db:         db,
		log:        log,
		trackRepo:  trackRepo,
		cursorRepo: cursorRepo,
		generator:  generator,
		bucket:     bucket,
		music:      music,
	}
}

func (h *serveHarness) cursorOf(t *testing.T, userID uuid.UUID) *types.TrackCursor {
	t.Helper()
	cursor, err := h.cursorRepo.Get(context.Background(), nil, userID)
	if err != nil {
		t.Fatalf("get cursor: %v", err)
	}
	return cursor
}

func (h *serveHarness) seedTrack(t *testing.T, epoch int64, suffix, category, fingerprint string) *types.Track {
	t.Helper()
	track := &types.Track{
		CreatedEpoch: epoch,
		SortSuffix:   suffix,
		Category:     category,
		Fingerprint:  fingerprint,
		ObjectKey:    fmt.Sprintf("tracks/%s/%s.wav", category, types.FormatTrackID(epoch, suffix)),
		AudioURL:     "https://cdn.test/" + types.FormatTrackID(epoch, suffix),
		CreatedAt:    time.Unix(epoch, 0),
	}
	if err := h.trackRepo.Insert(context.Background(), nil, track); err != nil {
		t.Fatalf("seed track: %v", err)
	}
	return track
}

func meditationRequest() MusicRequest {
	return MusicRequest{
		Category:     "meditation",
		Seed:         "slow breathing",
		Styles:       []string{"ambient"},
		Moods:        []string{"calm"},
		DurationSecs: 120,
	}
}

// ---- scenarios ----

func TestServeEmptyLedgerGenerates(t *testing.T) {
	h := newServeHarness(t)
	u1 := uuid.New()

	result, err := h.music.Serve(context.Background(), u1, meditationRequest())
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if result.Cached {
		t.Fatalf("expected a generated track on an empty ledger")
	}
	if h.generator.callCount() != 1 {
		t.Fatalf("expected exactly one generator call, got %d", h.generator.callCount())
	}
	if !h.bucket.has(result.Track.ObjectKey) {
		t.Fatalf("expected uploaded object %q", result.Track.ObjectKey)
	}
	cursor := h.cursorOf(t, u1)
	if cursor == nil || cursor.LastTrackID() != result.Track.TrackID() {
		t.Fatalf("expected cursor at generated track, got %+v", cursor)
	}
}

func TestServeExactFingerprintHit(t *testing.T) {
	h := newServeHarness(t)
	req := meditationRequest()
	a1 := h.seedTrack(t, 100, "aaaaaa", "meditation", Fingerprint(req))
	u2 := uuid.New()

	result, err := h.music.Serve(context.Background(), u2, req)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if !result.Cached || result.Track.TrackID() != a1.TrackID() {
		t.Fatalf("expected cached hit on %s, got %+v", a1.TrackID(), result)
	}
	if h.generator.callCount() != 0 {
		t.Fatalf("cache hit must not call the generator")
	}
	cursor := h.cursorOf(t, u2)
	if cursor == nil || cursor.LastTrackID() != a1.TrackID() {
		t.Fatalf("expected cursor at %s, got %+v", a1.TrackID(), cursor)
	}
}

func TestServeRepeatAtEndOfPoolGenerates(t *testing.T) {
	h := newServeHarness(t)
	req := meditationRequest()
	u1 := uuid.New()

	first, err := h.music.Serve(context.Background(), u1, req)
	if err != nil {
		t.Fatalf("first Serve: %v", err)
	}
	second, err := h.music.Serve(context.Background(), u1, req)
	if err != nil {
		t.Fatalf("second Serve: %v", err)
	}
	if second.Cached {
		t.Fatalf("repeat at end of pool must generate")
	}
	if second.Track.TrackID() == first.Track.TrackID() {
		t.Fatalf("same track served twice to the same user")
	}
	if h.generator.callCount() != 2 {
		t.Fatalf("expected two generator calls, got %d", h.generator.callCount())
	}
	cursor := h.cursorOf(t, u1)
	if cursor == nil || cursor.LastTrackID() != second.Track.TrackID() {
		t.Fatalf("expected cursor at newest track, got %+v", cursor)
	}
}

func TestServeSequentialFallbackIgnoresFingerprint(t *testing.T) {
	h := newServeHarness(t)
	a1 := h.seedTrack(t, 100, "aaaaaa", "meditation", "unrelated-fingerprint")
	u3 := uuid.New()

	req := meditationRequest()
	result, err := h.music.Serve(context.Background(), u3, req)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if !result.Cached || result.Track.TrackID() != a1.TrackID() {
		t.Fatalf("fresh user should receive the earliest category track, got %+v", result)
	}
	if h.generator.callCount() != 0 {
		t.Fatalf("sequential fallback hit must not call the generator")
	}
}

func TestServeFreshUsersNeverRegenerate(t *testing.T) {
	h := newServeHarness(t)
	req := meditationRequest()
	h.seedTrack(t, 100, "aaaaaa", "meditation", Fingerprint(req))

	for i := 0; i < 5; i++ {
		result, err := h.music.Serve(context.Background(), uuid.New(), req)
		if err != nil {
			t.Fatalf("Serve #%d: %v", i, err)
		}
		if !result.Cached {
			t.Fatalf("fresh user #%d triggered generation with an unseen asset available", i)
		}
	}
	if h.generator.callCount() != 0 {
		t.Fatalf("expected zero generator calls, got %d", h.generator.callCount())
	}
}

// The cursor is global across categories on purpose: serving in one category
// moves the user past older tracks in every category.
func TestServeCursorIsCrossCategory(t *testing.T) {
	h := newServeHarness(t)
	h.seedTrack(t, 100, "aaaaaa", "sleep", "fs")
	laterMeditation := h.seedTrack(t, 300, "cccccc", "meditation", "fm")
	u1 := uuid.New()

	// Serve from meditation first; cursor lands at epoch 300.
	result, err := h.music.Serve(context.Background(), u1, MusicRequest{Category: "meditation", Styles: []string{"x"}, DurationSecs: 120})
	if err != nil {
		t.Fatalf("Serve meditation: %v", err)
	}
	if result.Track.TrackID() != laterMeditation.TrackID() {
		t.Fatalf("expected meditation seed track, got %+v", result.Track)
	}

	// The sleep track at epoch 100 is now behind the cursor, so the sleep
	// request must generate instead of serving it.
	result, err = h.music.Serve(context.Background(), u1, MusicRequest{Category: "sleep", Styles: []string{"y"}, DurationSecs: 120})
	if err != nil {
		t.Fatalf("Serve sleep: %v", err)
	}
	if result.Cached {
		t.Fatalf("sleep track behind the global cursor must not be served, got %+v", result.Track)
	}
}

// ---- failure modes ----

type failingSelector struct{}

func (failingSelector) Select(ctx context.Context, category, fingerprint string, cursor *types.TrackCursor) (*types.Track, error) {
	return nil, fmt.Errorf("%w: boom", ErrLookupFailed)
}

func TestServeLookupFailureDoesNotGenerate(t *testing.T) {
	h := newServeHarness(t)
	music := NewMusicService(h.db, h.log, h.cursorRepo, failingSelector{},
		NewGenerationService(h.db, h.log, h.trackRepo, h.generator, h.bucket, defaultProfiles),
		NewKeyedMutexLocker())

	_, err := music.Serve(context.Background(), uuid.New(), meditationRequest())
	if !errors.Is(err, ErrLookupFailed) {
		t.Fatalf("expected ErrLookupFailed, got %v", err)
	}
	if h.generator.callCount() != 0 {
		t.Fatalf("lookup failure must not fall through to generation")
	}
}

func TestServeGenerationFailureSurfaces(t *testing.T) {
	h := newServeHarness(t)
	h.generator.err = fmt.Errorf("model unavailable")
	u1 := uuid.New()

	_, err := h.music.Serve(context.Background(), u1, meditationRequest())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
	cursor := h.cursorOf(t, u1)
	if cursor != nil {
		t.Fatalf("failed generation must not advance any cursor")
	}
}

func TestGenerateTrackPersistFailureLeavesOrphan(t *testing.T) {
	h := newServeHarness(t)
	generation := NewGenerationService(h.db, h.log, h.trackRepo, h.generator, h.bucket, defaultProfiles)

	// Drop the ledger table so the insert after the upload fails.
	if err := h.db.Migrator().DropTable(&types.Track{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	req := meditationRequest()
	_, err := generation.GenerateTrack(context.Background(), req, Fingerprint(req))
	if !errors.Is(err, ErrPersistenceFailed) {
		t.Fatalf("expected ErrPersistenceFailed, got %v", err)
	}

	// The uploaded blob stays behind for the sweeper.
	objects, listErr := h.bucket.ListPrefix(context.Background(), "tracks/meditation/")
	if listErr != nil {
		t.Fatalf("list bucket: %v", listErr)
	}
	if len(objects) != 1 {
		t.Fatalf("expected one orphaned blob, got %d", len(objects))
	}
}

// ---- concurrency ----

func TestServeConcurrentMissesGenerateOnce(t *testing.T) {
	h := newServeHarness(t)
	h.generator.delay = 50 * time.Millisecond
	req := meditationRequest()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	results := make([]*ServeResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = h.music.Serve(context.Background(), uuid.New(), req)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Serve #%d: %v", i, errs[i])
		}
	}
	if got := h.generator.callCount(); got != 1 {
		t.Fatalf("expected concurrent identical misses to share one generation, got %d", got)
	}
	for i := 1; i < n; i++ {
		if results[i].Track.TrackID() != results[0].Track.TrackID() {
			t.Fatalf("callers received different tracks from one shared generation")
		}
	}
}

func TestServeSerializesPerUser(t *testing.T) {
	h := newServeHarness(t)
	u1 := uuid.New()
	req := meditationRequest()

	const n = 4
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.music.Serve(context.Background(), u1, req); err != nil {
				t.Errorf("Serve: %v", err)
			}
		}()
	}
	wg.Wait()

	// The lock serializes the serves, so the pool grows deterministically:
	// the first two calls generate, after which the exact-fingerprint phase
	// always finds a non-cursor track and the user alternates between the
	// two without further generation.
	var count int64
	if err := h.db.Model(&types.Track{}).Count(&count).Error; err != nil {
		t.Fatalf("count tracks: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 tracks, got %d", count)
	}
	if got := h.generator.callCount(); got != 2 {
		t.Fatalf("expected 2 generator calls, got %d", got)
	}
	cursor := h.cursorOf(t, u1)
	if cursor == nil {
		t.Fatalf("expected a cursor after concurrent serves")
	}
}
