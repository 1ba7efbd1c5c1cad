package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/subliminalgen/subliminalgen-backend/internal/logger"
	"github.com/subliminalgen/subliminalgen-backend/internal/types"
)

func newTestDB(t *testing.T) (*gorm.DB, *logger.Logger) {
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
	if err := db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Track{},
		&types.TrackCursor{},
		&types.Creation{},
		&types.PsycheTrack{},
		&types.PsycheLibraryVersion{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return db, log
}

// The model tags must stay portable: ids and timestamps are filled in Go, so
// the migrated schema may not depend on postgres server-side functions.
func TestMigratedSchemaAcceptsGoMintedRows(t *testing.T) {
	db, log := newTestDB(t)
	ctx := context.Background()

	user := &types.User{
		ID:       uuid.New(),
		Email:    "schema@test.dev",
		Password: "hashed",
	}
	if _, err := NewUserRepo(db, log).Create(ctx, nil, []*types.User{user}); err != nil {
		t.Fatalf("create user: %v", err)
	}

	creation := &types.Creation{
		ID:        uuid.New(),
		UserID:    user.ID,
		Title:     "first",
		ObjectKey: "creations/" + user.ID.String() + "/first.wav",
		AudioURL:  "https://cdn.test/first",
	}
	if _, err := NewCreationRepo(db, log).Create(ctx, nil, []*types.Creation{creation}); err != nil {
		t.Fatalf("create creation: %v", err)
	}
	if creation.CreatedAt.IsZero() {
		t.Fatalf("gorm must fill CreatedAt without a column default")
	}
}
