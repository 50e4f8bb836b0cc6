package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
	"github.com/gameshelf/gameshelf-server/internal/meta"
	"github.com/gameshelf/gameshelf-server/internal/store/sqlite"
)

// testPassword is the password createUser assigns.
const testPassword = "correct horse battery"

// testPasswordParams keeps argon2 fast in tests.
var testPasswordParams = auth.PasswordParams{Memory: 1024, Iterations: 1, Parallelism: 1}

// testEnv wires every service over temporary SQLite and in-memory Badger.
type testEnv struct {
	store       *sqlite.Store
	flags       *flags.Store
	bus         *events.Bus
	tokens      *auth.TokenService
	sessions    *SessionService
	auth        *AuthService
	catalog     *CatalogService
	collections *CollectionService
	teamChoice  *TeamChoiceService
	submissions *SubmissionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	dir := t.TempDir()

	db, err := sqlite.Open(filepath.Join(dir, "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	kv, err := meta.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	covers, err := images.NewStorage(filepath.Join(dir, "covers"))
	require.NoError(t, err)

	key := make([]byte, 32)
	_, _ = rand.Read(key)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	bus := events.NewBus(logger)
	catalog := NewCatalogService(db, cache.NewGames(1, time.Minute, logger), covers, bus, logger)
	t.Cleanup(catalog.WatchCache())

	flagStore := flags.New(kv, catalog, logger)
	sessions := NewSessionService(db, tokens, logger)

	return &testEnv{
		store:       db,
		flags:       flagStore,
		bus:         bus,
		tokens:      tokens,
		sessions:    sessions,
		auth:        NewAuthService(db, sessions, tokens, auth.NewPasswordHasher(testPasswordParams), logger),
		catalog:     catalog,
		collections: NewCollectionService(flagStore, bus, logger),
		teamChoice:  NewTeamChoiceService(flagStore, catalog, bus, logger),
		submissions: NewSubmissionService(db, catalog, bus, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, email string, admin bool) *domain.User {
	t.Helper()
	u, err := e.auth.CreateUser(context.Background(), CreateUserRequest{
		Email:    email,
		Password: testPassword,
		Admin:    admin,
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) createGame(t *testing.T, title string) *domain.Game {
	t.Helper()
	g, err := e.catalog.CreateGame(context.Background(), GameInput{Title: title, Platforms: []string{"pc"}})
	require.NoError(t, err)
	return g
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
