package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeUser(t *testing.T, s *Store, id, email string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{ID: id, Email: email, Role: domain.RoleMember, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func makeGame(t *testing.T, s *Store, slug, title string, status domain.GameStatus) *domain.Game {
	t.Helper()
	now := time.Now()
	g := &domain.Game{
		Slug: slug, Title: title, Status: status,
		Platforms: []string{"PC"}, Genres: []string{"Puzzle"},
		CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreateGame(context.Background(), g))
	return g
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	for _, table := range []string{"users", "sessions", "games", "submissions"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
	assert.NoError(t, s.Ping())
}

func TestUsers_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := makeUser(t, s, "usr-1", "Kim@Example.com")

	got, err := s.GetUserByEmail(ctx, "kim@example.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.LastLoginAt.IsZero())

	dup := &domain.User{ID: "usr-2", Email: "kim@example.com", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), store.ErrAlreadyExists)

	got.DisplayName = "Kim"
	got.LastLoginAt = time.Now()
	require.NoError(t, s.UpdateUser(ctx, got))

	again, err := s.GetUser(ctx, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, "Kim", again.DisplayName)
	assert.False(t, again.LastLoginAt.IsZero())

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetUser(ctx, "usr-missing")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestSessions_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	makeUser(t, s, "usr-1", "a@example.com")

	now := time.Now()
	sess := &domain.Session{
		ID: "ses-1", UserID: "usr-1", RefreshTokenHash: "h1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, LastSeenAt: now, UserAgent: "shelfctl",
	}
	require.NoError(t, s.CreateSession(ctx, sess))

	got, err := s.GetSessionByRefreshToken(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "shelfctl", got.UserAgent)

	got.RefreshTokenHash = "h2"
	require.NoError(t, s.UpdateSession(ctx, got))
	_, err = s.GetSessionByRefreshToken(ctx, "h1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	expired := &domain.Session{
		ID: "ses-2", UserID: "usr-1", RefreshTokenHash: "h3",
		ExpiresAt: now.Add(-time.Hour), CreatedAt: now, LastSeenAt: now,
	}
	require.NoError(t, s.CreateSession(ctx, expired))

	n, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeleteSession(ctx, "ses-1"))
	assert.ErrorIs(t, s.DeleteSession(ctx, "ses-1"), store.ErrNotFound)
}

func TestGames_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	g := makeGame(t, s, "outer-wilds", "Outer Wilds", domain.GameStatusPublished)
	assert.Positive(t, g.ID)

	got, err := s.GetGameBySlug(ctx, "outer-wilds")
	require.NoError(t, err)
	assert.Equal(t, []string{"PC"}, got.Platforms)
	assert.Equal(t, domain.GameStatusPublished, got.Status)

	got.Platforms = append(got.Platforms, "PS5")
	got.ReleaseYear = 2019
	got.CoverHash = "abc"
	require.NoError(t, s.UpdateGame(ctx, got))

	again, err := s.GetGame(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"PC", "PS5"}, again.Platforms)
	assert.Equal(t, 2019, again.ReleaseYear)
	assert.Equal(t, "abc", again.CoverHash)

	dup := &domain.Game{Slug: "outer-wilds", Title: "Dup", Status: domain.GameStatusPublished, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	assert.ErrorIs(t, s.CreateGame(ctx, dup), store.ErrSlugTaken)

	require.NoError(t, s.DeleteGame(ctx, g.ID))
	_, err = s.GameStatus(ctx, g.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGames_ListAndByIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	b := makeGame(t, s, "braid", "Braid", domain.GameStatusPublished)
	a := makeGame(t, s, "animal-well", "Animal Well", domain.GameStatusPublished)
	p := makeGame(t, s, "pending-thing", "Pending Thing", domain.GameStatusPending)

	games, total, err := s.ListGames(ctx, store.ListGamesParams{Status: domain.GameStatusPublished})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, games, 2)
	assert.Equal(t, "Animal Well", games[0].Title)

	games, total, err = s.ListGames(ctx, store.ListGamesParams{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, games, 1)
	assert.Equal(t, "Braid", games[0].Title)

	byIDs, err := s.GetGamesByIDs(ctx, []int64{p.ID, 999, a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, byIDs, 3)
	assert.Equal(t, []int64{p.ID, a.ID, b.ID}, []int64{byIDs[0].ID, byIDs[1].ID, byIDs[2].ID})

	status, err := s.GameStatus(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusPending, status)
}

func TestSubmissions_ReviewCycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	makeUser(t, s, "usr-1", "a@example.com")
	g := makeGame(t, s, "new-game", "New Game", domain.GameStatusPending)

	sub := &domain.Submission{ID: "sub-1", GameID: g.ID, UserID: "usr-1", Status: domain.SubmissionPending, CreatedAt: time.Now()}
	require.NoError(t, s.CreateSubmission(ctx, sub))

	open, err := s.ListSubmissions(ctx, domain.SubmissionPending)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Nil(t, open[0].ReviewedAt)

	now := time.Now()
	sub.Status = domain.SubmissionApproved
	sub.ReviewedAt = &now
	sub.ReviewedBy = "usr-1"
	require.NoError(t, s.UpdateSubmission(ctx, sub))

	got, err := s.GetSubmission(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionApproved, got.Status)
	require.NotNil(t, got.ReviewedAt)

	require.NoError(t, s.DeleteGame(ctx, g.ID))
	_, err = s.GetSubmission(ctx, "sub-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
