// Package store defines the relational persistence contract for users,
// sessions, games and submissions. The sqlite subpackage implements it.
package store

import (
	"context"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// Users persists accounts.
type Users interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	CountUsers(ctx context.Context) (int, error)
}

// Sessions persists refresh-token sessions.
type Sessions interface {
	CreateSession(ctx context.Context, s *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, hash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, s *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

// Games persists the catalog.
type Games interface {
	CreateGame(ctx context.Context, g *domain.Game) error
	GetGame(ctx context.Context, id int64) (*domain.Game, error)
	GetGameBySlug(ctx context.Context, slug string) (*domain.Game, error)
	GetGamesByIDs(ctx context.Context, ids []int64) ([]*domain.Game, error)
	UpdateGame(ctx context.Context, g *domain.Game) error
	DeleteGame(ctx context.Context, id int64) error
	ListGames(ctx context.Context, params ListGamesParams) ([]*domain.Game, int, error)
	GameStatus(ctx context.Context, id int64) (domain.GameStatus, error)
}

// Submissions persists editorial review records.
type Submissions interface {
	CreateSubmission(ctx context.Context, s *domain.Submission) error
	GetSubmission(ctx context.Context, id string) (*domain.Submission, error)
	UpdateSubmission(ctx context.Context, s *domain.Submission) error
	ListSubmissions(ctx context.Context, status domain.SubmissionStatus) ([]*domain.Submission, error)
}

// Store is the full relational store.
type Store interface {
	Users
	Sessions
	Games
	Submissions
	Close() error
}

// ListGamesParams filters and pages ListGames.
type ListGamesParams struct {
	// Status filters by status; empty lists every status.
	Status domain.GameStatus
	Limit  int
	Offset int
}

// Normalize clamps paging to sane bounds.
func (p *ListGamesParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// Paging bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)
