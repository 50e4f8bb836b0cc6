package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

// gameColumns must match the scan order in scanGame.
const gameColumns = `id, slug, title, description, platforms, genres, release_year,
	developer, publisher, cover_hash, cover_blur_hash, status, submitted_by,
	created_at, updated_at`

func scanGame(scanner interface{ Scan(dest ...any) error }) (*domain.Game, error) {
	var (
		g           domain.Game
		platforms   string
		genres      string
		releaseYear sql.NullInt64
		developer   sql.NullString
		publisher   sql.NullString
		coverHash   sql.NullString
		blurHash    sql.NullString
		status      string
		submittedBy sql.NullString
		createdAt   string
		updatedAt   string
	)

	err := scanner.Scan(
		&g.ID, &g.Slug, &g.Title, &g.Description, &platforms, &genres, &releaseYear,
		&developer, &publisher, &coverHash, &blurHash, &status, &submittedBy,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(platforms), &g.Platforms); err != nil {
		return nil, fmt.Errorf("decode platforms for game %d: %w", g.ID, err)
	}
	if err := json.Unmarshal([]byte(genres), &g.Genres); err != nil {
		return nil, fmt.Errorf("decode genres for game %d: %w", g.ID, err)
	}

	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if g.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	g.ReleaseYear = int(releaseYear.Int64)
	g.Developer = developer.String
	g.Publisher = publisher.String
	g.CoverHash = coverHash.String
	g.CoverBlurHash = blurHash.String
	g.Status = domain.GameStatus(status)
	g.SubmittedBy = submittedBy.String
	return &g, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateGame inserts g and assigns its ID.
func (s *Store) CreateGame(ctx context.Context, g *domain.Game) error {
	platforms, err := encodeList(g.Platforms)
	if err != nil {
		return fmt.Errorf("encode platforms: %w", err)
	}
	genres, err := encodeList(g.Genres)
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO games (
			slug, title, description, platforms, genres, release_year,
			developer, publisher, cover_hash, cover_blur_hash, status, submitted_by,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Slug, g.Title, g.Description, platforms, genres, nullInt64(int64(g.ReleaseYear)),
		nullString(g.Developer), nullString(g.Publisher), nullString(g.CoverHash), nullString(g.CoverBlurHash),
		string(g.Status), nullString(g.SubmittedBy),
		formatTime(g.CreatedAt), formatTime(g.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return store.ErrSlugTaken
	}
	if err != nil {
		return err
	}

	g.ID, err = result.LastInsertId()
	return err
}

// GetGame retrieves a game by ID regardless of status.
func (s *Store) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return g, err
}

// GetGameBySlug retrieves a game by slug.
func (s *Store) GetGameBySlug(ctx context.Context, slug string) (*domain.Game, error) {
	g, err := scanGame(s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return g, err
}

// GetGamesByIDs returns the games that exist, in the order of ids.
func (s *Store) GetGamesByIDs(ctx context.Context, ids []int64) ([]*domain.Game, error) {
	if len(ids) == 0 {
		return []*domain.Game{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]*domain.Game, len(ids))
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		byID[g.ID] = g
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]*domain.Game, 0, len(byID))
	for _, id := range ids {
		if g, ok := byID[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

// UpdateGame performs a full row update.
func (s *Store) UpdateGame(ctx context.Context, g *domain.Game) error {
	platforms, err := encodeList(g.Platforms)
	if err != nil {
		return fmt.Errorf("encode platforms: %w", err)
	}
	genres, err := encodeList(g.Genres)
	if err != nil {
		return fmt.Errorf("encode genres: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE games SET
			slug = ?, title = ?, description = ?, platforms = ?, genres = ?, release_year = ?,
			developer = ?, publisher = ?, cover_hash = ?, cover_blur_hash = ?, status = ?,
			submitted_by = ?, updated_at = ?
		WHERE id = ?`,
		g.Slug, g.Title, g.Description, platforms, genres, nullInt64(int64(g.ReleaseYear)),
		nullString(g.Developer), nullString(g.Publisher), nullString(g.CoverHash), nullString(g.CoverBlurHash),
		string(g.Status), nullString(g.SubmittedBy), formatTime(g.UpdatedAt),
		g.ID,
	)
	if isUniqueViolation(err) {
		return store.ErrSlugTaken
	}
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// DeleteGame removes a game; its submissions cascade.
func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListGames pages games ordered by title and returns the unpaged total.
func (s *Store) ListGames(ctx context.Context, params store.ListGamesParams) ([]*domain.Game, int, error) {
	params.Normalize()

	where := ""
	var args []any
	if params.Status != "" {
		where = ` WHERE status = ?`
		args = append(args, string(params.Status))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, params.Limit, params.Offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+gameColumns+` FROM games`+where+` ORDER BY title COLLATE NOCASE, id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	games := []*domain.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, 0, err
		}
		games = append(games, g)
	}
	return games, total, rows.Err()
}

// GameStatus returns the status of a game, or store.ErrNotFound.
func (s *Store) GameStatus(ctx context.Context, id int64) (domain.GameStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM games WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	return domain.GameStatus(status), err
}
