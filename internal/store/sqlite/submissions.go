package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

const submissionColumns = `id, game_id, user_id, status, note, created_at, reviewed_at, reviewed_by`

func scanSubmission(scanner interface{ Scan(dest ...any) error }) (*domain.Submission, error) {
	var (
		sub        domain.Submission
		status     string
		note       sql.NullString
		createdAt  string
		reviewedAt sql.NullString
		reviewedBy sql.NullString
	)

	if err := scanner.Scan(&sub.ID, &sub.GameID, &sub.UserID, &status, &note, &createdAt, &reviewedAt, &reviewedBy); err != nil {
		return nil, err
	}

	var err error
	if sub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if sub.ReviewedAt, err = parseNullableTime(reviewedAt); err != nil {
		return nil, err
	}

	sub.Status = domain.SubmissionStatus(status)
	sub.Note = note.String
	sub.ReviewedBy = reviewedBy.String
	return &sub, nil
}

// CreateSubmission inserts a submission record.
func (s *Store) CreateSubmission(ctx context.Context, sub *domain.Submission) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.GameID, sub.UserID, string(sub.Status), nullString(sub.Note),
		formatTime(sub.CreatedAt), nullTimeString(sub.ReviewedAt), nullString(sub.ReviewedBy),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetSubmission retrieves a submission by ID.
func (s *Store) GetSubmission(ctx context.Context, id string) (*domain.Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return sub, err
}

// UpdateSubmission records a review decision.
func (s *Store) UpdateSubmission(ctx context.Context, sub *domain.Submission) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE submissions SET status = ?, note = ?, reviewed_at = ?, reviewed_by = ? WHERE id = ?`,
		string(sub.Status), nullString(sub.Note), nullTimeString(sub.ReviewedAt), nullString(sub.ReviewedBy), sub.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

// ListSubmissions returns submissions with status, oldest first.
func (s *Store) ListSubmissions(ctx context.Context, status domain.SubmissionStatus) ([]*domain.Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE status = ? ORDER BY created_at ASC`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*domain.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
