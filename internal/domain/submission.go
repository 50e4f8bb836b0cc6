package domain

import "time"

// SubmissionStatus tracks editorial review of a user-submitted game.
type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission links a pending game to the user who proposed it.
type Submission struct {
	ID         string           `json:"id"`
	GameID     int64            `json:"game_id"`
	UserID     string           `json:"user_id"`
	Status     SubmissionStatus `json:"status"`
	Note       string           `json:"note,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	ReviewedAt *time.Time       `json:"reviewed_at,omitempty"`
	ReviewedBy string           `json:"reviewed_by,omitempty"`
}

// IsOpen reports whether the submission still awaits review.
func (s *Submission) IsOpen() bool {
	return s.Status == SubmissionPending
}
