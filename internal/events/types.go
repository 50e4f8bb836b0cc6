package events

import (
	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/flags"
)

// CollectionUpdated fires after a successful user collection toggle.
// SessionID scopes browser notification to the session that clicked.
type CollectionUpdated struct {
	UserID    string
	SessionID string
	GameID    int64
	Type      flags.Type
	Active    bool
	Count     int
}

// TeamChoiceChanged fires when an editor sets or clears the team choice flag.
type TeamChoiceChanged struct {
	GameID int64
	Active bool
	By     string
}

// GameSaved fires after a game is created or updated.
type GameSaved struct {
	Game    *domain.Game
	Created bool
}

// GameDeleted fires after a game row is removed.
type GameDeleted struct {
	GameID int64
}

// SubmissionCreated fires when a user submits a game for review.
type SubmissionCreated struct {
	Submission *domain.Submission
}

// SubmissionApproved fires after a submitted game is published.
type SubmissionApproved struct {
	Submission *domain.Submission
	Game       *domain.Game
}
