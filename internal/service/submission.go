package service

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/id"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

// maxCoverUploadBytes caps the submitted image before decoding.
const maxCoverUploadBytes = 10 << 20

// SubmissionService handles user-submitted games and their review.
type SubmissionService struct {
	submissions store.Submissions
	catalog     *CatalogService
	bus         *events.Bus
	logger      *slog.Logger
}

// NewSubmissionService creates the submission service.
func NewSubmissionService(submissions store.Submissions, catalog *CatalogService, bus *events.Bus, logger *slog.Logger) *SubmissionService {
	return &SubmissionService{submissions: submissions, catalog: catalog, bus: bus, logger: orDefault(logger)}
}

// SubmitRequest is a proposed game with its cover art and crop.
type SubmitRequest struct {
	GameInput
	Note  string      `json:"note" validate:"max=1000"`
	Image []byte      `json:"-"`
	Crop  images.Rect `json:"crop"`
}

// Submit crops the cover, creates the game as pending and opens a
// submission for review.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req SubmitRequest) (*domain.Submission, *domain.Game, error) {
	if userID == "" {
		return nil, nil, domainerrors.Unauthorized("login required")
	}
	if err := validate.Validate(req); err != nil {
		return nil, nil, err
	}
	if len(req.Image) == 0 {
		return nil, nil, domainerrors.Validation("cover image is required")
	}
	if len(req.Image) > maxCoverUploadBytes {
		return nil, nil, domainerrors.Validationf("cover image exceeds %d bytes", maxCoverUploadBytes)
	}

	// Crop before touching the store so a bad image leaves nothing behind.
	cover, err := images.Crop(bytes.NewReader(req.Image), req.Crop)
	if err != nil {
		return nil, nil, err
	}

	game, err := s.catalog.createGame(ctx, req.GameInput, domain.GameStatusPending, userID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.catalog.attachCover(ctx, game, cover); err != nil {
		s.discard(ctx, game.ID)
		return nil, nil, err
	}

	subID, err := id.Generate(id.PrefixSubmission)
	if err != nil {
		s.discard(ctx, game.ID)
		return nil, nil, err
	}
	sub := &domain.Submission{
		ID:        subID,
		GameID:    game.ID,
		UserID:    userID,
		Status:    domain.SubmissionPending,
		Note:      req.Note,
		CreatedAt: time.Now(),
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		s.discard(ctx, game.ID)
		return nil, nil, domainerrors.Storage(err, "failed to save submission")
	}

	s.logger.Info("game submitted", "submission_id", sub.ID, "game_id", game.ID, "user_id", userID)
	events.Publish(ctx, s.bus, events.SubmissionCreated{Submission: sub})
	return sub, game, nil
}

func (s *SubmissionService) discard(ctx context.Context, gameID int64) {
	if err := s.catalog.DeleteGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to discard pending game", "game_id", gameID, "error", err)
	}
}

// Get returns a submission.
func (s *SubmissionService) Get(ctx context.Context, submissionID string) (*domain.Submission, error) {
	if !id.Valid(id.PrefixSubmission, submissionID) {
		return nil, domainerrors.NotFoundf("submission %s not found", submissionID)
	}
	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("submission %s not found", submissionID)
		}
		return nil, domainerrors.Storage(err, "failed to load submission")
	}
	return sub, nil
}

// List returns submissions with the given status, oldest first.
func (s *SubmissionService) List(ctx context.Context, status domain.SubmissionStatus) ([]*domain.Submission, error) {
	subs, err := s.submissions.ListSubmissions(ctx, status)
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to list submissions")
	}
	return subs, nil
}

// Approve publishes the submitted game.
func (s *SubmissionService) Approve(ctx context.Context, reviewerID, submissionID string) (*domain.Submission, *domain.Game, error) {
	sub, err := s.openSubmission(ctx, submissionID)
	if err != nil {
		return nil, nil, err
	}

	game, err := s.catalog.SetStatus(ctx, sub.GameID, domain.GameStatusPublished)
	if err != nil {
		return nil, nil, err
	}

	s.markReviewed(sub, domain.SubmissionApproved, reviewerID)
	if err := s.submissions.UpdateSubmission(ctx, sub); err != nil {
		return nil, nil, domainerrors.Storage(err, "failed to update submission")
	}

	s.logger.Info("submission approved", "submission_id", sub.ID, "game_id", game.ID, "by", reviewerID)
	events.Publish(ctx, s.bus, events.SubmissionApproved{Submission: sub, Game: game})
	return sub, game, nil
}

// Reject deletes the submitted game. The submission row goes with it.
func (s *SubmissionService) Reject(ctx context.Context, reviewerID, submissionID string) (*domain.Submission, error) {
	sub, err := s.openSubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	s.markReviewed(sub, domain.SubmissionRejected, reviewerID)
	if err := s.catalog.DeleteGame(ctx, sub.GameID); err != nil {
		return nil, err
	}
	s.logger.Info("submission rejected", "submission_id", sub.ID, "game_id", sub.GameID, "by", reviewerID)
	return sub, nil
}

func (s *SubmissionService) openSubmission(ctx context.Context, submissionID string) (*domain.Submission, error) {
	sub, err := s.Get(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsOpen() {
		return nil, domainerrors.Conflictf("submission %s is already %s", sub.ID, sub.Status)
	}
	return sub, nil
}

func (s *SubmissionService) markReviewed(sub *domain.Submission, status domain.SubmissionStatus, reviewerID string) {
	now := time.Now()
	sub.Status = status
	sub.ReviewedAt = &now
	sub.ReviewedBy = reviewerID
}
