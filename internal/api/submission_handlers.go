package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

func (s *Server) registerSubmissionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "submitGame",
		Method:       http.MethodPost,
		Path:         "/api/v1/submissions",
		Summary:      "Submit game",
		Description:  "Proposes a game with cover art; it stays pending until an admin reviews it",
		Tags:         []string{"Submissions"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize * 2,
	}, s.handleSubmitGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSubmissions",
		Method:      http.MethodGet,
		Path:        "/api/v1/submissions",
		Summary:     "List submissions",
		Description: "Returns submissions by review status (admin only)",
		Tags:        []string{"Submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListSubmissions)

	huma.Register(s.api, huma.Operation{
		OperationID: "approveSubmission",
		Method:      http.MethodPost,
		Path:        "/api/v1/submissions/{id}/approve",
		Summary:     "Approve submission",
		Description: "Publishes the submitted game (admin only)",
		Tags:        []string{"Submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleApproveSubmission)

	huma.Register(s.api, huma.Operation{
		OperationID: "rejectSubmission",
		Method:      http.MethodPost,
		Path:        "/api/v1/submissions/{id}/reject",
		Summary:     "Reject submission",
		Description: "Deletes the submitted game (admin only)",
		Tags:        []string{"Submissions"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRejectSubmission)
}

// === DTOs ===

// SubmissionResponse contains submission data in API responses.
type SubmissionResponse struct {
	ID         string     `json:"id" doc:"Submission ID"`
	GameID     int64      `json:"game_id" doc:"Pending game ID"`
	UserID     string     `json:"user_id" doc:"Submitter"`
	Status     string     `json:"status" doc:"pending, approved or rejected"`
	Note       string     `json:"note,omitempty" doc:"Note to reviewers"`
	CreatedAt  time.Time  `json:"created_at" doc:"Submission time"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty" doc:"Review time"`
	ReviewedBy string     `json:"reviewed_by,omitempty" doc:"Reviewer"`
}

func toSubmissionResponse(sub *domain.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:         sub.ID,
		GameID:     sub.GameID,
		UserID:     sub.UserID,
		Status:     string(sub.Status),
		Note:       sub.Note,
		CreatedAt:  sub.CreatedAt,
		ReviewedAt: sub.ReviewedAt,
		ReviewedBy: sub.ReviewedBy,
	}
}

// SubmitGameRequest is a proposed game with its cover.
type SubmitGameRequest struct {
	GameRequest
	Note  string   `json:"note,omitempty" maxLength:"1000" doc:"Note to reviewers"`
	Image []byte   `json:"image" doc:"Base64 encoded cover source image"`
	Crop  CropRect `json:"crop" doc:"Crop rectangle in source pixels"`
}

// SubmitGameInput wraps the submission for Huma.
type SubmitGameInput struct {
	Body SubmitGameRequest
}

// SubmissionWithGameResponse pairs a submission with its game.
type SubmissionWithGameResponse struct {
	Submission SubmissionResponse `json:"submission" doc:"Submission"`
	Game       GameResponse       `json:"game" doc:"Submitted game"`
}

// SubmissionWithGameOutput wraps the pair for Huma.
type SubmissionWithGameOutput struct {
	Body SubmissionWithGameResponse
}

// ListSubmissionsInput filters submissions.
type ListSubmissionsInput struct {
	Status string `query:"status" enum:"pending,approved,rejected" default:"pending" doc:"Review status"`
}

// ListSubmissionsOutput wraps the list for Huma.
type ListSubmissionsOutput struct {
	Body struct {
		Submissions []SubmissionResponse `json:"submissions" doc:"Submissions"`
	}
}

// SubmissionIDInput addresses a submission.
type SubmissionIDInput struct {
	ID string `path:"id" maxLength:"64" doc:"Submission ID"`
}

// SubmissionOutput wraps a submission for Huma.
type SubmissionOutput struct {
	Body SubmissionResponse
}

// === Handlers ===

func (s *Server) handleSubmitGame(ctx context.Context, input *SubmitGameInput) (*SubmissionWithGameOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	sub, game, err := s.services.Submission.Submit(ctx, userID, service.SubmitRequest{
		GameInput: input.Body.toInput(),
		Note:      input.Body.Note,
		Image:     input.Body.Image,
		Crop:      input.Body.Crop.toRect(),
	})
	if err != nil {
		return nil, err
	}

	return &SubmissionWithGameOutput{Body: SubmissionWithGameResponse{
		Submission: toSubmissionResponse(sub),
		Game:       toGameResponse(game, false),
	}}, nil
}

func (s *Server) handleListSubmissions(ctx context.Context, input *ListSubmissionsInput) (*ListSubmissionsOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	subs, err := s.services.Submission.List(ctx, domain.SubmissionStatus(input.Status))
	if err != nil {
		return nil, err
	}

	out := &ListSubmissionsOutput{}
	out.Body.Submissions = make([]SubmissionResponse, len(subs))
	for i, sub := range subs {
		out.Body.Submissions[i] = toSubmissionResponse(sub)
	}
	return out, nil
}

func (s *Server) handleApproveSubmission(ctx context.Context, input *SubmissionIDInput) (*SubmissionWithGameOutput, error) {
	reviewerID, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	sub, game, err := s.services.Submission.Approve(ctx, reviewerID, input.ID)
	if err != nil {
		return nil, err
	}

	return &SubmissionWithGameOutput{Body: SubmissionWithGameResponse{
		Submission: toSubmissionResponse(sub),
		Game:       toGameResponse(game, false),
	}}, nil
}

func (s *Server) handleRejectSubmission(ctx context.Context, input *SubmissionIDInput) (*SubmissionOutput, error) {
	reviewerID, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	sub, err := s.services.Submission.Reject(ctx, reviewerID, input.ID)
	if err != nil {
		return nil, err
	}
	return &SubmissionOutput{Body: toSubmissionResponse(sub)}, nil
}
