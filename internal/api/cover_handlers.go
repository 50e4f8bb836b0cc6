package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
)

func (s *Server) registerCoverRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getGameCover",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}/cover",
		Summary:     "Get game cover",
		Description: "Redirects to the cover image of a game",
		Tags:        []string{"Covers"},
	}, s.handleGetGameCover)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadGameCover",
		Method:       http.MethodPut,
		Path:         "/api/v1/games/{id}/cover",
		Summary:      "Upload game cover",
		Description:  "Crops the image to the rectangle, scales it to fit 600x800 and stores it as JPEG (admin only)",
		Tags:         []string{"Covers"},
		Security:     []map[string][]string{{"bearer": {}}},
		MaxBodyBytes: MaxUploadSize * 2, // base64 expands the image by a third
	}, s.handleUploadGameCover)

	// Direct chi route for cover streaming
	s.router.Get("/covers/{file}", s.handleServeCover)
}

// === DTOs ===

// CoverRedirectOutput sends the client to the image itself.
type CoverRedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

// StatusCode implements huma's status override.
func (o *CoverRedirectOutput) StatusCode() int {
	return o.Status
}

// CropRect is a crop rectangle in source image pixels.
type CropRect struct {
	X      int `json:"x" minimum:"0" doc:"Left edge"`
	Y      int `json:"y" minimum:"0" doc:"Top edge"`
	Width  int `json:"width" minimum:"1" doc:"Width"`
	Height int `json:"height" minimum:"1" doc:"Height"`
}

func (r CropRect) toRect() images.Rect {
	return images.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// UploadCoverRequest carries the source image and crop.
type UploadCoverRequest struct {
	Image []byte   `json:"image" doc:"Base64 encoded JPEG, PNG, GIF or WebP"`
	Crop  CropRect `json:"crop" doc:"Crop rectangle in source pixels"`
}

// UploadCoverInput wraps the upload request for Huma.
type UploadCoverInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Game ID"`
	Body UploadCoverRequest
}

// CoverResponse describes a stored cover.
type CoverResponse struct {
	URL      string `json:"url" doc:"Cover URL"`
	Hash     string `json:"hash" doc:"SHA-256 of the stored JPEG"`
	BlurHash string `json:"blur_hash,omitempty" doc:"BlurHash string"`
}

// CoverOutput wraps the cover response for Huma.
type CoverOutput struct {
	Body CoverResponse
}

// coverURL is the cache-busting public URL of a game's cover.
func coverURL(g *domain.Game) string {
	v := g.CoverHash
	if len(v) > 12 {
		v = v[:12]
	}
	return fmt.Sprintf("/covers/%d.jpg?v=%s", g.ID, v)
}

// === Handlers ===

func (s *Server) handleGetGameCover(ctx context.Context, input *GameIDInput) (*CoverRedirectOutput, error) {
	g, err := s.services.Catalog.GetGame(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !g.HasCover() {
		return nil, huma.Error404NotFound("Game has no cover")
	}

	return &CoverRedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: coverURL(g),
	}, nil
}

func (s *Server) handleUploadGameCover(ctx context.Context, input *UploadCoverInput) (*CoverOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if len(input.Body.Image) > MaxUploadSize {
		return nil, huma.NewError(http.StatusRequestEntityTooLarge, "Image exceeds 10 MB")
	}

	g, err := s.services.Catalog.SetCover(ctx, input.ID, input.Body.Image, input.Body.Crop.toRect())
	if err != nil {
		return nil, err
	}

	return &CoverOutput{Body: CoverResponse{
		URL:      coverURL(g),
		Hash:     g.CoverHash,
		BlurHash: g.CoverBlurHash,
	}}, nil
}

func (s *Server) handleServeCover(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(strings.TrimSuffix(chi.URLParam(r, "file"), ".jpg"), 10, 64)
	if err != nil || gameID <= 0 {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}

	path, g, err := s.services.Catalog.CoverPath(r.Context(), gameID)
	if err != nil {
		http.Error(w, "cover not found", http.StatusNotFound)
		return
	}
	if !g.IsPublished() {
		claims := claimsFrom(r.Context())
		if claims == nil || (!claims.IsAdmin && claims.UserID != g.SubmittedBy) {
			http.Error(w, "cover not found", http.StatusNotFound)
			return
		}
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", CacheOneWeek)
	w.Header().Set("ETag", `"`+g.CoverHash+`"`)
	http.ServeFile(w, r, path)
}
