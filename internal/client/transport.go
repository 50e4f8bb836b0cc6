package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ajax action names understood by POST /ajax.
const (
	ajaxToggleCollection = "toggle_collection"
	ajaxToggleTeamChoice = "toggle_team_choice"
)

// nonceSlack renews a cached nonce this long before it expires.
const nonceSlack = time.Minute

// ErrActionFailed is wrapped by every unsuccessful ajax response. The
// server does not say why an action failed.
var ErrActionFailed = errors.New("action failed")

// APIError is a non-2xx REST response.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("http %d %s: %s", e.Status, e.Code, e.Message)
}

// Session is a signed-in session.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	ExpiresIn    int    `json:"expires_in"`
}

type cachedNonce struct {
	value     string
	expiresAt time.Time
}

// HTTPTransport talks to a gameshelf server. Toggles fetch a nonce for the
// ajax action and post the form to /ajax.
type HTTPTransport struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	token  string
	nonces map[string]cachedNonce
}

// TransportOption configures an HTTPTransport.
type TransportOption func(*HTTPTransport)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) { t.client = c }
}

// WithToken starts the transport signed in.
func WithToken(token string) TransportOption {
	return func(t *HTTPTransport) { t.token = token }
}

// NewHTTPTransport creates a transport for the server at baseURL.
func NewHTTPTransport(baseURL string, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		nonces:  make(map[string]cachedNonce),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SetToken replaces the access token and drops cached nonces, which are
// bound to the old session.
func (t *HTTPTransport) SetToken(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
	clear(t.nonces)
}

// Authenticated reports whether an access token is set.
func (t *HTTPTransport) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token != ""
}

func (t *HTTPTransport) accessToken() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// Login signs in and keeps the new access token.
func (t *HTTPTransport) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := t.do(ctx, http.MethodPost, "/api/v1/auth/login", "application/json", bytes.NewReader(body), &sess); err != nil {
		return nil, err
	}
	t.SetToken(sess.AccessToken)
	return &sess, nil
}

// Collection returns the game IDs in one of the caller's collections.
func (t *HTTPTransport) Collection(ctx context.Context, collectionType string) ([]int64, error) {
	var out struct {
		GameIDs []int64 `json:"game_ids"`
	}
	if err := t.do(ctx, http.MethodGet, "/api/v1/me/collections/"+url.PathEscape(collectionType), "", nil, &out); err != nil {
		return nil, err
	}
	return out.GameIDs, nil
}

// Toggle implements Transport.
func (t *HTTPTransport) Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error) {
	form := url.Values{"game_id": {strconv.FormatInt(req.GameID, 10)}}
	ajaxAction := ajaxToggleCollection
	if req.Action == ActionTeamChoice {
		ajaxAction = ajaxToggleTeamChoice
	} else {
		form.Set("collection_type", req.Action)
	}
	form.Set("action", ajaxAction)

	for {
		nonce, fresh, err := t.nonce(ctx, ajaxAction)
		if err != nil {
			return nil, fmt.Errorf("fetch nonce: %w", err)
		}
		form.Set("security", nonce)

		res, err := t.postAjax(ctx, form)
		if err == nil {
			return res, nil
		}
		// A cached nonce may have been rotated out early; retry once with a
		// fresh one. A failure with a fresh nonce is final.
		if fresh || !errors.Is(err, ErrActionFailed) {
			return nil, err
		}
		t.dropNonce(ajaxAction)
	}
}

func (t *HTTPTransport) postAjax(ctx context.Context, form url.Values) (*ToggleResult, error) {
	var out struct {
		Success bool   `json:"success"`
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Stats   struct {
			Count int `json:"count"`
		} `json:"stats"`
	}
	if err := t.do(ctx, http.MethodPost, "/ajax", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%w: %s", ErrActionFailed, out.Message)
	}
	return &ToggleResult{NewState: out.Status, Count: out.Stats.Count}, nil
}

// nonce returns the nonce for ajaxAction. Fresh is false when it came from
// the cache.
func (t *HTTPTransport) nonce(ctx context.Context, ajaxAction string) (value string, fresh bool, err error) {
	t.mu.Lock()
	cached, ok := t.nonces[ajaxAction]
	t.mu.Unlock()
	if ok && time.Now().Add(nonceSlack).Before(cached.expiresAt) {
		return cached.value, false, nil
	}

	var out struct {
		Nonce     string    `json:"nonce"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := t.do(ctx, http.MethodGet, "/api/v1/auth/nonce/"+url.PathEscape(ajaxAction), "", nil, &out); err != nil {
		return "", false, err
	}

	t.mu.Lock()
	t.nonces[ajaxAction] = cachedNonce{value: out.Nonce, expiresAt: out.ExpiresAt}
	t.mu.Unlock()
	return out.Nonce, true, nil
}

func (t *HTTPTransport) dropNonce(ajaxAction string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.nonces, ajaxAction)
}

func (t *HTTPTransport) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := t.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
