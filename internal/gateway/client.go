package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"codecollab/pkg/types"
)

// TokenSource supplies the bearer credential attached to authenticated
// requests. An empty token means the request goes out unauthenticated and
// the server decides whether to reject it.
type TokenSource interface {
	Token() string
}

// Client is a typed wrapper over the platform's HTTP/JSON API. It normalizes
// every failure into *RemoteError and never panics past its boundary.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a gateway client. baseURL includes the /api prefix.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// doJSON performs one round trip. A nil body sends no payload; a non-nil out
// receives the decoded 2xx response body.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &RemoteError{Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Message: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{Status: resp.StatusCode, Message: decodeErrorMessage(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &RemoteError{Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
		}
	}
	return nil
}

// decodeErrorMessage extracts a human-readable message from an error body.
// The platform emits both bare strings and {"message": "..."} objects.
func decodeErrorMessage(data []byte) string {
	if len(data) == 0 {
		return "request failed"
	}
	var wrapped struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Message != "" {
		return wrapped.Message
	}
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil && plain != "" {
		return plain
	}
	return strings.TrimSpace(string(data))
}

// --- Authentication ---

func (c *Client) Login(ctx context.Context, username, password string) (*types.AuthResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp types.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*types.AuthResponse, error) {
	body := map[string]string{"username": username, "email": email, "password": password}
	var resp types.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CurrentUser(ctx context.Context) (*types.User, error) {
	var user types.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// --- Rooms ---

func (c *Client) CreateRoom(ctx context.Context, cfg types.RoomConfig) (*types.Room, error) {
	var room types.Room
	if err := c.doJSON(ctx, http.MethodPost, "/rooms/create", cfg, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) JoinRoom(ctx context.Context, roomCode string) (*types.Room, error) {
	body := map[string]string{"roomCode": roomCode}
	var room types.Room
	if err := c.doJSON(ctx, http.MethodPost, "/rooms/join", body, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) LeaveRoom(ctx context.Context, roomCode string) error {
	return c.doJSON(ctx, http.MethodPost, "/rooms/leave/"+roomCode, struct{}{}, nil)
}

func (c *Client) RoomDetails(ctx context.Context, roomCode string) (*types.Room, error) {
	var room types.Room
	if err := c.doJSON(ctx, http.MethodGet, "/rooms/"+roomCode, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (c *Client) MyRooms(ctx context.Context) ([]*types.Room, error) {
	var rooms []*types.Room
	if err := c.doJSON(ctx, http.MethodGet, "/rooms/my-rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// --- Sessions ---

func (c *Client) StartSession(ctx context.Context, roomCode string, problemID int64, timeLimitMinutes *int) (*types.Session, error) {
	body := map[string]interface{}{"problemId": problemID, "timeLimit": timeLimitMinutes}
	var session types.Session
	if err := c.doJSON(ctx, http.MethodPost, "/rooms/"+roomCode+"/start", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) CurrentSession(ctx context.Context, roomCode string) (*types.Session, error) {
	var session types.Session
	if err := c.doJSON(ctx, http.MethodGet, "/rooms/"+roomCode+"/session", nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) EndSession(ctx context.Context, roomCode string) error {
	return c.doJSON(ctx, http.MethodPost, "/rooms/"+roomCode+"/end", struct{}{}, nil)
}

func (c *Client) PauseSession(ctx context.Context, roomCode string) error {
	return c.doJSON(ctx, http.MethodPost, "/rooms/"+roomCode+"/pause", struct{}{}, nil)
}

// --- Problems and judge ---

func (c *Client) ListProblems(ctx context.Context) ([]*types.Problem, error) {
	var problems []*types.Problem
	if err := c.doJSON(ctx, http.MethodGet, "/problems", nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (c *Client) GetProblem(ctx context.Context, problemID int64) (*types.Problem, error) {
	var problem types.Problem
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/problems/%d", problemID), nil, &problem); err != nil {
		return nil, err
	}
	return &problem, nil
}

func (c *Client) ProblemsByDifficulty(ctx context.Context, difficulty string) ([]*types.Problem, error) {
	var problems []*types.Problem
	if err := c.doJSON(ctx, http.MethodGet, "/problems/difficulty/"+difficulty, nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (c *Client) ProblemsByCategory(ctx context.Context, category string) ([]*types.Problem, error) {
	var problems []*types.Problem
	if err := c.doJSON(ctx, http.MethodGet, "/problems/category/"+category, nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

func (c *Client) TestCode(ctx context.Context, problemID int64, code, language string) (*types.ExecutionResult, error) {
	return c.execute(ctx, "/code/test", problemID, code, language)
}

func (c *Client) SubmitCode(ctx context.Context, problemID int64, code, language string) (*types.ExecutionResult, error) {
	return c.execute(ctx, "/code/submit", problemID, code, language)
}

func (c *Client) execute(ctx context.Context, path string, problemID int64, code, language string) (*types.ExecutionResult, error) {
	body := map[string]interface{}{"problemId": problemID, "code": code, "language": language}
	var result types.ExecutionResult
	if err := c.doJSON(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
