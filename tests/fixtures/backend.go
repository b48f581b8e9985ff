package fixtures

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"codecollab/pkg/types"
)

// Backend is an in-process stand-in for the CodeCollab server. It implements
// the REST surface the client talks to with in-memory state, so scenario
// tests can exercise the full client stack over real HTTP.
type Backend struct {
	server *httptest.Server

	mu       sync.Mutex
	users    map[string]*userRecord // keyed by username
	tokens   map[string]string      // token -> username
	rooms    map[string]*roomRecord // keyed by room code
	problems []*types.Problem

	nextUserID int64
	nextRoomID int64
}

type userRecord struct {
	user     types.User
	password string
}

type roomRecord struct {
	room    types.Room
	session *types.Session
}

// NewBackend starts the fake server with a small problem catalog.
func NewBackend() *Backend {
	b := &Backend{
		users:  make(map[string]*userRecord),
		tokens: make(map[string]string),
		rooms:  make(map[string]*roomRecord),
		problems: []*types.Problem{
			{ID: 1, Title: "Two Sum", Difficulty: "EASY", Category: "ARRAYS"},
			{ID: 2, Title: "Reverse Linked List", Difficulty: "EASY", Category: "LINKED_LISTS"},
			{ID: 3, Title: "Word Ladder", Difficulty: "HARD", Category: "GRAPHS"},
		},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", b.handleRegister)
		r.Post("/auth/login", b.handleLogin)
		r.Get("/auth/me", b.withAuth(b.handleMe))

		r.Post("/rooms/create", b.withAuth(b.handleCreateRoom))
		r.Post("/rooms/join", b.withAuth(b.handleJoinRoom))
		r.Post("/rooms/leave/{code}", b.withAuth(b.handleLeaveRoom))
		r.Get("/rooms/my-rooms", b.withAuth(b.handleMyRooms))
		r.Get("/rooms/{code}", b.withAuth(b.handleRoomDetails))
		r.Post("/rooms/{code}/start", b.withAuth(b.handleStartSession))
		r.Get("/rooms/{code}/session", b.withAuth(b.handleCurrentSession))
		r.Post("/rooms/{code}/end", b.withAuth(b.handleEndSession))
		r.Post("/rooms/{code}/pause", b.withAuth(b.handlePauseSession))

		r.Get("/problems", b.withAuth(b.handleProblems))
		r.Get("/problems/{id}", b.withAuth(b.handleProblem))
		r.Get("/problems/difficulty/{difficulty}", b.withAuth(b.handleProblemsByDifficulty))
		r.Get("/problems/category/{category}", b.withAuth(b.handleProblemsByCategory))

		r.Post("/code/test", b.withAuth(b.handleExecute))
		r.Post("/code/submit", b.withAuth(b.handleExecute))
	})

	b.server = httptest.NewServer(r)
	return b
}

// BaseURL is the API root the client should be pointed at.
func (b *Backend) BaseURL() string {
	return b.server.URL + "/api"
}

func (b *Backend) Close() {
	b.server.Close()
}

// EndRoomDirectly flips a room to ENDED server-side, simulating an out-of-band
// termination the clients only learn about by polling.
func (b *Backend) EndRoomDirectly(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rec, ok := b.rooms[code]; ok {
		rec.room.Status = types.RoomStatusEnded
		rec.session = nil
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *types.User)

func (b *Backend) withAuth(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			writeError(w, http.StatusUnauthorized, "Missing token")
			return
		}

		b.mu.Lock()
		username, ok := b.tokens[token]
		var user types.User
		if ok {
			user = b.users[username].user
		}
		b.mu.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next(w, r, &user)
	}
}

// --- Auth ---

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.users[req.Username]; exists {
		writeError(w, http.StatusConflict, "Username already taken")
		return
	}

	b.nextUserID++
	rec := &userRecord{
		user: types.User{
			ID:       b.nextUserID,
			Username: req.Username,
			Email:    req.Email,
			Rating:   1200,
		},
		password: req.Password,
	}
	b.users[req.Username] = rec

	token := uuid.New().String()
	b.tokens[token] = req.Username
	user := rec.user
	writeJSON(w, http.StatusOK, types.AuthResponse{Token: token, User: &user})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.users[req.Username]
	if !ok || rec.password != req.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := uuid.New().String()
	b.tokens[token] = req.Username
	user := rec.user
	writeJSON(w, http.StatusOK, types.AuthResponse{Token: token, User: &user})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request, user *types.User) {
	writeJSON(w, http.StatusOK, user)
}

// --- Rooms ---

func (b *Backend) handleCreateRoom(w http.ResponseWriter, r *http.Request, user *types.User) {
	var cfg types.RoomConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextRoomID++
	code := fmt.Sprintf("RM%04d", b.nextRoomID)
	rec := &roomRecord{
		room: types.Room{
			ID:           b.nextRoomID,
			RoomCode:     code,
			RoomName:     cfg.RoomName,
			HostUsername: user.Username,
			Mode:         cfg.Mode,
			Status:       types.RoomStatusWaiting,
			MaxMembers:   types.MaxRoomMembers,
			Members: []types.Member{{
				Username: user.Username,
				Role:     types.MemberRoleHost,
				Status:   types.MemberStatusJoined,
				Rating:   user.Rating,
				JoinedAt: time.Now(),
			}},
			CreatedAt: time.Now(),
		},
	}
	b.rooms[code] = rec
	writeJSON(w, http.StatusOK, roomView(rec))
}

func (b *Backend) handleJoinRoom(w http.ResponseWriter, r *http.Request, user *types.User) {
	var req struct {
		RoomCode string `json:"roomCode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[req.RoomCode]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	if rec.room.IsTerminal() {
		writeError(w, http.StatusGone, "Room has ended")
		return
	}
	if rec.room.HasMember(user.Username) {
		writeJSON(w, http.StatusOK, roomView(rec))
		return
	}
	if len(rec.room.Members) >= rec.room.MaxMembers {
		writeError(w, http.StatusConflict, "Room is full")
		return
	}

	rec.room.Members = append(rec.room.Members, types.Member{
		Username: user.Username,
		Role:     types.MemberRoleMember,
		Status:   types.MemberStatusJoined,
		Rating:   user.Rating,
		JoinedAt: time.Now(),
	})
	writeJSON(w, http.StatusOK, roomView(rec))
}

func (b *Backend) handleLeaveRoom(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}

	wasHost := false
	kept := rec.room.Members[:0]
	for _, m := range rec.room.Members {
		if m.Username == user.Username {
			wasHost = m.Role == types.MemberRoleHost
			continue
		}
		kept = append(kept, m)
	}
	rec.room.Members = kept

	if len(rec.room.Members) == 0 {
		rec.room.Status = types.RoomStatusEnded
		rec.session = nil
	} else if wasHost {
		// Host handoff to the longest-standing remaining member.
		rec.room.Members[0].Role = types.MemberRoleHost
		rec.room.HostUsername = rec.room.Members[0].Username
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left room"})
}

func (b *Backend) handleMyRooms(w http.ResponseWriter, r *http.Request, user *types.User) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var rooms []*types.Room
	for _, rec := range b.rooms {
		if rec.room.HasMember(user.Username) {
			rooms = append(rooms, roomView(rec))
		}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (b *Backend) handleRoomDetails(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	writeJSON(w, http.StatusOK, roomView(rec))
}

func (b *Backend) handleStartSession(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")
	var req struct {
		ProblemID int64 `json:"problemId"`
		TimeLimit *int  `json:"timeLimit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	host := rec.room.Host()
	if host == nil || host.Username != user.Username {
		writeError(w, http.StatusForbidden, "Only the host can start a session")
		return
	}
	if !rec.room.CanStart() {
		writeError(w, http.StatusBadRequest, "Room cannot start a session")
		return
	}

	var problem *types.Problem
	for _, p := range b.problems {
		if p.ID == req.ProblemID {
			copied := *p
			problem = &copied
			break
		}
	}
	if problem == nil {
		writeError(w, http.StatusNotFound, "Problem not found")
		return
	}

	now := time.Now()
	rec.room.Status = types.RoomStatusActive
	rec.room.CurrentProblem = problem
	rec.room.CurrentProblemTitle = problem.Title
	rec.session = &types.Session{
		RoomID:               rec.room.ID,
		RoomCode:             rec.room.RoomCode,
		RoomName:             rec.room.RoomName,
		HostUsername:         rec.room.HostUsername,
		Mode:                 rec.room.Mode,
		Status:               types.RoomStatusActive,
		Problem:              problem,
		StartTime:            &now,
		TimeLimitMinutes:     req.TimeLimit,
		RemainingTimeMinutes: req.TimeLimit,
		Members:              append([]types.Member(nil), rec.room.Members...),
	}
	writeJSON(w, http.StatusOK, rec.session)
}

func (b *Backend) handleCurrentSession(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok || rec.session == nil {
		writeError(w, http.StatusNotFound, "No active session")
		return
	}
	writeJSON(w, http.StatusOK, rec.session)
}

func (b *Backend) handleEndSession(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	host := rec.room.Host()
	if host == nil || host.Username != user.Username {
		writeError(w, http.StatusForbidden, "Only the host can end the room")
		return
	}

	rec.room.Status = types.RoomStatusEnded
	rec.session = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Room ended"})
}

func (b *Backend) handlePauseSession(w http.ResponseWriter, r *http.Request, user *types.User) {
	code := chi.URLParam(r, "code")

	b.mu.Lock()
	defer b.mu.Unlock()

	rec, ok := b.rooms[code]
	if !ok {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	host := rec.room.Host()
	if host == nil || host.Username != user.Username {
		writeError(w, http.StatusForbidden, "Only the host can pause the session")
		return
	}

	rec.room.Status = types.RoomStatusWaiting
	rec.room.CurrentProblem = nil
	rec.room.CurrentProblemTitle = ""
	rec.session = nil
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session paused"})
}

// --- Problems and execution ---

func (b *Backend) handleProblems(w http.ResponseWriter, r *http.Request, user *types.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.problems)
}

func (b *Backend) handleProblem(w http.ResponseWriter, r *http.Request, user *types.User) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid problem id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.problems {
		if p.ID == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Problem not found")
}

func (b *Backend) handleProblemsByDifficulty(w http.ResponseWriter, r *http.Request, user *types.User) {
	difficulty := strings.ToUpper(chi.URLParam(r, "difficulty"))

	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []*types.Problem
	for _, p := range b.problems {
		if p.Difficulty == difficulty {
			matched = append(matched, p)
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

func (b *Backend) handleProblemsByCategory(w http.ResponseWriter, r *http.Request, user *types.User) {
	category := strings.ToUpper(chi.URLParam(r, "category"))

	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []*types.Problem
	for _, p := range b.problems {
		if p.Category == category {
			matched = append(matched, p)
		}
	}
	writeJSON(w, http.StatusOK, matched)
}

func (b *Backend) handleExecute(w http.ResponseWriter, r *http.Request, user *types.User) {
	writeJSON(w, http.StatusOK, types.ExecutionResult{
		Status:          types.ExecutionStatusAccepted,
		PassedTestCases: 3,
		TotalTestCases:  3,
		ExecutionTimeMs: 12,
	})
}

// roomView copies the record so the encoder never aliases live state.
func roomView(rec *roomRecord) *types.Room {
	room := rec.room
	room.Members = append([]types.Member(nil), rec.room.Members...)
	room.CurrentMembers = len(room.Members)
	return &room
}
