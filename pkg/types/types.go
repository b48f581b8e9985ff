package types

import (
	"time"
)

// Room mode constants as served by the platform API.
const (
	RoomModePractice   = "PRACTICE"
	RoomModeTournament = "TOURNAMENT"
)

// Room status constants. ENDED and COMPLETED are terminal: a room in either
// state can never be joined, polled, or resumed again.
const (
	RoomStatusWaiting   = "WAITING"
	RoomStatusActive    = "ACTIVE"
	RoomStatusEnded     = "ENDED"
	RoomStatusCompleted = "COMPLETED"
)

// Member role and status constants.
const (
	MemberRoleHost   = "HOST"
	MemberRoleMember = "MEMBER"

	MemberStatusJoined  = "JOINED"
	MemberStatusOffline = "OFFLINE"
)

// Execution result status constants returned by the judge.
const (
	ExecutionStatusAccepted = "AC"
	ExecutionStatusWrong    = "WA"
	ExecutionStatusError    = "ERROR"
)

// MaxRoomMembers is fixed by the platform; the server rejects joins beyond it.
const MaxRoomMembers = 4

// TournamentTimeLimits are the only time limits (minutes) the server accepts
// for tournament rooms.
var TournamentTimeLimits = []int{15, 30, 45, 60, 90, 120}

// Member is one entry in a room's membership list. Order is join order.
type Member struct {
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Role     string    `json:"role"`
	Status   string    `json:"status"`
	Rating   int       `json:"rating"`
	JoinedAt time.Time `json:"joinedAt"`
	Score    *int      `json:"score,omitempty"`
	Rank     *int      `json:"rank,omitempty"`
}

// Room is the wire representation of a collaborative room.
//
// HostUsername is a server-side convenience snapshot; host identity must
// always be derived live from Members via Host() because the host can change
// while the room exists.
type Room struct {
	ID                  int64      `json:"id"`
	RoomCode            string     `json:"roomCode"`
	RoomName            string     `json:"roomName"`
	HostUsername        string     `json:"hostUsername,omitempty"`
	Mode                string     `json:"mode"`
	Status              string     `json:"status"`
	MaxMembers          int        `json:"maxMembers"`
	CurrentMembers      int        `json:"currentMembers"`
	CreatedAt           time.Time  `json:"createdAt"`
	StartTime           *time.Time `json:"startTime,omitempty"`
	Members             []Member   `json:"members"`
	CurrentProblem      *Problem   `json:"currentProblem,omitempty"`
	CurrentProblemTitle string     `json:"currentProblemTitle,omitempty"`
	TimeLimitMinutes    *int       `json:"timeLimit,omitempty"`
}

// Host returns the member currently holding the HOST role, or nil if the
// membership list carries none (terminal rooms may have no host).
func (r *Room) Host() *Member {
	for i := range r.Members {
		if r.Members[i].Role == MemberRoleHost {
			return &r.Members[i]
		}
	}
	return nil
}

// HasMember reports whether username is in the room's membership list.
func (r *Room) HasMember(username string) bool {
	for i := range r.Members {
		if r.Members[i].Username == username {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the room can never become active again.
func (r *Room) IsTerminal() bool {
	return r.Status == RoomStatusEnded || r.Status == RoomStatusCompleted
}

// CanStart reports whether a session may be started: the room must be waiting
// with at least two members present.
func (r *Room) CanStart() bool {
	return r.Status == RoomStatusWaiting && len(r.Members) >= 2
}

// Session is the active problem-solving instance bound to a room.
//
// TimeLimitMinutes is nil for untimed practice sessions. RemainingTimeMinutes
// is a server-computed countdown snapshot taken at fetch time.
type Session struct {
	RoomID               int64      `json:"roomId"`
	RoomCode             string     `json:"roomCode"`
	RoomName             string     `json:"roomName,omitempty"`
	HostUsername         string     `json:"hostUsername,omitempty"`
	Mode                 string     `json:"mode,omitempty"`
	Status               string     `json:"status"`
	Problem              *Problem   `json:"problem,omitempty"`
	StartTime            *time.Time `json:"startTime,omitempty"`
	EndTime              *time.Time `json:"endTime,omitempty"`
	TimeLimitMinutes     *int       `json:"timeLimit,omitempty"`
	RemainingTimeMinutes *int       `json:"remainingTimeMinutes,omitempty"`
	Members              []Member   `json:"members,omitempty"`
}

// User is the authenticated platform account.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Rating   int    `json:"rating"`
}

// Problem is a catalog entry. Description fields are only populated on
// single-problem fetches; list endpoints may omit them.
type Problem struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Difficulty    string `json:"difficulty"`
	Category      string `json:"category"`
	Description   string `json:"description,omitempty"`
	InputFormat   string `json:"inputFormat,omitempty"`
	OutputFormat  string `json:"outputFormat,omitempty"`
	Constraints   string `json:"constraints,omitempty"`
	TimeLimitMs   int    `json:"timeLimitMs,omitempty"`
	MemoryLimitMb int    `json:"memoryLimitMb,omitempty"`
}

// TestCaseResult is one judged test case inside an ExecutionResult.
type TestCaseResult struct {
	Passed   bool   `json:"passed"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
}

// ExecutionResult is the judge's verdict for a test or submit run.
type ExecutionResult struct {
	Status          string           `json:"status"`
	PassedTestCases int              `json:"passedTestCases"`
	TotalTestCases  int              `json:"totalTestCases"`
	ExecutionTimeMs int              `json:"executionTimeMs,omitempty"`
	MemoryUsedMB    int              `json:"memoryUsedMB,omitempty"`
	TestCaseResults []TestCaseResult `json:"testCaseResults,omitempty"`
	Message         string           `json:"message,omitempty"`
}

// AuthResponse is the payload of login and register calls.
type AuthResponse struct {
	Token   string `json:"token"`
	User    *User  `json:"user"`
	Message string `json:"message,omitempty"`
}

// RoomConfig carries the client-side options for creating a room.
// TimeLimitMinutes is only meaningful in tournament mode.
type RoomConfig struct {
	RoomName         string `json:"roomName"`
	Mode             string `json:"mode"`
	TimeLimitMinutes *int   `json:"timeLimit,omitempty"`
}
