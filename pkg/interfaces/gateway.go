package interfaces

import (
	"context"

	"codecollab/pkg/types"
)

// AuthGateway covers the authentication surface of the platform API.
// Login and Register return a bearer token the caller is responsible for
// persisting; CurrentUser validates whatever token the gateway currently
// attaches.
type AuthGateway interface {
	Login(ctx context.Context, username, password string) (*types.AuthResponse, error)
	Register(ctx context.Context, username, email, password string) (*types.AuthResponse, error)
	CurrentUser(ctx context.Context) (*types.User, error)
}

// RoomGateway covers room and session lifecycle operations. Every call is an
// authenticated round trip; implementations never interpret server status
// codes beyond converting non-2xx responses into errors.
type RoomGateway interface {
	CreateRoom(ctx context.Context, cfg types.RoomConfig) (*types.Room, error)
	JoinRoom(ctx context.Context, roomCode string) (*types.Room, error)
	LeaveRoom(ctx context.Context, roomCode string) error
	RoomDetails(ctx context.Context, roomCode string) (*types.Room, error)
	MyRooms(ctx context.Context) ([]*types.Room, error)

	StartSession(ctx context.Context, roomCode string, problemID int64, timeLimitMinutes *int) (*types.Session, error)
	CurrentSession(ctx context.Context, roomCode string) (*types.Session, error)
	EndSession(ctx context.Context, roomCode string) error
	PauseSession(ctx context.Context, roomCode string) error
}

// ProblemGateway covers the problem catalog and the judge.
type ProblemGateway interface {
	ListProblems(ctx context.Context) ([]*types.Problem, error)
	GetProblem(ctx context.Context, problemID int64) (*types.Problem, error)
	ProblemsByDifficulty(ctx context.Context, difficulty string) ([]*types.Problem, error)
	ProblemsByCategory(ctx context.Context, category string) ([]*types.Problem, error)
	TestCode(ctx context.Context, problemID int64, code, language string) (*types.ExecutionResult, error)
	SubmitCode(ctx context.Context, problemID int64, code, language string) (*types.ExecutionResult, error)
}

// PlatformGateway is the full client-side view of the remote API.
type PlatformGateway interface {
	AuthGateway
	RoomGateway
	ProblemGateway
}
