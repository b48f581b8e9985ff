package view

import (
	"sync"

	"codecollab/internal/lifecycle"
	"codecollab/pkg/types"
)

// Screen identifies which top-level screen should render.
type Screen string

const (
	ScreenProblems   Screen = "problems"
	ScreenSolve      Screen = "solve"
	ScreenRoomLobby  Screen = "room-lobby"
	ScreenRoomActive Screen = "room-active"
)

// Coordinator is the per-screen state machine. It derives the screen from
// authentication and room membership and enforces the one cross-cutting
// business rule of the client: room membership and individual problem
// solving are mutually exclusive, checked on every transition rather than
// only at entry.
type Coordinator struct {
	mu            sync.Mutex
	screen        Screen
	selected      *types.Problem
	authenticated bool
	inRoom        bool
	roomStatus    string
}

// NewCoordinator starts on the problem browsing screen, signed out.
func NewCoordinator() *Coordinator {
	return &Coordinator{screen: ScreenProblems}
}

// Screen returns the screen that should currently render.
func (c *Coordinator) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// SelectedProblem returns the problem open on the solve screen, or nil.
func (c *Coordinator) SelectedProblem() *types.Problem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SetAuthenticated records sign-in state. Signing out always lands on the
// problem list with any selection cleared.
func (c *Coordinator) SetAuthenticated(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = ok
	if !ok {
		c.screen = ScreenProblems
		c.selected = nil
	}
}

// ApplyLifecycle routes on every lifecycle state change. Entering room
// membership mid-solve forces a redirect to the lobby; losing membership
// while on a room screen returns to the problem list.
func (c *Coordinator) ApplyLifecycle(snap lifecycle.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inRoom = snap.InRoom
	if snap.Room != nil {
		c.roomStatus = snap.Room.Status
	} else {
		c.roomStatus = ""
	}

	if snap.InRoom {
		// Mutual exclusion enforced on the transition itself: any
		// in-progress individual solve is abandoned.
		c.selected = nil
		if c.roomStatus == types.RoomStatusActive {
			c.screen = ScreenRoomActive
		} else {
			c.screen = ScreenRoomLobby
		}
		return
	}

	if c.screen == ScreenRoomLobby || c.screen == ScreenRoomActive {
		c.screen = ScreenProblems
	}
}

// SelectProblem opens a problem on the solve screen. Rejected while the user
// is in a room.
func (c *Coordinator) SelectProblem(problem *types.Problem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inRoom {
		return ErrInRoom
	}
	c.selected = problem
	c.screen = ScreenSolve
	return nil
}

// BackToProblems navigates home and clears any selection. While in a room
// the next lifecycle update routes straight back to the room screen, so the
// room can never be escaped by navigation alone.
func (c *Coordinator) BackToProblems() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = nil
	if c.inRoom {
		if c.roomStatus == types.RoomStatusActive {
			c.screen = ScreenRoomActive
		} else {
			c.screen = ScreenRoomLobby
		}
		return
	}
	c.screen = ScreenProblems
}

// RequireAuthForRooms gates room entry points.
func (c *Coordinator) RequireAuthForRooms() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.authenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// CanStartSession reports whether the start affordance should be enabled for
// username: host only, and only once a second member has joined. The server
// remains authoritative; this is UI gating.
func CanStartSession(room *types.Room, username string) bool {
	if room == nil || !room.CanStart() {
		return false
	}
	host := room.Host()
	return host != nil && host.Username == username
}

// CanEndSession reports whether the end affordance should be enabled for
// username.
func CanEndSession(room *types.Room, username string) bool {
	if room == nil {
		return false
	}
	host := room.Host()
	return host != nil && host.Username == username
}
