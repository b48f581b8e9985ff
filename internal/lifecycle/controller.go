package lifecycle

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"codecollab/pkg/interfaces"
	"codecollab/pkg/types"
)

// Polling context keys. At most one timer runs per key.
const (
	pollLobby     = "lobby"
	pollSession   = "session"
	pollCountdown = "countdown"
)

// Result is the uniform outcome of a lifecycle operation. Operations never
// re-throw remote errors; failures are reported through Message.
type Result struct {
	Success bool
	Message string
}

// RoomResult carries the affected room on success.
type RoomResult struct {
	Success bool
	Message string
	Room    *types.Room
}

// SessionResult carries the affected session on success.
type SessionResult struct {
	Success bool
	Message string
	Session *types.Session
}

// Snapshot is an immutable copy of the lifecycle state handed to observers
// after every mutation.
type Snapshot struct {
	Room             *types.Room
	Session          *types.Session
	InRoom           bool
	Loading          bool
	RemainingMinutes *int
}

// Intervals bounds the controller's background timers.
type Intervals struct {
	Lobby     time.Duration
	Session   time.Duration
	Countdown time.Duration
}

// Controller is the single writer of room and session state: it tracks the
// current room, the current session, and the membership flag, owns every
// polling timer, and derives the room-ended transition from authoritative
// server responses.
//
// All state invariants hold at every observable point:
//   - inRoom is true exactly when room is non-nil;
//   - a non-nil session implies a non-nil room with status ACTIVE.
type Controller struct {
	gateway   interfaces.RoomGateway
	poller    *Poller
	intervals Intervals

	mu        sync.Mutex
	room      *types.Room
	session   *types.Session
	inRoom    bool
	loading   bool
	remaining *int

	// Monotonic sequence guard: every fetch is stamped when issued and a
	// response older than the last applied write for its field group is
	// discarded instead of overwriting fresher data.
	seq            uint64
	appliedRoom    uint64
	appliedSession uint64

	onChange func(Snapshot)
}

// NewController creates a controller around a gateway.
func NewController(gateway interfaces.RoomGateway, intervals Intervals) *Controller {
	return &Controller{
		gateway:   gateway,
		poller:    NewPoller(),
		intervals: intervals,
	}
}

// OnChange registers the observer invoked with a state snapshot after every
// mutation. Intended for the view layer; a nil observer is allowed.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

// --- State accessors ---

// State returns a snapshot of the current lifecycle state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Room returns a copy of the current room, or nil.
func (c *Controller) Room() *types.Room {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneRoom(c.room)
}

// Session returns a copy of the current session, or nil.
func (c *Controller) Session() *types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneSession(c.session)
}

// InRoom reports current room membership.
func (c *Controller) InRoom() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inRoom
}

// Loading reports whether a user-initiated lifecycle call is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// RemainingMinutes returns the locally tracked countdown value, or nil when
// the server has not reported one.
func (c *Controller) RemainingMinutes() *int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining == nil {
		return nil
	}
	v := *c.remaining
	return &v
}

// --- Lifecycle operations ---

// CreateRoom validates the config locally, then creates the room and enters
// it as host. On failure the state is unchanged and no membership exists.
func (c *Controller) CreateRoom(ctx context.Context, cfg types.RoomConfig) RoomResult {
	if err := cfg.Validate(); err != nil {
		return RoomResult{Success: false, Message: err.Error()}
	}

	c.setLoading(true)
	defer c.setLoading(false)

	seq := c.nextSeq()
	room, err := c.gateway.CreateRoom(ctx, cfg)
	if err != nil {
		return RoomResult{Success: false, Message: err.Error()}
	}

	c.mu.Lock()
	c.applyRoomLocked(seq, room)
	c.inRoom = c.room != nil
	c.mu.Unlock()
	c.notify()

	c.startLobbyPolling(room.RoomCode)
	log.Printf("Created room %s (%s)", room.RoomCode, room.Mode)
	return RoomResult{Success: true, Room: cloneRoom(room)}
}

// JoinRoom normalizes the code, validates it locally, and joins. Joining a
// room that is already active immediately fetches the running session.
func (c *Controller) JoinRoom(ctx context.Context, code string) RoomResult {
	normalized := types.NormalizeRoomCode(code)
	if len(normalized) < 6 {
		return RoomResult{Success: false, Message: types.ErrRoomCodeTooShort.Error()}
	}
	if !types.IsValidRoomCode(normalized) {
		return RoomResult{Success: false, Message: types.ErrInvalidRoomCode.Error()}
	}

	c.setLoading(true)
	defer c.setLoading(false)

	seq := c.nextSeq()
	room, err := c.gateway.JoinRoom(ctx, normalized)
	if err != nil {
		return RoomResult{Success: false, Message: err.Error()}
	}

	c.mu.Lock()
	c.applyRoomLocked(seq, room)
	c.inRoom = c.room != nil
	c.mu.Unlock()
	c.notify()

	if room.Status == types.RoomStatusActive {
		// The room went active before we arrived; pick up its session
		// right away instead of waiting for the first poll.
		if res := c.CurrentSession(ctx, room.RoomCode); res.Success {
			c.startSessionPolling(room.RoomCode)
		} else {
			c.startLobbyPolling(room.RoomCode)
		}
	} else {
		c.startLobbyPolling(room.RoomCode)
	}

	log.Printf("Joined room %s", room.RoomCode)
	return RoomResult{Success: true, Room: cloneRoom(room)}
}

// LeaveRoom exits the current room. Local state is cleared even when the
// remote call fails, because a phantom room the user can no longer act on is
// worse than state that briefly disagrees with the server; the result still
// reports the remote failure for user feedback.
func (c *Controller) LeaveRoom(ctx context.Context) Result {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return Result{Success: true}
	}
	code := c.room.RoomCode
	c.mu.Unlock()

	c.setLoading(true)
	defer c.setLoading(false)

	err := c.gateway.LeaveRoom(ctx, code)
	c.HandleRoomEnded()

	if err != nil {
		log.Printf("Leave room %s failed remotely, state cleared anyway: %v", code, err)
		return Result{Success: false, Message: err.Error()}
	}
	log.Printf("Left room %s", code)
	return Result{Success: true}
}

// StartSession starts a session on the current room. Host-only; the server
// enforces the restriction and the view layer hides the affordance from
// non-hosts.
func (c *Controller) StartSession(ctx context.Context, problemID int64, timeLimitMinutes *int) SessionResult {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return SessionResult{Success: false, Message: "No active room"}
	}
	code := c.room.RoomCode
	c.mu.Unlock()

	c.setLoading(true)
	defer c.setLoading(false)

	seq := c.nextSeq()
	session, err := c.gateway.StartSession(ctx, code, problemID, timeLimitMinutes)
	if err != nil {
		return SessionResult{Success: false, Message: err.Error()}
	}

	c.mu.Lock()
	c.applySessionLocked(seq, session)
	c.mu.Unlock()
	c.notify()

	c.startSessionPolling(code)
	log.Printf("Session started in room %s (problem %d)", code, problemID)
	return SessionResult{Success: true, Session: cloneSession(session)}
}

// EndSession terminates the room for every member. Cleanup always runs
// locally: a remote failure is treated as "already gone" so the client can
// never get stuck in a dead room, but the failure is still reported.
func (c *Controller) EndSession(ctx context.Context) Result {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return Result{Success: false, Message: "No active room"}
	}
	code := c.room.RoomCode
	c.mu.Unlock()

	c.setLoading(true)
	defer c.setLoading(false)

	err := c.gateway.EndSession(ctx, code)
	c.HandleRoomEnded()

	if err != nil {
		log.Printf("End session in %s failed remotely, state cleared anyway: %v", code, err)
		return Result{Success: false, Message: err.Error()}
	}
	log.Printf("Ended room %s", code)
	return Result{Success: true}
}

// PauseSession returns the room to the lobby without leaving it: the session
// is cleared, the room is forced back to WAITING, and room details are
// re-fetched to refresh the member list.
func (c *Controller) PauseSession(ctx context.Context) Result {
	c.mu.Lock()
	if c.room == nil {
		c.mu.Unlock()
		return Result{Success: false, Message: "No active room"}
	}
	code := c.room.RoomCode
	c.mu.Unlock()

	c.setLoading(true)
	defer c.setLoading(false)

	if err := c.gateway.PauseSession(ctx, code); err != nil {
		return Result{Success: false, Message: err.Error()}
	}

	seq := c.nextSeq()
	c.mu.Lock()
	if seq > c.appliedSession {
		c.appliedSession = seq
		c.session = nil
	}
	if c.room != nil && seq > c.appliedRoom {
		c.appliedRoom = seq
		c.room.Status = types.RoomStatusWaiting
		c.room.CurrentProblem = nil
		c.room.CurrentProblemTitle = ""
	}
	c.remaining = nil
	c.mu.Unlock()
	c.notify()

	c.poller.Stop(pollCountdown)
	c.startLobbyPolling(code)

	// Refresh the member list now rather than waiting a full poll period.
	c.RoomDetails(ctx, code)

	log.Printf("Paused session in room %s", code)
	return Result{Success: true}
}

// RoomDetails fetches a room. Observing a terminal status triggers the full
// cleanup transition before a failure result is returned; a fresh copy of
// the tracked room replaces the old one wholesale.
func (c *Controller) RoomDetails(ctx context.Context, code string) RoomResult {
	seq := c.nextSeq()
	room, err := c.gateway.RoomDetails(ctx, code)
	if err != nil {
		return RoomResult{Success: false, Message: err.Error()}
	}

	if room.IsTerminal() {
		log.Printf("Room %s has ended, cleaning up", code)
		c.HandleRoomEnded()
		return RoomResult{Success: false, Message: "Room has ended"}
	}

	c.mu.Lock()
	changed := false
	if c.room != nil && c.room.RoomCode == code {
		changed = c.applyRoomLocked(seq, room)
	}
	c.mu.Unlock()
	if changed {
		c.notify()
	}

	return RoomResult{Success: true, Room: cloneRoom(room)}
}

// CurrentSession fetches the running session for a room. A session carrying
// a problem also forces the tracked room to ACTIVE, covering the window where
// the session poll observes activation before the room poll does.
func (c *Controller) CurrentSession(ctx context.Context, code string) SessionResult {
	seq := c.nextSeq()
	session, err := c.gateway.CurrentSession(ctx, code)
	if err != nil {
		return SessionResult{Success: false, Message: err.Error()}
	}

	c.mu.Lock()
	changed := c.applySessionLocked(seq, session)
	c.mu.Unlock()
	if changed {
		c.notify()
	}

	return SessionResult{Success: true, Session: cloneSession(session)}
}

// Resume adopts an existing membership on startup: fetch the caller's rooms,
// drop terminal ones, and re-enter the best candidate. When the user belongs
// to several live rooms the one they joined most recently wins, falling back
// to the server's first listing when join timestamps are absent.
func (c *Controller) Resume(ctx context.Context, username string) {
	rooms, err := c.gateway.MyRooms(ctx)
	if err != nil {
		log.Printf("Failed to check current rooms: %v", err)
		return
	}

	live := rooms[:0]
	for _, room := range rooms {
		if !room.IsTerminal() {
			live = append(live, room)
		}
	}
	if len(live) == 0 {
		return
	}

	room := pickResumeRoom(live, username)

	seq := c.nextSeq()
	c.mu.Lock()
	c.applyRoomLocked(seq, room)
	c.inRoom = c.room != nil
	c.mu.Unlock()
	c.notify()

	log.Printf("Resumed membership in room %s (status %s)", room.RoomCode, room.Status)

	if room.Status == types.RoomStatusActive {
		if res := c.CurrentSession(ctx, room.RoomCode); res.Success {
			c.startSessionPolling(room.RoomCode)
			return
		}
	}
	c.startLobbyPolling(room.RoomCode)
}

// HandleRoomEnded is the one cleanup transition every exit path shares:
// clear the room, the session, the membership flag and the countdown, and
// cancel all polling. Idempotent, so a failed request and a concurrent poll
// tick can both invoke it safely.
func (c *Controller) HandleRoomEnded() {
	seq := c.nextSeq()
	c.mu.Lock()
	if seq > c.appliedRoom {
		c.appliedRoom = seq
	}
	if seq > c.appliedSession {
		c.appliedSession = seq
	}
	wasInRoom := c.inRoom
	c.room = nil
	c.session = nil
	c.inRoom = false
	c.remaining = nil
	c.mu.Unlock()

	c.poller.StopAll()

	if wasInRoom {
		c.notify()
	}
}

// Shutdown cancels all background work without clearing state semantics;
// used on process exit.
func (c *Controller) Shutdown() {
	c.poller.StopAll()
}

// --- Polling ---

func (c *Controller) startLobbyPolling(code string) {
	c.poller.Stop(pollSession)
	c.poller.Start(pollLobby, c.intervals.Lobby, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.intervals.Lobby*4)
		defer cancel()

		res := c.RoomDetails(ctx, code)
		if !res.Success {
			return
		}
		// The host started a session; fetch it and switch to the
		// active-session polling context.
		if res.Room.Status == types.RoomStatusActive && c.Session() == nil {
			if sres := c.CurrentSession(ctx, code); sres.Success {
				c.startSessionPolling(code)
			}
		}
	})
}

func (c *Controller) startSessionPolling(code string) {
	c.poller.Stop(pollLobby)
	c.poller.Start(pollSession, c.intervals.Session, func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.intervals.Session*4)
		defer cancel()

		res := c.RoomDetails(ctx, code)
		if !res.Success {
			return
		}
		// The host paused; the room fetch already dropped the session,
		// so fall back to the lobby polling context.
		if res.Room.Status != types.RoomStatusActive {
			c.poller.Stop(pollCountdown)
			c.startLobbyPolling(code)
			return
		}
		c.CurrentSession(ctx, code)
	})
}

func (c *Controller) startCountdown() {
	if c.poller.Active(pollCountdown) {
		return
	}
	c.poller.Start(pollCountdown, c.intervals.Countdown, func() {
		c.mu.Lock()
		changed := false
		if c.remaining != nil && *c.remaining > 0 {
			v := *c.remaining - 1
			if v < 0 {
				v = 0
			}
			c.remaining = &v
			changed = true
		}
		c.mu.Unlock()
		if changed {
			// Reaching zero does not end the session; termination is
			// authoritative from the server via polling.
			c.notify()
		}
	})
}

// --- Internals ---

func (c *Controller) nextSeq() uint64 {
	return atomic.AddUint64(&c.seq, 1)
}

// applyRoomLocked replaces the tracked room wholesale if seq is newer than
// the last applied room write. A room observed outside ACTIVE also drops any
// tracked session, so a host's pause propagates to the other members and the
// session-implies-active invariant holds in every published state. Caller
// holds c.mu.
func (c *Controller) applyRoomLocked(seq uint64, room *types.Room) bool {
	if seq <= c.appliedRoom {
		return false
	}
	c.appliedRoom = seq
	c.room = cloneRoom(room)

	if room.Status != types.RoomStatusActive && c.session != nil {
		if seq > c.appliedSession {
			c.appliedSession = seq
		}
		c.session = nil
		c.remaining = nil
	}
	return true
}

// applySessionLocked installs a session and, when it carries a problem,
// forces the tracked room to ACTIVE. Caller holds c.mu. The session is only
// adopted while a room is tracked, preserving the session-implies-room
// invariant.
func (c *Controller) applySessionLocked(seq uint64, session *types.Session) bool {
	if seq <= c.appliedSession {
		return false
	}
	c.appliedSession = seq

	if c.room == nil {
		return false
	}
	c.session = cloneSession(session)

	if session.Problem != nil {
		if seq > c.appliedRoom {
			c.appliedRoom = seq
		}
		c.room.Status = types.RoomStatusActive
		c.room.CurrentProblem = session.Problem
		c.room.CurrentProblemTitle = session.Problem.Title
	}

	if session.RemainingTimeMinutes != nil {
		v := *session.RemainingTimeMinutes
		if v < 0 {
			v = 0
		}
		c.remaining = &v
		c.startCountdown()
	}
	return true
}

func (c *Controller) setLoading(loading bool) {
	c.mu.Lock()
	c.loading = loading
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) snapshotLocked() Snapshot {
	var remaining *int
	if c.remaining != nil {
		v := *c.remaining
		remaining = &v
	}
	return Snapshot{
		Room:             cloneRoom(c.room),
		Session:          cloneSession(c.session),
		InRoom:           c.inRoom,
		Loading:          c.loading,
		RemainingMinutes: remaining,
	}
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	snap := c.snapshotLocked()
	c.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// pickResumeRoom chooses among several live memberships: the room whose own
// membership entry is most recent wins; rooms without a matching entry sort
// last in server order.
func pickResumeRoom(rooms []*types.Room, username string) *types.Room {
	sorted := make([]*types.Room, len(rooms))
	copy(sorted, rooms)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ownJoinedAt(sorted[i], username).After(ownJoinedAt(sorted[j], username))
	})
	return sorted[0]
}

func ownJoinedAt(room *types.Room, username string) time.Time {
	for i := range room.Members {
		if room.Members[i].Username == username {
			return room.Members[i].JoinedAt
		}
	}
	return time.Time{}
}

func cloneRoom(room *types.Room) *types.Room {
	if room == nil {
		return nil
	}
	clone := *room
	clone.Members = append([]types.Member(nil), room.Members...)
	return &clone
}

func cloneSession(session *types.Session) *types.Session {
	if session == nil {
		return nil
	}
	clone := *session
	clone.Members = append([]types.Member(nil), session.Members...)
	return &clone
}
