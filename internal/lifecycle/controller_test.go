package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"codecollab/pkg/types"
)

// Fake room gateway with scripted responses.
type fakeGateway struct {
	mu sync.Mutex

	room    *types.Room
	session *types.Session
	myRooms []*types.Room

	createErr  error
	joinErr    error
	leaveErr   error
	detailsErr error
	startErr   error
	endErr     error
	pauseErr   error
	sessionErr error
	myRoomsErr error

	// Optional per-call scripted replies for RoomDetails; when non-empty
	// they are consumed in order ahead of the default room.
	detailsQueue []detailsReply

	calls      map[string]int
	joinedCode string
}

type detailsReply struct {
	room    *types.Room
	err     error
	started chan struct{} // closed when the call is taken
	hold    chan struct{} // call blocks until closed, if non-nil
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(map[string]int)}
}

func (f *fakeGateway) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeGateway) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeGateway) CreateRoom(ctx context.Context, cfg types.RoomConfig) (*types.Room, error) {
	f.count("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	return cloneRoom(f.room), nil
}

func (f *fakeGateway) JoinRoom(ctx context.Context, roomCode string) (*types.Room, error) {
	f.count("join")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinedCode = roomCode
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return cloneRoom(f.room), nil
}

func (f *fakeGateway) LeaveRoom(ctx context.Context, roomCode string) error {
	f.count("leave")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leaveErr
}

func (f *fakeGateway) RoomDetails(ctx context.Context, roomCode string) (*types.Room, error) {
	f.count("details")
	f.mu.Lock()
	if len(f.detailsQueue) > 0 {
		reply := f.detailsQueue[0]
		f.detailsQueue = f.detailsQueue[1:]
		f.mu.Unlock()
		if reply.started != nil {
			close(reply.started)
		}
		if reply.hold != nil {
			<-reply.hold
		}
		return cloneRoom(reply.room), reply.err
	}
	defer f.mu.Unlock()
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return cloneRoom(f.room), nil
}

func (f *fakeGateway) MyRooms(ctx context.Context) ([]*types.Room, error) {
	f.count("myRooms")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.myRoomsErr != nil {
		return nil, f.myRoomsErr
	}
	rooms := make([]*types.Room, len(f.myRooms))
	for i, r := range f.myRooms {
		rooms[i] = cloneRoom(r)
	}
	return rooms, nil
}

func (f *fakeGateway) StartSession(ctx context.Context, roomCode string, problemID int64, timeLimitMinutes *int) (*types.Session, error) {
	f.count("start")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	return cloneSession(f.session), nil
}

func (f *fakeGateway) CurrentSession(ctx context.Context, roomCode string) (*types.Session, error) {
	f.count("session")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	return cloneSession(f.session), nil
}

func (f *fakeGateway) EndSession(ctx context.Context, roomCode string) error {
	f.count("end")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.endErr
}

func (f *fakeGateway) PauseSession(ctx context.Context, roomCode string) error {
	f.count("pause")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pauseErr
}

func (f *fakeGateway) setRoom(room *types.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.room = room
}

func (f *fakeGateway) setSession(session *types.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = session
}

// --- Helpers ---

func member(name, role string) types.Member {
	return types.Member{
		Username: name,
		Role:     role,
		Status:   types.MemberStatusJoined,
		Rating:   1200,
		JoinedAt: time.Now(),
	}
}

func makeRoom(code, status string, members ...types.Member) *types.Room {
	return &types.Room{
		ID:         1,
		RoomCode:   code,
		RoomName:   "test room",
		Mode:       types.RoomModePractice,
		Status:     status,
		MaxMembers: types.MaxRoomMembers,
		Members:    members,
	}
}

func makeSession(code string, remaining *int) *types.Session {
	return &types.Session{
		RoomID:               1,
		RoomCode:             code,
		Status:               types.RoomStatusActive,
		Problem:              &types.Problem{ID: 7, Title: "Two Sum"},
		RemainingTimeMinutes: remaining,
	}
}

// slowIntervals keeps timers from firing during tests that drive the
// controller directly.
var slowIntervals = Intervals{Lobby: time.Hour, Session: time.Hour, Countdown: time.Hour}

func newTestController(gw *fakeGateway) *Controller {
	return NewController(gw, slowIntervals)
}

// checkInvariants asserts the two reachable-state invariants.
func checkInvariants(t *testing.T, c *Controller) {
	t.Helper()
	snap := c.State()
	if snap.InRoom != (snap.Room != nil) {
		t.Fatalf("invariant violated: inRoom=%v room=%v", snap.InRoom, snap.Room)
	}
	if snap.Session != nil {
		if snap.Room == nil {
			t.Fatal("invariant violated: session without room")
		}
		if snap.Room.Status != types.RoomStatusActive {
			t.Fatalf("invariant violated: session with room status %s", snap.Room.Status)
		}
	}
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

// --- Create / Join ---

func TestController_CreateRoom_Success(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost)))
	c := newTestController(gw)
	defer c.Shutdown()

	res := c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	if !res.Success {
		t.Fatalf("create failed: %s", res.Message)
	}
	checkInvariants(t, c)

	if !c.InRoom() {
		t.Error("expected membership after create")
	}
	if room := c.Room(); room == nil || room.RoomCode != "AB12CD" {
		t.Errorf("room = %+v", room)
	}
	if !c.poller.Active(pollLobby) {
		t.Error("lobby polling should start after create")
	}
}

func TestController_CreateRoom_ValidationIssuesNoCall(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(gw)

	res := c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "", Mode: types.RoomModePractice})
	if res.Success {
		t.Fatal("empty room name must be rejected")
	}
	if res.Message == "" {
		t.Error("rejection must carry a validation message")
	}
	if gw.callCount("create") != 0 {
		t.Errorf("local validation failure issued %d network calls", gw.callCount("create"))
	}
	checkInvariants(t, c)
	if c.InRoom() {
		t.Error("state must be unchanged after a failed create")
	}
}

func TestController_CreateRoom_RemoteFailureKeepsState(t *testing.T) {
	gw := newFakeGateway()
	gw.createErr = &testError{"Room limit reached"}
	c := newTestController(gw)

	res := c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	if res.Success {
		t.Fatal("expected remote failure")
	}
	if res.Message != "Room limit reached" {
		t.Errorf("message = %q", res.Message)
	}
	checkInvariants(t, c)
	if c.InRoom() || c.poller.ActiveCount() != 0 {
		t.Error("failed create must not enter a room or start polling")
	}
}

func TestController_JoinRoom_NormalizesCode(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	c := newTestController(gw)
	defer c.Shutdown()

	res := c.JoinRoom(context.Background(), "ab12cd")
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	if gw.joinedCode != "AB12CD" {
		t.Errorf("gateway received %q, want AB12CD", gw.joinedCode)
	}
	checkInvariants(t, c)
}

func TestController_JoinRoom_ShortCodeIssuesNoCall(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(gw)

	res := c.JoinRoom(context.Background(), "AB")
	if res.Success {
		t.Fatal("short code must be rejected")
	}
	if gw.callCount("join") != 0 {
		t.Error("short code must not reach the gateway")
	}
	checkInvariants(t, c)
}

func TestController_JoinRoom_ActiveRoomFetchesSession(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusActive,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))
	c := newTestController(gw)
	defer c.Shutdown()

	res := c.JoinRoom(context.Background(), "AB12CD")
	if !res.Success {
		t.Fatalf("join failed: %s", res.Message)
	}
	checkInvariants(t, c)

	if c.Session() == nil {
		t.Fatal("joining an active room must fetch the running session")
	}
	if !c.poller.Active(pollSession) {
		t.Error("expected session polling for an active room")
	}
	if c.poller.Active(pollLobby) {
		t.Error("lobby polling must not run alongside session polling")
	}
}

// --- Leave / End ---

func TestController_LeaveRoom_NoRoomIsNoOpSuccess(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(gw)

	res := c.LeaveRoom(context.Background())
	if !res.Success {
		t.Error("leaving with no room must succeed")
	}
	if gw.callCount("leave") != 0 {
		t.Error("no-op leave must not call the gateway")
	}
}

func TestController_LeaveRoom_RemoteFailureStillClears(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost)))
	c := newTestController(gw)

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	gw.leaveErr = &testError{"network down"}

	res := c.LeaveRoom(context.Background())
	if res.Success {
		t.Error("remote failure must be reported")
	}
	checkInvariants(t, c)
	if c.InRoom() || c.Room() != nil {
		t.Error("state must be cleared even when leave fails remotely")
	}
	if c.poller.ActiveCount() != 0 {
		t.Error("polling must stop after leave")
	}
}

func TestController_EndSession_CleansUpEvenOnFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))
	c := newTestController(gw)

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	c.StartSession(context.Background(), 7, nil)
	gw.endErr = &testError{"already gone"}

	res := c.EndSession(context.Background())
	if res.Success {
		t.Error("remote failure must be reported")
	}
	if res.Message != "already gone" {
		t.Errorf("message = %q", res.Message)
	}
	checkInvariants(t, c)
	if c.InRoom() || c.Session() != nil {
		t.Error("end must clear state regardless of remote outcome")
	}
	if c.poller.ActiveCount() != 0 {
		t.Error("polling must stop after end")
	}
}

// --- Start / Pause ---

func TestController_StartSession_ForcesRoomActive(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))
	c := newTestController(gw)
	defer c.Shutdown()

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	res := c.StartSession(context.Background(), 7, nil)
	if !res.Success {
		t.Fatalf("start failed: %s", res.Message)
	}
	checkInvariants(t, c)

	room := c.Room()
	if room.Status != types.RoomStatusActive {
		t.Errorf("room status = %s, want ACTIVE before the next poll confirms", room.Status)
	}
	if room.CurrentProblem == nil || room.CurrentProblem.Title != "Two Sum" {
		t.Error("expected the session's problem attached to the room")
	}
	if !c.poller.Active(pollSession) || c.poller.Active(pollLobby) {
		t.Error("start must switch from lobby to session polling")
	}
}

func TestController_StartSession_NoRoom(t *testing.T) {
	gw := newFakeGateway()
	c := newTestController(gw)

	res := c.StartSession(context.Background(), 7, nil)
	if res.Success {
		t.Error("start without a room must fail")
	}
	if gw.callCount("start") != 0 {
		t.Error("start without a room must not call the gateway")
	}
}

func TestController_PauseSession_BackToWaiting(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))
	c := newTestController(gw)
	defer c.Shutdown()

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	c.StartSession(context.Background(), 7, nil)

	res := c.PauseSession(context.Background())
	if !res.Success {
		t.Fatalf("pause failed: %s", res.Message)
	}
	checkInvariants(t, c)

	if c.Session() != nil {
		t.Error("pause must clear the session")
	}
	room := c.Room()
	if room == nil || room.Status != types.RoomStatusWaiting {
		t.Errorf("room = %+v, want WAITING", room)
	}
	if room.CurrentProblem != nil {
		t.Error("pause must clear the attached problem")
	}
	if !c.InRoom() {
		t.Error("pause must keep membership")
	}
	if gw.callCount("details") == 0 {
		t.Error("pause must refresh room details for the member list")
	}
	if !c.poller.Active(pollLobby) || c.poller.Active(pollSession) {
		t.Error("pause must switch back to lobby polling")
	}
}

// --- Termination detection ---

func TestController_RoomDetails_EndedTriggersCleanup(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))
	c := newTestController(gw)

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})
	c.StartSession(context.Background(), 7, nil)

	gw.setRoom(makeRoom("AB12CD", types.RoomStatusEnded))

	res := c.RoomDetails(context.Background(), "AB12CD")
	if res.Success {
		t.Fatal("terminal room must yield a failure result")
	}
	if res.Message != "Room has ended" {
		t.Errorf("message = %q", res.Message)
	}
	checkInvariants(t, c)
	if c.Room() != nil || c.Session() != nil || c.InRoom() {
		t.Error("cleanup must clear room, session and membership")
	}
	if c.poller.ActiveCount() != 0 {
		t.Error("cleanup must cancel all polling")
	}
}

func TestController_HandleRoomEnded_Idempotent(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost)))
	c := newTestController(gw)

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})

	c.HandleRoomEnded()
	first := c.State()

	c.HandleRoomEnded() // second invocation, e.g. a concurrent poll tick
	second := c.State()

	if first.InRoom || second.InRoom || first.Room != nil || second.Room != nil {
		t.Error("both invocations must leave the empty state")
	}
	if c.poller.ActiveCount() != 0 {
		t.Error("polling must remain cancelled")
	}
	checkInvariants(t, c)
}

func TestController_PollDetectsTermination(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	c := NewController(gw, Intervals{Lobby: 15 * time.Millisecond, Session: 15 * time.Millisecond, Countdown: time.Hour})
	defer c.Shutdown()

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})

	// The host ends the room elsewhere; the next poll observes it.
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusEnded))

	eventually(t, time.Second, func() bool {
		return !c.InRoom() && c.poller.ActiveCount() == 0
	}, "poll never detected room termination")
	checkInvariants(t, c)
}

func TestController_LobbyPollPicksUpActivation(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	c := NewController(gw, Intervals{Lobby: 15 * time.Millisecond, Session: 15 * time.Millisecond, Countdown: time.Hour})
	defer c.Shutdown()

	c.JoinRoom(context.Background(), "AB12CD")

	// The host starts a session; this member's poll observes activation.
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusActive,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	gw.setSession(makeSession("AB12CD", nil))

	eventually(t, time.Second, func() bool {
		return c.Session() != nil && c.poller.Active(pollSession)
	}, "poll never picked up session activation")
	checkInvariants(t, c)

	room := c.Room()
	if room == nil || room.Status != types.RoomStatusActive {
		t.Errorf("room should be ACTIVE, got %+v", room)
	}
}

// --- Stale responses ---

func TestController_StaleResponseDiscarded(t *testing.T) {
	gw := newFakeGateway()
	fresh := makeRoom("AB12CD", types.RoomStatusWaiting,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember))
	stale := makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost))

	gw.setRoom(stale)
	c := newTestController(gw)
	defer c.Shutdown()

	c.JoinRoom(context.Background(), "AB12CD")

	started := make(chan struct{})
	hold := make(chan struct{})
	gw.mu.Lock()
	gw.detailsQueue = []detailsReply{
		{room: stale, started: started, hold: hold},
		{room: fresh},
	}
	gw.mu.Unlock()

	// First fetch is issued, then stalls in flight.
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.RoomDetails(context.Background(), "AB12CD")
	}()
	<-started

	// Second fetch is issued later and completes first.
	c.RoomDetails(context.Background(), "AB12CD")
	if got := len(c.Room().Members); got != 2 {
		t.Fatalf("fresh fetch should apply, members = %d", got)
	}

	// The stalled response finally lands and must be discarded.
	close(hold)
	<-done

	if got := len(c.Room().Members); got != 2 {
		t.Errorf("stale response overwrote fresher data, members = %d", got)
	}
	checkInvariants(t, c)
}

// --- Countdown ---

func TestController_CountdownDecrementsAndClamps(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusActive,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember)))
	remaining := 1
	gw.setSession(makeSession("AB12CD", &remaining))

	c := NewController(gw, Intervals{Lobby: time.Hour, Session: time.Hour, Countdown: 15 * time.Millisecond})
	defer c.Shutdown()

	c.JoinRoom(context.Background(), "AB12CD")

	if v := c.RemainingMinutes(); v == nil || *v != 1 {
		t.Fatalf("remaining = %v, want 1", v)
	}

	eventually(t, time.Second, func() bool {
		v := c.RemainingMinutes()
		return v != nil && *v == 0
	}, "countdown never reached zero")

	// Clamped: stays at zero and does not end the session by itself.
	time.Sleep(60 * time.Millisecond)
	if v := c.RemainingMinutes(); v == nil || *v != 0 {
		t.Errorf("remaining = %v, want clamp at 0", v)
	}
	if c.Session() == nil || !c.InRoom() {
		t.Error("countdown expiry must not terminate the session locally")
	}
	checkInvariants(t, c)
}

// --- Resume ---

func TestController_Resume_SkipsTerminalRooms(t *testing.T) {
	gw := newFakeGateway()
	ended := makeRoom("DEAD01", types.RoomStatusEnded, member("alice", types.MemberRoleHost))
	waiting := makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost))
	gw.mu.Lock()
	gw.myRooms = []*types.Room{ended, waiting}
	gw.mu.Unlock()
	gw.setRoom(waiting)

	c := newTestController(gw)
	defer c.Shutdown()

	c.Resume(context.Background(), "alice")
	checkInvariants(t, c)

	room := c.Room()
	if room == nil || room.RoomCode != "AB12CD" {
		t.Fatalf("resumed room = %+v, want AB12CD", room)
	}
	if !c.poller.Active(pollLobby) {
		t.Error("resume must start lobby polling")
	}
}

func TestController_Resume_NothingToResume(t *testing.T) {
	gw := newFakeGateway()
	gw.mu.Lock()
	gw.myRooms = []*types.Room{makeRoom("DEAD01", types.RoomStatusCompleted)}
	gw.mu.Unlock()

	c := newTestController(gw)
	c.Resume(context.Background(), "alice")

	if c.InRoom() || c.poller.ActiveCount() != 0 {
		t.Error("terminal-only membership must not resume")
	}
}

func TestController_Resume_PrefersMostRecentMembership(t *testing.T) {
	gw := newFakeGateway()
	older := makeRoom("OLDER1", types.RoomStatusWaiting, types.Member{
		Username: "alice", Role: types.MemberRoleMember, JoinedAt: time.Now().Add(-time.Hour),
	})
	newer := makeRoom("NEWER1", types.RoomStatusWaiting, types.Member{
		Username: "alice", Role: types.MemberRoleHost, JoinedAt: time.Now(),
	})
	gw.mu.Lock()
	gw.myRooms = []*types.Room{older, newer}
	gw.mu.Unlock()
	gw.setRoom(newer)

	c := newTestController(gw)
	defer c.Shutdown()

	c.Resume(context.Background(), "alice")

	room := c.Room()
	if room == nil || room.RoomCode != "NEWER1" {
		t.Fatalf("resumed %+v, want the most recently joined room", room)
	}
}

func TestController_Resume_ActiveRoomFetchesSession(t *testing.T) {
	gw := newFakeGateway()
	active := makeRoom("AB12CD", types.RoomStatusActive,
		member("alice", types.MemberRoleHost), member("bob", types.MemberRoleMember))
	gw.mu.Lock()
	gw.myRooms = []*types.Room{active}
	gw.mu.Unlock()
	gw.setRoom(active)
	gw.setSession(makeSession("AB12CD", nil))

	c := newTestController(gw)
	defer c.Shutdown()

	c.Resume(context.Background(), "alice")
	checkInvariants(t, c)

	if c.Session() == nil {
		t.Error("resuming an active room must fetch its session")
	}
	if !c.poller.Active(pollSession) {
		t.Error("resuming an active room must start session polling")
	}
}

// --- Observer ---

func TestController_OnChangeReceivesSnapshots(t *testing.T) {
	gw := newFakeGateway()
	gw.setRoom(makeRoom("AB12CD", types.RoomStatusWaiting, member("alice", types.MemberRoleHost)))
	c := newTestController(gw)
	defer c.Shutdown()

	var mu sync.Mutex
	var last Snapshot
	c.OnChange(func(snap Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		last = snap
	})

	c.CreateRoom(context.Background(), types.RoomConfig{RoomName: "test room"})

	mu.Lock()
	defer mu.Unlock()
	if !last.InRoom || last.Room == nil {
		t.Errorf("observer saw %+v, expected membership", last)
	}
}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
