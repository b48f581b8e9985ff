package scenarios

import (
	"context"
	"testing"
	"time"

	"codecollab/internal/view"
	"codecollab/pkg/types"
	"codecollab/tests/fixtures"
)

// The host leaves a two-member room: the remaining member is promoted and
// observes the role change through polling.
func TestHostHandoffOnLeave(t *testing.T) {
	backend := fixtures.NewBackend()
	defer backend.Close()

	alice := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	bob := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	alice.MustRegister(t, "alice", "pw")
	bob.MustRegister(t, "bob", "pw")

	ctx := context.Background()
	alice.Lifecycle.CreateRoom(ctx, types.RoomConfig{RoomName: "room"})
	code := alice.Lifecycle.Room().RoomCode
	bob.Lifecycle.JoinRoom(ctx, code)

	res := alice.Lifecycle.LeaveRoom(ctx)
	if !res.Success {
		t.Fatalf("leave failed: %s", res.Message)
	}
	if alice.Lifecycle.InRoom() {
		t.Error("leaving must clear the host's membership")
	}

	fixtures.WaitFor(t, 2*time.Second, func() bool {
		room := bob.Lifecycle.Room()
		if room == nil {
			return false
		}
		host := room.Host()
		return host != nil && host.Username == "bob"
	}, "remaining member never observed the host handoff")

	room := bob.Lifecycle.Room()
	if len(room.Members) != 1 {
		t.Errorf("members = %d, want 1 after the host left", len(room.Members))
	}
	if !view.CanEndSession(room, "bob") {
		t.Error("the promoted member must gain host affordances")
	}
}

// The last member leaving ends the room server-side.
func TestLastLeaverEndsRoom(t *testing.T) {
	backend := fixtures.NewBackend()
	defer backend.Close()

	alice := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	alice.MustRegister(t, "alice", "pw")

	ctx := context.Background()
	alice.Lifecycle.CreateRoom(ctx, types.RoomConfig{RoomName: "room"})
	code := alice.Lifecycle.Room().RoomCode
	alice.Lifecycle.LeaveRoom(ctx)

	// A later join finds the room terminated, not joinable.
	bob := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	bob.MustRegister(t, "bob", "pw")
	res := bob.Lifecycle.JoinRoom(ctx, code)
	if res.Success {
		t.Fatal("joining an ended room must fail")
	}
	if bob.Lifecycle.InRoom() {
		t.Error("failed join must leave no membership")
	}
}

// The room is terminated out of band (server restart, admin action); every
// member's next poll triggers full local cleanup.
func TestOutOfBandTerminationCleansUpAllClients(t *testing.T) {
	backend := fixtures.NewBackend()
	defer backend.Close()

	alice := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	bob := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	alice.MustRegister(t, "alice", "pw")
	bob.MustRegister(t, "bob", "pw")

	ctx := context.Background()
	alice.Lifecycle.CreateRoom(ctx, types.RoomConfig{RoomName: "room"})
	code := alice.Lifecycle.Room().RoomCode
	bob.Lifecycle.JoinRoom(ctx, code)
	alice.Lifecycle.StartSession(ctx, 1, nil)

	backend.EndRoomDirectly(code)

	fixtures.WaitFor(t, 2*time.Second, func() bool {
		return !alice.Lifecycle.InRoom() && !bob.Lifecycle.InRoom()
	}, "clients never observed the out-of-band termination")

	for name, client := range map[string]*fixtures.ClientStack{"alice": alice, "bob": bob} {
		if client.Lifecycle.Room() != nil || client.Lifecycle.Session() != nil {
			t.Errorf("%s retained state after termination", name)
		}
		if client.View.Screen() != view.ScreenProblems {
			t.Errorf("%s screen = %s, want problems", name, client.View.Screen())
		}
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	backend := fixtures.NewBackend()
	defer backend.Close()

	alice := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	alice.MustRegister(t, "alice", "pw")

	res := alice.Lifecycle.JoinRoom(context.Background(), "NOPE99")
	if res.Success {
		t.Fatal("unknown room must fail")
	}
	if res.Message != "Room not found" {
		t.Errorf("message = %q", res.Message)
	}
}

// Room membership and individual solving stay mutually exclusive across a
// full join-solve-leave cycle.
func TestRoomExclusivityAcrossLifecycle(t *testing.T) {
	backend := fixtures.NewBackend()
	defer backend.Close()

	alice := fixtures.NewClientStack(t, backend, fixtures.FastIntervals)
	alice.MustRegister(t, "alice", "pw")

	ctx := context.Background()
	if err := alice.View.SelectProblem(&types.Problem{ID: 2, Title: "Reverse Linked List"}); err != nil {
		t.Fatalf("solo select failed: %v", err)
	}

	alice.Lifecycle.CreateRoom(ctx, types.RoomConfig{RoomName: "room"})
	if alice.View.SelectedProblem() != nil {
		t.Error("entering a room must abandon the individual solve")
	}
	if err := alice.View.SelectProblem(&types.Problem{ID: 2}); err == nil {
		t.Error("selecting a problem while in a room must be rejected")
	}

	alice.Lifecycle.LeaveRoom(ctx)
	if err := alice.View.SelectProblem(&types.Problem{ID: 2}); err != nil {
		t.Errorf("solo solving must be allowed again after leaving: %v", err)
	}
}
