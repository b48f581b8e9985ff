package fixtures

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"codecollab/internal/auth"
	"codecollab/internal/gateway"
	"codecollab/internal/lifecycle"
	"codecollab/internal/storage"
	"codecollab/internal/view"
)

// ClientStack is one fully wired client: credential store, gateway, auth,
// lifecycle controller and view coordinator, pointed at a test backend.
// Scenario tests run several of these against the same Backend to exercise
// cross-client propagation through polling.
type ClientStack struct {
	Store     *storage.Manager
	Auth      *auth.Manager
	Gateway   *gateway.Client
	Lifecycle *lifecycle.Controller
	View      *view.Coordinator
}

// FastIntervals polls quickly enough for scenario tests to observe
// propagation without long sleeps.
var FastIntervals = lifecycle.Intervals{
	Lobby:     25 * time.Millisecond,
	Session:   25 * time.Millisecond,
	Countdown: time.Hour,
}

// NewClientStack wires a client against the backend, mirroring production
// assembly but with injectable poll intervals and a per-test database.
func NewClientStack(t *testing.T, backend *Backend, intervals lifecycle.Intervals) *ClientStack {
	t.Helper()

	store, err := storage.NewManager(filepath.Join(t.TempDir(), "client.db"), 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create credential store: %v", err)
	}

	authMgr := auth.NewManager(store)
	apiClient := gateway.NewClient(backend.BaseURL(), 5*time.Second, authMgr)
	authMgr.SetGateway(apiClient)

	controller := lifecycle.NewController(apiClient, intervals)
	coordinator := view.NewCoordinator()
	controller.OnChange(coordinator.ApplyLifecycle)
	authMgr.SetLogoutHook(func() {
		controller.HandleRoomEnded()
		coordinator.SetAuthenticated(false)
	})

	stack := &ClientStack{
		Store:     store,
		Auth:      authMgr,
		Gateway:   apiClient,
		Lifecycle: controller,
		View:      coordinator,
	}
	t.Cleanup(func() {
		controller.Shutdown()
		_ = store.Close()
	})
	return stack
}

// MustRegister signs up a fresh account and fails the test on any error.
func (c *ClientStack) MustRegister(t *testing.T, username, password string) {
	t.Helper()
	res := c.Auth.Register(context.Background(), username, username+"@example.com", password)
	if !res.Success {
		t.Fatalf("Register %s failed: %s", username, res.Message)
	}
	c.View.SetAuthenticated(true)
}

// Username returns the signed-in account name.
func (c *ClientStack) Username(t *testing.T) string {
	t.Helper()
	user := c.Auth.User()
	if user == nil {
		t.Fatal("client is not signed in")
	}
	return user.Username
}

// WaitFor polls cond until it holds or the timeout expires.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
