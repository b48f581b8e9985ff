package app

import (
	"context"
	"fmt"
	"log"

	"codecollab/internal/auth"
	"codecollab/internal/config"
	"codecollab/internal/gateway"
	"codecollab/internal/lifecycle"
	"codecollab/internal/storage"
	"codecollab/internal/view"
)

// Application wires every client component in dependency order:
// storage → auth → gateway → lifecycle → view.
type Application struct {
	config      *config.Config
	store       *storage.Manager
	gateway     *gateway.Client
	auth        *auth.Manager
	lifecycle   *lifecycle.Controller
	coordinator *view.Coordinator
}

// NewApplication builds the client from a validated configuration.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.NewManager(cfg.Storage.Path, cfg.Storage.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize client store: %w", err)
	}

	// Auth holds the token the gateway attaches, and the gateway serves the
	// auth calls, so the two are bound in two steps.
	authManager := auth.NewManager(store)
	apiClient := gateway.NewClient(cfg.API.BaseURL, cfg.API.Timeout, authManager)
	authManager.SetGateway(apiClient)

	controller := lifecycle.NewController(apiClient, lifecycle.Intervals{
		Lobby:     cfg.Polling.LobbyInterval,
		Session:   cfg.Polling.SessionInterval,
		Countdown: cfg.Polling.CountdownTick,
	})

	coordinator := view.NewCoordinator()
	controller.OnChange(coordinator.ApplyLifecycle)

	// Logging out must tear down room state and land back on the problem
	// list; the cleanup transition is idempotent so this is safe even when
	// the room already ended.
	authManager.SetLogoutHook(func() {
		controller.HandleRoomEnded()
		coordinator.SetAuthenticated(false)
	})

	return &Application{
		config:      cfg,
		store:       store,
		gateway:     apiClient,
		auth:        authManager,
		lifecycle:   controller,
		coordinator: coordinator,
	}, nil
}

// Bootstrap restores a persisted sign-in and any live room membership.
func (a *Application) Bootstrap(ctx context.Context) {
	a.auth.Bootstrap(ctx)
	a.coordinator.SetAuthenticated(a.auth.IsAuthenticated())

	if user := a.auth.User(); user != nil {
		a.lifecycle.Resume(ctx, user.Username)
	}
}

// Shutdown stops background polling and closes local storage.
func (a *Application) Shutdown() {
	a.lifecycle.Shutdown()
	if err := a.store.Close(); err != nil {
		log.Printf("Failed to close client store: %v", err)
	}
}

// Config returns the active configuration.
func (a *Application) Config() *config.Config { return a.config }

// Auth returns the authentication manager.
func (a *Application) Auth() *auth.Manager { return a.auth }

// Gateway returns the platform API client.
func (a *Application) Gateway() *gateway.Client { return a.gateway }

// Lifecycle returns the room/session lifecycle controller.
func (a *Application) Lifecycle() *lifecycle.Controller { return a.lifecycle }

// Coordinator returns the view state coordinator.
func (a *Application) Coordinator() *view.Coordinator { return a.coordinator }
