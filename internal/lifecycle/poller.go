package lifecycle

import (
	"sync"
	"time"
)

// Poller owns the client's repeating background tasks. Each task is keyed by
// a logical context; starting a key that is already running cancels the
// previous task first, so at most one timer per context is ever live.
// Duplicate concurrent polls are a correctness bug (doubled traffic, state
// resurrection after teardown), not just waste.
type Poller struct {
	mu    sync.Mutex
	tasks map[string]chan struct{}
}

// NewPoller creates an empty poller.
func NewPoller() *Poller {
	return &Poller{tasks: make(map[string]chan struct{})}
}

// Start launches a repeating task under key. The first tick fires after one
// full interval, matching timer-driven refresh semantics.
func (p *Poller) Start(key string, interval time.Duration, tick func()) {
	p.mu.Lock()
	if stop, exists := p.tasks[key]; exists {
		close(stop)
	}
	stop := make(chan struct{})
	p.tasks[key] = stop
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tick()
			case <-stop:
				return
			}
		}
	}()
}

// Stop cancels the task under key. Stopping an absent key is a no-op, which
// makes teardown paths idempotent.
func (p *Poller) Stop(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if stop, exists := p.tasks[key]; exists {
		close(stop)
		delete(p.tasks, key)
	}
}

// StopAll cancels every live task.
func (p *Poller) StopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key, stop := range p.tasks {
		close(stop)
		delete(p.tasks, key)
	}
}

// Active reports whether a task is live under key.
func (p *Poller) Active(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, exists := p.tasks[key]
	return exists
}

// ActiveCount returns the number of live tasks.
func (p *Poller) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks)
}
