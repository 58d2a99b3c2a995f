package workflow

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/infra/credentials"
)

// RegistryOptions configures the session registry.
type RegistryOptions struct {
	Media  MediaClient
	Creds  credentials.Selector
	Logger *infra.Logger
	// IdleTTL is how long an untouched session survives before Sweep
	// evicts it. Zero disables eviction.
	IdleTTL time.Duration
	// DesignTick and AnimateTick override the status rotation intervals.
	DesignTick  time.Duration
	AnimateTick time.Duration
	Now         func() time.Time
}

type entry struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry holds the live wizard sessions. Sessions are anonymous, in-memory
// only, and die with the process or via idle eviction; nothing is persisted.
type Registry struct {
	opts RegistryOptions

	mu       sync.Mutex
	sessions map[string]*entry
}

func NewRegistry(opts RegistryOptions) *Registry {
	if opts.DesignTick <= 0 {
		opts.DesignTick = defaultDesignTick
	}
	if opts.AnimateTick <= 0 {
		opts.AnimateTick = defaultAnimateTick
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		opts:     opts,
		sessions: make(map[string]*entry),
	}
}

// Create starts a fresh session in the Setup step.
func (r *Registry) Create() *Controller {
	id := uuid.NewString()
	ctrl := newController(id, r.opts.Media, r.opts.Creds, r.opts.Logger, r.opts.DesignTick, r.opts.AnimateTick)
	r.mu.Lock()
	r.sessions[id] = &entry{controller: ctrl, lastSeen: r.opts.Now()}
	r.mu.Unlock()
	return ctrl
}

// Get returns the session and marks it as recently used.
func (r *Registry) Get(id string) (*Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	e.lastSeen = r.opts.Now()
	return e.controller, nil
}

// Delete discards a session and its media.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Busy sessions are kept: an in-flight generation still owns
// its controller.
func (r *Registry) Sweep() int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().Add(-r.opts.IdleTTL)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.sessions {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.controller.Snapshot().Busy {
			continue
		}
		delete(r.sessions, id)
		removed++
	}
	return removed
}
