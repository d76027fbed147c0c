package usecase

import (
	"context"
	"sync"
	"time"
)

// Registry keeps one Workspace per browser and evicts the idle ones.
type Registry struct {
	deps Dependencies
	opts WorkspaceOptions
	idle time.Duration

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

func NewRegistry(deps Dependencies, opts WorkspaceOptions, idle time.Duration) *Registry {
	opts = opts.withDefaults()
	if idle <= 0 {
		idle = 2 * time.Hour
	}
	return &Registry{
		deps:       deps,
		opts:       opts,
		idle:       idle,
		workspaces: make(map[string]*Workspace),
	}
}

// Get returns the workspace of browserID, creating it and restoring its
// saved login on first use.
func (r *Registry) Get(ctx context.Context, browserID string) *Workspace {
	r.mu.Lock()
	ws, ok := r.workspaces[browserID]
	if !ok {
		ws = NewWorkspace(browserID, r.deps, r.opts)
		r.workspaces[browserID] = ws
	}
	r.mu.Unlock()

	ws.Restore(ctx)
	ws.touch()
	return ws
}

// Lookup returns an existing workspace without creating one.
func (r *Registry) Lookup(browserID string) (*Workspace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.workspaces[browserID]
	return ws, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// Sweep drops workspaces idle for longer than the idle timeout. Workspaces
// with a running upload or chat are kept. Saved credentials survive so the
// browser is logged back in on its next visit.
func (r *Registry) Sweep(ctx context.Context) int {
	cutoff := r.opts.Now().Add(-r.idle)

	r.mu.Lock()
	var evicted []*Workspace
	for id, ws := range r.workspaces {
		if ws.idleSince().After(cutoff) || ws.busy() {
			continue
		}
		delete(r.workspaces, id)
		evicted = append(evicted, ws)
	}
	r.mu.Unlock()

	for _, ws := range evicted {
		ws.docSearch.Cancel()
		ws.storeSearch.Cancel()
		ws.mu.Lock()
		staged := ws.state.Admin.Upload.Selected
		ws.state.Admin.Upload.Selected = nil
		ws.mu.Unlock()
		ws.releaseStaged(ctx, staged)
	}
	return len(evicted)
}

// Run sweeps every interval until ctx is done. onSweep, when set, is told
// the number of evicted and remaining workspaces after every sweep.
func (r *Registry) Run(ctx context.Context, interval time.Duration, onSweep func(evicted, remaining int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := r.Sweep(ctx)
			remaining := r.Len()
			if n > 0 {
				r.opts.Logger.Info("workspaces_evicted", "count", n, "remaining", remaining)
			}
			if onSweep != nil {
				onSweep(n, remaining)
			}
		}
	}
}
