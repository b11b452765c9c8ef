package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vocabmaster/quiz-service/internal/models"
)

// Registry tracks live engines by session ID. Sessions are in-memory and
// single-owner; the registry only exists because the HTTP surface is
// stateless per request. Idle sessions are evicted so abandoned runs do not
// keep countdown timers alive forever.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	idleTTL  time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

// Meta is the per-session context the engine itself does not need: who is
// playing and what they asked for.
type Meta struct {
	Email      string
	Category   models.QuizCategory
	Difficulty models.Difficulty
	StartedAt  time.Time
}

type entry struct {
	engine   *Engine
	meta     Meta
	lastSeen time.Time
}

const defaultIdleTTL = 30 * time.Minute

func NewRegistry(idleTTL time.Duration) *Registry {
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	r := &Registry{
		sessions: make(map[string]*entry),
		idleTTL:  idleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Put registers an engine and returns its session ID.
func (r *Registry) Put(engine *Engine, meta Meta) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{engine: engine, meta: meta, lastSeen: r.now()}
	r.mu.Unlock()
	return id
}

// Get returns the engine for id, refreshing its idle deadline.
func (r *Registry) Get(id string) (*Engine, Meta, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ent, ok := r.sessions[id]
	if !ok {
		return nil, Meta{}, false
	}
	ent.lastSeen = r.now()
	return ent.engine, ent.meta, true
}

// Remove tears the session down, cancelling its countdown.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	ent, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		ent.engine.Close()
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Close stops the sweeper and tears down all live sessions.
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
	r.mu.Lock()
	for id, ent := range r.sessions {
		ent.engine.Close()
		delete(r.sessions, id)
	}
	r.mu.Unlock()
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.evictIdle()
		}
	}
}

func (r *Registry) evictIdle() {
	cutoff := r.now().Add(-r.idleTTL)
	var stale []*Engine
	r.mu.Lock()
	for id, ent := range r.sessions {
		if ent.lastSeen.Before(cutoff) {
			stale = append(stale, ent.engine)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, engine := range stale {
		engine.Close()
	}
}
