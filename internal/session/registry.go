package session

// #region imports
import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/interview-controller/internal/evaluator"
)

// #endregion

// #region registry

const joinCodeAttempts = 32

// Registry indexes live sessions by id and join code.
type Registry struct {
	mu      sync.RWMutex
	byID    map[string]*Session
	byCode  map[string]string
	newID   func() string
	newCode func() string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return NewRegistryWithGenerators(uuid.NewString, randomJoinCode)
}

// NewRegistryWithGenerators creates a registry with injected id and join code generators.
// Used for testing collisions.
func NewRegistryWithGenerators(newID, newCode func() string) *Registry {
	return &Registry{
		byID:    make(map[string]*Session),
		byCode:  make(map[string]string),
		newID:   newID,
		newCode: newCode,
	}
}

func randomJoinCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// #endregion

// #region create

// Create registers a new session with a fresh id and a join code unique among live sessions.
func (r *Registry) Create(profile evaluator.Profile, resume string, now time.Time) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var code string
	for i := 0; i < joinCodeAttempts; i++ {
		c := r.newCode()
		if _, taken := r.byCode[c]; !taken {
			code = c
			break
		}
	}
	if code == "" {
		return nil, fmt.Errorf("no free join code after %d attempts", joinCodeAttempts)
	}

	s := New(r.newID(), code, profile, resume, now)
	r.byID[s.ID] = s
	r.byCode[code] = s.ID
	return s, nil
}

// #endregion

// #region lookup

// Get looks a session up by id. Unknown ids return ErrNotFound.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

// GetByJoinCode looks a session up by its six-digit join code.
func (r *Registry) GetByJoinCode(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[code]
	if !ok {
		return nil, fmt.Errorf("%w: join code %s", ErrNotFound, code)
	}
	return r.byID[id], nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// All returns every live session in no particular order.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out
}

// #endregion

// #region eviction

// Remove drops a session and frees its join code.
func (r *Registry) Remove(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, false
	}
	delete(r.byID, id)
	delete(r.byCode, s.JoinCode)
	return s, true
}

// Evict removes and returns sessions idle since before cutoff.
func (r *Registry) Evict(cutoff time.Time) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for id, s := range r.byID {
		if s.LastActivity().Before(cutoff) {
			delete(r.byID, id)
			delete(r.byCode, s.JoinCode)
			out = append(out, s)
		}
	}
	return out
}

// #endregion
