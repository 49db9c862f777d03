package sessions

import (
	"log"
	"sync"
	"time"

	"github.com/QuickRoll12/quickroll-backend/grid"
	"github.com/QuickRoll12/quickroll-backend/models"
)

// Registry owns the map of active sessions. It is built once by the
// composition root and injected wherever session state is needed; it guards
// only the map itself, per-session state is guarded by each Session's Mu.
type Registry struct {
	rows int
	cols int

	mu       sync.RWMutex
	sessions map[Key]*Session
}

func NewRegistry(rows, cols int) *Registry {
	return &Registry{
		rows:     rows,
		cols:     cols,
		sessions: make(map[Key]*Session),
	}
}

// GridSize reports the fixed grid dimensions sessions are created with.
func (r *Registry) GridSize() (rows, cols int) {
	return r.rows, r.cols
}

// Start registers a new session for the request's key. Roll sessions must
// declare a capacity between 1 and the slot count; a second session for an
// already-active key is refused.
func (r *Registry) Start(req models.StartSessionRequest) (*Session, error) {
	sessionType, err := ParseType(req.SessionType)
	if err != nil {
		return nil, err
	}
	if sessionType == Roll && (req.Capacity < 1 || req.Capacity > r.rows*r.cols) {
		return nil, ErrInvalidCapacity
	}

	key := Key{Department: req.Department, Semester: req.Semester, Section: req.Section}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[key]; exists {
		return nil, ErrAlreadyActive
	}

	s := &Session{
		Key:          key,
		Type:         sessionType,
		Capacity:     req.Capacity,
		FacultyID:    req.FacultyID,
		StartedAt:    time.Now(),
		Active:       true,
		Grid:         grid.Generate(r.rows, r.cols),
		Present:      make(map[string]struct{}),
		stopRotation: make(chan struct{}),
	}
	r.sessions[key] = s
	log.Println("started session for", key.String(), "type", sessionType.String())
	return s, nil
}

// Lookup returns the session for key if one is registered.
func (r *Registry) Lookup(key Key) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Status returns a read-only view of the session for key. An unknown key
// yields an inactive view around a freshly generated grid rather than an
// error; callers must not treat it as a live session.
func (r *Registry) Status(key Key) View {
	if s, ok := r.Lookup(key); ok {
		s.Mu.Lock()
		defer s.Mu.Unlock()
		return s.snapshotLocked()
	}
	return View{
		Active:      false,
		SessionType: Roll.String(),
		Grid:        grid.Generate(r.rows, r.cols).Snapshot(),
	}
}

// Remove drops the session for key from the registry.
func (r *Registry) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, key)
}
