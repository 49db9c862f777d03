package sessions

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/QuickRoll12/quickroll-backend/grid"
	"github.com/QuickRoll12/quickroll-backend/models"
)

// Observer is notified with a fresh grid snapshot after every successful
// claim, rotation, refresh and violation, for broadcast to watchers.
// Snapshots are taken under the session mutex but delivered outside it, so
// two concurrent updates may arrive out of order; each delivery carries the
// full grid and the next rotation resupplies the current state, so stale
// frames are transient, never sticky.
type Observer interface {
	OnGridUpdated(key Key, view grid.View)
}

// ReportSink receives the summary of an ended session. Sink failures are
// logged; they never block teardown.
type ReportSink interface {
	RecordSessionResult(summary EndSummary) error
}

// EndSummary is handed to the report sink once per session end.
type EndSummary struct {
	Key       Key       `json:"key"`
	Type      string    `json:"sessionType"`
	FacultyID string    `json:"facultyID"`
	Capacity  int       `json:"capacity"`
	Present   []string  `json:"present"`
	Absent    []string  `json:"absent"`
	EndedAt   time.Time `json:"endedAt"`
}

// Manager drives session lifecycle: it starts sessions with their rotation
// task, ends them, and services the manual refresh and violation operations.
type Manager struct {
	registry *Registry
	observer Observer
	sink     ReportSink
	interval time.Duration
}

func NewManager(registry *Registry, observer Observer, sink ReportSink, interval time.Duration) *Manager {
	return &Manager{
		registry: registry,
		observer: observer,
		sink:     sink,
		interval: interval,
	}
}

// Registry exposes the registry for collaborators wired at composition time.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Start creates the session and schedules its rotation task. Exactly one
// task runs per active key.
func (m *Manager) Start(req models.StartSessionRequest) (View, error) {
	s, err := m.registry.Start(req)
	if err != nil {
		return View{}, err
	}
	go m.rotationLoop(s)

	s.Mu.Lock()
	defer s.Mu.Unlock()
	return s.snapshotLocked(), nil
}

func (m *Manager) rotationLoop(s *Session) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopRotation:
			return
		case <-ticker.C:
			// A tick scheduled before cancellation may still fire once;
			// the active check under Mu keeps it away from a grid that is
			// being finalized.
			s.Mu.Lock()
			if !s.Active {
				s.Mu.Unlock()
				return
			}
			s.Grid.RotateUnused()
			view := s.Grid.Snapshot()
			s.Mu.Unlock()
			m.notify(s.Key, view)
		}
	}
}

// End cancels the rotation task before any other teardown step, computes
// the absentee set, removes the session and reports the summary.
func (m *Manager) End(key Key) (EndSummary, error) {
	s, ok := m.registry.Lookup(key)
	if !ok {
		return EndSummary{}, ErrNotActive
	}
	s.StopRotation()

	s.Mu.Lock()
	if !s.Active {
		s.Mu.Unlock()
		return EndSummary{}, ErrNotActive
	}
	s.Active = false
	present := make([]string, 0, len(s.Present))
	for id := range s.Present {
		present = append(present, id)
	}
	sort.Strings(present)
	summary := EndSummary{
		Key:       key,
		Type:      s.Type.String(),
		FacultyID: s.FacultyID,
		Capacity:  s.Capacity,
		Present:   present,
		Absent:    absentees(s.Type, s.Capacity, s.Present),
		EndedAt:   time.Now(),
	}
	s.Mu.Unlock()

	m.registry.Remove(key)
	log.Printf("ended session %s: %d present, %d absent", key.String(), len(summary.Present), len(summary.Absent))

	if m.sink != nil {
		if err := m.sink.RecordSessionResult(summary); err != nil {
			log.Printf("failed to record session result for %s: %v", key.String(), err)
		}
	}
	return summary, nil
}

// RefreshCodes rotates unused codes on demand for an active session.
func (m *Manager) RefreshCodes(key Key) (grid.View, error) {
	s, ok := m.registry.Lookup(key)
	if !ok {
		return grid.View{}, ErrNotActive
	}
	s.Mu.Lock()
	if !s.Active {
		s.Mu.Unlock()
		return grid.View{}, ErrNotActive
	}
	s.Grid.RotateUnused()
	view := s.Grid.Snapshot()
	s.Mu.Unlock()

	m.notify(key, view)
	return view, nil
}

// ReportViolation clears the slot and presence entry for one identity.
// Calling it for an identity that is not present is a no-op.
func (m *Manager) ReportViolation(key Key, identifier string) error {
	s, ok := m.registry.Lookup(key)
	if !ok {
		return ErrNotActive
	}
	s.Mu.Lock()
	if !s.Active {
		s.Mu.Unlock()
		return ErrNotActive
	}
	if row, col, found := s.Grid.FindClaimed(identifier); found {
		s.Grid.Release(row, col)
	}
	delete(s.Present, identifier)
	view := s.Grid.Snapshot()
	s.Mu.Unlock()

	log.Println("violation recorded for", identifier, "in", key.String())
	m.notify(key, view)
	return nil
}

func (m *Manager) notify(key Key, view grid.View) {
	if m.observer != nil {
		m.observer.OnGridUpdated(key, view)
	}
}

// absentees lists the two-digit rolls 01..capacity missing from present.
// Gmail sessions have no roster to diff against, so no absentee set.
func absentees(t Type, capacity int, present map[string]struct{}) []string {
	if t != Roll {
		return nil
	}
	absent := make([]string, 0, capacity)
	for i := 1; i <= capacity; i++ {
		roll := fmt.Sprintf("%02d", i)
		if _, ok := present[roll]; !ok {
			absent = append(absent, roll)
		}
	}
	return absent
}
