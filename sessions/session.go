package sessions

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/QuickRoll12/quickroll-backend/grid"
)

var (
	ErrAlreadyActive   = errors.New("a session for this class is already active")
	ErrNotActive       = errors.New("no active session for this class")
	ErrInvalidCapacity = errors.New("invalid session capacity")
	ErrUnknownType     = errors.New("unknown session type")
)

// Type selects how redeemers identify themselves.
type Type int

const (
	Roll  Type = iota // two-digit roll numbers, bounded by capacity
	Gmail             // email addresses, no capacity bound
)

func ParseType(s string) (Type, error) {
	switch s {
	case "roll":
		return Roll, nil
	case "gmail":
		return Gmail, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownType, s)
}

func (t Type) String() string {
	if t == Gmail {
		return "gmail"
	}
	return "roll"
}

// Key identifies one class section. At most one session is active per key.
type Key struct {
	Department string `json:"department"`
	Semester   string `json:"semester"`
	Section    string `json:"section"`
}

func (k Key) String() string {
	return k.Department + "/" + k.Semester + "/" + k.Section
}

// Session is the live state of one attendance session. Mu serializes every
// mutation for the key: claims, rollbacks, presence updates, rotation ticks,
// violations and teardown all run under it. Sessions for different keys are
// independent.
type Session struct {
	Key       Key
	Type      Type
	Capacity  int
	FacultyID string
	StartedAt time.Time

	Mu      sync.Mutex
	Active  bool
	Grid    *grid.Grid
	Present map[string]struct{}

	stopRotation chan struct{}
	stopOnce     sync.Once
}

// StopRotation cancels the session's rotation task. Safe to call more than
// once; the task is cancelled exactly once.
func (s *Session) StopRotation() {
	s.stopOnce.Do(func() {
		close(s.stopRotation)
	})
}

// View is a read-only snapshot of a session handed to status queries.
type View struct {
	Active      bool      `json:"active"`
	SessionType string    `json:"sessionType"`
	Capacity    int       `json:"capacity"`
	Grid        grid.View `json:"grid"`
}

// snapshotLocked builds a View. Caller holds Mu.
func (s *Session) snapshotLocked() View {
	return View{
		Active:      s.Active,
		SessionType: s.Type.String(),
		Capacity:    s.Capacity,
		Grid:        s.Grid.Snapshot(),
	}
}
