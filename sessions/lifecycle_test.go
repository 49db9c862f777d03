package sessions

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/QuickRoll12/quickroll-backend/grid"
)

type recordingObserver struct {
	mu      sync.Mutex
	updates []grid.View
	notify  chan struct{}
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{notify: make(chan struct{}, 64)}
}

func (o *recordingObserver) OnGridUpdated(key Key, view grid.View) {
	o.mu.Lock()
	o.updates = append(o.updates, view)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.updates)
}

type recordingSink struct {
	mu        sync.Mutex
	summaries []EndSummary
	err       error
}

func (s *recordingSink) RecordSessionResult(summary EndSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = append(s.summaries, summary)
	return s.err
}

func TestEndComputesAbsentees(t *testing.T) {
	reg := NewRegistry(7, 13)
	sink := &recordingSink{}
	m := NewManager(reg, nil, sink, time.Hour)

	_, err := m.Start(startRequest("A"))
	require.NoError(t, err)

	s, ok := reg.Lookup(Key{Department: "CSE", Semester: "5", Section: "A"})
	require.True(t, ok)
	s.Mu.Lock()
	s.Present["03"] = struct{}{}
	s.Mu.Unlock()

	summary, err := m.End(s.Key)
	require.NoError(t, err)
	require.Equal(t, []string{"03"}, summary.Present)
	require.Equal(t, []string{"01", "02", "04", "05"}, summary.Absent)
	require.Equal(t, "fac-1", summary.FacultyID)

	// The session is gone; ending again fails.
	_, err = m.End(s.Key)
	require.ErrorIs(t, err, ErrNotActive)

	// Exactly one report reached the sink.
	require.Len(t, sink.summaries, 1)
}

func TestEndGmailSessionHasNoAbsentees(t *testing.T) {
	reg := NewRegistry(7, 13)
	m := NewManager(reg, nil, nil, time.Hour)

	req := startRequest("A")
	req.SessionType = "gmail"
	req.Capacity = 0
	_, err := m.Start(req)
	require.NoError(t, err)

	key := Key{Department: "CSE", Semester: "5", Section: "A"}
	s, _ := reg.Lookup(key)
	s.Mu.Lock()
	s.Present["a@gmail.com"] = struct{}{}
	s.Mu.Unlock()

	summary, err := m.End(key)
	require.NoError(t, err)
	require.Equal(t, []string{"a@gmail.com"}, summary.Present)
	require.Nil(t, summary.Absent)
}

func TestSinkFailureDoesNotBlockTeardown(t *testing.T) {
	reg := NewRegistry(3, 3)
	sink := &recordingSink{err: errors.New("sheet service down")}
	m := NewManager(reg, nil, sink, time.Hour)

	_, err := m.Start(startRequest("A"))
	require.NoError(t, err)

	key := Key{Department: "CSE", Semester: "5", Section: "A"}
	_, err = m.End(key)
	require.NoError(t, err)

	_, stillThere := reg.Lookup(key)
	require.False(t, stillThere)
}

func TestRotationNotifiesObserver(t *testing.T) {
	reg := NewRegistry(3, 3)
	obs := newRecordingObserver()
	m := NewManager(reg, obs, nil, 10*time.Millisecond)

	_, err := m.Start(startRequest("A"))
	require.NoError(t, err)
	key := Key{Department: "CSE", Semester: "5", Section: "A"}

	select {
	case <-obs.notify:
	case <-time.After(time.Second):
		t.Fatal("no rotation broadcast within a second")
	}

	_, err = m.End(key)
	require.NoError(t, err)

	// A tick already scheduled at cancellation may deliver one last
	// update; after that the loop must be silent.
	time.Sleep(30 * time.Millisecond)
	settled := obs.count()
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, settled, obs.count())
}

func TestRotationPreservesClaimedSlot(t *testing.T) {
	reg := NewRegistry(3, 3)
	m := NewManager(reg, nil, nil, time.Hour)

	_, err := m.Start(startRequest("A"))
	require.NoError(t, err)
	key := Key{Department: "CSE", Semester: "5", Section: "A"}
	s, _ := reg.Lookup(key)

	s.Mu.Lock()
	code := s.Grid.Slots[0][0].Code
	_, _, ok := s.Grid.Claim(code)
	require.True(t, ok)
	s.Grid.Attach(0, 0, grid.Identity{RollOrEmail: "02"})
	s.Present["02"] = struct{}{}
	s.Mu.Unlock()

	view, err := m.RefreshCodes(key)
	require.NoError(t, err)
	require.Equal(t, code, view.Slots[0][0].Code)
	require.True(t, view.Slots[0][0].Used)
}

func TestRefreshCodesRequiresActiveSession(t *testing.T) {
	reg := NewRegistry(3, 3)
	m := NewManager(reg, nil, nil, time.Hour)

	_, err := m.RefreshCodes(Key{Department: "CSE", Semester: "5", Section: "A"})
	require.ErrorIs(t, err, ErrNotActive)
}

func TestReportViolationIsIdempotent(t *testing.T) {
	reg := NewRegistry(3, 3)
	m := NewManager(reg, nil, nil, time.Hour)

	_, err := m.Start(startRequest("A"))
	require.NoError(t, err)
	key := Key{Department: "CSE", Semester: "5", Section: "A"}
	s, _ := reg.Lookup(key)

	s.Mu.Lock()
	code := s.Grid.Slots[1][1].Code
	row, col, ok := s.Grid.Claim(code)
	require.True(t, ok)
	s.Grid.Attach(row, col, grid.Identity{RollOrEmail: "04"})
	s.Present["04"] = struct{}{}
	s.Mu.Unlock()

	require.NoError(t, m.ReportViolation(key, "04"))

	s.Mu.Lock()
	_, present := s.Present["04"]
	used := s.Grid.Slots[1][1].Used
	s.Mu.Unlock()
	require.False(t, present)
	require.False(t, used)

	// Second call for the same identity changes nothing.
	require.NoError(t, m.ReportViolation(key, "04"))
	require.NoError(t, m.ReportViolation(key, "99"))
}
