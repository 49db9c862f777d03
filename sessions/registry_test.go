package sessions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/QuickRoll12/quickroll-backend/models"
)

func startRequest(section string) models.StartSessionRequest {
	return models.StartSessionRequest{
		Department:  "CSE",
		Semester:    "5",
		Section:     section,
		Capacity:    5,
		SessionType: "roll",
		FacultyID:   "fac-1",
	}
}

func TestRegistryStart(t *testing.T) {
	reg := NewRegistry(7, 13)

	s, err := reg.Start(startRequest("A"))
	require.NoError(t, err)
	require.True(t, s.Active)
	require.Equal(t, Roll, s.Type)
	require.Equal(t, 91, s.Grid.Rows*s.Grid.Cols)
	require.Empty(t, s.Present)

	// Second session for the same key is refused.
	_, err = reg.Start(startRequest("A"))
	require.ErrorIs(t, err, ErrAlreadyActive)

	// A different key is independent.
	_, err = reg.Start(startRequest("B"))
	require.NoError(t, err)
}

func TestRegistryStartValidation(t *testing.T) {
	reg := NewRegistry(7, 13)

	req := startRequest("A")
	req.Capacity = 0
	_, err := reg.Start(req)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	// Roll capacity cannot exceed the slot count.
	req.Capacity = 92
	_, err = reg.Start(req)
	require.ErrorIs(t, err, ErrInvalidCapacity)

	req.Capacity = 91
	_, err = reg.Start(req)
	require.NoError(t, err)

	// Gmail sessions carry no capacity bound.
	req = startRequest("B")
	req.SessionType = "gmail"
	req.Capacity = 0
	_, err = reg.Start(req)
	require.NoError(t, err)

	req = startRequest("C")
	req.SessionType = "carrier-pigeon"
	_, err = reg.Start(req)
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestRegistryStatusUnknownKey(t *testing.T) {
	reg := NewRegistry(7, 13)

	view := reg.Status(Key{Department: "CSE", Semester: "5", Section: "Z"})
	require.False(t, view.Active)
	require.Equal(t, 7, view.Grid.Rows)
	require.Equal(t, 13, view.Grid.Cols)
	for _, row := range view.Grid.Slots {
		for _, slot := range row {
			require.False(t, slot.Used)
		}
	}
}

func TestRegistryStatusActiveSession(t *testing.T) {
	reg := NewRegistry(3, 3)
	s, err := reg.Start(startRequest("A"))
	require.NoError(t, err)

	s.Mu.Lock()
	s.Present["03"] = struct{}{}
	s.Mu.Unlock()

	view := reg.Status(s.Key)
	require.True(t, view.Active)
	require.Equal(t, "roll", view.SessionType)
	require.Equal(t, 5, view.Capacity)
}
