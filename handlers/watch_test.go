package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/QuickRoll12/quickroll-backend/models"
	"github.com/QuickRoll12/quickroll-backend/sessions"
)

const watchTestOrigin = "http://localhost:3000"

func startRequest() models.StartSessionRequest {
	return models.StartSessionRequest{
		Department:  "CSE",
		Semester:    "5",
		Section:     "A",
		Capacity:    5,
		SessionType: "roll",
		FacultyID:   "fac-1",
	}
}

func watchTestServer(t *testing.T, rotationInterval time.Duration) (*httptest.Server, *sessions.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registry := sessions.NewRegistry(3, 3)
	hub := NewHub()
	manager := sessions.NewManager(registry, hub, nil, rotationInterval)
	api := NewAPI(manager, nil, hub, []string{watchTestOrigin})
	router := gin.New()
	api.Routes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, manager
}

func dialWatch(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/session/watch?department=CSE&semester=5&section=A"
	header := http.Header{"Origin": []string{watchTestOrigin}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	return conn
}

func TestWatchSessionSendsInitialSnapshot(t *testing.T) {
	srv, manager := watchTestServer(t, time.Hour)

	_, err := manager.Start(startRequest())
	require.NoError(t, err)
	key := sessions.Key{Department: "CSE", Semester: "5", Section: "A"}
	defer manager.End(key)

	conn := dialWatch(t, srv)
	defer conn.Close()

	var view sessions.View
	require.NoError(t, conn.ReadJSON(&view))
	require.True(t, view.Active)
	require.Equal(t, 3, view.Grid.Rows)
}

// Watchers join and leave while the rotation loop broadcasts every
// millisecond; the initial snapshot and the hub's broadcasts must never
// write to the same connection concurrently.
func TestWatchSessionUnderRapidBroadcasts(t *testing.T) {
	srv, manager := watchTestServer(t, time.Millisecond)

	_, err := manager.Start(startRequest())
	require.NoError(t, err)
	key := sessions.Key{Department: "CSE", Semester: "5", Section: "A"}
	defer manager.End(key)

	for i := 0; i < 100; i++ {
		conn := dialWatch(t, srv)
		// The first frame is always the initial snapshot; whatever
		// follows comes from the hub alone.
		var first map[string]any
		require.NoError(t, conn.ReadJSON(&first))
		if i%3 == 0 {
			var update map[string]any
			require.NoError(t, conn.ReadJSON(&update))
		}
		conn.Close()
	}
}
