package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/QuickRoll12/quickroll-backend/models"
	"github.com/QuickRoll12/quickroll-backend/redemption"
	"github.com/QuickRoll12/quickroll-backend/sessions"
)

// API holds the wired collaborators behind the HTTP surface.
type API struct {
	manager  *sessions.Manager
	pipeline *redemption.Pipeline
	hub      *Hub
	upgrader websocket.Upgrader
}

func NewAPI(manager *sessions.Manager, pipeline *redemption.Pipeline, hub *Hub, allowedOrigins []string) *API {
	return &API{
		manager:  manager,
		pipeline: pipeline,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					if origin == allowed {
						return true
					}
				}
				return false
			},
		},
	}
}

// Routes mounts every endpoint on the router.
func (a *API) Routes(router *gin.Engine) {
	router.POST("/session/start", a.StartSession)
	router.GET("/session/status", a.SessionStatus)
	router.POST("/session/end", a.EndSession)
	router.POST("/session/refresh-codes", a.RefreshCodes)
	router.POST("/session/violation", a.ReportViolation)
	router.GET("/session/watch", a.WatchSession)
	router.POST("/redeem", a.Redeem)
}

func (a *API) StartSession(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := a.manager.Start(req)
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, view)
}

func (a *API) SessionStatus(c *gin.Context) {
	key := sessions.Key{
		Department: c.Query("department"),
		Semester:   c.Query("semester"),
		Section:    c.Query("section"),
	}
	c.JSON(http.StatusOK, a.manager.Registry().Status(key))
}

func (a *API) EndSession(c *gin.Context) {
	var req models.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	summary, err := a.manager.End(sessions.Key{
		Department: req.Department, Semester: req.Semester, Section: req.Section,
	})
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (a *API) RefreshCodes(c *gin.Context) {
	var req models.SessionActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := a.manager.RefreshCodes(sessions.Key{
		Department: req.Department, Semester: req.Semester, Section: req.Section,
	})
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"grid": view})
}

func (a *API) ReportViolation(c *gin.Context) {
	var req models.ViolationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := a.manager.ReportViolation(sessions.Key{
		Department: req.Department, Semester: req.Semester, Section: req.Section,
	}, req.Identifier)
	if err != nil {
		c.JSON(sessionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

// WatchSession upgrades to a websocket and streams grid snapshots for one
// session key until the client goes away.
func (a *API) WatchSession(c *gin.Context) {
	key := sessions.Key{
		Department: c.Query("department"),
		Semester:   c.Query("semester"),
		Section:    c.Query("section"),
	}
	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade to websocket: %v", err)
		return
	}
	defer conn.Close()

	// Send the current view before registering, so the watcher is not
	// blind until the next rotation. The connection supports only one
	// concurrent writer: after Register the hub owns all writes, so this
	// must be the handler's last write.
	if err := conn.WriteJSON(a.manager.Registry().Status(key)); err != nil {
		return
	}

	a.hub.Register(key, conn)
	defer a.hub.Unregister(key, conn)

	// Drain control frames; returning unregisters the watcher.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func sessionErrorStatus(err error) int {
	switch {
	case errors.Is(err, sessions.ErrAlreadyActive):
		return http.StatusConflict
	case errors.Is(err, sessions.ErrNotActive):
		return http.StatusNotFound
	case errors.Is(err, sessions.ErrInvalidCapacity), errors.Is(err, sessions.ErrUnknownType):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
