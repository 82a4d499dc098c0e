package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/scheduler"
	"github.com/gin-gonic/gin"
)

// Deps is what the API reads from
type Deps struct {
	Scheduler   *scheduler.Scheduler
	StoreStatus func() (string, bool)
	BotReady    func() bool
	Now         func() time.Time
}

type api struct {
	Deps
}

// jobView is the JSON shape of a pending job
type jobView struct {
	*models.DeferredAction
	RemainingMs int64 `json:"remainingMs"`
}

// SetupAPIRoutes sets up the API routes
func SetupAPIRoutes(s *Server, deps Deps) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	a := &api{Deps: deps}

	r := s.Group("/api")
	{
		r.GET("/health", a.health)
		r.GET("/status", a.status)
		r.GET("/jobs", a.listJobs)
		r.GET("/jobs/:id", a.getJob)
	}
}

func (a *api) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "PancyMod Go is running",
	})
}

// status returns the bot and store status
func (a *api) status(c *gin.Context) {
	storeStatus, storeOnline := "", false
	if a.StoreStatus != nil {
		storeStatus, storeOnline = a.StoreStatus()
	}
	botOnline := false
	if a.BotReady != nil {
		botOnline = a.BotReady()
	}
	pending := 0
	if a.Scheduler != nil {
		pending = a.Scheduler.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"store": gin.H{
			"status":   storeStatus,
			"isOnline": storeOnline,
		},
		"bot": gin.H{
			"isOnline": botOnline,
		},
		"jobs": gin.H{
			"pending": pending,
		},
	})
}

func (a *api) view(h *scheduler.Handle) jobView {
	return jobView{DeferredAction: h.Action, RemainingMs: h.Action.Remaining(a.Now()).Milliseconds()}
}

// listJobs returns pending jobs, optionally filtered with ?guild=
func (a *api) listJobs(c *gin.Context) {
	if a.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler no disponible"})
		return
	}

	var handles []*scheduler.Handle
	if guild := c.Query("guild"); guild != "" {
		handles = a.Scheduler.ListByGuild(guild)
	} else {
		handles = a.Scheduler.Find(nil)
	}

	out := make([]jobView, 0, len(handles))
	for _, h := range handles {
		out = append(out, a.view(h))
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "jobs": out})
}

func (a *api) getJob(c *gin.Context) {
	if a.Scheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler no disponible"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID inválido"})
		return
	}

	h, ok := a.Scheduler.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Trabajo no encontrado"})
		return
	}
	c.JSON(http.StatusOK, a.view(h))
}
