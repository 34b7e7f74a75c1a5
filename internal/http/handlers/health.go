package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Clock returns the database server's current time.
type Clock interface {
	Now(ctx context.Context) (time.Time, error)
}

type HealthHandler struct {
	db    Pinger
	clock Clock
}

func NewHealthHandler(db Pinger, clock Clock) *HealthHandler {
	return &HealthHandler{db: db, clock: clock}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	c, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(c); err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"error":  "db_unreachable",
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}

type testDBResponse struct {
	DatabaseTime time.Time `json:"databaseTime"`
}

// TestDB is the public connectivity probe. Unlike other 500s it returns the driver
// error text so operators can diagnose connection problems.
func (h *HealthHandler) TestDB(ctx *gin.Context) {
	now, err := h.clock.Now(ctx.Request.Context())
	if err != nil {
		RespondError(ctx, http.StatusInternalServerError, "Database connection failed.", err.Error())
		return
	}

	RespondOK(ctx, http.StatusOK, "Database connection successful!", testDBResponse{DatabaseTime: now})
}
