package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/peerpresence/server-go/internal/config"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// ConnCounter reports how many sockets are open on this process.
type ConnCounter interface {
	Count() int
}

type HealthHandler struct {
	db    Pinger
	conns ConnCounter
}

func NewHealthHandler(db Pinger, conns ConnCounter) *HealthHandler {
	return &HealthHandler{db: db, conns: conns}
}

// GET /health
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
	defer cancel()

	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UnixMilli(),
	}
	if h.conns != nil {
		body["connections"] = h.conns.Count()
	}

	if err := h.db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("health check: database ping failed")
		body["status"] = "unavailable"
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}

	writeJSON(w, http.StatusOK, body)
}
