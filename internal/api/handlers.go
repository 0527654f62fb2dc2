package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/coderoom/coderoom/internal/room"
	"github.com/coderoom/coderoom/internal/stats"
	"github.com/coderoom/coderoom/internal/ws"
)

type API struct {
	hub    *ws.Hub
	store  *room.Store
	stats  *stats.Store
	logger *zap.Logger
}

func New(hub *ws.Hub, store *room.Store, statsStore *stats.Store, logger *zap.Logger) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		hub:    hub,
		store:  store,
		stats:  statsStore,
		logger: logger,
	}
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.logger.Error("encode JSON response", zap.Error(err))
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]interface{}{
		"active_rooms":   a.hub.GetRoomCount(),
		"active_clients": a.hub.GetClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if a.stats != nil {
		totals, err := a.stats.Totals()
		if err != nil {
			a.logger.Warn("read stats totals", zap.Error(err))
		} else {
			response["total_connections"] = totals[stats.CounterConnections]
			response["total_joins"] = totals[stats.CounterJoins]
			response["total_executions"] = totals[stats.CounterExecutions]
			response["total_execution_failures"] = totals[stats.CounterExecutionFailures]
		}
	}

	a.jsonResponse(w, http.StatusOK, response)
}

// RoomsHandler lists live rooms. Rooms are volatile: the listing reflects
// only what currently has members.
func (a *API) RoomsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	infos := a.store.List()
	a.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"rooms": infos,
		"count": len(infos),
	})
}
