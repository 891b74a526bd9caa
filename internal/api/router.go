package api

import (
	"net/http"
	"time"

	"schedule-orchestrator/internal/api/handlers"
	"schedule-orchestrator/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root (handlers stay unaware
// of concrete adapters).
func NewRouter(orch *services.Orchestrator, loc *time.Location, authToken string) http.Handler {
	mux := http.NewServeMux()

	scheduleHandler := &handlers.ScheduleHandler{
		Orchestrator: orch,
		Location:     loc,
	}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/schedule", scheduleHandler.Get)
	mux.HandleFunc("/schedule/optimize", scheduleHandler.Optimize)
	mux.HandleFunc("/schedule/cache", scheduleHandler.ClearCache)

	return loggingMiddleware(authMiddleware(authToken, mux))
}
