package router

import (
	"encoding/json"
	"net/http"
	"trackgen/internal/api/handler"
	"trackgen/internal/api/middleware"
	"trackgen/internal/core/service"

	"github.com/gorilla/mux"
)

func NewRouter(positionService service.PositionService) http.Handler {
	positionHandler := handler.NewPositionHandler(positionService)

	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/positions", positionHandler.GetPositions).Methods(http.MethodGet)
	api.HandleFunc("/positions/latest", positionHandler.GetLatestPosition).Methods(http.MethodGet)

	return r
}
