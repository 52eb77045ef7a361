package app

import (
	"net/http"

	"github.com/daypane/daypane/internal/rest"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {
	r.HandleFunc("/", root).Methods("GET")
	r.HandleFunc("/health", health).Methods("GET")

	// Events
	r.HandleFunc("/api/events", deps.CalendarHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/events", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/events.ics", deps.CalendarHandler.ExportEvents).Methods("GET")
	r.HandleFunc("/api/events/{id:[0-9]+}", deps.CalendarHandler.GetEvent).Methods("GET")
	r.HandleFunc("/api/events/{id:[0-9]+}", deps.CalendarHandler.UpdateEvent).Methods("PUT")
	r.HandleFunc("/api/events/{id:[0-9]+}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")

	// Layout
	r.HandleFunc("/api/layout/day", deps.CalendarHandler.DayLayout).Methods("GET")
	r.HandleFunc("/api/layout/week", deps.CalendarHandler.WeekLayout).Methods("GET")
}

func root(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]string{"message": "Calendar API is running"})
}

func health(w http.ResponseWriter, r *http.Request) {
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
