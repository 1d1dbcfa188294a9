package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"pairfocus/internal/coordinator"
	"pairfocus/internal/service"
	"pairfocus/internal/transport/rest/handler"
	"pairfocus/internal/transport/rest/middleware"
	"pairfocus/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Store        *coordinator.Store
	AuthService  *service.AuthService
	StatsService *service.StatsService
	WSHub        *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	roomHandler := handler.NewRoomHandler(c.Store)
	authHandler := handler.NewAuthHandler(c.AuthService)
	statsHandler := handler.NewStatsHandler(c.StatsService)
	wsHandler := ws.NewHandler(c.WSHub)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// Session coordinator routes (unauthenticated rendezvous channel)
	r.HandleFunc("/join_room", roomHandler.Join).Methods("POST", "OPTIONS")
	r.HandleFunc("/start_timer", roomHandler.Start).Methods("POST", "OPTIONS")
	r.HandleFunc("/cancel_timer", roomHandler.Cancel).Methods("POST", "OPTIONS")
	r.HandleFunc("/room_status", roomHandler.Status).Methods("GET")

	// Push feed for room transitions
	r.HandleFunc("/ws/rooms/{room_name}", wsHandler.RoomFeed).Methods("GET")

	// Account routes
	r.HandleFunc("/register", authHandler.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/ranking", statsHandler.Ranking).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	userRoutes := r.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)
	userRoutes.HandleFunc("/add_time", statsHandler.AddTime).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
