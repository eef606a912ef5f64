package rest

import (
	"net/http"

	"codeduel/internal/service"
	"codeduel/internal/transport/rest/handler"
	"codeduel/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	Rooms          handler.RoomReader
	Sessions       handler.SessionReader
	Matches        handler.MatchReader
	WSHandler      http.HandlerFunc
	AllowedOrigins []string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	roomHandler := handler.NewRoomHandler(c.Rooms, c.Sessions)
	matchHandler := handler.NewMatchHandler(c.Matches)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()

	// WebSocket (token in query param, validated by the handler)
	if c.WSHandler != nil {
		v1.HandleFunc("/ws", c.WSHandler).Methods("GET")
	}

	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/rooms/{roomId}", roomHandler.Get).Methods("GET")
	userRoutes.HandleFunc("/rooms/{roomId}/session", roomHandler.Session).Methods("GET")
	userRoutes.HandleFunc("/matches", matchHandler.List).Methods("GET")
	userRoutes.HandleFunc("/leaderboard", matchHandler.Leaderboard).Methods("GET")

	origins := c.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(r)
}
