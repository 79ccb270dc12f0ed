package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/wevy/internal/config"
	"github.com/dukerupert/wevy/internal/handler"
	"github.com/dukerupert/wevy/internal/middleware"
	"github.com/dukerupert/wevy/internal/store"
	"github.com/dukerupert/wevy/internal/swipe"
	ws "github.com/dukerupert/wevy/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	householdH  *handler.HouseholdHandler
	recipeH     *handler.RecipeHandler
	shoppingH   *handler.ShoppingHandler
	swipeH      *handler.SwipeHandler
	manager     *swipe.Manager
	sweeper     *swipe.Sweeper
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	householdStore := store.NewHouseholdStore(db)
	recipeStore := store.NewRecipeStore(db)
	swipeStore := store.NewSwipeStore(db)

	manager := swipe.NewManager(
		swipe.Config{TTL: cfg.SessionTTL, Location: loc},
		swipeStore,
		householdStore,
		recipeStore,
		ws.SessionNotifier(hub),
		logger.With("component", "swipe"),
	)

	return &Server{
		db:          db,
		hub:         hub,
		householdH:  handler.NewHouseholdHandler(householdStore, logger.With("component", "household")),
		recipeH:     handler.NewRecipeHandler(recipeStore, householdStore, logger.With("component", "recipe")),
		swipeH:      handler.NewSwipeHandler(manager, householdStore, recipeStore, logger.With("component", "swipe_handler")),
		shoppingH:   handler.NewShoppingHandler(store.NewShoppingStore(db), recipeStore, householdStore, manager, logger.With("component", "shopping")),
		manager:     manager,
		sweeper:     swipe.NewSweeper(manager, cfg.SweepInterval, logger.With("component", "sweeper")),
		rateLimiter: middleware.NewRateLimiter(cfg.VoteRateLimit, time.Minute),
		logger:      logger,
	}, nil
}

// Sweeper returns the background expiry sweeper.
func (s *Server) Sweeper() *swipe.Sweeper {
	return s.sweeper
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Household API routes
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("POST /api/households/join", s.householdH.Join)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.ListMembers)
	mux.HandleFunc("DELETE /api/households/{id}/members/{user_id}", s.householdH.RemoveMember)

	// Recipe API routes
	mux.HandleFunc("POST /api/households/{id}/recipes", s.recipeH.Create)
	mux.HandleFunc("GET /api/households/{id}/recipes", s.recipeH.List)
	mux.HandleFunc("GET /api/households/{id}/recipes/{recipe_id}", s.recipeH.Get)
	mux.HandleFunc("PUT /api/households/{id}/recipes/{recipe_id}", s.recipeH.Update)
	mux.HandleFunc("DELETE /api/households/{id}/recipes/{recipe_id}", s.recipeH.Delete)
	mux.HandleFunc("POST /api/households/{id}/recipes/{recipe_id}/cooked", s.recipeH.Cooked)
	mux.HandleFunc("POST /api/households/{id}/recipes/{recipe_id}/favorite", s.recipeH.Favorite)

	// Shopping list API routes
	mux.HandleFunc("GET /api/households/{id}/shopping-list", s.shoppingH.Get)
	mux.HandleFunc("PUT /api/households/{id}/shopping-list", s.shoppingH.ReplaceItems)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/recipes", s.shoppingH.AddRecipe)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/items/{item_id}/toggle", s.shoppingH.ToggleItem)
	mux.HandleFunc("DELETE /api/households/{id}/shopping-list/items", s.shoppingH.Clear)
	mux.HandleFunc("POST /api/households/{id}/shopping-list/complete", s.shoppingH.Complete)

	// Swipe session API routes
	mux.HandleFunc("POST /api/households/{id}/swipe-sessions", s.swipeH.Create)
	mux.HandleFunc("GET /api/households/{id}/swipe-sessions/history", s.swipeH.History)
	mux.HandleFunc("GET /api/households/{id}/swipe-sessions/{date}", s.swipeH.Get)
	mux.HandleFunc("POST /api/swipe-sessions/{id}/votes", s.rateLimitedHandler(s.swipeH.Vote))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{"status": status, "clients": s.hub.ClientCount()})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	return middleware.RateLimit(s.rateLimiter, keyFunc)(h).ServeHTTP
}
