package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/xrkiosk/internal/api/handler"
	"github.com/mcoot/xrkiosk/internal/api/middleware"
	"github.com/mcoot/xrkiosk/internal/api/sse"
	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/services/auth"
	"github.com/mcoot/xrkiosk/internal/services/kiosk"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Kiosks      *kiosk.Registry
	Storage     storage.Storage
	Blobs       *blob.Store
	// SSEPingPeriod is the keepalive interval of the history stream (optional)
	SSEPingPeriod time.Duration
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	registrationHandler := handler.NewRegistrationHandler(cfg.Kiosks)
	staffHandler := handler.NewStaffHandler(cfg.Kiosks, cfg.AuthService)
	historyHandler := handler.NewHistoryHandler(cfg.Storage, sse.NewStreamer(cfg.SSEPingPeriod, cfg.Logger))
	blobHandler := handler.NewBlobHandler(cfg.Blobs)
	healthHandler := handler.NewHealthHandler(cfg.Kiosks)

	// Create middleware
	staffAuthMiddleware := middleware.StaffAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)
	originMiddleware := middleware.Origin()

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)
	api.Use(originMiddleware)

	// Registration kiosk routes (public)
	api.HandleFunc("/registrations", registrationHandler.Create).Methods(http.MethodPost)
	registrations := api.PathPrefix("/registrations/{id}").Subrouter()
	registrations.HandleFunc("", registrationHandler.Get).Methods(http.MethodGet)
	registrations.HandleFunc("/start", registrationHandler.Start).Methods(http.MethodPost)
	registrations.HandleFunc("/game", registrationHandler.SelectGame).Methods(http.MethodPost)
	registrations.HandleFunc("/continue", registrationHandler.Continue).Methods(http.MethodPost)
	registrations.HandleFunc("/details", registrationHandler.SubmitDetails).Methods(http.MethodPost)
	registrations.HandleFunc("/edit", registrationHandler.Edit).Methods(http.MethodPost)
	registrations.HandleFunc("/confirm", registrationHandler.Confirm).Methods(http.MethodPost)
	registrations.HandleFunc("/terms", registrationHandler.AcceptTerms).Methods(http.MethodPost)
	registrations.HandleFunc("/members", registrationHandler.AddMember).Methods(http.MethodPost)
	registrations.HandleFunc("/team-name", registrationHandler.TeamNameInput).Methods(http.MethodPost)
	registrations.HandleFunc("/complete", registrationHandler.Complete).Methods(http.MethodPost)
	registrations.HandleFunc("/retry-save", registrationHandler.RetrySave).Methods(http.MethodPost)
	registrations.HandleFunc("/reset", registrationHandler.Reset).Methods(http.MethodPost)

	// Staff login (no auth required)
	api.HandleFunc("/staff/login", staffHandler.Login).Methods(http.MethodPost)

	// Staff station routes
	staffSessions := api.PathPrefix("/staff/sessions").Subrouter()
	staffSessions.Use(staffAuthMiddleware)
	staffSessions.HandleFunc("", staffHandler.Create).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}", staffHandler.Get).Methods(http.MethodGet)
	staffSessions.HandleFunc("/{id}/team", staffHandler.LoadTeam).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/weapons", staffHandler.Weapons).Methods(http.MethodGet)
	staffSessions.HandleFunc("/{id}/players/{player_id}/photo", staffHandler.StartPhoto).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/players/{player_id}/photo", staffHandler.CancelPhoto).Methods(http.MethodDelete)
	staffSessions.HandleFunc("/{id}/photo", staffHandler.AcceptPhoto).Methods(http.MethodPut)
	staffSessions.HandleFunc("/{id}/players/{player_id}/weapon", staffHandler.StartWeapon).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/players/{player_id}/weapon", staffHandler.CancelWeapon).Methods(http.MethodDelete)
	staffSessions.HandleFunc("/{id}/weapon", staffHandler.ChooseWeapon).Methods(http.MethodPut)
	staffSessions.HandleFunc("/{id}/complete", staffHandler.Complete).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/edit", staffHandler.Edit).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/next", staffHandler.Next).Methods(http.MethodPost)
	staffSessions.HandleFunc("/{id}/reset", staffHandler.Reset).Methods(http.MethodPost)

	// Registration history (staff only)
	stores := api.PathPrefix("/stores/{store_id}").Subrouter()
	stores.Use(staffAuthMiddleware)
	stores.HandleFunc("/history", historyHandler.List).Methods(http.MethodGet)
	stores.HandleFunc("/history/stream", historyHandler.Stream).Methods(http.MethodGet)

	// Signatures and photos (staff only; image tags pass the token in the query)
	blobs := api.PathPrefix("/blobs").Subrouter()
	blobs.Use(staffAuthMiddleware)
	blobs.HandleFunc("/{path:.+}", blobHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)

	return r
}
