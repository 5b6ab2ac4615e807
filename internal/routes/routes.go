package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/bookwell/bookwell-api/internal/handlers"
)

// NewRouter sets up the API routes
func NewRouter(
	auth *handlers.AuthHandler,
	invite *handlers.InviteHandler,
	business *handlers.BusinessHandler,
	stats *handlers.StatsHandler,
) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/invites/{token}/preview", invite.PreviewInvite).Methods(http.MethodGet)

	// Authenticated endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)

	api.HandleFunc("/invites", invite.CreateInvite).Methods(http.MethodPost)
	api.HandleFunc("/invites", invite.ListPendingInvites).Methods(http.MethodGet)
	api.HandleFunc("/invites/respond", invite.RespondToInvite).Methods(http.MethodPost)

	api.HandleFunc("/businesses", business.CreateBusiness).Methods(http.MethodPost)
	api.HandleFunc("/businesses/{businessID}", business.GetBusiness).Methods(http.MethodGet)
	api.HandleFunc("/businesses/{businessID}/staff", business.ListStaff).Methods(http.MethodGet)
	api.HandleFunc("/businesses/{businessID}/invites", invite.ListBusinessInvites).Methods(http.MethodGet)
	api.HandleFunc("/businesses/{businessID}/invites/{inviteID}", invite.CancelInvite).Methods(http.MethodDelete)

	api.HandleFunc("/admin/stats", stats.AdminStats).Methods(http.MethodGet)

	return router
}
