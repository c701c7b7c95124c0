package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AadeshhhGavhane/c3/internal/middleware"
)

// RouterConfig collects the dependencies of the HTTP surface.
type RouterConfig struct {
	Auth           *AuthHandler
	Users          middleware.UserLookup
	JWTSecret      string
	AllowedOrigins string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the chi router serving /health and the /api/auth routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(cfg.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: cfg.AllowedOrigins != "*",
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("Method not allowed"))
	})

	r.Get("/health", HandleHealth)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
			r.Post("/signup", cfg.Auth.HandleSignUp)
			r.Post("/signin", cfg.Auth.HandleSignIn)
			r.Post("/send-otp", cfg.Auth.HandleSendOTP)
			r.Post("/verify-otp", cfg.Auth.HandleVerifyOTP)
			r.Post("/forgot-password", cfg.Auth.HandleForgotPassword)
			r.Post("/reset-password", cfg.Auth.HandleResetPassword)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret, cfg.Users))
			r.Get("/me", cfg.Auth.HandleMe)
		})
	})

	return r
}

// HandleHealth handles GET /health requests.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse("Server is running"))
}

func splitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
