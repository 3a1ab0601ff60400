package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mealmatch/mealmatch-api/internal/health"
	"github.com/mealmatch/mealmatch-api/internal/http/handler"
	"github.com/mealmatch/mealmatch-api/internal/http/middleware"
	"github.com/mealmatch/mealmatch-api/internal/http/response"
	"github.com/mealmatch/mealmatch-api/internal/security"
)

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	OnboardingHandler *handler.OnboardingHandler
	TokenVerifier     security.TokenVerifier
	CookieManager     *security.CookieManager
	CORSOrigins       []string
	APIRateLimitRPM   int
	AuthRateLimitRPM  int
	GlobalRateLimiter GlobalRateLimiterFunc
	AuthRateLimiter   AuthRateLimiterFunc
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

type GlobalRateLimiterFunc func(http.Handler) http.Handler
type AuthRateLimiterFunc func(http.Handler) http.Handler

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.StructuredRequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(1 << 20))
	if dep.GlobalRateLimiter != nil {
		r.Use(dep.GlobalRateLimiter)
	} else {
		r.Use(middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware())
	}

	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute).Middleware()
	}
	requireAuth := middleware.AuthMiddleware(dep.TokenVerifier, dep.CookieManager)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/logout", dep.AuthHandler.Logout)
			// The popup that opens the emailed link has no session cookie, so
			// token consumption stays public.
			r.With(authLimiter).Post("/verify-token", dep.AuthHandler.VerifyToken)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.With(middleware.NoStore).Get("/check", dep.AuthHandler.Check)
				r.With(middleware.NoStore).Get("/check-verification", dep.AuthHandler.CheckVerification)
				r.With(authLimiter).Post("/verify-email", dep.AuthHandler.VerifyEmail)
				r.Put("/update-email", dep.AuthHandler.UpdateEmail)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/onboarding", dep.OnboardingHandler.Save)
			r.With(middleware.NoStore).Get("/user/onboarding-status", dep.OnboardingHandler.Status)
		})
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
