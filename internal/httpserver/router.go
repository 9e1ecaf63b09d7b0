package httpserver

import (
	"net/http"

	"qa-tradefeed/internal/alice"
	"qa-tradefeed/internal/auth"
	"qa-tradefeed/internal/httputil"
	"qa-tradefeed/internal/trades"

	"github.com/go-chi/chi/v5"
)

type RouterDeps struct {
	TradesHandler *trades.Handler
	StreamSSE     http.Handler
	StreamWS      http.Handler
	AliceHandler  *alice.Handler
	AuthHandler   *auth.Handler
	AuthService   *auth.Service
	InternalToken string
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(SecurityHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	// Trade ingestion / query / retention, pushed to by the browser extension
	// from another origin, so every route carries CORS with its method list.
	incomingCORS := CORS("GET, DELETE, OPTIONS")
	r.With(incomingCORS).Get("/incoming", d.TradesHandler.List)
	r.With(incomingCORS).Delete("/incoming", d.TradesHandler.Delete)
	r.With(incomingCORS).Options("/incoming", noContent)
	pushCORS := CORS("POST, OPTIONS")
	r.With(pushCORS).Post("/push", d.TradesHandler.Push)
	r.With(pushCORS).Options("/push", noContent)

	// Live feeds for the dashboard
	r.Get("/trades-stream", d.StreamSSE.ServeHTTP)
	r.Get("/trades-stream/ws", d.StreamWS.ServeHTTP)

	// Vendor OAuth
	r.Get("/oauth/vendor/start", d.AliceHandler.Start)
	r.Get("/oauth/vendor/callback", d.AliceHandler.Callback)

	// Out-of-band token read for the broker integration
	r.Group(func(r chi.Router) {
		r.Use(InternalAuth(d.InternalToken))
		r.Get("/internal/accounts/{userId}/token", d.AliceHandler.GetToken)
	})

	// Dashboard login backend
	r.Route("/v1", func(r chi.Router) {
		r.With(RateLimitMiddleware).Route("/auth", func(r chi.Router) {
			r.Post("/register", d.AuthHandler.Register)
			r.Post("/login", d.AuthHandler.Login)
		})
		r.Group(func(r chi.Router) {
			r.Use(WithAuth(d.AuthService))
			r.Get("/me", func(w http.ResponseWriter, r *http.Request) {
				userID, ok := UserID(r)
				if !ok {
					httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{Error: "unauthorized"})
					return
				}
				d.AuthHandler.Me(w, r, userID)
			})
		})
	})

	return r
}

func noContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
