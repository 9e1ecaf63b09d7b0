package alice

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"qa-tradefeed/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// TokenStorage abstracts the account-token store for the handler.
type TokenStorage interface {
	Save(ctx context.Context, userID, token string) error
	Get(ctx context.Context, userID string) (AccountToken, error)
}

// Handler owns the vendor OAuth surface: the SSO redirect, the redirect-back
// callback that exchanges the auth code, and the internal token read route.
type Handler struct {
	client  *Client
	tokens  TokenStorage
	ssoURL  string
	appCode string
	log     *zap.Logger
}

func NewHandler(client *Client, tokens TokenStorage, ssoURL, appCode string, log *zap.Logger) *Handler {
	return &Handler{client: client, tokens: tokens, ssoURL: ssoURL, appCode: appCode, log: log}
}

// Start sends the browser to the vendor SSO page carrying our app code; the
// vendor redirects back to Callback once the user approves.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	if h.appCode == "" {
		httputil.WriteJSON(w, http.StatusInternalServerError,
			map[string]any{"ok": false, "message": "ALICE_APP_CODE not configured"})
		return
	}
	target := h.ssoURL + "?appcode=" + url.QueryEscape(h.appCode)
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback handles the vendor's redirect. The auth code and user id arrive
// under several historical parameter names; all of them stay accepted.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	authCode := firstParam(q, "authCode", "authcode", "code")
	userID := firstParam(q, "userId", "userid", "user")
	if authCode == "" || userID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest,
			map[string]any{"ok": false, "message": "Missing authCode or userId"})
		return
	}
	result, err := h.client.ExchangeCode(r.Context(), userID, authCode)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			httputil.WriteJSON(w, http.StatusInternalServerError,
				map[string]any{"ok": false, "message": ErrNotConfigured.Error()})
			return
		}
		var upstream *UpstreamError
		if errors.As(err, &upstream) {
			h.log.Error("vendor token exchange failed",
				zap.Int("status", upstream.Status), zap.String("user", userID))
			httputil.WriteJSON(w, http.StatusBadGateway,
				map[string]any{"ok": false, "status": upstream.Status, "body": upstream.Body})
			return
		}
		httputil.WriteJSON(w, http.StatusBadGateway,
			map[string]any{"ok": false, "message": err.Error()})
		return
	}
	// The vendor already issued the token; a storage hiccup must not make the
	// whole exchange look failed to the user standing in the redirect flow.
	if err := h.tokens.Save(r.Context(), userID, result.UserSession); err != nil {
		h.log.Error("failed to save account token", zap.String("user", userID), zap.Error(err))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"userId":   userID,
		"received": result.UserSession != "",
		"info":     map[string]any{"expiresIn": result.ExpiresIn},
	})
}

// GetToken is the out-of-band read path for the broker integration, reachable
// only with the internal API token.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	token, err := h.tokens.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httputil.WriteJSON(w, http.StatusNotFound,
				map[string]any{"ok": false, "message": "no token for user"})
			return
		}
		httputil.WriteJSON(w, http.StatusInternalServerError,
			map[string]any{"ok": false, "message": err.Error()})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "token": token})
}

func firstParam(q url.Values, names ...string) string {
	for _, name := range names {
		if v := q.Get(name); v != "" {
			return v
		}
	}
	return ""
}
