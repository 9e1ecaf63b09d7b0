package alice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTokens struct {
	saved   map[string]string
	saveErr error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{saved: map[string]string{}}
}

func (f *fakeTokens) Save(_ context.Context, userID, token string) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved[userID] = token
	return nil
}

func (f *fakeTokens) Get(_ context.Context, userID string) (AccountToken, error) {
	tok, ok := f.saved[userID]
	if !ok {
		return AccountToken{}, pgx.ErrNoRows
	}
	return AccountToken{UserID: userID, Token: tok}, nil
}

func newCallbackHandler(t *testing.T, vendor http.HandlerFunc, apiSecret string) (*Handler, *fakeTokens, func()) {
	t.Helper()
	srv := httptest.NewServer(vendor)
	tokens := newFakeTokens()
	h := NewHandler(NewClient(srv.URL, apiSecret), tokens, "https://sso.example/", "APP1", zap.NewNop())
	return h, tokens, srv.Close
}

func vendorOK(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{"userSession": "sess-1", "expiresIn": 86400})
}

func doCallback(h *Handler, query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/oauth/vendor/callback?"+query, nil)
	w := httptest.NewRecorder()
	h.Callback(w, req)
	return w
}

func TestCallbackSuccess(t *testing.T) {
	t.Parallel()

	h, tokens, cleanup := newCallbackHandler(t, vendorOK, "secret")
	defer cleanup()

	w := doCallback(h, "authCode=CODE&userId=U1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		OK       bool   `json:"ok"`
		UserID   string `json:"userId"`
		Received bool   `json:"received"`
		Info     struct {
			ExpiresIn any `json:"expiresIn"`
		} `json:"info"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "U1", resp.UserID)
	assert.True(t, resp.Received)
	assert.EqualValues(t, 86400, resp.Info.ExpiresIn)

	assert.Equal(t, "sess-1", tokens.saved["U1"])
}

func TestCallbackParamAliases(t *testing.T) {
	t.Parallel()

	for _, query := range []string{
		"authCode=CODE&userId=U1",
		"authcode=CODE&userid=U1",
		"code=CODE&user=U1",
	} {
		query := query
		t.Run(query, func(t *testing.T) {
			t.Parallel()
			h, tokens, cleanup := newCallbackHandler(t, vendorOK, "secret")
			defer cleanup()

			w := doCallback(h, query)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "sess-1", tokens.saved["U1"])
		})
	}
}

func TestCallbackMissingParams(t *testing.T) {
	t.Parallel()

	h, _, cleanup := newCallbackHandler(t, vendorOK, "secret")
	defer cleanup()

	for _, query := range []string{"", "authCode=CODE", "userId=U1"} {
		w := doCallback(h, query)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "Missing authCode or userId")
	}
}

func TestCallbackMissingSecretIsServerError(t *testing.T) {
	t.Parallel()

	h, tokens, cleanup := newCallbackHandler(t, vendorOK, "")
	defer cleanup()

	w := doCallback(h, "authCode=CODE&userId=U1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, tokens.saved)
}

func TestCallbackUpstreamFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	h, tokens, cleanup := newCallbackHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, "secret")
	defer cleanup()

	w := doCallback(h, "authCode=CODE&userId=U1")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, tokens.saved)
}

func TestCallbackMissingTokenIsBadGateway(t *testing.T) {
	t.Parallel()

	h, _, cleanup := newCallbackHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	}, "secret")
	defer cleanup()

	w := doCallback(h, "authCode=CODE&userId=U1")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestCallbackSaveFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	h, tokens, cleanup := newCallbackHandler(t, vendorOK, "secret")
	defer cleanup()
	tokens.saveErr = errors.New("disk full")

	// The vendor already issued the token; the user still gets confirmation.
	w := doCallback(h, "authCode=CODE&userId=U1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStartRedirectsToSSO(t *testing.T) {
	t.Parallel()

	h := NewHandler(NewClient("http://unused", "secret"), newFakeTokens(), "https://sso.example/", "APP1", zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/oauth/vendor/start", nil)
	w := httptest.NewRecorder()
	h.Start(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://sso.example/?appcode=APP1", w.Header().Get("Location"))
}

func TestStartWithoutAppCode(t *testing.T) {
	t.Parallel()

	h := NewHandler(NewClient("http://unused", "secret"), newFakeTokens(), "https://sso.example/", "", zap.NewNop())
	req := httptest.NewRequest(http.MethodGet, "/oauth/vendor/start", nil)
	w := httptest.NewRecorder()
	h.Start(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
