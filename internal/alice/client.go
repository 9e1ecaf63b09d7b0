package alice

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrNotConfigured means ALICE_API_SECRET is absent; the exchange cannot run
// and will keep failing until the deployment is fixed.
var ErrNotConfigured = errors.New("ALICE_API_SECRET not configured")

// UpstreamError is a non-2xx or malformed answer from the vendor token
// endpoint; Body carries whatever the vendor sent so the caller can relay it.
type UpstreamError struct {
	Status int
	Body   any
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("vendor token endpoint answered %d", e.Status)
}

// ExchangeResult is the useful part of the vendor's response.
type ExchangeResult struct {
	UserSession string
	ExpiresIn   any
}

// Client exchanges a checksum for a user session token at the vendor's
// getUserDetails endpoint. Only the one-way digest of the raw secret crosses
// the wire.
type Client struct {
	tokenURL  string
	apiSecret string
	http      *http.Client
}

func NewClient(tokenURL, apiSecret string) *Client {
	return &Client{
		tokenURL:  tokenURL,
		apiSecret: apiSecret,
		// The vendor endpoint has stalled before; never hold a request
		// goroutine on it indefinitely.
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) Configured() bool { return c.apiSecret != "" }

// Checksum is sha256(userId + authCode + apiSecret), hex encoded, per the
// vendor's checksum-exchange contract.
func (c *Client) Checksum(userID, authCode string) string {
	sum := sha256.Sum256([]byte(userID + authCode + c.apiSecret))
	return hex.EncodeToString(sum[:])
}

// ExchangeCode submits the checksum and pulls the session token out of the
// response, tolerating the field names the vendor has used over time:
// userSession, then userSessionToken, then token.
func (c *Client) ExchangeCode(ctx context.Context, userID, authCode string) (ExchangeResult, error) {
	if !c.Configured() {
		return ExchangeResult{}, ErrNotConfigured
	}
	body, err := json.Marshal(map[string]string{"checkSum": c.Checksum(userID, authCode)})
	if err != nil {
		return ExchangeResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, bytes.NewReader(body))
	if err != nil {
		return ExchangeResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return ExchangeResult{}, &UpstreamError{Status: 0, Body: err.Error()}
	}
	defer res.Body.Close()

	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		payload = map[string]any{}
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return ExchangeResult{}, &UpstreamError{Status: res.StatusCode, Body: payload}
	}
	session := firstStringField(payload, "userSession", "userSessionToken", "token")
	if session == "" {
		return ExchangeResult{}, &UpstreamError{Status: res.StatusCode, Body: payload}
	}
	return ExchangeResult{UserSession: session, ExpiresIn: payload["expiresIn"]}, nil
}

func firstStringField(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
