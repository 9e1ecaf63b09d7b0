package config

import (
	"errors"
	"os"
	"time"
)

const (
	defaultIncomingFile = ".alice.incoming.json"
	defaultTokenURL     = "https://ant.aliceblueonline.com/open-api/od/v1/vendor/getUserDetails"
	defaultSSOURL       = "https://ant.aliceblueonline.com/"
)

type Config struct {
	HTTPAddr        string
	DBDSN           string
	JWTIssuer       string
	JWTSecret       string
	JWTTTL          time.Duration
	InternalToken   string
	WebSocketOrigin string

	// Shared secret the broker extension presents on /push and DELETE /incoming.
	// May be unset; the write path then rejects everything with 401.
	PushSecret string
	// Path of the persisted trade snapshot document.
	IncomingFile string

	// Alice Blue vendor OAuth settings. The API secret may be unset; the
	// callback then answers 500 until it is configured.
	AliceAPISecret string
	AliceTokenURL  string
	AliceSSOURL    string
	AliceAppCode   string
}

func Load() (Config, error) {
	var c Config
	var missing []string
	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DB_DSN")
	if c.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		missing = append(missing, "JWT_TTL")
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, err
		}
		c.JWTTTL = d
	}
	c.InternalToken = os.Getenv("INTERNAL_API_TOKEN")
	if c.InternalToken == "" {
		missing = append(missing, "INTERNAL_API_TOKEN")
	}
	c.WebSocketOrigin = os.Getenv("WS_ORIGIN")
	if c.WebSocketOrigin == "" {
		missing = append(missing, "WS_ORIGIN")
	}
	c.PushSecret = os.Getenv("QUANTUM_ALPHA_SECRET")
	c.IncomingFile = os.Getenv("QUANTUM_ALPHA_INCOMING_FILE")
	if c.IncomingFile == "" {
		c.IncomingFile = defaultIncomingFile
	}
	c.AliceAPISecret = os.Getenv("ALICE_API_SECRET")
	c.AliceTokenURL = os.Getenv("ALICE_TOKEN_URL")
	if c.AliceTokenURL == "" {
		c.AliceTokenURL = defaultTokenURL
	}
	c.AliceSSOURL = os.Getenv("ALICE_SSO_URL")
	if c.AliceSSOURL == "" {
		c.AliceSSOURL = defaultSSOURL
	}
	c.AliceAppCode = os.Getenv("ALICE_APP_CODE")
	if len(missing) > 0 {
		return c, errors.New("missing required env: " + join(missing))
	}
	return c, nil
}

func join(items []string) string {
	if len(items) == 0 {
		return ""
	}
	out := items[0]
	for i := 1; i < len(items); i++ {
		out += "," + items[i]
	}
	return out
}
