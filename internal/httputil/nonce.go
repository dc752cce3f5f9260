package httputil

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"net/http"
)

type nonceKey struct{}

// WithNonce attaches a fresh CSP nonce to the request. The nonce is empty if
// the system random source failed.
func WithNonce(r *http.Request) (*http.Request, string) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		slog.Error("httputil: failed to generate CSP nonce", "error", err)
		return r, ""
	}
	nonce := base64.RawURLEncoding.EncodeToString(b)
	return r.WithContext(context.WithValue(r.Context(), nonceKey{}, nonce)), nonce
}

func NonceFromContext(ctx context.Context) string {
	v, _ := ctx.Value(nonceKey{}).(string)
	return v
}
