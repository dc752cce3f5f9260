// Package auth gates the API behind a shared access code. A correct code is
// exchanged for a short-lived bearer token.
package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/partkeeper/partkeeper/internal/httputil"
	"golang.org/x/crypto/bcrypt"
)

const maxLoginBytes = 4 << 10

type Handler struct {
	jwtSecret  string
	accessHash []byte
}

// NewHandler configures the gate. accessCodeHash is a bcrypt hash and takes
// precedence over a plaintext accessCode. With neither set the gate is open.
func NewHandler(jwtSecret, accessCode, accessCodeHash string) (*Handler, error) {
	h := &Handler{jwtSecret: jwtSecret}
	switch {
	case accessCodeHash != "":
		if _, err := bcrypt.Cost([]byte(accessCodeHash)); err != nil {
			return nil, fmt.Errorf("parse access code hash: %w", err)
		}
		h.accessHash = []byte(accessCodeHash)
	case accessCode != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash access code: %w", err)
		}
		h.accessHash = hash
	}
	if h.Enabled() && jwtSecret == "" {
		return nil, fmt.Errorf("a JWT secret is required when an access code is set")
	}
	return h, nil
}

// Enabled reports whether an access code is configured.
func (h *Handler) Enabled() bool {
	return len(h.accessHash) > 0
}

type loginRequest struct {
	AccessCode string `json:"accessCode"`
}

type tokenResponse struct {
	AccessToken string `json:"accessToken"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.DecodeJSON(w, r, &req, maxLoginBytes) {
		return
	}

	if !h.Enabled() {
		httputil.WriteJSON(w, http.StatusOK, tokenResponse{})
		return
	}

	if req.AccessCode == "" {
		httputil.WriteError(w, http.StatusBadRequest, "accessCode is required")
		return
	}

	if err := bcrypt.CompareHashAndPassword(h.accessHash, []byte(req.AccessCode)); err != nil {
		httputil.WriteError(w, http.StatusUnauthorized, "invalid access code")
		return
	}

	accessToken, err := GenerateAccessToken(h.jwtSecret)
	if err != nil {
		slog.Error("auth: failed to sign access token", "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: accessToken})
}

// Middleware rejects requests without a valid access token. It passes
// everything through when the gate is open.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	if !h.Enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		claims, err := ValidateToken(h.jwtSecret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.TokenType != "access" || claims.Subject != accessSubject {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token type")
			return
		}

		next.ServeHTTP(w, r)
	})
}
