package server

import (
	"net/http"
	"strings"

	"github.com/partkeeper/partkeeper/internal/httputil"
)

// youTubeSources are the origins the embedded practice player loads from.
var youTubeSources = struct {
	script, frame, img string
}{
	script: "https://www.youtube.com https://s.ytimg.com",
	frame:  "https://www.youtube.com https://www.youtube-nocookie.com",
	img:    "https://i.ytimg.com",
}

type SecurityConfig struct {
	BaseURL         string
	StorageEndpoint string
}

func securityHeaders(cfg SecurityConfig) func(http.Handler) http.Handler {
	strictTransport := strings.HasPrefix(cfg.BaseURL, "https://")

	storage := ""
	if cfg.StorageEndpoint != "" {
		storage = " " + cfg.StorageEndpoint
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, nonce := httputil.WithNonce(r)

			h := w.Header()
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Permissions-Policy", `autoplay=(self "https://www.youtube.com"), camera=(), microphone=(), geolocation=()`)
			h.Set("Content-Security-Policy", contentSecurityPolicy(nonce, storage))

			if strictTransport {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func contentSecurityPolicy(nonce, storage string) string {
	directives := []string{
		"default-src 'self'",
		"img-src 'self' data: " + youTubeSources.img + storage,
		"media-src 'self' blob:" + storage,
		"script-src 'self' 'nonce-" + nonce + "' " + youTubeSources.script,
		"style-src 'self' 'nonce-" + nonce + "'",
		"frame-src " + youTubeSources.frame,
		"connect-src 'self'" + storage,
		"frame-ancestors 'self'",
	}
	return strings.Join(directives, "; ") + ";"
}
