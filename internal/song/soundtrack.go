package song

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/partkeeper/partkeeper/internal/httputil"
	"github.com/partkeeper/partkeeper/internal/validate"
)

const (
	DefaultMaxSoundtrackBytes = 25 * 1024 * 1024
	soundtrackPrefix          = "soundtracks"
	uploadURLExpiry           = 15 * time.Minute
	maxUploadRequestBytes     = 4 << 10
)

var allowedSoundtrackTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/flac":  true,
	"audio/aac":   true,
}

var (
	unsafeFileChars = regexp.MustCompile(`[^a-z0-9.-]`)
	repeatedDashes  = regexp.MustCompile(`-+`)
)

type uploadURLRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	FileSize    int64  `json:"fileSize"`
}

type uploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

func (h *Handler) SoundtrackUploadURL(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "soundtrack storage is not configured")
		return
	}

	var req uploadURLRequest
	if !httputil.DecodeJSON(w, r, &req, maxUploadRequestBytes) {
		return
	}
	if strings.TrimSpace(req.FileName) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "fileName is required")
		return
	}
	if msg := validate.FileName(req.FileName); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	if !allowedSoundtrackTypes[contentType] {
		httputil.WriteError(w, http.StatusBadRequest, "unsupported soundtrack type")
		return
	}
	if req.FileSize < 0 {
		httputil.WriteError(w, http.StatusBadRequest, "fileSize must not be negative")
		return
	}
	if h.maxSoundtrackBytes > 0 && req.FileSize > h.maxSoundtrackBytes {
		httputil.WriteError(w, http.StatusBadRequest, "file too large")
		return
	}

	suffix, err := randomSuffix(8)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}
	key := soundtrackKey(req.FileName, h.now(), suffix)

	uploadURL, err := h.storage.GenerateUploadURL(r.Context(), key, contentType, req.FileSize, uploadURLExpiry)
	if err != nil {
		slog.Error("songs: failed to presign soundtrack upload", "key", key, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "failed to generate upload URL")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, uploadURLResponse{
		UploadURL: uploadURL,
		Path:      key,
		PublicURL: h.storage.PublicURL(key),
	})
}

// SanitizeFileName lowercases name and reduces it to letters, digits, dots
// and single dashes.
func SanitizeFileName(name string) string {
	safe := unsafeFileChars.ReplaceAllString(strings.ToLower(name), "-")
	safe = repeatedDashes.ReplaceAllString(safe, "-")
	return strings.Trim(safe, "-")
}

func soundtrackKey(fileName string, now time.Time, suffix string) string {
	ext := "mp3"
	safe := SanitizeFileName(fileName)
	if i := strings.LastIndex(safe, "."); i >= 0 && i < len(safe)-1 {
		ext = safe[i+1:]
	}
	return fmt.Sprintf("%s/%d-%s.%s", soundtrackPrefix, now.UnixMilli(), suffix, ext)
}

func randomSuffix(n int) (string, error) {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		b[i] = alphabet[idx.Int64()]
	}
	return string(b), nil
}

// SoundtrackTypes lists the accepted upload content types.
func SoundtrackTypes() []string {
	types := make([]string, 0, len(allowedSoundtrackTypes))
	for t := range allowedSoundtrackTypes {
		types = append(types, t)
	}
	return types
}
