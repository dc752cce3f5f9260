package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/partkeeper/partkeeper/internal/httputil"
)

// spaFileServer serves the built web client. Unknown paths fall back to
// index.html so client-side routes such as /songs/{id} load the app, while
// unknown /api paths still get a JSON 404.
type spaFileServer struct {
	fileServer http.Handler
	fileSystem fs.FS
}

func newSPAFileServer(fsys fs.FS) *spaFileServer {
	return &spaFileServer{
		fileServer: http.FileServer(http.FS(fsys)),
		fileSystem: fsys,
	}
}

func (s *spaFileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		httputil.WriteError(w, http.StatusNotFound, "not found")
		return
	}

	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" {
		name = "index.html"
	}

	if _, err := fs.Stat(s.fileSystem, name); err != nil {
		r.URL.Path = "/"
		w.Header().Set("Cache-Control", "no-cache")
	} else if strings.HasPrefix(name, "assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}

	s.fileServer.ServeHTTP(w, r)
}
