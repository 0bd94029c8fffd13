package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// spaHandler serves the embedded viewer UI. Paths that are not files fall
// back to index.html so client-side routes survive a reload.
func (s *Server) spaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.UI == nil {
			writeError(w, http.StatusNotFound, "ui not embedded")
			return
		}

		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}
		if st, err := fs.Stat(s.opts.UI, path); err != nil || st.IsDir() {
			path = "index.html"
		}
		http.ServeFileFS(w, r, s.opts.UI, path)
	}
}
