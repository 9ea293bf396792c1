package httpapi

import (
	"io/fs"
	"net/http"

	"github.com/myyrakle/batchman/web"
)

// StaticHandler serves the embedded web assets, falling back to index.html
// for any path it doesn't otherwise have — a single-page-app style fallback
// serving spec §6's "non-/api paths return the embedded index.html".
func StaticHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := fs.Stat(web.Files, "index.html"); err != nil {
			http.NotFound(w, r)
			return
		}
		data, err := fs.ReadFile(web.Files, "index.html")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
}
