// Package static serves the embedded web client.
package static

import (
	"embed"
	"io/fs"
	"net/http"
	"path"
	"strings"
)

//go:embed dist
var dist embed.FS

var assetExt = map[string]bool{
	".js": true, ".css": true, ".svg": true, ".ico": true, ".png": true,
	".jpg": true, ".jpeg": true, ".webp": true, ".txt": true, ".map": true,
	".webmanifest": true, ".woff2": true,
}

// Handler serves built assets directly and index.html for every app route,
// such as /join/CODE or /host.
func Handler() http.Handler {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		return http.NotFoundHandler()
	}
	return handler(sub)
}

func handler(root fs.FS) http.Handler {
	fileServer := http.FileServer(http.FS(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/assets/") || assetExt[strings.ToLower(path.Ext(r.URL.Path))] {
			fileServer.ServeHTTP(w, r)
			return
		}
		b, err := fs.ReadFile(root, "index.html")
		if err != nil {
			http.Error(w, "index not found", http.StatusNotFound)
			return
		}
		// Served directly; FileServer would redirect the index route.
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(b)
	})
}
