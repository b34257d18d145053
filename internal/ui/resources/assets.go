// Package resources holds the web UI stylesheet and serves it under /static/.
package resources

import "net/http"

// Prefix is the URL path assets are mounted under.
const Prefix = "/static/"

// StaticPath returns the URL of the named asset.
func StaticPath(name string) string {
	return Prefix + name
}

// Handler serves the assets with the cache policy of the current build.
func Handler() http.Handler {
	files := http.StripPrefix(Prefix, http.FileServer(http.FS(assets())))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cacheControl)
		files.ServeHTTP(w, r)
	})
}
