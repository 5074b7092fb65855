package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web GUI routes on the provided mux.
// Static assets are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("POST /changes", h.AddChange)
	mux.HandleFunc("POST /changes/{id}/delete", h.RemoveChange)
	mux.HandleFunc("GET /options", h.Options)
	mux.HandleFunc("POST /options", h.SaveOptions)
	mux.HandleFunc("POST /options/test", h.TestOptions)
}
