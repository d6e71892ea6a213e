package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func (app *Application) setupRoutes() {
	app.Router.Use(app.logRequests)
	// Any path is accepted; only the method is checked.
	app.Router.PathPrefix("/").Methods(http.MethodPost).HandlerFunc(app.OpenURL)
}

func (app *Application) setupHealthRoutes(router *mux.Router) {
	router.HandleFunc("/health", app.healthHandler).Methods(http.MethodGet)
}

// logRequests writes one access log line per request.
func (app *Application) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		app.accessLog.Info("Request handled.",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"status", rec.status,
			"elapsed", time.Since(start),
		)
	})
}

// withCORS wraps h for browser callers. Without configured origins h is
// returned unchanged.
func (app *Application) withCORS(h http.Handler) http.Handler {
	if len(app.Config.CORSOrigins) == 0 {
		return h
	}
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: app.Config.CORSOrigins,
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return corsHandler.Handler(h)
}
