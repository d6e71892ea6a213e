package main

import (
	"errors"
	"net/http"
)

// OpenURL decodes {"url": "..."} and hands the URL to the dispatcher. Once the
// body decodes the reply is an empty 200, whatever the opener does. A
// Content-Type other than JSON gets 415; no Content-Type at all is accepted.
func (app *Application) OpenURL(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > maxBodySize {
		writeMessage(w, "Request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	if !isJSONContentType(r.Header.Get("Content-Type")) {
		writeMessage(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	req, err := decodeOpenRequest(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeMessage(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		app.logger.Debug("Rejected open request.", "error", err)
		writeMessage(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	app.Dispatcher.Dispatch(r.Context(), req)
	w.WriteHeader(http.StatusOK)
}

// healthHandler answers liveness probes on the health check server.
func (app *Application) healthHandler(w http.ResponseWriter, r *http.Request) {
	app.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "in_flight", app.Dispatcher.InFlight())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK\n"))
}
