package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"
)

// maxBodySize caps request bodies and relay payloads at 32 KiB.
const maxBodySize = 32 * 1024

var (
	errMissingURL  = errors.New("missing url")
	errInvalidUTF8 = errors.New("body is not valid UTF-8")
)

// decodeOpenRequest reads the whole body as exactly one JSON object with an
// exact "url" string key. Trailing data, invalid UTF-8 and a null url are
// rejected; an empty url string is accepted.
func decodeOpenRequest(rc io.ReadCloser) (OpenRequest, error) {
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return OpenRequest{}, err
	}
	if !utf8.Valid(data) {
		return OpenRequest{}, errInvalidUTF8
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return OpenRequest{}, err
	}
	raw, ok := fields["url"]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return OpenRequest{}, errMissingURL
	}

	var req OpenRequest
	if err := json.Unmarshal(raw, &req.URL); err != nil {
		return OpenRequest{}, fmt.Errorf("url: %w", err)
	}
	return req, nil
}

// isJSONContentType reports whether a Content-Type header names JSON. A
// missing header counts as JSON.
func isJSONContentType(header string) bool {
	if header == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func writeMessage(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ResMessage{Message: message})
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
