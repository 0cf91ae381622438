// Package handler contains HTTP handlers for the Name Hive API.
//
// All handlers speak JSON. Error responses follow a single envelope shape
// produced by error.go; success responses are written with writeJSON.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBody caps JSON request bodies at 1 MB. Cover image uploads use
// multipart forms with their own limit.
const maxRequestBody = 1 << 20

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON decodes a JSON request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	// A second value means trailing garbage after the JSON document.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
