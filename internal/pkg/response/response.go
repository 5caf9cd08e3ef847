// Package response writes JSON bodies for the HTTP handlers.
package response

import (
	"encoding/json"
	"net/http"
)

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		code = http.StatusInternalServerError
		body = []byte(`{"error":"could not encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body)
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]string{"error": message})
}

// RespondWithFields reports a validation failure with a message per field.
func RespondWithFields(w http.ResponseWriter, code int, message string, fields map[string]string) {
	RespondWithJSON(w, code, map[string]any{"error": message, "fields": fields})
}
