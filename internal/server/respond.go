package server

import (
	"encoding/json"
	"log"
	"net/http"
)

// Every JSON reply carries a status discriminator so clients never have to
// infer success from the HTTP code alone.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusOK      = "ok"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode warn: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": statusError, "error": msg})
}
