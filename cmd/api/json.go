package main

import (
	"encoding/json"
	"net/http"

	"github.com/farxc/calculo-rescisao/internal/response"
)

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")

	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	return writeJSON(w, status, &response.ErrorResponse{Error: message})

}

func writeJSONErrorDetails(w http.ResponseWriter, status int, message, details string) error {
	return writeJSON(w, status, &response.ErrorResponse{Error: message, Details: details})
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 10_485_760 // 10 MB, AI answers can be long
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))
	dec := json.NewDecoder(r.Body)

	return dec.Decode(data)
}
