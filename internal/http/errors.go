package http

import (
	"encoding/json"
	"net/http"
)

// Stable error codes carried in JSON error bodies.
const (
	CodeInputValidation = "INPUT_VALIDATION"
	CodeMissingData     = "MISSING_DATA"
	CodePrediction      = "PREDICTION_ERROR"
	CodeInternal        = "INTERNAL"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError emits the coded JSON error envelope used by every endpoint.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]apiError{"error": {Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
