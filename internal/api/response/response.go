package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorBody is the shape of every error response
type ErrorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
	// Reply is set when a reply was generated but could not be stored
	Reply string `json:"reply,omitempty"`
}

// Ack confirms a delete
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JSON sends data as the JSON response body
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, message, detail string) {
	JSON(w, status, ErrorBody{Error: message, Detail: detail})
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created sends a 201 Created response with data
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Success sends {"success": true} with an optional message
func Success(w http.ResponseWriter, message string) {
	OK(w, Ack{Success: true, Message: message})
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, detail string) {
	Error(w, http.StatusBadRequest, "invalid request", detail)
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message, detail string) {
	Error(w, http.StatusNotFound, message, detail)
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter, message, detail string) {
	Error(w, http.StatusInternalServerError, message, detail)
}
