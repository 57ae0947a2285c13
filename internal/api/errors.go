package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a rejected request, carrying whatever human-readable message the
// API put in its body. Transport failures are plain wrapped errors, not
// *Error.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d", e.Status)
}

// Message extracts the server-provided message from err, falling back to the
// given generic string. Every action has its own fallback.
func Message(err error, fallback string) string {
	var apiErr *Error

	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}

func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

func errorFromResponse(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	// error bodies are expected to be {"message": "..."}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if err != nil {
		return apiErr
	}

	var envelope struct {
		Message string `json:"message"`
	}

	if json.Unmarshal(body, &envelope) == nil {
		apiErr.Message = envelope.Message
	}

	return apiErr
}
