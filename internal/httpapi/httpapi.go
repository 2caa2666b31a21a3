// Package httpapi translates handler outcomes into API Gateway responses.
// Every error leaving a handler is one of the taxonomy constructors below;
// anything else is treated as internal and its detail never reaches the
// client.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Error is a client-visible failure with an HTTP status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Validation reports missing or malformed input (400).
func Validation(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized reports a missing or invalid bearer token (401).
func Unauthorized() *Error {
	return &Error{Status: http.StatusUnauthorized, Message: "Unauthorized"}
}

// NotFound reports an absent entity (404).
func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Message: message}
}

// Conflict reports a failed write precondition (409).
func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Message: message}
}

// JSON builds a response with a JSON-encoded body.
func JSON(status int, body any) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Headers:    map[string]string{"Content-Type": "application/json"},
			Body:       `{"message":"Internal server error"}`,
		}
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(raw),
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// Respond maps err to a response. Taxonomy errors keep their status and
// message; everything else becomes a logged 500.
func Respond(logger *slog.Logger, err error) events.APIGatewayProxyResponse {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return JSON(apiErr.Status, errorBody{Message: apiErr.Message})
	}
	logger.Error("request failed", "error", err)
	return JSON(http.StatusInternalServerError, errorBody{Message: "Internal server error"})
}
