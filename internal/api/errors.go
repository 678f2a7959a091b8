package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("api unavailable")
	ErrValidation   = errors.New("validation failed")
)

// notFoundMessage is reported for every 404.
const notFoundMessage = "product not found"

// FieldError is one entry of a validation failure reported by the API.
type FieldError struct {
	Msg     string `json:"msg,omitempty"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path,omitempty"`
	Param   string `json:"param,omitempty"`
}

func (f FieldError) text() string {
	if f.Msg != "" {
		return f.Msg
	}
	return f.Message
}

// Error is a failed API response.
type Error struct {
	Status  int
	Message string
	Errors  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrValidation:
		return len(e.Errors) > 0 || e.Status == http.StatusBadRequest || e.Status == http.StatusUnprocessableEntity
	case ErrUnavailable:
		return e.Status == http.StatusBadGateway || e.Status == http.StatusServiceUnavailable || e.Status == http.StatusGatewayTimeout
	}
	return false
}

// ValidationError reports a request rejected before it was sent.
type ValidationError struct {
	Fields validator.ValidationErrors
	err    error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("invalid request: %v", e.err)
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", f.Namespace(), f.Tag()))
	}
	return "invalid request: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error {
	return e.err
}

type errorBody struct {
	Success *bool        `json:"success,omitempty"`
	Message string       `json:"message"`
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors"`
}

// parseError extracts the message of a non-2xx response. The order of
// preference is: 404, error on 500, message, error, a generic status text,
// and finally any validation entries, which override all of them.
func parseError(status int, contentType string, body []byte) *Error {
	if status == http.StatusNotFound {
		return &Error{Status: status, Message: notFoundMessage}
	}

	var payload errorBody
	if strings.Contains(contentType, "application/json") {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload = errorBody{Message: "connection error"}
		}
	} else {
		text := strings.TrimSpace(string(body))
		if text == "" {
			text = fmt.Sprintf("error %d: %s", status, http.StatusText(status))
		}
		payload.Message = text
	}

	var msg string
	switch {
	case status == http.StatusInternalServerError && payload.Error != "":
		msg = payload.Error
	case payload.Message != "":
		msg = payload.Message
	case payload.Error != "":
		msg = payload.Error
	default:
		msg = fmt.Sprintf("request failed (%d)", status)
	}

	if len(payload.Errors) > 0 {
		texts := make([]string, 0, len(payload.Errors))
		for _, fe := range payload.Errors {
			if t := fe.text(); t != "" {
				texts = append(texts, t)
			}
		}
		if joined := strings.Join(texts, "\n"); joined != "" {
			msg = joined
		}
	}

	return &Error{Status: status, Message: msg, Errors: payload.Errors}
}
