package gin

import (
	"context"
	"errors"
	"net/http"
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/revex"
)

// Stages reported in error payloads and as the sessions_total label.
const (
	StageOK         = "ok"
	StageValidation = "validation"
	StageQueue      = "queue"
	StageNavigation = "navigation"
	StageInference  = "rule inference"
	StageDeadline   = "session deadline"
	StageExtraction = "extraction"
)

// ErrorResponse is the JSON payload of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage"`
}

// classify maps err to an HTTP status, a stage and a client-safe message.
func classify(err error) (status int, resp ErrorResponse) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "Session timed out.", Stage: StageDeadline}
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "Request cancelled.", Stage: StageExtraction}
	}

	msg := sentence(revex.ErrorMessage(err))
	switch revex.ErrorCode(err) {
	case revex.EINVALID:
		return http.StatusBadRequest, ErrorResponse{Error: msg, Stage: StageValidation}
	case revex.EINFERENCE:
		return http.StatusInternalServerError, ErrorResponse{Error: msg, Stage: StageInference}
	case revex.ENAVIGATION:
		return http.StatusBadGateway, ErrorResponse{Error: msg, Stage: StageNavigation}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: msg, Stage: StageExtraction}
	}
}

// sentence upper-cases the first letter of msg.
func sentence(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if r == utf8.RuneError {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
