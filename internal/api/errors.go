package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fragmede/ativo/internal/auth"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")

	// ErrIncomplete is returned before a write when required fields are
	// blank.
	ErrIncomplete = errors.New("required fields missing")

	// ErrNoSession is returned by calls that need a signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrMissingCredentials is returned when email or password is empty.
	// It counts as a provider rejection.
	ErrMissingCredentials error = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "validation_failed",
		Message: "email and password are required",
	}
)

// APIError is an error body returned by the auth or table API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// Is lets callers match provider rejections and missing rows with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case auth.ErrRejected:
		return e.Status >= 400 && e.Status < 500
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Code == "PGRST116"
	}
	return false
}

// errorBody covers both the auth API shapes ({"msg"}, {"error_description"})
// and the table API shape ({"message", "code"}).
type errorBody struct {
	Code             json.RawMessage `json:"code"`
	ErrorCode        string          `json:"error_code"`
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
}

func parseAPIError(status int, raw []byte) *APIError {
	e := &APIError{Status: status}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		e.Message = strings.TrimSpace(string(raw))
		return e
	}

	switch {
	case body.ErrorCode != "":
		e.Code = body.ErrorCode
	case len(body.Code) > 0:
		e.Code = strings.Trim(string(body.Code), `"`)
	case body.Error != "":
		e.Code = body.Error
	}

	for _, m := range []string{body.Msg, body.ErrorDescription, body.Message, body.Error} {
		if m != "" {
			e.Message = m
			break
		}
	}
	return e
}
