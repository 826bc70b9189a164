package web

// errors.go maps errors to user-facing responses.
//
// Every error is logged with its technical detail and the request ID, then
// returned as a short message, a suggested action and a code users can
// quote:
//
//	FILE001 - Data files could not be read
//	FILE002 - A data file has no header line
//	FLT001  - Unknown filter field
//	FLT002  - Range filter on a field that is not a date
//	FLT003  - Range start is after range end
//	REQ001  - Malformed query parameter
//	REQ002  - Request timed out
//	REQ003  - Unknown dataset
//	ERR000  - Anything else

import (
	"context"
	"errors"
	"net/http"

	"github.com/aerodash/aerodash/internal/aviation"
	"github.com/aerodash/aerodash/internal/logging"
	"github.com/aerodash/aerodash/internal/table"
)

var (
	// errBadParam is wrapped by every query parameter parse error.
	errBadParam = errors.New("invalid query parameter")

	errUnknownDataset = errors.New("unknown dataset")
)

// UserMessage is the user-facing side of an error.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference for support
	Status  int    // HTTP status
}

type errorRule struct {
	target error
	msg    UserMessage
}

var errorRules = []errorRule{
	{table.ErrFileAccess, UserMessage{
		Message: "Data files could not be read",
		Action:  "Check that the configured files exist and are readable, then reload",
		Code:    "FILE001",
		Status:  http.StatusServiceUnavailable,
	}},
	{table.ErrNoHeader, UserMessage{
		Message: "A data file has no header line",
		Action:  "Check the airport file is not empty",
		Code:    "FILE002",
		Status:  http.StatusServiceUnavailable,
	}},
	{aviation.ErrUnknownField, UserMessage{
		Message: "Unknown filter field",
		Action:  "Use a field listed by /api/options",
		Code:    "FLT001",
		Status:  http.StatusBadRequest,
	}},
	{aviation.ErrUncoercedRange, UserMessage{
		Message: "Range filters apply to dates only",
		Action:  "Use from and to for date ranges",
		Code:    "FLT002",
		Status:  http.StatusBadRequest,
	}},
	{aviation.ErrInvalidRange, UserMessage{
		Message: "Date range starts after it ends",
		Action:  "Swap the from and to dates",
		Code:    "FLT003",
		Status:  http.StatusBadRequest,
	}},
	{errBadParam, UserMessage{
		Message: "Malformed query parameter",
		Action:  "Dates are YYYY-MM-DD, coordinates are decimal degrees",
		Code:    "REQ001",
		Status:  http.StatusBadRequest,
	}},
	{errUnknownDataset, UserMessage{
		Message: "Unknown dataset",
		Action:  "Use a dataset key listed by /api/schema",
		Code:    "REQ003",
		Status:  http.StatusNotFound,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Please try again",
		Code:    "REQ002",
		Status:  http.StatusGatewayTimeout,
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError returns the user message for err. Wrapped errors match their
// sentinel.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, rule := range errorRules {
		if errors.Is(err, rule.target) {
			return rule.msg
		}
	}
	return defaultMessage
}

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// respondError logs err and writes its user message. API routes get JSON,
// everything else plain text.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", msg.Status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		writeJSONStatus(w, msg.Status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	http.Error(w, msg.Message+" ("+msg.Code+")", msg.Status)
}
