package crawler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ttmusic/pkg/utils"
)

// Payload errors.
var (
	ErrPayloadNotList = errors.New("payload is not a JSON list")
	ErrTrailingData   = errors.New("unexpected data after JSON value")
)

// FallbackReason names why live data was replaced by the mock file.
type FallbackReason string

// Fallback reasons, also used as metric labels.
const (
	ReasonNone       FallbackReason = ""
	ReasonNoEndpoint FallbackReason = "no_endpoint"
	ReasonTransport  FallbackReason = "transport_error"
	ReasonHTTPStatus FallbackReason = "http_status"
	ReasonBadJSON    FallbackReason = "bad_json"
	ReasonNotList    FallbackReason = "not_list"
)

// LiveResponse is everything known about one attempt to read the live endpoint.
type LiveResponse struct {
	Err        error
	DecodeErr  error
	Payload    any
	Endpoint   string
	StatusCode int
}

type fallbackCheck func(r *LiveResponse) FallbackReason

// Checks run in order; the first reason found wins.
var fallbackChecks = []fallbackCheck{
	func(r *LiveResponse) FallbackReason {
		if !utils.NewHTTPHelper().IsValidURL(r.Endpoint) {
			return ReasonNoEndpoint
		}

		return ReasonNone
	},
	func(r *LiveResponse) FallbackReason {
		if r.StatusCode >= http.StatusBadRequest {
			return ReasonHTTPStatus
		}

		return ReasonNone
	},
	func(r *LiveResponse) FallbackReason {
		if r.Err != nil {
			return ReasonTransport
		}

		return ReasonNone
	},
	func(r *LiveResponse) FallbackReason {
		if r.DecodeErr != nil {
			return ReasonBadJSON
		}

		return ReasonNone
	},
	func(r *LiveResponse) FallbackReason {
		if _, ok := r.Payload.([]any); !ok {
			return ReasonNotList
		}

		return ReasonNone
	},
}

// ShouldFallback reports whether r must be replaced by mock data, and why.
func ShouldFallback(r *LiveResponse) (FallbackReason, bool) {
	for _, check := range fallbackChecks {
		if reason := check(r); reason != ReasonNone {
			return reason, true
		}
	}

	return ReasonNone, false
}

// DecodeJSON decodes a single JSON document, keeping numbers as json.Number so
// that 64-bit ids survive intact.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	return v, nil
}
