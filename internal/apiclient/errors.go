package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is. An *Error matches every sentinel that describes
// it: a malformed 2xx body is both ErrMalformedResponse and ErrServer, and
// every status-bearing failure is also ErrRejected.
var (
	ErrNetwork           = errors.New("network error")
	ErrAuth              = errors.New("not authenticated")
	ErrValidation        = errors.New("request rejected")
	ErrNotFound          = errors.New("not found")
	ErrServer            = errors.New("server error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrRejected          = errors.New("server rejection")
)

type Kind int

const (
	KindNetwork Kind = iota
	KindAuth
	KindValidation
	KindNotFound
	KindServer
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindAuth:
		return "auth"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error describes a failed API operation.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (%d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrAuth:
		return e.Kind == KindAuth
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrServer:
		return e.Kind == KindServer || e.Kind == KindMalformed
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	case ErrRejected:
		return e.Status != 0 && e.Kind != KindMalformed && e.Kind != KindNetwork
	}
	return false
}

// Message is the text shown to the user for err.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		switch apiErr.Kind {
		case KindNetwork:
			return "Cannot reach the server. Check your connection and try again."
		case KindAuth:
			return "Your session has expired. Please log in again."
		case KindMalformed:
			return "The server sent an unexpected response."
		}
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindAuth
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}
