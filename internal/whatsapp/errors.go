package whatsapp

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrConfigurationMissing means the client cannot be built: no outbound call could succeed.
var ErrConfigurationMissing = errors.New("configuration missing")

// ErrorType categorizes Graph API failures.
type ErrorType string

const (
	ErrTransport ErrorType = "transport_failure" // network error or non-2xx status
	ErrDecode    ErrorType = "decode_failure"    // 2xx with an unreadable body
)

// Error is returned by every Client call that reaches the network.
type Error struct {
	Type       ErrorType
	Op         string // send_message, upload_media, delete_media
	StatusCode int    // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("whatsapp %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("whatsapp %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("whatsapp %s: %s", e.Op, e.Type)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsTransport reports whether err is a transport failure from the Graph API.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Type == ErrTransport
}

// IsNotFound reports whether the Graph API answered 404, e.g. for media that
// expired or was already deleted.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}
