package util

import "fmt"

// ResponseError is returned by handlers that already know which HTTP status
// their failure maps to, e.g. malformed request bodies.
type ResponseError struct {
	Msg    string
	Status int
}

func (e ResponseError) Error() string { return e.Msg }

func NewResponseError(status int, format string, args ...interface{}) error {
	return ResponseError{
		Msg:    fmt.Sprintf(format, args...),
		Status: status,
	}
}
