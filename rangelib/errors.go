package rangelib

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrLocatorShutdown = errors.New("locator instance was shutdown")
	ErrContextIsClosed = errors.New("context is closed")

	// ErrSource matches every SourceError with errors.Is.
	ErrSource = errors.New("dataset is unreadable")

	// ErrData matches every DataError with errors.Is.
	ErrData = errors.New("dataset is malformed")

	// ErrParse matches every ParseError with errors.Is.
	ErrParse = errors.New("incorrect ipv4 address")

	errNotIPv4 = errors.New("not an ipv4 address")
)

// SourceError is returned if a dataset cannot be opened or read.
type SourceError struct {
	Source string
	Err    error
}

func (s *SourceError) Error() string {
	return fmt.Sprintf("cannot read dataset %s: %v", s.Source, s.Err)
}

func (s *SourceError) Unwrap() error {
	return s.Err
}

func (s *SourceError) Is(target error) bool {
	return target == ErrSource
}

// DataError is returned if a dataset row cannot be converted into a
// range or if ranges violate ordering. Line is 0 when a row position is
// unknown.
type DataError struct {
	Line    int
	Message string
	Err     error
}

func (d *DataError) Error() string {
	msg := d.Message

	if d.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", d.Line, msg)
	}

	if d.Err != nil {
		msg += ": " + d.Err.Error()
	}

	return msg
}

func (d *DataError) Unwrap() error {
	return d.Err
}

func (d *DataError) Is(target error) bool {
	return target == ErrData
}

// ParseError is returned if a string is not a dotted-quad IPv4 address.
type ParseError struct {
	Input string
	Err   error
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("incorrect ipv4 address %q: %v", p.Input, p.Err)
}

func (p *ParseError) Unwrap() error {
	return p.Err
}

func (p *ParseError) Is(target error) bool {
	return target == ErrParse
}

type jsonHTTPError struct {
	Error struct {
		Message string `json:"message"`
		Context string `json:"context"`
	} `json:"error"`
}

type httpError struct {
	message    string
	err        error
	statusCode int
}

func (h *httpError) Message() string {
	if h == nil {
		return ""
	}

	return h.message
}

func (h *httpError) Err() string {
	if err := errors.Unwrap(h); err != nil {
		return err.Error()
	}

	return ""
}

func (h *httpError) StatusCode() int {
	if h != nil && h.statusCode != 0 {
		return h.statusCode
	}

	return http.StatusInternalServerError
}

func (h *httpError) Unwrap() error {
	if h == nil {
		return nil
	}

	return h.err
}

func (h *httpError) Error() string {
	switch {
	case h == nil:
		return ""
	case h.err != nil && h.message != "":
		return h.message + ": " + h.err.Error()
	case h.err != nil:
		return h.err.Error()
	}

	return h.message
}

func (h *httpError) MarshalJSON() ([]byte, error) {
	value := jsonHTTPError{}
	value.Error.Message = h.Message()
	value.Error.Context = h.Err()

	return json.Marshal(&value)
}
