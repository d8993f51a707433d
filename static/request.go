// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// MaxRequestLineSize is the number of bytes read from a connection at most.
const MaxRequestLineSize = 512

// ErrMalformedRequest is matched by every [MalformedRequestError].
var ErrMalformedRequest = errors.New("static: malformed request")

// MalformedRequestError is returned when a request line does not contain
// a method, a path and an HTTP version.
type MalformedRequestError struct {
	Line string
}

// Error implements the [builtin.error] interface.
func (e MalformedRequestError) Error() string {
	return fmt.Sprintf("static: malformed request line: %q", e.Line)
}

// Is reports whether target is [ErrMalformedRequest].
func (e MalformedRequestError) Is(target error) bool {
	return target == ErrMalformedRequest
}

// ReadError wraps a failure to read the request line from a connection.
type ReadError struct {
	Cause error
}

// Error implements the [builtin.error] interface.
func (e ReadError) Error() string {
	return fmt.Sprintf("static: failed to read request: %s", e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e ReadError) Unwrap() error {
	return e.Cause
}

// Request is the parsed request line of a connection.
type Request struct {
	Method      string
	Path        string
	HTTPVersion string
	ReceivedAt  time.Time
}

// ReadRequest reads up to [MaxRequestLineSize] bytes from r, stopping after
// the first newline, and parses them with [ParseRequest]. Nothing past the
// first line is ever consumed by the parser.
func ReadRequest(r io.Reader) (Request, error) {
	br := bufio.NewReaderSize(io.LimitReader(r, MaxRequestLineSize), MaxRequestLineSize)
	line, err := br.ReadSlice('\n')
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return Request{}, ReadError{Cause: err}
	}
	return ParseRequest(string(line))
}

// ParseRequest splits line on spaces. The first three tokens are the
// method, path and HTTP version. Any further tokens are ignored.
func ParseRequest(line string) (Request, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) < 3 {
		return Request{}, MalformedRequestError{Line: strings.TrimSpace(line)}
	}

	req := Request{
		Method:      strings.TrimSpace(tokens[0]),
		Path:        strings.TrimSpace(tokens[1]),
		HTTPVersion: strings.TrimSpace(tokens[2]),
		ReceivedAt:  time.Now(),
	}
	return req, nil
}
