// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"strconv"
	"strings"
)

// Status is the status of a response.
type Status int

const (
	StatusOK                  Status = 200
	StatusBadRequest          Status = 400
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// Text returns the reason phrase written on the status line.
func (s Status) Text() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusBadRequest:
		return "BAD REQUEST"
	case StatusNotFound:
		return "NOT FOUND"
	case StatusInternalServerError:
		return "INTERNAL SERVER ERROR"
	default:
		return "UNKNOWN"
	}
}

// Line returns the full status line, including the trailing CRLF.
func (s Status) Line() string {
	return "HTTP/1.1 " + strconv.Itoa(s.Code()) + " " + s.Text() + "\r\n"
}

// ContentSubtype returns the text/* subtype for a response to path.
// Not found responses and "/" are always html. Otherwise the extension
// of path is used as is, except for js which becomes javascript.
func ContentSubtype(path string, found bool) string {
	if !found || path == "/" {
		return "html"
	}

	ext := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = path[i+1:]
	}
	if ext == "js" {
		return "javascript"
	}
	return ext
}

// BuildResponse concatenates the status line, the Content-Type header
// and body.
func BuildResponse(status Status, subtype string, body []byte) []byte {
	line := status.Line()
	header := "Content-Type: text/" + subtype + "\r\n\r\n"

	b := make([]byte, 0, len(line)+len(header)+len(body))
	b = append(b, line...)
	b = append(b, header...)
	b = append(b, body...)
	return b
}
