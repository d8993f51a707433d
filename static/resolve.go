// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"errors"
	"fmt"
	"os"
)

const (
	indexFile    = "/index.html"
	notFoundFile = "/404.html"
)

// MissingFallbackError is returned by [Resolver.Resolve] when neither the
// requested file nor the not found page could be opened.
type MissingFallbackError struct {
	Path  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e MissingFallbackError) Error() string {
	return fmt.Sprintf("static: failed to open not found page: %s: %s", e.Path, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e MissingFallbackError) Unwrap() error {
	return e.Cause
}

// NotADirectoryError is returned by [ValidateRoot] for a root which exists
// but is not a directory.
type NotADirectoryError struct {
	Path string
}

// Error implements the [builtin.error] interface.
func (e NotADirectoryError) Error() string {
	return fmt.Sprintf("static: document root is not a directory: %s", e.Path)
}

// InvalidRootError wraps any failure found by [ValidateRoot].
type InvalidRootError struct {
	Root  string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e InvalidRootError) Error() string {
	return fmt.Sprintf("static: invalid document root: %s: %s", e.Root, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e InvalidRootError) Unwrap() error {
	return e.Cause
}

// ValidateRoot checks that root is a directory containing a readable
// 404.html page.
func ValidateRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return InvalidRootError{Root: root, Cause: err}
	}
	if !info.IsDir() {
		return InvalidRootError{Root: root, Cause: NotADirectoryError{Path: root}}
	}

	f, err := openRegular(root + notFoundFile)
	if err != nil {
		return InvalidRootError{Root: root, Cause: err}
	}
	return f.Close()
}

// Resolved is an open file ready to be sent. Found is false when File is
// the not found page. The caller must close File.
type Resolved struct {
	File  *os.File
	Found bool
}

// Resolver maps request paths to files below a document root.
type Resolver struct {
	root string
}

// NewResolver returns a [Resolver] for an already resolved document root.
func NewResolver(root string) Resolver {
	return Resolver{root: root}
}

// Root returns the document root.
func (r Resolver) Root() string {
	return r.root
}

// Resolve opens the file for path. "/" maps to index.html and every other
// path is appended to the root as is.
func (r Resolver) Resolve(path string) (Resolved, error) {
	target := r.root + path
	if path == "/" {
		target = r.root + indexFile
	}

	f, err := openRegular(target)
	if err == nil {
		return Resolved{File: f, Found: true}, nil
	}

	fallback := r.root + notFoundFile
	f, err = openRegular(fallback)
	if err != nil {
		return Resolved{}, MissingFallbackError{Path: fallback, Cause: err}
	}
	return Resolved{File: f, Found: false}, nil
}

var errNotRegular = errors.New("static: not a regular file")

func openRegular(name string) (*os.File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	if !info.Mode().IsRegular() {
		return nil, errors.Join(errNotRegular, f.Close())
	}
	return f, nil
}
