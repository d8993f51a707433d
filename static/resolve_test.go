// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package static

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRoot(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		err := os.MkdirAll(filepath.Dir(p), 0o755)
		require.Nil(t, err)
		err = os.WriteFile(p, []byte(content), 0o644)
		require.Nil(t, err)
	}
	return root
}

func TestResolver_Resolve(t *testing.T) {
	root := writeRoot(t, map[string]string{
		"index.html":     "<h1>hi</h1>",
		"404.html":       "not found",
		"app.js":         "console.log(1)",
		"css/site.css":   "body{}",
		"docs/empty.txt": "",
	})
	r := NewResolver(root)

	testCases := []struct {
		Name  string
		Path  string
		Found bool
		Body  string
	}{
		{Name: "will map / to index.html", Path: "/", Found: true, Body: "<h1>hi</h1>"},
		{Name: "will open a file directly below the root", Path: "/app.js", Found: true, Body: "console.log(1)"},
		{Name: "will open a file in a sub directory", Path: "/css/site.css", Found: true, Body: "body{}"},
		{Name: "will open an empty file", Path: "/docs/empty.txt", Found: true, Body: ""},
		{Name: "will fall back to 404.html if the file does not exist", Path: "/missing.txt", Found: false, Body: "not found"},
		{Name: "will fall back to 404.html if the target is a directory", Path: "/css", Found: false, Body: "not found"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.Name, func(t *testing.T) {
			resolved, err := r.Resolve(testCase.Path)
			require.Nil(t, err)
			defer resolved.File.Close()

			assert.Equal(t, testCase.Found, resolved.Found)

			b, err := io.ReadAll(resolved.File)
			require.Nil(t, err)
			assert.Equal(t, testCase.Body, string(b))
		})
	}

	t.Run("will return a MissingFallbackError", func(t *testing.T) {
		t.Run("if neither the file nor 404.html exist", func(t *testing.T) {
			root := writeRoot(t, map[string]string{"index.html": "hi"})
			r := NewResolver(root)

			_, err := r.Resolve("/missing.txt")

			var merr MissingFallbackError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, root+"/404.html", merr.Path)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	})
}

func TestValidateRoot(t *testing.T) {
	t.Run("will return nil", func(t *testing.T) {
		t.Run("if the root is a directory with a 404.html", func(t *testing.T) {
			root := writeRoot(t, map[string]string{"404.html": "not found"})

			err := ValidateRoot(root)
			assert.Nil(t, err)
		})
	})

	t.Run("will return an InvalidRootError", func(t *testing.T) {
		t.Run("if the root does not exist", func(t *testing.T) {
			root := filepath.Join(t.TempDir(), "missing")

			err := ValidateRoot(root)

			var ierr InvalidRootError
			require.ErrorAs(t, err, &ierr)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})

		t.Run("if the root is a file", func(t *testing.T) {
			root := writeRoot(t, map[string]string{"404.html": "not found"})

			err := ValidateRoot(filepath.Join(root, "404.html"))

			var nerr NotADirectoryError
			require.ErrorAs(t, err, &nerr)
		})

		t.Run("if the root has no 404.html", func(t *testing.T) {
			root := writeRoot(t, map[string]string{"index.html": "hi"})

			err := ValidateRoot(root)

			var ierr InvalidRootError
			require.ErrorAs(t, err, &ierr)
			assert.ErrorIs(t, err, os.ErrNotExist)
		})
	})
}
