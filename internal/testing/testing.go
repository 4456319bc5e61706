// package testing contains shared testing utilities
package testing

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"testing"

	"github.com/avetrov/chorus/internal/shared"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// CountingRoundTripper records how many requests pass through it.
type CountingRoundTripper struct {
	Calls int
	inner http.RoundTripper
}

func NewCountingRoundTripper(inner http.RoundTripper) *CountingRoundTripper {
	return &CountingRoundTripper{inner: inner}
}

func (c *CountingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	c.Calls++
	if c.inner == nil {
		return nil, errors.New("no transport configured")
	}
	return c.inner.RoundTrip(req)
}

// JSONResponse builds a 200 response carrying the given JSON body.
func JSONResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// MustOpenDB opens and migrates an in-memory database for tests.
//
// The pool is restricted to a single connection so every statement sees the
// same in-memory database.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
