// Package httpkit provides small HTTP handler plumbing shared by the web layer.
package httpkit

import (
	"context"
	"encoding/json"
	"net/http"
)

// HTTPError is an error that knows its HTTP status code and original cause
type HTTPError interface {
	HTTPCode() int
	Cause() error
	error
}

const (
	contentTypeHeader  = "Content-Type"
	contentTypeOptions = "X-Content-Type-Options"
)

var (
	jsonContentType           = []string{"application/json; charset=utf-8"}
	nosniffContentTypeOptions = []string{"nosniff"}
)

func setHeaderIfAbsent(w http.ResponseWriter, key string, value []string) {
	header := w.Header()
	if existing := header[key]; len(existing) == 0 {
		header[key] = value
	}
}

// Context helpers for request-scoped error tracking

type ctxKeyError struct{}

type errorHolder struct {
	err error
}

// WithErrorTracking returns a context able to carry a request error,
// or the same context if it already carries one.
func WithErrorTracking(ctx context.Context) context.Context {
	if _, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		return ctx
	}
	return context.WithValue(ctx, ctxKeyError{}, &errorHolder{})
}

// SetError records err on the context for the logging middleware
func SetError(ctx context.Context, err error) {
	if holder, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		holder.err = err
	}
}

// Error returns the error recorded on the context, if any
func Error(ctx context.Context) error {
	if holder, ok := ctx.Value(ctxKeyError{}).(*errorHolder); ok {
		return holder.err
	}
	return nil
}

// HandlerFunc lets handlers return the response writer as a value
type HandlerFunc func(http.ResponseWriter, *http.Request) http.HandlerFunc

func (h HandlerFunc) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r = r.WithContext(WithErrorTracking(r.Context()))

	if respond := h(w, r); respond != nil {
		respond(w, r)
	}
}

// JSON creates a handler that writes data as a JSON response
func JSON(data any) http.HandlerFunc {
	return JSONWithStatus(http.StatusOK, data)
}

// JSONWithStatus creates a handler that writes data as JSON with the given status
func JSONWithStatus(status int, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		setHeaderIfAbsent(w, contentTypeHeader, jsonContentType)
		setHeaderIfAbsent(w, contentTypeOptions, nosniffContentTypeOptions)
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JsonError creates a handler that records the error in context and writes it out
func JsonError(err HTTPError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		SetError(r.Context(), err)

		setHeaderIfAbsent(w, contentTypeHeader, jsonContentType)
		setHeaderIfAbsent(w, contentTypeOptions, nosniffContentTypeOptions)

		w.WriteHeader(err.HTTPCode())
		_ = json.NewEncoder(w).Encode(err)
	}
}
