package handler

import (
	"context"
	"net/http"
)

// Context defines the contract for request contexts in the framework.
// Use router.Ctx for the default implementation.
type Context interface {
	context.Context
	Request() *http.Request
	ResponseWriter() http.ResponseWriter

	// Param returns the raw string captured for a path parameter.
	// Catch-all captures are the remaining segments joined with "/".
	Param(key string) string

	// SetHeader stages a response header on the response being built.
	SetHeader(key, value string)

	// SetCookie stages a cookie on the response being built.
	SetCookie(cookie *http.Cookie)

	// SetValue stores a request-scoped value, visible via Value.
	SetValue(key, val any)
}
