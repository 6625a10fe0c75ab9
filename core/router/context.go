package router

import (
	"net/http"
	"time"
)

// Ctx is the default request context: per-request mutable state created at
// dispatch start and discarded after the response is sent. It is owned
// exclusively by the in-flight request and never shared.
type Ctx struct {
	w      http.ResponseWriter
	r      *http.Request
	params map[string]string
	typed  map[string]any
	query  any
	body   any
	values map[any]any
}

func newCtx(w http.ResponseWriter, r *http.Request, params map[string]string) *Ctx {
	return &Ctx{w: w, r: r, params: params}
}

// Deadline delegates to the request's context.
func (c *Ctx) Deadline() (deadline time.Time, ok bool) {
	return c.r.Context().Deadline()
}

// Done delegates to the request's context.
func (c *Ctx) Done() <-chan struct{} {
	return c.r.Context().Done()
}

// Err delegates to the request's context.
func (c *Ctx) Err() error {
	return c.r.Context().Err()
}

// Value checks request-scoped values first, then the request's context.
func (c *Ctx) Value(key any) any {
	if c.values != nil {
		if v, ok := c.values[key]; ok {
			return v
		}
	}
	return c.r.Context().Value(key)
}

// Request returns the raw *http.Request.
func (c *Ctx) Request() *http.Request {
	return c.r
}

// ResponseWriter returns the response writer for this request.
func (c *Ctx) ResponseWriter() http.ResponseWriter {
	return c.w
}

// Param returns the raw string captured for a path parameter.
func (c *Ctx) Param(key string) string {
	if c.params == nil {
		return ""
	}
	return c.params[key]
}

// ParamValue returns the validated, possibly coerced value for a path
// parameter. Before validation it falls back to the raw capture.
func (c *Ctx) ParamValue(key string) any {
	if c.typed != nil {
		if v, ok := c.typed[key]; ok {
			return v
		}
	}
	if c.params == nil {
		return nil
	}
	if v, ok := c.params[key]; ok {
		return v
	}
	return nil
}

// Params returns the validated parameter map. Before validation it mirrors
// the raw captures.
func (c *Ctx) Params() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	for k, v := range c.typed {
		out[k] = v
	}
	return out
}

// Query returns the normalized query value produced by the route's query
// validator, or nil when the route declares none.
func (c *Ctx) Query() any {
	return c.query
}

// Body returns the normalized body value produced by the route's body
// validator, or nil when the route declares none.
func (c *Ctx) Body() any {
	return c.body
}

// SetHeader stages a response header.
func (c *Ctx) SetHeader(key, value string) {
	c.w.Header().Set(key, value)
}

// SetCookie stages a cookie on the response.
func (c *Ctx) SetCookie(cookie *http.Cookie) {
	http.SetCookie(c.w, cookie)
}

// SetValue stores a request-scoped value, visible via Value.
func (c *Ctx) SetValue(key, val any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = val
}

// setValidated stores the normalized outputs of the validation layer.
func (c *Ctx) setValidated(params map[string]any, query, body any) {
	c.typed = params
	c.query = query
	c.body = body
}
