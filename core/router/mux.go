package router

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fsroute/fsroute/core/cache"
	"github.com/fsroute/fsroute/core/handler"
	"github.com/fsroute/fsroute/core/validator"
)

// Mux is the dispatcher: it matches requests against the route table and
// executes the matched handler through the middleware chain, with input
// validation and response caching at the terminal step.
type Mux[C handler.Context] struct {
	table        *Table[C]
	middlewares  []handler.Middleware[C]
	errorHandler handler.ErrorHandler[C]
	newContext   func(http.ResponseWriter, *http.Request, map[string]string) C
	cache        cache.Store
	logger       *slog.Logger
}

// New creates a dispatcher with the given options.
func New[C handler.Context](opts ...Option[C]) *Mux[C] {
	m := &Mux[C]{
		table:        NewTable[C](),
		errorHandler: defaultErrorHandler[C],
		logger:       slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.newContext == nil {
		m.newContext = func(w http.ResponseWriter, r *http.Request, params map[string]string) C {
			// Only the default *Ctx type works without a factory.
			var zero C
			if _, ok := any(zero).(*Ctx); ok {
				return any(newCtx(w, r, params)).(C)
			}
			panic(ErrNoContextFactory)
		}
	}

	return m
}

// Use appends global middleware, applied to every request in order.
func (m *Mux[C]) Use(middlewares ...handler.Middleware[C]) {
	m.middlewares = append(m.middlewares, middlewares...)
}

// Handle registers a route-definition path with default options.
func (m *Mux[C]) Handle(file string, h handler.HandlerFunc[C]) error {
	return m.HandleWith(file, h, handler.Options{})
}

// HandleWith registers a route-definition path with declared metadata.
// A compile failure is fatal to startup; it returns *InvalidPatternError.
func (m *Mux[C]) HandleWith(file string, h handler.HandlerFunc[C], opts handler.Options) error {
	_, err := m.table.Add(file, h, opts)
	return err
}

// MustHandle is Handle that panics on an invalid pattern, for use during
// startup where a broken route table must prevent serving.
func (m *Mux[C]) MustHandle(file string, h handler.HandlerFunc[C]) {
	if err := m.Handle(file, h); err != nil {
		panic(err)
	}
}

// MustHandleWith is HandleWith that panics on an invalid pattern.
func (m *Mux[C]) MustHandleWith(file string, h handler.HandlerFunc[C], opts handler.Options) {
	if err := m.HandleWith(file, h, opts); err != nil {
		panic(err)
	}
}

// Routes returns the compiled route list for read-only consumers.
func (m *Mux[C]) Routes() []Route {
	return m.table.Routes()
}

// ServeHTTP implements http.Handler.
func (m *Mux[C]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ww := newResponseWriter(w)

	path := r.URL.Path
	if path == "" {
		path = "/"
	}

	match, err := m.table.Lookup(r.Method, path)
	if err != nil {
		ctx := m.newContext(ww, r, nil)
		var mna *MethodNotAllowedError
		if errors.As(err, &mna) && !ww.Written() {
			ww.Header().Set("Allow", strings.Join(mna.Allowed, ", "))
		}
		m.fail(ctx, err)
		return
	}

	ctx := m.newContext(ww, r, match.Params)

	// Recover from panics so no request failure crashes the worker or
	// affects other in-flight requests.
	defer func() {
		if p := recover(); p != nil {
			panicErr := &panicError{value: p, stack: debug.Stack()}
			if ww.Written() {
				m.logger.Error("panic after response written",
					"value", panicErr.value,
					"stack", string(panicErr.stack),
					"method", r.Method,
					"path", r.URL.Path,
				)
			} else {
				m.fail(ctx, panicErr)
			}
		}
	}()

	h := m.endpoint(match)
	if len(m.middlewares) > 0 {
		h = chain(m.middlewares, h)
	}

	resp := h(ctx)
	if resp == nil {
		m.fail(ctx, ErrNilResponse)
		return
	}

	if err := resp(ww, r); err != nil {
		m.fail(ctx, err)
	}
}

// endpoint is the terminal step of the middleware chain: validation, cache
// lookup, handler invocation, cache write. Upgrade routes bypass the cache
// entirely.
func (m *Mux[C]) endpoint(match *Match[C]) handler.HandlerFunc[C] {
	return func(ctx C) handler.Response {
		if err := m.runValidators(ctx, match); err != nil {
			return func(w http.ResponseWriter, r *http.Request) error {
				return err
			}
		}

		p := match.Pattern
		if m.cache == nil || p.Upgrade() || p.Method != http.MethodGet || p.Options.CacheTTL <= 0 {
			return p.Handler(ctx)
		}

		key := cacheKeyFor(match, ctx.Request())
		if entry, ok := m.cache.Get(ctx, key); ok {
			return replayEntry(entry)
		}

		// Miss: run the handler and store on success. A concurrent
		// identical request may race us here; last write wins and the
		// handler may run twice. Accepted, see the cache package docs.
		resp := p.Handler(ctx)
		if resp == nil {
			return nil
		}
		return m.storeOnSuccess(key, p.Options.CacheTTL, resp)
	}
}

// runValidators executes the declared validators in params, query, body
// order; the first failure short-circuits the chain before the handler or
// any middleware body executes further.
func (m *Mux[C]) runValidators(ctx C, match *Match[C]) error {
	opts := match.Pattern.Options
	if opts.Params == nil && opts.Query == nil && opts.Body == nil && !opts.Coerce {
		return nil
	}

	r := ctx.Request()

	rawParams := make(map[string]any, len(match.Params))
	for k, v := range match.Params {
		rawParams[k] = v
	}
	var paramsVal any = rawParams
	if opts.Coerce {
		paramsVal = validator.Coerce(paramsVal)
	}
	if opts.Params != nil {
		normalized, err := opts.Params(paramsVal)
		if err != nil {
			return err
		}
		paramsVal = normalized
	}

	var queryVal any
	if opts.Query != nil {
		queryVal = collapseQuery(r.URL.Query())
		if opts.Coerce {
			queryVal = validator.Coerce(queryVal)
		}
		normalized, err := opts.Query(queryVal)
		if err != nil {
			return err
		}
		queryVal = normalized
	}

	var bodyVal any
	if opts.Body != nil {
		raw, err := decodeBody(r)
		if err != nil {
			return err
		}
		bodyVal, err = opts.Body(raw)
		if err != nil {
			return err
		}
	}

	if bc, ok := any(ctx).(*Ctx); ok {
		typed, _ := paramsVal.(map[string]any)
		bc.setValidated(typed, queryVal, bodyVal)
	}
	return nil
}

// collapseQuery flattens url.Values: single values become strings,
// repeated keys become string slices.
func collapseQuery(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
		} else {
			out[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// decodeBody reads the request body for the body validator. JSON payloads
// are decoded to generic values; anything else is handed over as raw bytes.
func decodeBody(r *http.Request) (any, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, validator.Fail("body", "failed to read request body")
	}
	if len(data) == 0 {
		return nil, nil
	}
	if strings.Contains(r.Header.Get("Content-Type"), "json") {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, validator.Fail("body", "invalid JSON")
		}
		return v, nil
	}
	return data, nil
}

func cacheKeyFor[C handler.Context](match *Match[C], r *http.Request) string {
	if fn := match.Pattern.Options.CacheKey; fn != nil {
		return fn(r, match.Params)
	}
	return cache.DefaultKey(r)
}

// storeOnSuccess renders through a capture writer and stores the entry
// after a successful (2xx) render.
func (m *Mux[C]) storeOnSuccess(key string, ttl time.Duration, resp handler.Response) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		cw := &captureWriter{ResponseWriter: w}
		if err := resp(cw, r); err != nil {
			return err
		}
		status := cw.status
		if status == 0 {
			status = http.StatusOK
		}
		if status >= 200 && status < 300 {
			m.cache.Put(r.Context(), key, cache.Entry{
				Status:    status,
				Header:    w.Header().Clone(),
				Body:      append([]byte(nil), cw.buf.Bytes()...),
				CreatedAt: time.Now(),
				TTL:       ttl,
				Key:       key,
			})
		}
		return nil
	}
}

// replayEntry renders a cached response verbatim: stored headers, status,
// and body, with the handler never invoked.
func replayEntry(entry cache.Entry) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		for k, vals := range entry.Header {
			w.Header().Del(k)
			for _, v := range vals {
				w.Header().Add(k, v)
			}
		}
		status := entry.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		if len(entry.Body) > 0 {
			_, err := w.Write(entry.Body)
			return err
		}
		return nil
	}
}

// fail routes an error through the escape hatch, logging, and the error
// handler. Escaped responses render verbatim and are not treated as
// failures; anything outside the expected taxonomy is forwarded to the
// logger before the generic 500 is written.
func (m *Mux[C]) fail(ctx C, err error) {
	var esc *escapedResponse
	if errors.As(err, &esc) {
		if esc.resp == nil {
			m.errorHandler(ctx, ErrNilResponse)
			return
		}
		if renderErr := esc.resp(ctx.ResponseWriter(), ctx.Request()); renderErr != nil {
			m.logger.Error("failed to render escaped response", "error", renderErr)
		}
		return
	}

	if !expectedFailure(err) {
		attrs := []any{
			"error", err,
			"method", ctx.Request().Method,
			"path", ctx.Request().URL.Path,
		}
		var pe PanicError
		if errors.As(err, &pe) {
			attrs = append(attrs, "stack", string(pe.Stack()))
		}
		m.logger.Error("unhandled failure", attrs...)
	}

	m.errorHandler(ctx, err)
}

// expectedFailure reports whether the error belongs to the recoverable
// taxonomy that needs no logging: validation failures, structured HTTP
// errors, and routing misses.
func expectedFailure(err error) bool {
	var ve validator.ValidationError
	if errors.As(err, &ve) {
		return true
	}
	var sc statusCode
	if errors.As(err, &sc) {
		return true
	}
	return errors.Is(err, ErrRouteNotFound) || errors.Is(err, ErrMethodNotAllowed)
}

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// defaultErrorHandler normalizes an error into the JSON error body with a
// status matching its kind.
func defaultErrorHandler[C handler.Context](ctx C, err error) {
	w := ctx.ResponseWriter()
	if ww, ok := w.(*responseWriter); ok && ww.Written() {
		return
	}

	kind, status, message, code := classify(err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: kind, Message: message, Code: code})
}

// classify maps an error to its kind string, status, message, and optional
// code. For validation failures the failing field travels in code.
func classify(err error) (kind string, status int, message, code string) {
	var ve validator.ValidationError
	if errors.As(err, &ve) {
		return "ValidationError", http.StatusBadRequest, ve.Message, ve.Field
	}

	switch {
	case errors.Is(err, ErrRouteNotFound):
		return "RouteNotFound", http.StatusNotFound, "route not found", ""
	case errors.Is(err, ErrMethodNotAllowed):
		return "MethodNotAllowed", http.StatusMethodNotAllowed, "method not allowed", ""
	}

	var sc statusCode
	if errors.As(err, &sc) {
		var ec errorCode
		if errors.As(err, &ec) {
			code = ec.ErrorCode()
		}
		return "HttpError", sc.StatusCode(), err.Error(), code
	}

	return "InternalError", http.StatusInternalServerError,
		http.StatusText(http.StatusInternalServerError), ""
}
