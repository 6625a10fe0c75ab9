// Package handler defines the contracts shared by the routing core: the
// request context interface, the generic handler and middleware function
// types, and the per-route metadata record.
//
// A route's behavior is a value, not a class: a HandlerFunc plus an Options
// record carrying validators, cache TTL, and protection flags. Handlers
// return a Response, which is a function that renders itself to the
// http.ResponseWriter; rendering errors are normalized by the dispatcher.
package handler
