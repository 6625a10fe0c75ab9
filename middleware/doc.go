// Package middleware provides cross-cutting request middleware for the
// fsroute dispatcher: request ID generation and structured request logging.
//
// All middleware follow the same pattern: a generic constructor for the
// default configuration, a WithConfig variant for customization, and a
// context helper for retrieving stored values.
//
//	mux := router.New[*router.Ctx]()
//	mux.Use(middleware.RequestID[*router.Ctx]())
//	mux.Use(middleware.Logging[*router.Ctx]())
package middleware
