// Package router is the request-handling core: a convention-driven pattern
// compiler, a precedence-scored route table, and a dispatcher that runs the
// matched handler through a middleware chain with validation and response
// caching.
//
// Routes are declared by their definition-file path. The final component
// carries the HTTP method or protocol tag, intermediate components are
// literal names or bracket parameters:
//
//	users/index.get          GET  /users
//	users/[id].get           GET  /users/:id
//	users/[id:number].get    GET  /users/:id   (digits only)
//	docs/[...slug].get       GET  /docs/*      (one or more segments)
//	docs/[[...slug]].get     GET  /docs/*      (zero or more segments)
//	chat/[room].ws           WebSocket upgrade
//	feed/index.sse           Server-Sent Events stream
//
// When several patterns accept a path, the lowest precedence score wins:
// per position, static beats typed-dynamic beats dynamic beats catch-all,
// with earlier positions weighted more heavily. Matching is a pure function
// of the route table; the table is never mutated after startup.
package router
