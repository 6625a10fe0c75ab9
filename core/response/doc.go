// Package response provides the Response constructors used by handlers:
// plain text and JSON bodies, structured HTTP errors, and the two
// protocol-upgrade adapters (Server-Sent Events and WebSocket).
//
// A Response is a function that renders itself to the http.ResponseWriter;
// upgrade responses hold the connection for its whole lifetime instead of
// writing a body.
package response
