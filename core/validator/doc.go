// Package validator provides the per-route input validation layer: plain
// validator functions for path params, query, and request body, plus the
// opt-in coercion pass that converts string captures to primitives before
// validation runs.
package validator
