// Package kit holds the transport-agnostic plumbing shared by the HTTP
// and MCP surfaces: the Endpoint abstraction, middleware chaining, and
// request-scoped context values.
package kit

import "context"

// Endpoint is one transport-agnostic operation: decode happens in the
// transport layer, business logic behind this signature.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is outermost: the
// request passes a → b → c → endpoint and the response unwinds in
// reverse.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
