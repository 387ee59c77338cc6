package shttp

// Handler processes one request/response exchange through a Ctx. It is the
// same signature middleware uses, so a terminal middleware and a route
// handler are interchangeable anywhere a Handler is expected.
type Handler func(c *Ctx)

// Middleware runs before a Handler (or the next Middleware) and must call
// c.Next() to continue the chain. Omitting that call short-circuits the
// request, which is how middleware like rate limiting rejects a request
// without ever reaching the route's Handler.
type Middleware func(c *Ctx)

// MiddlewareFunc is Middleware by another name, kept as the public alias
// every middleware-accepting method (Server.Use, Group.Use, Run) is
// declared against.
type MiddlewareFunc = Middleware

// Chain composes mw and a terminal handler into a single Handler driven by
// the same middlewareStack/middlewareIndex cursor Ctx.Next walks, grounded
// on the per-route wiring Group.Handle installs. It lets a route carry its
// own middleware chain without disturbing the group's own stack.
func Chain(mw []MiddlewareFunc, h Handler) Handler {
	if len(mw) == 0 {
		return h
	}
	stack := append([]MiddlewareFunc(nil), mw...)
	return func(c *Ctx) {
		c.middlewareStack = stack
		c.middlewareIndex = -1
		c.handler = h
		c.Next()
	}
}
