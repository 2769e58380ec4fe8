// Package middleware adapts the goAccess console to net/http.
//
// [Guard] checks each request path against the console route table.
// [RequireAny] and [RequireAll] check an inline permission requirement.
// Allowed requests carry their [guard.Result] in the context; anonymous or
// expired sessions are redirected to the login path with a redirect back to
// the original URI, and sessions lacking permissions get 403.
//
// [RequestContext] records client IP and request ID for audit events.
package middleware
