// Package httpapi serves the admin console over HTTP: session endpoints,
// permission catalog and role management, access checks, and metrics.
//
// Handlers are thin. They decode and validate a request body, call one
// [goAccess.Console] operation, and map its error to a status code.
package httpapi
