// Package http contains the HTTP transport layer: chi handlers for the
// graph model, the instrument catalog and health, plus the router that
// assembles them behind the middleware chain.
package http
