// Package app assembles the server: configuration, logging, metrics, the
// graph service with its refresh loop, the websocket hub and the HTTP
// server, plus graceful shutdown on SIGINT/SIGTERM.
package app
