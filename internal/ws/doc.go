// Package ws implements the WebSocket hub that pushes the dashboard overview
// to connected browsers — on a fixed interval, immediately on connect, and
// immediately after a new upload.
package ws
