// Package server provides the HTTP API: authentication, bot launch,
// meeting retrieval, the driver WebSocket endpoint, and monitoring.
package server
