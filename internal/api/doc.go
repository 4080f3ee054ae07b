// Package api contains the HTTP handlers for the flight search service
// and the mapping from internal errors to HTTP responses. The layer is
// deliberately thin: request/response shaping only, all behavior lives
// in the service and task packages.
package api
