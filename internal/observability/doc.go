// Package observability provides structured logging and Prometheus metrics
// for the GradConnect API.
//
// This package implements:
//   - zap logger construction from configuration
//   - Request ID propagation into log fields
//   - Prometheus collectors for authentication, token and federation events
//   - HTTP request instrumentation
package observability
