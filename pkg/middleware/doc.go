// Package middleware provides the observability layer for the opinions
// server and controllers.
//
// This package includes:
//   - Prometheus metrics for action runners and HTTP requests
//   - OpenTelemetry tracing for HTTP requests and remote store calls
//   - Request logging
//
// # Prometheus Metrics
//
// Metrics implements action.Observer, so it can be passed to every runner:
//
//	m := middleware.NewMetrics(middleware.WithNamespace("opinions"))
//	board := opinion.NewBoard(client, client, opinion.WithObserver(m))
//
// Collected metrics:
//   - opinions_actions_started_total: Runner invocations by action
//   - opinions_actions_settled_total: Settled invocations by action and status
//   - opinions_action_duration_seconds: Time from trigger to write-back
//   - opinions_actions_dropped_total: Triggers dropped while pending
//   - opinions_validations_total: Results recorded without invocation
//   - opinions_http_requests_total: Requests by route, method and code
//   - opinions_http_request_duration_seconds: Request duration histogram
//   - opinions_watchers: Connected websocket watchers
//   - opinions_websocket_errors_total: Websocket errors by type
//
// Wrap a router with m.HTTP and expose promhttp.HandlerFor(registry, ...).
//
// # OpenTelemetry
//
// OpenTelemetry wraps an http.Handler with one server span per request.
// TraceStore wraps an opinion.Store so every remote call gets a client
// span:
//
//	store := middleware.TraceStore(client, middleware.WithTracerName("opinions-cli"))
//
// The tracer comes from the global OpenTelemetry provider unless
// WithTracerProvider is given.
package middleware
