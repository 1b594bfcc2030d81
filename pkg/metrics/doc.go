// Package metrics owns the Prometheus collectors of the newsletter service:
// subscriber lifecycle events, outbound email sends, broadcast results and
// HTTP request metrics. All methods are safe on a nil *Metrics, which turns
// instrumentation off.
package metrics
