/*
Package observability exposes the assistant's Prometheus metrics.

Every recording method is safe on a nil *Metrics, so components can take an
optional collector without guarding each call.
*/
package observability
