/*
Package observability turns interpreter lifecycle hooks into logs and
Prometheus metrics.

Hooks are plain domain.LifecycleHooks values; Combine fans one event out to
several of them so metrics and debug logging can be enabled together.
*/
package observability
