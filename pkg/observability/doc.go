/*
Package observability turns espalier lifecycle events into Prometheus metrics.

The Recorder implements the engine's lifecycle hooks: wire Recorder.Hooks()
into espalier.WithLifecycleHooks and expose Recorder.Handler() on an HTTP
server to get dispatch counters, per-kind transition counters, executor
failure counters, contract load durations, and a transitions-per-node gauge.
*/
package observability
