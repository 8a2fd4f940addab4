/*
Package observability turns orchestrator lifecycle events into Prometheus
metrics.

Metrics are attached through domain.LifecycleHooks, so transition code never
touches a collector:

	m := observability.NewMetrics(nil)
	o := runtime.New(provider, catalog, runtime.WithLifecycleHooks(m.Hooks()))
	http.Handle("/metrics", m.Handler())
*/
package observability
