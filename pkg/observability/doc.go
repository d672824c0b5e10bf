/*
Package observability exposes simulator activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so any Simulator can be
instrumented without changes:

	m := observability.NewMetrics(prometheus.NewRegistry())
	sim, _ := psys.New(ctx, paths, psys.WithLifecycleHooks(m.Hooks()))
	http.Handle("/metrics", m.Handler())
*/
package observability
