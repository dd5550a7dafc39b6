// Package health serves liveness and readiness probes.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"store": store.Ping,
//		"redis": redis.Healthcheck(client),
//	}, health.WithLogger(log)))
//
// Readiness runs every check concurrently under one timeout. Both probes
// answer JSON and are never cached.
package health
