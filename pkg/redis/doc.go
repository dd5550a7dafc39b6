// Package redis opens the go-redis client shared by the session cache and the
// credential store.
//
// Open validates the URL (redis:// or rediss://), applies pool settings from
// Config and pings the server with linear backoff before returning:
//
//	client, err := redis.Open(ctx, redis.Config{URL: os.Getenv("REDIS_URL")})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Healthcheck adapts the client to a health.CheckFunc for /health/ready.
package redis
