// Package middlewares provides net/http middleware for the admin API server.
//
// # Request ID
//
// RequestID assigns an ID to each request, reusing one sent by an upstream
// proxy when present. The ID is stored in the request context and echoed in
// the X-Request-ID response header. RequestIDExtractor adds it to every log
// entry written with that context:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor())
//
// # Recover
//
// Recover turns a panic in a handler into an error response and a log entry
// with the stack trace. WithPanicHandler replaces the default 500 response.
//
// # CORS
//
// CORS answers preflight requests and adds CORS headers to cross-origin
// responses. All origins are allowed by default:
//
//	r.Use(middlewares.CORS(middlewares.WithAllowOrigins("https://me.example.com")))
//
// # Body limit
//
// BodyLimit caps how many bytes a handler may read from the request body.
//
// # Order
//
//	r.Use(
//	    middlewares.CORS(),          // preflight before anything else
//	    middlewares.RequestID(),     // ID for all later logging
//	    middlewares.Recover(log),    // catch panics from handlers
//	    middlewares.BodyLimit(limit),
//	)
package middlewares
