// Package folio is the admin backend of a personal portfolio site: a small
// record engine that stores typed entities (projects, skills, experience,
// messages and so on) and single-row settings behind one JSON action API.
//
// # Quick Start
//
// Parse the configuration from the environment, build the App and run it:
//
//	var cfg folio.Config
//	if err := env.Parse(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
//	app, err := folio.New(ctx, cfg, folio.WithLogger(log))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Actions
//
// Every request is an envelope {action, auth, id, data}. Public actions are
// getData, LOGIN and sub_msg. Everything else needs the token returned by
// LOGIN. Mutations run one at a time; a caller that cannot get its turn
// within GATE_MAX_WAIT gets "Server busy, please retry".
//
// Entity actions are derived from the schema catalog: an entity named
// Project gets addProject, updateProject and deleteProject, and a singleton
// named Hero gets updateHero. See [schema.Catalog] for the file format.
//
// # Storage
//
// Records live in tables with a header row of field names. A write that
// carries a field the table has never seen appends it to the header, so
// tables grow with the data and never lose columns. STORE_DRIVER selects
// memory, sqlite (the default) or postgres.
//
// # Endpoints
//
//	GET|POST /         action API
//	GET|POST /api      action API
//	GET /health/live   liveness
//	GET /health/ready  readiness: store, plus redis and S3 when configured
//	GET /metrics       Prometheus metrics
package folio
