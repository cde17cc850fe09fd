// Package server exposes a store.Store over HTTP and pushes changes to
// websocket watchers.
//
// Routes:
//
//	GET  /api/opinions               list opinions
//	POST /api/opinions               create an opinion (JSON opinion.Draft)
//	POST /api/opinions/{id}/upvote   add one vote
//	POST /api/opinions/{id}/downvote remove one vote
//	POST /api/signup                 register an account (JSON signup.Input)
//	GET  /api/ws                     stream of opinion.Event
//	GET  /healthz                    liveness
//	GET  /metrics                    Prometheus metrics, when enabled
//
// Input is validated with the same rules the form controllers use; a
// violation answers 422 with every message:
//
//	{"errors": ["Title must be at least 5 characters long."]}
//
// Every other failure answers with the same shape and a single message.
//
// Usage:
//
//	srv := server.New(store.NewMemoryStore(), nil, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
