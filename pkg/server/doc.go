// Package server provides the HTTP server for the registrar API.
//
// This package holds the process-wide state shared by every request: the
// database handle, the identity cache, the token service and the stores.
// It uses gorilla/mux for routing; gorilla/handlers supplies the access log,
// CORS and gzip layers around the router.
//
// # Server Setup
//
//	srv := server.NewServer(cfg, db, cache, tokens, logger, "0.0.0.0", "8080")
//	if err := srv.ReloadCache(ctx, server.TriggerStartup, ""); err != nil {
//	    return err
//	}
//	endpoints.RegisterAll(srv)
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Identity cache
//
// The cache is filled once at startup and then kept in step by the entity
// engine. Writes made to the database behind the server's back are not seen
// until the cache is reloaded through POST /admin/cache/reload or a write to
// the reload trigger file (WatchReloadTrigger).
package server
