// Package httpserver runs the service's HTTP listener with graceful shutdown
// and provides liveness and readiness handlers.
//
// Run blocks until its context is cancelled or SIGINT/SIGTERM arrives. Then
// Shutdown stops accepting connections, waits for in-flight requests and
// calls the registered StopHooks, all bounded by the shutdown timeout:
//
//	srv := httpserver.NewFromConfig(cfg.HTTP,
//	    httpserver.WithLogger(log),
//	    httpserver.WithStopHook(group.Shutdown),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
package httpserver
