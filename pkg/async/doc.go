// Package async provides a small Future type and a tracked task Group.
//
// Async starts a function and returns a Future; AwaitAll collects the
// outcomes of many futures without stopping at the first error. Group runs
// fire-and-forget work that must finish before shutdown, such as a
// newsletter broadcast started by an HTTP request:
//
//	g := async.NewGroup()
//	_ = g.Go(func(ctx context.Context) { send(ctx) })
//	...
//	_ = g.Shutdown(shutdownCtx)
package async
