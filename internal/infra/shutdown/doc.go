// Package shutdown provides graceful shutdown handling.
//
// A Handler waits for SIGINT or SIGTERM (or for a context to end) and then
// runs the registered teardown hooks in reverse order under a timeout.
//
// Usage:
//
//	h := shutdown.NewHandler(5 * time.Second)
//	h.OnShutdown(func(ctx context.Context) error { return store.Close() })
//	err := h.Wait(ctx)
package shutdown
