// Package shutdown provides graceful shutdown for BotCore.
//
// This package handles process termination signals:
//
//   - Signal handling (SIGINT, SIGTERM)
//   - Timeout-based forced shutdown
//   - Named cleanup hook registration
//
// Usage:
//
//	h := shutdown.NewHandler(30*time.Second, log)
//	h.OnShutdown("router", router.CloseHook)
//	err := h.Wait()
package shutdown
