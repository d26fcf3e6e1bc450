package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/concurrency"
	"github.com/seralo/botcore/internal/core/service"
	"github.com/seralo/botcore/internal/router"
)

// healthzHandler reports shard health. Any unreachable shard turns
// the response into 503 with the down shard names.
func healthzHandler(rt *router.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		down := rt.Ping(r.Context())

		status := http.StatusOK
		if len(down) > 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]any{
			"status":      statusText(len(down) == 0),
			"shards_down": down,
		})
	})
}

// statsHandler exposes a point-in-time snapshot of the controller,
// router and caches for operators.
func statsHandler(ctrl *concurrency.Controller, rt *router.Router, caches *cache.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"concurrency": ctrl.AllMetrics(),
			"shards":      rt.ShardStats(r.Context()),
			"caches":      caches.Snapshots(),
		})
	})
}

// sessionsHandler lists a user's active sessions:
// GET /sessions?user_id=42
func sessionsHandler(sessions *service.SessionManager) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
		if err != nil || userID <= 0 {
			http.Error(w, "user_id must be a positive integer", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"user_id":  userID,
			"sessions": sessions.UserSessions(r.Context(), userID),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func statusText(ok bool) string {
	if ok {
		return "ok"
	}
	return "degraded"
}
