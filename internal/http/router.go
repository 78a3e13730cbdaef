package http

import (
	"net/http"

	"github.com/learnloop/video-backend/internal/metrics"
	"github.com/learnloop/video-backend/internal/rbac"
	"github.com/learnloop/video-backend/internal/token"
	"github.com/swaggo/swag"
)

// SetupRouter wires routes and middleware.
func SetupRouter(server *Server, tokens *token.Manager, roles *rbac.RBAC, schedulerToken string) http.Handler {
	mux := http.NewServeMux()

	withAuth := func(next http.Handler) http.Handler {
		return AuthMiddleware(tokens, next)
	}

	base := []func(http.Handler) http.Handler{
		CORSMiddleware, RequestIDMiddleware, LoggingMiddleware,
	}
	authed := append(append([]func(http.Handler) http.Handler{}, base...), withAuth)
	authedJSON := append(append([]func(http.Handler) http.Handler{}, base...), ContentTypeMiddleware, withAuth)
	admin := func(permission rbac.Permission) []func(http.Handler) http.Handler {
		return append(append([]func(http.Handler) http.Handler{}, authedJSON...), RequirePermission(roles, permission))
	}
	adminGet := func(permission rbac.Permission) []func(http.Handler) http.Handler {
		return append(append([]func(http.Handler) http.Handler{}, authed...), RequirePermission(roles, permission))
	}
	scheduled := append(append([]func(http.Handler) http.Handler{}, base...), SchedulerMiddleware(schedulerToken))

	// Ops endpoints (no auth)
	mux.Handle("GET /health", chainMiddleware(server.Health))
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			http.Error(w, "OpenAPI documentation not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		_, _ = w.Write([]byte(doc))
	})

	// Access
	mux.Handle("POST /api/v1/videos/{video_id}/grant", chainMiddleware(server.IssueGrant, authed...))
	mux.Handle("POST /api/v1/grants/validate", chainMiddleware(server.ValidateGrant, append(append([]func(http.Handler) http.Handler{}, base...), ContentTypeMiddleware)...))

	// Catalog
	mux.Handle("GET /api/v1/videos", chainMiddleware(server.ListVideos, authed...))
	mux.Handle("GET /api/v1/videos/{video_id}", chainMiddleware(server.GetVideo, authed...))
	mux.Handle("GET /api/v1/videos/{video_id}/status", chainMiddleware(server.CheckStatus, authed...))

	// Sessions and progress
	mux.Handle("POST /api/v1/sessions", chainMiddleware(server.StartSession, authedJSON...))
	mux.Handle("POST /api/v1/sessions/{session_id}/heartbeat", chainMiddleware(server.Heartbeat, authed...))
	mux.Handle("DELETE /api/v1/sessions/{session_id}", chainMiddleware(server.EndSession, authed...))
	mux.Handle("POST /api/v1/videos/{video_id}/progress", chainMiddleware(server.UpdateProgress, authedJSON...))

	// Admin
	mux.Handle("POST /api/v1/admin/videos", chainMiddleware(server.CreateVideo, admin(rbac.PermissionContentCreate)...))
	mux.Handle("POST /api/v1/admin/videos/{video_id}/confirm-upload", chainMiddleware(server.ConfirmUpload, admin(rbac.PermissionContentTransfer)...))
	mux.Handle("GET /api/v1/admin/access-logs", chainMiddleware(server.ListAccessLogs, adminGet(rbac.PermissionLogsView)...))

	// Scheduled tasks, triggered by the platform scheduler
	mux.Handle("POST /tasks/sweep-sessions", chainMiddleware(server.SweepSessions, scheduled...))
	mux.Handle("POST /tasks/sweep-uploads", chainMiddleware(server.SweepUploads, scheduled...))

	return mux
}

func chainMiddleware(handler http.HandlerFunc, middleware ...func(http.Handler) http.Handler) http.HandlerFunc {
	h := http.Handler(handler)
	for i := len(middleware) - 1; i >= 0; i-- {
		h = middleware[i](h)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		h.ServeHTTP(w, r)
	}
}
