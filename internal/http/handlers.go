package http

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/learnloop/video-backend/internal/access"
	"github.com/learnloop/video-backend/internal/anomaly"
	"github.com/learnloop/video-backend/internal/audit"
	"github.com/learnloop/video-backend/internal/content"
	app_errors "github.com/learnloop/video-backend/internal/errors"
	"github.com/learnloop/video-backend/internal/session"
	"github.com/learnloop/video-backend/internal/store"
	"github.com/learnloop/video-backend/internal/sweep"
	"github.com/learnloop/video-backend/internal/token"
)

// Server holds the handler dependencies.
type Server struct {
	accessService  *access.Service
	contentService *content.Service
	sessionService *session.Service
	sweepService   *sweep.Service
	anomalyService *anomaly.Service
	auditService   *audit.Service
	tokens         *token.Manager
}

func NewServer(
	accessService *access.Service,
	contentService *content.Service,
	sessionService *session.Service,
	sweepService *sweep.Service,
	anomalyService *anomaly.Service,
	auditService *audit.Service,
	tokens *token.Manager,
) *Server {
	return &Server{
		accessService:  accessService,
		contentService: contentService,
		sessionService: sessionService,
		sweepService:   sweepService,
		anomalyService: anomalyService,
		auditService:   auditService,
		tokens:         tokens,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeError maps a coded error onto the uniform error body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	writeErrorResponse(w, err)
}

func writeErrorResponse(w http.ResponseWriter, err error) {
	code := app_errors.CodeOf(err)
	status := app_errors.HTTPStatus(code)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: app_errors.MessageOf(err),
		Code:    string(code),
	})
}

func (s *Server) decode(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return app_errors.Wrap(app_errors.CodeInvalidArgument, "invalid request format", err)
	}
	return nil
}

// clientIP picks the originating address, preferring the gateway's
// X-Forwarded-For chain.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Health handles the liveness probe
// @Summary	Health check
// @Tags		ops
// @Produce	json
// @Success	200	{object}	HealthResponse
// @Router		/health [get]
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// IssueGrant issues a playback grant
// @Summary		Issue a playback grant
// @Description	Runs entitlement, session ceiling and readiness checks, then returns a time-limited playback credential
// @Tags		access
// @Accept		json
// @Produce	json
// @Param		video_id	path		string	true	"Video ID"
// @Success	200	{object}	GrantResponse
// @Failure	401	{object}	ErrorResponse
// @Failure	403	{object}	ErrorResponse
// @Failure	404	{object}	ErrorResponse
// @Failure	409	{object}	ErrorResponse
// @Failure	429	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/videos/{video_id}/grant [post]
func (s *Server) IssueGrant(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserClaims(r)
	if !ok {
		s.writeError(w, app_errors.New(app_errors.CodeUnauthenticated, "authentication required"))
		return
	}

	videoID := r.PathValue("video_id")
	grant, err := s.accessService.IssueGrant(r.Context(), claims.UserID, videoID, clientIP(r), r.UserAgent())
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, GrantResponse{
		Token:       grant.Token,
		PlaybackURL: grant.PlaybackURL,
		VideoID:     grant.VideoID,
		ExpiresAt:   grant.ExpiresAt,
	})
}

// ValidateGrant validates a presented grant
// @Summary		Validate a playback grant
// @Description	An invalid or expired grant is a normal 200 response with valid=false; only malformed requests fail at the transport level
// @Tags		access
// @Accept		json
// @Produce	json
// @Param		request	body		ValidateGrantRequest	true	"Grant to validate"
// @Success	200	{object}	ValidateGrantResponse
// @Failure	400	{object}	ErrorResponse
// @Router		/grants/validate [post]
func (s *Server) ValidateGrant(w http.ResponseWriter, r *http.Request) {
	var req ValidateGrantRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	validation, err := s.accessService.ValidateGrant(r.Context(), req.Token)
	if err != nil {
		// A bad grant is this endpoint's negative answer, not a failure.
		if app_errors.Is(err, app_errors.CodeInvalidToken) {
			s.writeJSON(w, http.StatusOK, ValidateGrantResponse{Valid: false, Error: app_errors.MessageOf(err)})
			return
		}
		s.writeError(w, err)
		return
	}

	expiresAt := validation.ExpiresAt
	s.writeJSON(w, http.StatusOK, ValidateGrantResponse{
		Valid:     true,
		UserID:    validation.UserID,
		VideoID:   validation.VideoID,
		ExpiresAt: &expiresAt,
	})
}

// ListVideos pages the catalog
// @Summary		List videos
// @Tags		content
// @Produce	json
// @Param		limit	query		int	false	"Page size"
// @Param		offset	query		int	false	"Page offset"
// @Success	200	{object}	VideoListResponse
// @Security	BearerAuth
// @Router		/videos [get]
func (s *Server) ListVideos(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	videos, err := s.contentService.ListContent(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := VideoListResponse{Videos: make([]VideoResponse, 0, len(videos)), Limit: limit, Offset: offset}
	for _, v := range videos {
		resp.Videos = append(resp.Videos, toVideoResponse(v))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// GetVideo reads one catalog entry
// @Summary		Get a video
// @Tags		content
// @Produce	json
// @Param		video_id	path		string	true	"Video ID"
// @Success	200	{object}	VideoResponse
// @Failure	404	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/videos/{video_id} [get]
func (s *Server) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := s.contentService.GetContent(r.Context(), r.PathValue("video_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toVideoResponse(video))
}

func toVideoResponse(v *store.Video) VideoResponse {
	resp := VideoResponse{
		VideoID:          v.VideoID,
		Title:            v.Title,
		IsPremium:        v.IsPremium,
		ProcessingStatus: v.ProcessingStatus,
		DurationSeconds:  v.DurationSeconds,
		ViewCount:        v.ViewCount,
		UploadedAt:       v.UploadedAt,
	}
	if v.Description != nil {
		resp.Description = *v.Description
	}
	if v.Category != nil {
		resp.Category = *v.Category
	}
	if v.ThumbnailURL != nil {
		resp.ThumbnailURL = *v.ThumbnailURL
	}
	return resp
}

// CreateVideo creates a content item
// @Summary		Create a video
// @Description	Provisions the vendor container and returns an upload slot for direct uploads
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		request	body		CreateVideoRequest	true	"Video to create"
// @Success	201	{object}	CreateVideoResponse
// @Failure	400	{object}	ErrorResponse
// @Failure	403	{object}	ErrorResponse
// @Failure	502	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/admin/videos [post]
func (s *Server) CreateVideo(w http.ResponseWriter, r *http.Request) {
	var req CreateVideoRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.contentService.CreateContent(r.Context(), content.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		IsPremium:   req.IsPremium,
		Filename:    req.Filename,
		ContentType: req.ContentType,
		SourceURL:   req.SourceURL,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := CreateVideoResponse{
		VideoID:       created.VideoID,
		UploadID:      created.UploadID,
		UploadURL:     created.UploadURL,
		UploadMethod:  created.UploadVerb,
		UploadHeaders: created.UploadHdrs,
	}
	if !created.UploadUntil.IsZero() {
		until := created.UploadUntil
		resp.UploadExpires = &until
	}
	s.writeJSON(w, http.StatusCreated, resp)
}

// ConfirmUpload finalizes a direct upload
// @Summary		Confirm a finished upload
// @Tags		admin
// @Accept		json
// @Produce	json
// @Param		video_id	path		string	true	"Video ID"
// @Param		request	body		ConfirmUploadRequest	false	"Upload to confirm"
// @Success	200	{object}	ConfirmUploadResponse
// @Failure	404	{object}	ErrorResponse
// @Failure	409	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/admin/videos/{video_id}/confirm-upload [post]
func (s *Server) ConfirmUpload(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")

	var req ConfirmUploadRequest
	if r.ContentLength > 0 {
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}

	size, err := s.contentService.ConfirmUpload(r.Context(), videoID, req.UploadID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ConfirmUploadResponse{VideoID: videoID, Status: store.StatusProcessing, Size: size})
}

// CheckStatus polls the vendor processing state
// @Summary		Check processing status
// @Tags		content
// @Produce	json
// @Param		video_id	path		string	true	"Video ID"
// @Success	200	{object}	StatusResponse
// @Failure	404	{object}	ErrorResponse
// @Failure	502	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/videos/{video_id}/status [get]
func (s *Server) CheckStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.contentService.CheckStatus(r.Context(), r.PathValue("video_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, StatusResponse{
		VideoID:         status.VideoID,
		Status:          status.Status,
		Progress:        status.Progress,
		DurationSeconds: status.DurationSeconds,
	})
}

// StartSession opens a viewing session
// @Summary		Start a session
// @Tags		sessions
// @Accept		json
// @Produce	json
// @Param		request	body		StartSessionRequest	false	"Session details"
// @Success	201	{object}	SessionResponse
// @Security	BearerAuth
// @Router		/sessions [post]
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserClaims(r)
	if !ok {
		s.writeError(w, app_errors.New(app_errors.CodeUnauthenticated, "authentication required"))
		return
	}

	var req StartSessionRequest
	if r.ContentLength > 0 {
		if err := s.decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}

	var videoID, deviceInfo *string
	if req.VideoID != "" {
		videoID = &req.VideoID
	}
	if req.DeviceInfo != "" {
		deviceInfo = &req.DeviceInfo
	}

	created, err := s.sessionService.Start(r.Context(), claims.UserID, videoID, deviceInfo)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toSessionResponse(created))
}

// Heartbeat refreshes a session's idle timer
// @Summary		Session heartbeat
// @Tags		sessions
// @Produce	json
// @Param		session_id	path		string	true	"Session ID"
// @Success	204	"refreshed"
// @Failure	403	{object}	ErrorResponse
// @Failure	404	{object}	ErrorResponse
// @Failure	409	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/sessions/{session_id}/heartbeat [post]
func (s *Server) Heartbeat(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserClaims(r)
	if !ok {
		s.writeError(w, app_errors.New(app_errors.CodeUnauthenticated, "authentication required"))
		return
	}

	if err := s.sessionService.Heartbeat(r.Context(), r.PathValue("session_id"), claims.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EndSession closes a viewing session
// @Summary		End a session
// @Tags		sessions
// @Produce	json
// @Param		session_id	path		string	true	"Session ID"
// @Success	204	"ended"
// @Failure	403	{object}	ErrorResponse
// @Failure	404	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/sessions/{session_id} [delete]
func (s *Server) EndSession(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserClaims(r)
	if !ok {
		s.writeError(w, app_errors.New(app_errors.CodeUnauthenticated, "authentication required"))
		return
	}

	if err := s.sessionService.End(r.Context(), r.PathValue("session_id"), claims.UserID); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toSessionResponse(sess *store.Session) SessionResponse {
	resp := SessionResponse{
		SessionID:    sess.SessionID,
		UserID:       sess.UserID,
		IsActive:     sess.IsActive,
		StartedAt:    sess.StartedAt,
		LastActiveAt: sess.LastActiveAt,
	}
	if sess.VideoID != nil {
		resp.VideoID = *sess.VideoID
	}
	return resp
}

// UpdateProgress reports a playback position
// @Summary		Update watch progress
// @Description	Upserts the playback position and runs the anomaly heuristic
// @Tags		sessions
// @Accept		json
// @Produce	json
// @Param		video_id	path		string	true	"Video ID"
// @Param		request	body		ProgressRequest	true	"Playback position"
// @Success	200	{object}	ProgressResponse
// @Failure	400	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/videos/{video_id}/progress [post]
func (s *Server) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	claims, ok := GetUserClaims(r)
	if !ok {
		s.writeError(w, app_errors.New(app_errors.CodeUnauthenticated, "authentication required"))
		return
	}

	var req ProgressRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.anomalyService.UpdateProgress(r.Context(), claims.UserID, r.PathValue("video_id"), req.Position)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ProgressResponse{Position: result.Position, Flagged: result.Flagged})
}

// ListAccessLogs reads the audit trail
// @Summary		List access logs
// @Tags		admin
// @Produce	json
// @Param		user_id	query		string	false	"Filter by user"
// @Param		video_id	query		string	false	"Filter by video"
// @Param		limit	query		int	false	"Page size"
// @Success	200	{object}	AccessLogListResponse
// @Failure	403	{object}	ErrorResponse
// @Security	BearerAuth
// @Router		/admin/access-logs [get]
func (s *Server) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := &store.AccessLogFilter{
		UserID:  q.Get("user_id"),
		VideoID: q.Get("video_id"),
		Limit:   limit,
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = &t
		}
	}

	entries, err := s.auditService.ListAccess(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := AccessLogListResponse{Entries: make([]AccessLogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, AccessLogEntry{
			AccessID:  e.AccessID,
			UserID:    e.UserID,
			VideoID:   e.VideoID,
			Timestamp: e.Timestamp,
			IPAddress: e.IPAddress,
			UserAgent: e.UserAgent,
		})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// SweepSessions runs the stale session sweep
// @Summary		Sweep stale sessions
// @Tags		tasks
// @Produce	json
// @Success	200	{object}	SweepResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/tasks/sweep-sessions [post]
func (s *Server) SweepSessions(w http.ResponseWriter, r *http.Request) {
	report, err := s.sweepService.SweepSessions(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SweepResponse{Examined: report.Examined, Swept: report.Swept, Errors: report.Errors})
}

// SweepUploads runs the abandoned upload sweep
// @Summary		Sweep abandoned uploads
// @Tags		tasks
// @Produce	json
// @Success	200	{object}	SweepResponse
// @Failure	401	{object}	ErrorResponse
// @Router		/tasks/sweep-uploads [post]
func (s *Server) SweepUploads(w http.ResponseWriter, r *http.Request) {
	report, err := s.sweepService.SweepUploads(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SweepResponse{Examined: report.Examined, Swept: report.Swept, Errors: report.Errors})
}
