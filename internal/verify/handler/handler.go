// Package handler is the thin HTTP layer over the submission orchestrator.
// It owns transport concerns only: decoding, session token extraction, and
// capture-source detection from the User-Agent.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"docauth/internal/verify/models"
	"docauth/internal/verify/service"
	dErrors "docauth/pkg/domain-errors"
	"docauth/pkg/platform/httputil"
	"docauth/pkg/platform/sentinel"
	"docauth/pkg/requestcontext"
)

// SessionHeader carries the capture session token.
const SessionHeader = "X-Capture-Session"

// Submitter runs one verification attempt.
type Submitter interface {
	Submit(ctx context.Context, sub *service.Submission) (*models.NormalizedOutcome, error)
}

// SessionMinter issues and resolves capture session tokens.
type SessionMinter interface {
	Mint(ctx context.Context, subject string) (string, error)
	Resolve(ctx context.Context, token string) (*models.CaptureSession, error)
}

// Handler wires verification endpoints to the orchestrator.
type Handler struct {
	service  Submitter
	sessions SessionMinter
	logger   *slog.Logger
}

// New constructs a verify handler with its dependencies.
func New(service Submitter, sessions SessionMinter, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

// Register mounts verification endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verify/sessions", h.HandleCreateSession)
	r.Post("/verify/documents", h.HandleSubmit)
	r.Get("/verify/results", h.HandleResults)
}

// HandleCreateSession handles POST /verify/sessions requests.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeJSON[SessionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.sessions.Mint(ctx, strings.TrimSpace(req.Subject))
	if err != nil {
		h.logger.ErrorContext(ctx, "session mint failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, SessionResponse{Token: token})
}

// HandleSubmit handles POST /verify/documents requests. Every attempt, pass
// or fail, answers 200 with a normalized outcome; HTTP error statuses are
// reserved for malformed requests and infrastructure faults.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeJSON[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	outcome, err := h.service.Submit(ctx, &service.Submission{
		SessionToken:        r.Header.Get(SessionHeader),
		Front:               imageInput(req.FrontImage),
		Back:                imageInput(req.BackImage),
		Selfie:              imageInput(req.SelfieImage),
		Source:              req.Source(requestcontext.UserAgent(ctx)),
		BiometricComparison: req.BiometricComparison,
		RoutingHint:         req.RoutingHint,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "submission completed",
		"request_id", requestID,
		"success", outcome.Success,
		"error_fields", outcome.Errors.Fields(),
		"remaining_attempts", outcome.RemainingAttempts,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleResults handles GET /verify/results requests: the stored outcome of
// the session's latest attempt.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sess, err := h.sessions.Resolve(ctx, r.Header.Get(SessionHeader))
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) || errors.Is(err, sentinel.ErrNotFound) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "capture session not found"))
			return
		}
		httputil.WriteError(w, err)
		return
	}
	if sess.PriorOutcome == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no attempt recorded for session"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sess.PriorOutcome)
}
