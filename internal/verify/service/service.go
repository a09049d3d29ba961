// Package service hosts the submission orchestrator: the single entry point
// that sequences rate limiting, intake, vendor dispatch, normalization, PII
// acceptance, and dedup bookkeeping into one normalized outcome per attempt.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"docauth/internal/verify/config"
	"docauth/internal/verify/dedup"
	"docauth/internal/verify/intake"
	"docauth/internal/verify/metrics"
	"docauth/internal/verify/models"
	"docauth/internal/verify/normalize"
	"docauth/internal/verify/pii"
	"docauth/internal/verify/ports"
	"docauth/internal/verify/throttle"
	"docauth/internal/verify/vendorpkg"
	dErrors "docauth/pkg/domain-errors"
	"docauth/pkg/platform/sentinel"
	"docauth/pkg/requestcontext"
)

// Terminal states of one attempt, as reported in telemetry.
const (
	StateSessionExpired = "session_expired"
	StateBlocked        = "blocked"
	StateIntakeFailed   = "intake_failed"
	StateNetworkFailed  = "network_failed"
	StateVendorRejected = "vendor_rejected"
	StatePIIRejected    = "pii_rejected"
	StateAccepted       = "accepted"
)

// Extra keys carried on the normalized outcome.
const (
	ExtraFrontKnownFailure = "front_is_known_failure"
	ExtraBackKnownFailure  = "back_is_known_failure"
	ExtraDocClass          = "doc_class"
)

// Submission is one user action: the submitted images plus attempt options.
type Submission struct {
	SessionToken string

	Front  intake.Input
	Back   intake.Input
	Selfie intake.Input
	Source models.ImageSource

	// BiometricComparison requests selfie-to-portrait matching for this
	// attempt; the RequireSelfie feature flag forces it on regardless.
	BiometricComparison bool

	// RoutingHint is an opaque vendor-routing discriminator.
	RoutingHint string
}

// Service is the submission orchestrator. It is the only component with
// write access to more than one collaborator; data flows strictly forward
// through the pipeline per attempt.
type Service struct {
	dispatcher vendor.Dispatcher
	throttle   *throttle.Service
	dedup      *dedup.Tracker
	sessions   ports.SessionResolver
	normalizer *normalize.Normalizer
	cfg        config.Config

	archiver ports.ImageArchiver
	funnel   ports.FunnelRecorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithArchiver sets the encrypted storage collaborator. Without one,
// accepted attempts are not archived and extracted records go nowhere.
func WithArchiver(a ports.ImageArchiver) Option {
	return func(s *Service) {
		s.archiver = a
	}
}

// WithFunnelRecorder sets the cost/funnel accounting collaborator.
func WithFunnelRecorder(f ports.FunnelRecorder) Option {
	return func(s *Service) {
		s.funnel = f
	}
}

// WithTracer overrides the tracer, for tests.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// New creates the orchestrator.
func New(
	dispatcher vendor.Dispatcher,
	throttleSvc *throttle.Service,
	tracker *dedup.Tracker,
	sessions ports.SessionResolver,
	cfg config.Config,
	opts ...Option,
) (*Service, error) {
	if dispatcher == nil {
		return nil, errors.New("vendor dispatcher is required")
	}
	if throttleSvc == nil {
		return nil, errors.New("throttle service is required")
	}
	if tracker == nil {
		return nil, errors.New("dedup tracker is required")
	}
	if sessions == nil {
		return nil, errors.New("session resolver is required")
	}

	svc := &Service{
		dispatcher: dispatcher,
		throttle:   throttleSvc,
		dedup:      tracker,
		sessions:   sessions,
		normalizer: normalize.New(cfg.Quality),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.tracer == nil {
		svc.tracer = otel.Tracer("docauth/verify")
	}
	return svc, nil
}

// Submit runs one full verification attempt. Every failure mode is
// per-attempt: the returned outcome always carries the caller-facing
// classification, and a non-nil error is reserved for infrastructure
// faults that prevent producing any outcome at all.
func (s *Service) Submit(ctx context.Context, sub *Submission) (*models.NormalizedOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "verify.submit")
	var state string
	defer func() {
		span.SetAttributes(attribute.String("verify.state", state))
		span.End()
	}()

	// A token that does not resolve means there is no subject to count
	// against; the attempt terminates before any counter moves.
	sess, err := s.sessions.Resolve(ctx, sub.SessionToken)
	if err != nil {
		if errors.Is(err, sentinel.ErrExpired) || errors.Is(err, sentinel.ErrNotFound) {
			state = StateSessionExpired
			s.finish(ctx, "", state, nil)
			return s.failureOutcome(
				models.FieldErrors{models.FieldGeneral: {models.ErrSessionExpired}}, 0, nil), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve capture session")
	}

	// The increment is unconditional: a blocked attempt still counts.
	decision, err := s.throttle.CheckAndIncrement(ctx, sess.Subject, models.CategoryDocAuth)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		state = StateBlocked
		reason := "throttled"
		if decision.LockedOut {
			reason = "locked_out"
		}
		s.metrics.IncrementBlocked(reason)
		s.finish(ctx, sess.Subject, state, nil)
		rlErr := &models.RateLimitError{
			Remaining: decision.Remaining,
			Attempts:  decision.Attempts,
			LockedOut: decision.LockedOut,
		}
		return s.failureOutcome(rlErr.FieldErrors(), decision.Remaining, nil), nil
	}

	now := requestcontext.Now(ctx)
	biometric := sub.BiometricComparison || s.cfg.Features.RequireSelfie

	attempt, intakeErr := intake.Ingest(intake.Params{
		Front:  sub.Front,
		Back:   sub.Back,
		Selfie: sub.Selfie,
		Source: sub.Source,
	}, biometric, now)
	if intakeErr != nil {
		state = StateIntakeFailed
		s.finish(ctx, sess.Subject, state, nil)
		return s.failureOutcome(intakeErr.FieldErrors(), decision.Remaining, nil), nil
	}

	frontFP := intake.Fingerprint(attempt, models.SideFront)
	backFP := intake.Fingerprint(attempt, models.SideBack)

	// Known-failure flags are advisory: a lookup fault degrades to
	// "unknown" rather than blocking the attempt.
	known, err := s.dedup.Check(ctx, sess.ID, frontFP, backFP)
	if err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "dedup lookup failed", "error", err)
		}
		known = &dedup.Known{}
	}
	if known.FrontIsKnownFailure {
		s.metrics.IncrementKnownFailureResubmit(string(models.SideFront))
	}
	if known.BackIsKnownFailure {
		s.metrics.IncrementKnownFailureResubmit(string(models.SideBack))
	}
	extra := knownExtra(known)

	resp, err := s.dispatcher.Submit(ctx, &vendor.Request{
		Front:               attempt.Images[models.SideFront],
		Back:                attempt.Images[models.SideBack],
		Selfie:              attempt.Images[models.SideSelfie],
		CorrelationID:       attempt.CorrelationID.String(),
		Source:              attempt.Source,
		BiometricComparison: biometric,
		RoutingHint:         sub.RoutingHint,
	})
	if err != nil {
		// Transport failures say nothing about the images; dedup state
		// stays untouched.
		state = StateNetworkFailed
		var netErr *vendor.NetworkError
		timeout := errors.As(err, &netErr) && netErr.Timeout
		s.metrics.IncrementNetworkError(timeout)
		s.finish(ctx, sess.Subject, state, nil)
		terr := &models.TransportError{Timeout: timeout, Err: err}
		return s.failureOutcome(terr.FieldErrors(), decision.Remaining, extra), nil
	}

	verdict, terr := s.normalizer.Normalize(resp, biometric)
	if terr != nil {
		state = StateNetworkFailed
		s.metrics.IncrementNetworkError(false)
		s.finish(ctx, sess.Subject, state, nil)
		return s.failureOutcome(terr.FieldErrors(), decision.Remaining, extra), nil
	}

	docClass := models.ClassUnknown
	if verdict.PII != nil {
		docClass = verdict.PII.DocumentClass
	}
	extra[ExtraDocClass] = string(docClass)
	span.SetAttributes(attribute.String("verify.doc_class", string(docClass)))

	// The vendor call ran to completion; if the session expired underneath
	// it, the attempt is superseded and its result must not be written back.
	// Checked against the wall clock: the request-scoped clock is frozen at
	// request start and cannot see time spent in the vendor exchange.
	superseded := sess.ExpiredAt(time.Now())

	if !verdict.Success {
		state = StateVendorRejected
		rejection := &models.ContentRejection{Fields: verdict.Errors, Telemetry: verdict.Telemetry}
		if !superseded {
			frontFailed, backFailed := rejection.SideErrors()
			if err := s.dedup.RecordFailure(ctx, sess.ID, frontFP, backFP, frontFailed, backFailed); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "dedup record failed", "error", err)
			}
		}
		outcome := s.failureOutcome(rejection.FieldErrors(), decision.Remaining, extra)
		s.conclude(ctx, sub.SessionToken, sess.Subject, state, docClass, outcome, superseded)
		return outcome, nil
	}

	piiErrors := s.validatePII(verdict.PII, now)
	if !piiErrors.IsEmpty() {
		// A PII failure blames no particular side, so both images are
		// recorded as failing.
		state = StatePIIRejected
		if !superseded {
			if err := s.dedup.RecordFailure(ctx, sess.ID, frontFP, backFP, false, false); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "dedup record failed", "error", err)
			}
		}
		outcome := s.failureOutcome(piiErrors, decision.Remaining, extra)
		s.conclude(ctx, sub.SessionToken, sess.Subject, state, docClass, outcome, superseded)
		return outcome, nil
	}

	state = StateAccepted
	if s.archiver != nil && !superseded {
		receipt, err := s.archiver.Archive(ctx, attempt.Images[models.SideFront], attempt.Images[models.SideBack], verdict.PII)
		if err != nil {
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "attempt archive failed", "error", err)
			}
		} else if s.logger != nil {
			s.logger.InfoContext(ctx, "attempt archived",
				"front", receipt.FrontFilename,
				"back", receipt.BackFilename,
				"record", receipt.RecordFilename,
			)
		}
	}

	outcome := &models.NormalizedOutcome{
		Success:           true,
		Errors:            models.FieldErrors{},
		RemainingAttempts: decision.Remaining,
		Extra:             extra,
	}
	s.conclude(ctx, sub.SessionToken, sess.Subject, state, docClass, outcome, superseded)
	return outcome, nil
}

// validatePII runs the class-specific acceptance validator. A successful
// verdict with no extracted PII is incomplete by definition.
func (s *Service) validatePII(record *models.PIIRecord, now time.Time) models.FieldErrors {
	if record == nil {
		return models.FieldErrors{models.FieldPII: {models.ErrPIIIncomplete}}
	}
	piiCfg := pii.DefaultConfig()
	piiCfg.ExpirationBypassDate = s.cfg.ExpirationBypassDate
	return pii.ForDocument(record.DocumentClass, piiCfg).Validate(record, now)
}

// conclude records the single end-of-attempt telemetry chain: one funnel
// event, one outcome metric, and the stored session result. Superseded
// attempts record the funnel event only.
func (s *Service) conclude(ctx context.Context, token, subject, state string, docClass models.DocumentClass, outcome *models.NormalizedOutcome, superseded bool) {
	s.metrics.IncrementOutcome(state, string(docClass))
	s.finish(ctx, subject, state, outcome)
	if superseded {
		return
	}
	if err := s.sessions.StoreResult(ctx, token, outcome); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to store session result", "error", err)
	}
}

// finish emits the one funnel event every attempt gets, whatever its
// terminal state.
func (s *Service) finish(ctx context.Context, subject, state string, outcome *models.NormalizedOutcome) {
	if s.funnel == nil {
		return
	}
	result := "failure"
	if outcome != nil && outcome.Success {
		result = "success"
	}
	s.funnel.Record(ctx, subject, state, result)
}

func (s *Service) failureOutcome(errs models.FieldErrors, remaining int, extra map[string]any) *models.NormalizedOutcome {
	if errs.IsEmpty() {
		errs = models.FieldErrors{models.FieldGeneral: {models.ErrDocAuthFailed}}
	}
	return &models.NormalizedOutcome{
		Success:           false,
		Errors:            errs,
		RemainingAttempts: remaining,
		Extra:             extra,
	}
}

func knownExtra(known *dedup.Known) map[string]any {
	extra := map[string]any{}
	if known == nil {
		return extra
	}
	extra[ExtraFrontKnownFailure] = known.FrontIsKnownFailure
	extra[ExtraBackKnownFailure] = known.BackIsKnownFailure
	return extra
}
