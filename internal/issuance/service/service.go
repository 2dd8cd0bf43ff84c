// Package service implements certificate issuance and revocation.
//
// The service keeps the ledger and the per-issuer index in lockstep: mint
// appends to the minting issuer's index, burn removes from it, and both run
// under the service mutex so an observer never sees one without the other.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"attestry/internal/gate"
	"attestry/internal/platform/metrics"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	audit "attestry/pkg/platform/audit"
	"attestry/pkg/platform/sentinel"
	"attestry/pkg/requestcontext"
)

// RoleRegistry is the slice of the Role Registry used for recipient checks.
type RoleRegistry interface {
	HasRole(ctx context.Context, identity domain.IdentityID, role domain.Role) (bool, error)
}

// Ledger is the certificate ledger contract.
type Ledger interface {
	NextID(ctx context.Context) (domain.CertificateID, error)
	Mint(ctx context.Context, owner domain.IdentityID, id domain.CertificateID) error
	Burn(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error)
	Transfer(ctx context.Context, id domain.CertificateID, to domain.IdentityID) error
	OwnerOf(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error)
	SetMetadata(ctx context.Context, id domain.CertificateID, hash domain.ContentHash) error
	MetadataOf(ctx context.Context, id domain.CertificateID) (domain.ContentHash, error)
	CertificatesOf(ctx context.Context, owner domain.IdentityID) ([]domain.CertificateID, error)
}

// Index is the per-issuer outstanding-certificate index.
type Index interface {
	Append(ctx context.Context, issuer domain.IdentityID, id domain.CertificateID) error
	Remove(ctx context.Context, issuer domain.IdentityID, id domain.CertificateID) error
	Contains(ctx context.Context, issuer domain.IdentityID, id domain.CertificateID) (bool, error)
	List(ctx context.Context, issuer domain.IdentityID) ([]domain.CertificateID, error)
}

// AuditPublisher accepts committed audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Certificate is the read-side view of one outstanding certificate.
type Certificate struct {
	ID          domain.CertificateID `json:"id"`
	Owner       domain.IdentityID    `json:"owner"`
	ContentHash domain.ContentHash   `json:"content_hash"`
}

// Service orchestrates the certificate lifecycle.
type Service struct {
	mu      sync.Mutex
	gate    *gate.Gate
	roles   RoleRegistry
	ledger  Ledger
	index   Index
	logger  *slog.Logger
	audit   AuditPublisher
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.audit = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service.
func New(g *gate.Gate, roles RoleRegistry, ledger Ledger, index Index, opts ...Option) *Service {
	s := &Service{
		gate:   g,
		roles:  roles,
		ledger: ledger,
		index:  index,
		logger: slog.Default(),
		tracer: otel.Tracer("attestry/issuance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue mints a certificate to the recipient and indexes it under the
// calling issuer. The recipient must be a registered Earner; issuers and
// unknown identities fail with InvalidRecipient. Ids are strictly increasing
// and never reused, so the first certificate is id 0.
func (s *Service) Issue(ctx context.Context, recipient domain.IdentityID, hash domain.ContentHash) (domain.CertificateID, error) {
	ctx, span := s.tracer.Start(ctx, "issuance.Issue")
	defer span.End()

	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireIssuer(ctx, caller); err != nil {
		return 0, err
	}
	if recipient.IsZero() {
		return 0, dErrors.New(dErrors.CodeInvalidRecipient, "recipient identity is required")
	}
	if hash == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "content hash is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	isEarner, err := s.roles.HasRole(ctx, recipient, domain.RoleEarner)
	if err != nil {
		return 0, err
	}
	if !isEarner {
		return 0, dErrors.New(dErrors.CodeInvalidRecipient, "recipient is not a registered earner")
	}

	id, err := s.ledger.NextID(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to allocate certificate id")
	}
	if err := s.ledger.Mint(ctx, recipient, id); err != nil {
		return 0, err
	}
	if err := s.ledger.SetMetadata(ctx, id, hash); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach certificate metadata")
	}
	if err := s.index.Append(ctx, caller, id); err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to index certificate")
	}

	s.emit(ctx, audit.EventCertificateIssued,
		"actor", caller,
		"subject", caller,
		"recipient", recipient,
		"certificate_id", id,
		"content_hash", hash,
	)
	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
	return id, nil
}

// Revoke burns a certificate. Only the issuer that minted it may revoke;
// any other issuer fails with Unauthorized. The id stays consumed forever.
func (s *Service) Revoke(ctx context.Context, id domain.CertificateID, reason string) error {
	ctx, span := s.tracer.Start(ctx, "issuance.Revoke")
	defer span.End()

	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireIssuer(ctx, caller); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mine, err := s.index.Contains(ctx, caller, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate index")
	}
	if !mine {
		owner, err := s.ledger.OwnerOf(ctx, id)
		if err != nil || owner.IsZero() {
			return dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return dErrors.New(dErrors.CodeUnauthorized, "certificate was issued by another issuer")
	}

	previous, err := s.ledger.Burn(ctx, id)
	if err != nil {
		return err
	}
	if err := s.index.Remove(ctx, caller, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to unindex certificate")
	}

	s.emit(ctx, audit.EventCertificateRevoked,
		"actor", caller,
		"subject", caller,
		"recipient", previous,
		"certificate_id", id,
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.CertificatesRevoked.Inc()
	}
	return nil
}

// Transfer forwards an ownership-change attempt to the guarded ledger.
// Certificates are bound to their recipient, so every call fails with
// TransferBlocked; the attempt itself is recorded as a security event.
func (s *Service) Transfer(ctx context.Context, id domain.CertificateID, to domain.IdentityID) error {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireCaller(ctx, caller); err != nil {
		return err
	}

	err := s.ledger.Transfer(ctx, id, to)
	if dErrors.HasCode(err, dErrors.CodeTransferBlocked) {
		s.emit(ctx, audit.EventTransferBlocked,
			"actor", caller,
			"subject", caller,
			"recipient", to,
			"certificate_id", id,
		)
		if s.metrics != nil {
			s.metrics.TransfersBlocked.Inc()
		}
	}
	return err
}

// ListIssued returns the calling issuer's outstanding certificate ids.
func (s *Service) ListIssued(ctx context.Context) ([]domain.CertificateID, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireIssuer(ctx, caller); err != nil {
		return nil, err
	}
	ids, err := s.index.List(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issued certificates")
	}
	return ids, nil
}

// OwnedCertificates returns the caller's certificates with their metadata.
func (s *Service) OwnedCertificates(ctx context.Context) ([]Certificate, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireCaller(ctx, caller); err != nil {
		return nil, err
	}
	ids, err := s.ledger.CertificatesOf(ctx, caller)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list owned certificates")
	}
	out := make([]Certificate, 0, len(ids))
	for _, id := range ids {
		hash, err := s.ledger.MetadataOf(ctx, id)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load certificate metadata")
		}
		out = append(out, Certificate{ID: id, Owner: caller, ContentHash: hash})
	}
	return out, nil
}

// OwnerOf resolves the current owner of a certificate. Revoked certificates
// report the null owner; never-minted ids fail with NotFound.
func (s *Service) OwnerOf(ctx context.Context, id domain.CertificateID) (domain.IdentityID, error) {
	owner, err := s.ledger.OwnerOf(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.IdentityID{}, dErrors.New(dErrors.CodeNotFound, "certificate not found")
		}
		return domain.IdentityID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve certificate owner")
	}
	return owner, nil
}

// emit logs and publishes one audit event for a committed transition. The
// same attribute list feeds the log line and the durable event.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, kv ...any) {
	kv = append(kv, "request_id", requestcontext.RequestID(ctx))
	s.logger.InfoContext(ctx, string(action), append(kv, "log_type", "audit")...)
	if s.audit == nil {
		return
	}
	if err := s.audit.Emit(ctx, audit.EventFromAttrs(action, kv...)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish audit event",
			"action", string(action),
			"error", err,
		)
	}
}
