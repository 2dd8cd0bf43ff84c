// Package service implements earner registration and profile updates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"attestry/internal/earner/models"
	"attestry/internal/gate"
	"attestry/internal/platform/metrics"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	audit "attestry/pkg/platform/audit"
	"attestry/pkg/platform/sentinel"
	"attestry/pkg/requestcontext"
)

// RoleRegistry is the slice of the Role Registry this service drives.
type RoleRegistry interface {
	Grant(ctx context.Context, identity domain.IdentityID, role domain.Role) error
	Revoke(ctx context.Context, identity domain.IdentityID, role domain.Role) error
	HasRole(ctx context.Context, identity domain.IdentityID, role domain.Role) (bool, error)
}

// Store is the registered-earner store.
type Store interface {
	Add(ctx context.Context, record *models.Record) error
	FindByID(ctx context.Context, id domain.IdentityID) (*models.Record, error)
	Execute(ctx context.Context, id domain.IdentityID, check func(record *models.Record) error, apply func(record *models.Record)) (*models.Record, error)
}

// Ledger is the slice of the certificate ledger used for the optional
// welcome certificate.
type Ledger interface {
	NextID(ctx context.Context) (domain.CertificateID, error)
	Mint(ctx context.Context, owner domain.IdentityID, id domain.CertificateID) error
	SetMetadata(ctx context.Context, id domain.CertificateID, hash domain.ContentHash) error
	BalanceOf(ctx context.Context, owner domain.IdentityID) (int, error)
}

// AuditPublisher accepts committed audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates earner registration.
type Service struct {
	mu          sync.Mutex
	gate        *gate.Gate
	roles       RoleRegistry
	store       Store
	ledger      Ledger
	logger      *slog.Logger
	audit       AuditPublisher
	metrics     *metrics.Metrics
	welcomeHash domain.ContentHash
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

// WithWelcomeCertificate mints a certificate with the given metadata hash to
// every newly registered earner that owns nothing yet. The welcome
// certificate has no issuing identity and no issuer can revoke it.
func WithWelcomeCertificate(hash domain.ContentHash) Option {
	return func(s *Service) {
		s.welcomeHash = hash
	}
}

// New constructs a Service.
func New(g *gate.Gate, roles RoleRegistry, store Store, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		gate:   g,
		roles:  roles,
		store:  store,
		ledger: ledger,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register grants the caller the Earner role and stores their profile
// record. Registration is self-service: the caller is the earner. Fails with
// RoleConflict if the caller is an Issuer and AlreadyAssigned if the caller
// is already registered.
func (s *Service) Register(ctx context.Context, hash domain.ContentHash) (*models.Record, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireCaller(ctx, caller); err != nil {
		return nil, err
	}

	record, err := models.NewRecord(caller, hash, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	isEarner, err := s.roles.HasRole(ctx, caller, domain.RoleEarner)
	if err != nil {
		return nil, err
	}
	if isEarner {
		return nil, dErrors.New(dErrors.CodeAlreadyAssigned, "identity is already an earner")
	}
	isIssuer, err := s.roles.HasRole(ctx, caller, domain.RoleIssuer)
	if err != nil {
		return nil, err
	}
	if isIssuer {
		return nil, dErrors.New(dErrors.CodeRoleConflict, "identity already holds the issuer role")
	}

	if err := s.roles.Grant(ctx, caller, domain.RoleEarner); err != nil {
		return nil, err
	}
	if err := s.store.Add(ctx, record); err != nil {
		if revokeErr := s.roles.Revoke(ctx, caller, domain.RoleEarner); revokeErr != nil {
			s.logger.ErrorContext(ctx, "failed to undo earner grant after store failure",
				"earner_id", caller.String(),
				"error", revokeErr,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store earner record")
	}

	s.emit(ctx, audit.EventEarnerRegistered,
		"actor", caller,
		"subject", caller,
		"content_hash", hash,
	)
	if s.metrics != nil {
		s.metrics.EarnersRegistered.Inc()
	}

	s.mintWelcome(ctx, caller)
	return record, nil
}

// mintWelcome mints the configured welcome certificate for earners that own
// nothing yet. Registration has already committed; a welcome failure is
// logged, not surfaced.
func (s *Service) mintWelcome(ctx context.Context, identity domain.IdentityID) {
	if s.welcomeHash == "" {
		return
	}
	balance, err := s.ledger.BalanceOf(ctx, identity)
	if err != nil || balance > 0 {
		return
	}
	id, err := s.ledger.NextID(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to allocate welcome certificate id", "error", err)
		return
	}
	if err := s.ledger.Mint(ctx, identity, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to mint welcome certificate",
			"earner_id", identity.String(),
			"error", err,
		)
		return
	}
	if err := s.ledger.SetMetadata(ctx, id, s.welcomeHash); err != nil {
		s.logger.ErrorContext(ctx, "failed to set welcome certificate metadata",
			"certificate_id", id.String(),
			"error", err,
		)
	}
	s.emit(ctx, audit.EventWelcomeIssued,
		"subject", identity,
		"recipient", identity,
		"certificate_id", id,
		"content_hash", s.welcomeHash,
	)
	if s.metrics != nil {
		s.metrics.CertificatesIssued.Inc()
	}
}

// UpdateInfo replaces the caller's own content-hash pointer. Only the earner
// itself may update its record.
func (s *Service) UpdateInfo(ctx context.Context, hash domain.ContentHash) (*models.Record, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireEarner(ctx, caller); err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "content hash is required")
	}

	now := requestcontext.Now(ctx)
	record, err := s.store.Execute(ctx, caller,
		func(r *models.Record) error { return nil },
		func(r *models.Record) { r.ApplyUpdate(hash, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "earner not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update earner")
	}

	s.emit(ctx, audit.EventEarnerUpdated,
		"actor", caller,
		"subject", caller,
		"content_hash", hash,
	)
	return record, nil
}

// GetEarnerInfo is the unrestricted read of a registered earner's pointer.
func (s *Service) GetEarnerInfo(ctx context.Context, identity domain.IdentityID) (domain.ContentHash, error) {
	record, err := s.store.FindByID(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "earner not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load earner")
	}
	return record.ContentHash, nil
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
