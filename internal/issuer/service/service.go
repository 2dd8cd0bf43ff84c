// Package service implements the Issuer Directory operations.
//
// Every mutating operation is Admin-gated and all-or-nothing: preconditions
// are evaluated before any state changes, and the role grant and directory
// update commit together under the service mutex. The registry is driven by a
// totally ordered operation log, so the mutex serializes writers without any
// further coordination.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"attestry/internal/gate"
	"attestry/internal/issuer/models"
	"attestry/internal/platform/metrics"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	audit "attestry/pkg/platform/audit"
	"attestry/pkg/platform/sentinel"
	"attestry/pkg/requestcontext"
)

// RoleRegistry is the slice of the Role Registry the directory drives.
type RoleRegistry interface {
	Grant(ctx context.Context, identity domain.IdentityID, role domain.Role) error
	Revoke(ctx context.Context, identity domain.IdentityID, role domain.Role) error
	HasRole(ctx context.Context, identity domain.IdentityID, role domain.Role) (bool, error)
}

// Directory is the active-set store.
type Directory interface {
	Add(ctx context.Context, record *models.Record) error
	Remove(ctx context.Context, id domain.IdentityID) error
	FindByID(ctx context.Context, id domain.IdentityID) (*models.Record, error)
	Execute(ctx context.Context, id domain.IdentityID, check func(record *models.Record) error, apply func(record *models.Record)) (*models.Record, error)
	List(ctx context.Context) ([]domain.IdentityID, error)
}

// CertificateCounter checks outstanding certificate ownership for the strict
// issuer-eligibility rule.
type CertificateCounter interface {
	BalanceOf(ctx context.Context, owner domain.IdentityID) (int, error)
}

// AuditPublisher accepts committed audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates issuer lifecycle management.
type Service struct {
	mu        sync.Mutex
	gate      *gate.Gate
	roles     RoleRegistry
	directory Directory
	ledger    CertificateCounter
	logger    *slog.Logger
	audit     AuditPublisher
	metrics   *metrics.Metrics
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

// New constructs a Service.
func New(g *gate.Gate, roles RoleRegistry, directory Directory, ledger CertificateCounter, opts ...Option) *Service {
	s := &Service{
		gate:      g,
		roles:     roles,
		directory: directory,
		ledger:    ledger,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateIssuer grants the Issuer role and adds the identity to the active set.
//
// Strict eligibility rule: an identity that already holds Earner or owns any
// outstanding certificate cannot become an Issuer (RoleConflict). An identity
// that is already an Issuer fails with AlreadyAssigned.
func (s *Service) CreateIssuer(ctx context.Context, identity domain.IdentityID, hash domain.ContentHash) (*models.Record, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}

	record, err := models.NewRecord(identity, hash, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// All preconditions before any mutation.
	isIssuer, err := s.roles.HasRole(ctx, identity, domain.RoleIssuer)
	if err != nil {
		return nil, err
	}
	if isIssuer {
		return nil, dErrors.New(dErrors.CodeAlreadyAssigned, "identity is already an issuer")
	}
	isEarner, err := s.roles.HasRole(ctx, identity, domain.RoleEarner)
	if err != nil {
		return nil, err
	}
	if isEarner {
		return nil, dErrors.New(dErrors.CodeRoleConflict, "identity already holds the earner role")
	}
	balance, err := s.ledger.BalanceOf(ctx, identity)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check certificate balance")
	}
	if balance > 0 {
		return nil, dErrors.New(dErrors.CodeRoleConflict, "identity owns outstanding certificates")
	}

	if err := s.roles.Grant(ctx, identity, domain.RoleIssuer); err != nil {
		return nil, err
	}
	if err := s.directory.Add(ctx, record); err != nil {
		// Keep role and directory in lockstep: undo the grant.
		if revokeErr := s.roles.Revoke(ctx, identity, domain.RoleIssuer); revokeErr != nil {
			s.logger.ErrorContext(ctx, "failed to undo issuer grant after directory failure",
				"issuer_id", identity.String(),
				"error", revokeErr,
			)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to add issuer to directory")
	}

	s.emit(ctx, audit.EventIssuerCreated,
		"actor", caller,
		"subject", identity,
		"content_hash", hash,
	)
	if s.metrics != nil {
		s.metrics.IssuersCreated.Inc()
	}
	return record, nil
}

// RemoveIssuer revokes the role and removes the identity from the active set.
// Certificates the issuer already minted stay valid and owned.
func (s *Service) RemoveIssuer(ctx context.Context, identity domain.IdentityID) error {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return err
	}
	if identity.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "issuer identity is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.directory.FindByID(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
	}

	if err := s.roles.Revoke(ctx, identity, domain.RoleIssuer); err != nil {
		return err
	}
	if err := s.directory.Remove(ctx, identity); err != nil {
		if grantErr := s.roles.Grant(ctx, identity, domain.RoleIssuer); grantErr != nil {
			s.logger.ErrorContext(ctx, "failed to undo issuer revocation after directory failure",
				"issuer_id", identity.String(),
				"error", grantErr,
			)
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove issuer from directory")
	}

	s.emit(ctx, audit.EventIssuerRemoved,
		"actor", caller,
		"subject", identity,
	)
	if s.metrics != nil {
		s.metrics.IssuersRemoved.Inc()
	}
	return nil
}

// UpdateIssuer replaces the content-hash pointer of an active issuer.
func (s *Service) UpdateIssuer(ctx context.Context, identity domain.IdentityID, hash domain.ContentHash) (*models.Record, error) {
	caller := requestcontext.CallerID(ctx)
	if err := s.gate.RequireAdmin(ctx, caller); err != nil {
		return nil, err
	}
	if hash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "content hash is required")
	}

	now := requestcontext.Now(ctx)
	record, err := s.directory.Execute(ctx, identity,
		func(r *models.Record) error { return nil },
		func(r *models.Record) { r.ApplyUpdate(hash, now) },
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update issuer")
	}

	s.emit(ctx, audit.EventIssuerUpdated,
		"actor", caller,
		"subject", identity,
		"content_hash", hash,
	)
	return record, nil
}

// ListIssuers returns the active set in current internal order. Admin-only;
// order carries no meaning across mutations.
func (s *Service) ListIssuers(ctx context.Context) ([]domain.IdentityID, error) {
	if err := s.gate.RequireAdmin(ctx, requestcontext.CallerID(ctx)); err != nil {
		return nil, err
	}
	ids, err := s.directory.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list issuers")
	}
	return ids, nil
}

// GetIssuerInfo is the unrestricted read of an active issuer's pointer.
func (s *Service) GetIssuerInfo(ctx context.Context, identity domain.IdentityID) (domain.ContentHash, error) {
	record, err := s.directory.FindByID(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "issuer not found")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load issuer")
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
