// Package roles implements the Role Registry: which of {Admin, Issuer,
// Earner} each identity holds.
//
// Admin is independent; Issuer and Earner are mutually exclusive. The
// registry has no side effects beyond its own store; the Issuer Directory
// and earner self-registration call it as part of their own operations.
package roles

import (
	"context"
	"errors"
	"log/slog"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

// Assignment is the role state of one identity. Admin is held independently;
// Role is RoleIssuer, RoleEarner, or RoleNone.
type Assignment struct {
	Admin bool
	Role  domain.Role
}

func (a Assignment) empty() bool {
	return !a.Admin && (a.Role == domain.RoleNone || a.Role == "")
}

func (a Assignment) holds(role domain.Role) bool {
	if role == domain.RoleAdmin {
		return a.Admin
	}
	return a.Role == role
}

// Store persists role assignments. Returns sentinel.ErrNotFound when an
// identity has never been assigned anything.
type Store interface {
	Get(ctx context.Context, identity domain.IdentityID) (Assignment, error)
	Save(ctx context.Context, identity domain.IdentityID, assignment Assignment) error
	Delete(ctx context.Context, identity domain.IdentityID) error
}

// Registry is the Role Registry service.
type Registry struct {
	store  Store
	logger *slog.Logger
}

type Option func(r *Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func New(store Store, opts ...Option) *Registry {
	r := &Registry{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Grant assigns a role to an identity.
//
// Errors: CodeAlreadyAssigned when the identity already holds the role;
// CodeRoleConflict when granting Issuer or Earner to an identity holding the
// other one.
func (r *Registry) Grant(ctx context.Context, identity domain.IdentityID, role domain.Role) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	assignment, err := r.load(ctx, identity)
	if err != nil {
		return err
	}
	if assignment.holds(role) {
		return dErrors.Newf(dErrors.CodeAlreadyAssigned, "identity already holds role %s", role)
	}
	if role.Exclusive() && assignment.Role != domain.RoleNone && assignment.Role != "" {
		return dErrors.Newf(dErrors.CodeRoleConflict, "identity already holds role %s", assignment.Role)
	}

	if role == domain.RoleAdmin {
		assignment.Admin = true
	} else {
		assignment.Role = role
	}
	if err := r.store.Save(ctx, identity, assignment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save role assignment")
	}
	return nil
}

// Revoke removes a role from an identity.
//
// Errors: CodeNotFound when the identity does not hold the role.
func (r *Registry) Revoke(ctx context.Context, identity domain.IdentityID, role domain.Role) error {
	if err := requireIdentity(identity); err != nil {
		return err
	}
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}

	assignment, err := r.load(ctx, identity)
	if err != nil {
		return err
	}
	if !assignment.holds(role) {
		return dErrors.Newf(dErrors.CodeNotFound, "identity does not hold role %s", role)
	}

	if role == domain.RoleAdmin {
		assignment.Admin = false
	} else {
		assignment.Role = domain.RoleNone
	}
	if assignment.empty() {
		if err := r.store.Delete(ctx, identity); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete role assignment")
		}
		return nil
	}
	if err := r.store.Save(ctx, identity, assignment); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save role assignment")
	}
	return nil
}

// HasRole reports whether the identity currently holds the role.
func (r *Registry) HasRole(ctx context.Context, identity domain.IdentityID, role domain.Role) (bool, error) {
	if identity.IsZero() {
		return false, nil
	}
	assignment, err := r.load(ctx, identity)
	if err != nil {
		return false, err
	}
	return assignment.holds(role), nil
}

// RoleOf returns the display role of the identity with priority
// Admin > Issuer > Earner > None.
func (r *Registry) RoleOf(ctx context.Context, identity domain.IdentityID) (domain.Role, error) {
	if identity.IsZero() {
		return domain.RoleNone, nil
	}
	assignment, err := r.load(ctx, identity)
	if err != nil {
		return domain.RoleNone, err
	}
	switch {
	case assignment.Admin:
		return domain.RoleAdmin, nil
	case assignment.Role == domain.RoleIssuer:
		return domain.RoleIssuer, nil
	case assignment.Role == domain.RoleEarner:
		return domain.RoleEarner, nil
	default:
		return domain.RoleNone, nil
	}
}

// load treats an absent assignment as the empty one.
func (r *Registry) load(ctx context.Context, identity domain.IdentityID) (Assignment, error) {
	assignment, err := r.store.Get(ctx, identity)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Assignment{Role: domain.RoleNone}, nil
		}
		return Assignment{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load role assignment")
	}
	return assignment, nil
}

func requireIdentity(identity domain.IdentityID) error {
	if identity.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	return nil
}
