// Package gate is the capability-check layer wrapping every mutating
// operation. Services call it before touching any state so a failed check
// never leaves a partial mutation behind.
package gate

import (
	"context"

	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
)

// RoleChecker is the slice of the Role Registry the gate consults.
type RoleChecker interface {
	HasRole(ctx context.Context, identity domain.IdentityID, role domain.Role) (bool, error)
}

// Gate validates caller capabilities against the Role Registry.
type Gate struct {
	roles RoleChecker
}

func New(roles RoleChecker) *Gate {
	return &Gate{roles: roles}
}

// RequireAdmin fails with CodeUnauthorized unless the caller holds Admin.
func (g *Gate) RequireAdmin(ctx context.Context, caller domain.IdentityID) error {
	return g.require(ctx, caller, domain.RoleAdmin)
}

// RequireIssuer fails with CodeUnauthorized unless the caller holds Issuer.
func (g *Gate) RequireIssuer(ctx context.Context, caller domain.IdentityID) error {
	return g.require(ctx, caller, domain.RoleIssuer)
}

// RequireEarner fails with CodeUnauthorized unless the caller holds Earner.
func (g *Gate) RequireEarner(ctx context.Context, caller domain.IdentityID) error {
	return g.require(ctx, caller, domain.RoleEarner)
}

// RequireCaller fails with CodeUnauthorized when no caller identity is
// attached to the request.
func (g *Gate) RequireCaller(_ context.Context, caller domain.IdentityID) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	return nil
}

func (g *Gate) require(ctx context.Context, caller domain.IdentityID, role domain.Role) error {
	if caller.IsZero() {
		return dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	held, err := g.roles.HasRole(ctx, caller, role)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check caller role")
	}
	if !held {
		return dErrors.Newf(dErrors.CodeUnauthorized, "caller does not hold role %s", role)
	}
	return nil
}
