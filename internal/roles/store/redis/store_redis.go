package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"attestry/internal/roles"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

const (
	// Redis key prefix for role assignments.
	assignmentKeyPrefix = "roles:identity:"

	fieldAdmin = "admin"
	fieldRole  = "role"
)

// Store is a Redis-backed role store for deployments where several registry
// instances must observe the same role state.
type Store struct {
	client *redis.Client
}

func New(client *redis.Client) *Store {
	return &Store{client: client}
}

func key(identity domain.IdentityID) string {
	return assignmentKeyPrefix + identity.String()
}

func (s *Store) Get(ctx context.Context, identity domain.IdentityID) (roles.Assignment, error) {
	fields, err := s.client.HGetAll(ctx, key(identity)).Result()
	if err != nil {
		return roles.Assignment{}, fmt.Errorf("hgetall role assignment: %w", err)
	}
	if len(fields) == 0 {
		return roles.Assignment{}, sentinel.ErrNotFound
	}

	assignment := roles.Assignment{Role: domain.RoleNone}
	if fields[fieldAdmin] == "1" {
		assignment.Admin = true
	}
	switch domain.Role(fields[fieldRole]) {
	case domain.RoleIssuer:
		assignment.Role = domain.RoleIssuer
	case domain.RoleEarner:
		assignment.Role = domain.RoleEarner
	}
	return assignment, nil
}

func (s *Store) Save(ctx context.Context, identity domain.IdentityID, assignment roles.Assignment) error {
	admin := "0"
	if assignment.Admin {
		admin = "1"
	}
	role := string(domain.RoleNone)
	if assignment.Role == domain.RoleIssuer || assignment.Role == domain.RoleEarner {
		role = string(assignment.Role)
	}
	if err := s.client.HSet(ctx, key(identity), fieldAdmin, admin, fieldRole, role).Err(); err != nil {
		return fmt.Errorf("hset role assignment: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, identity domain.IdentityID) error {
	if err := s.client.Del(ctx, key(identity)).Err(); err != nil {
		return fmt.Errorf("del role assignment: %w", err)
	}
	return nil
}
