package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attestry/internal/roles"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

type RoleStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *RoleStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestRoleStoreSuite(t *testing.T) {
	suite.Run(t, new(RoleStoreSuite))
}

func (s *RoleStoreSuite) TestSaveAndGet() {
	identity := domain.IdentityID(uuid.New())
	assignment := roles.Assignment{Admin: true, Role: domain.RoleIssuer}

	s.Require().NoError(s.store.Save(s.ctx, identity, assignment))

	found, err := s.store.Get(s.ctx, identity)
	s.Require().NoError(err)
	s.Equal(assignment, found)
}

func (s *RoleStoreSuite) TestGetUnknownIdentity() {
	_, err := s.store.Get(s.ctx, domain.IdentityID(uuid.New()))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RoleStoreSuite) TestDelete() {
	identity := domain.IdentityID(uuid.New())
	s.Require().NoError(s.store.Save(s.ctx, identity, roles.Assignment{Role: domain.RoleEarner}))

	s.Require().NoError(s.store.Delete(s.ctx, identity))

	_, err := s.store.Get(s.ctx, identity)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RoleStoreSuite) TestSaveOverwrites() {
	identity := domain.IdentityID(uuid.New())
	s.Require().NoError(s.store.Save(s.ctx, identity, roles.Assignment{Role: domain.RoleEarner}))
	s.Require().NoError(s.store.Save(s.ctx, identity, roles.Assignment{Role: domain.RoleNone, Admin: true}))

	found, err := s.store.Get(s.ctx, identity)
	s.Require().NoError(err)
	s.True(found.Admin)
	s.Equal(domain.RoleNone, found.Role)
}
