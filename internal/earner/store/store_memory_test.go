package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attestry/internal/earner/models"
	"attestry/pkg/domain"
	dErrors "attestry/pkg/domain-errors"
	"attestry/pkg/platform/sentinel"
)

type EarnerStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *EarnerStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *EarnerStoreSuite) newRecord() *models.Record {
	record, err := models.NewRecord(domain.IdentityID(uuid.New()), "earner-hash", time.Now().UTC())
	s.Require().NoError(err)
	return record
}

func (s *EarnerStoreSuite) TestAddAndFind() {
	record := s.newRecord()
	s.Require().NoError(s.store.Add(s.ctx, record))

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ID, found.ID)
	s.Equal(record.ContentHash, found.ContentHash)

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *EarnerStoreSuite) TestAddDuplicateFails() {
	record := s.newRecord()
	s.Require().NoError(s.store.Add(s.ctx, record))
	s.ErrorIs(s.store.Add(s.ctx, record), sentinel.ErrAlreadyUsed)
}

func (s *EarnerStoreSuite) TestFindUnknownFails() {
	_, err := s.store.FindByID(s.ctx, domain.IdentityID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *EarnerStoreSuite) TestFindReturnsCopy() {
	record := s.newRecord()
	s.Require().NoError(s.store.Add(s.ctx, record))

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	found.ContentHash = "mutated"

	again, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("earner-hash"), again.ContentHash)
}

func (s *EarnerStoreSuite) TestExecuteUpdates() {
	record := s.newRecord()
	s.Require().NoError(s.store.Add(s.ctx, record))

	now := time.Now().UTC().Add(time.Minute)
	updated, err := s.store.Execute(s.ctx, record.ID,
		func(r *models.Record) error { return nil },
		func(r *models.Record) { r.ApplyUpdate("earner-hash-v2", now) },
	)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("earner-hash-v2"), updated.ContentHash)

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("earner-hash-v2"), found.ContentHash)
}

func (s *EarnerStoreSuite) TestExecuteCheckFailureLeavesRecord() {
	record := s.newRecord()
	s.Require().NoError(s.store.Add(s.ctx, record))

	_, err := s.store.Execute(s.ctx, record.ID,
		func(r *models.Record) error {
			return dErrors.New(dErrors.CodeValidation, "rejected")
		},
		func(r *models.Record) { r.ContentHash = "must-not-apply" },
	)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("earner-hash"), found.ContentHash)
}

func TestEarnerStoreSuite(t *testing.T) {
	suite.Run(t, new(EarnerStoreSuite))
}
