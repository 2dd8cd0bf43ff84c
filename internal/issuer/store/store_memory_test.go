package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"attestry/internal/issuer/models"
	"attestry/pkg/domain"
	"attestry/pkg/platform/sentinel"
)

type DirectorySuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *DirectorySuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) newRecord(hash domain.ContentHash) *models.Record {
	record, err := models.NewRecord(domain.IdentityID(uuid.New()), hash, time.Now())
	s.Require().NoError(err)
	return record
}

func (s *DirectorySuite) TestAddAndFind() {
	record := s.newRecord("Qh1")
	s.Require().NoError(s.store.Add(s.ctx, record))

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.ContentHash, found.ContentHash)
}

func (s *DirectorySuite) TestAddDuplicate() {
	record := s.newRecord("Qh1")
	s.Require().NoError(s.store.Add(s.ctx, record))
	s.Require().ErrorIs(s.store.Add(s.ctx, record), sentinel.ErrAlreadyUsed)
}

func (s *DirectorySuite) TestRemovePreservesSurvivors() {
	a := s.newRecord("Qa")
	b := s.newRecord("Qb")
	c := s.newRecord("Qc")
	for _, record := range []*models.Record{a, b, c} {
		s.Require().NoError(s.store.Add(s.ctx, record))
	}

	// Removing the middle entry relocates the last one; every survivor stays
	// present and findable.
	s.Require().NoError(s.store.Remove(s.ctx, b.ID))

	ids, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]domain.IdentityID{a.ID, c.ID}, ids)

	_, err = s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	_, err = s.store.FindByID(s.ctx, c.ID)
	s.Require().NoError(err)
	_, err = s.store.FindByID(s.ctx, b.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *DirectorySuite) TestRemoveLastAndUnknown() {
	a := s.newRecord("Qa")
	s.Require().NoError(s.store.Add(s.ctx, a))
	s.Require().NoError(s.store.Remove(s.ctx, a.ID))

	count, err := s.store.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)

	s.Require().ErrorIs(s.store.Remove(s.ctx, a.ID), sentinel.ErrNotFound)
}

func (s *DirectorySuite) TestExecuteAtomicValidateThenMutate() {
	record := s.newRecord("Qh1")
	s.Require().NoError(s.store.Add(s.ctx, record))
	now := time.Now().Add(time.Minute)

	updated, err := s.store.Execute(s.ctx, record.ID,
		func(r *models.Record) error { return nil },
		func(r *models.Record) { r.ApplyUpdate("Qh2", now) },
	)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("Qh2"), updated.ContentHash)

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("Qh2"), found.ContentHash)
}

func (s *DirectorySuite) TestExecuteCheckFailureLeavesRecordUntouched() {
	record := s.newRecord("Qh1")
	s.Require().NoError(s.store.Add(s.ctx, record))

	boom := sentinel.ErrInvalidState
	_, err := s.store.Execute(s.ctx, record.ID,
		func(r *models.Record) error { return boom },
		func(r *models.Record) { r.ApplyUpdate("Qh2", time.Now()) },
	)
	s.Require().ErrorIs(err, boom)

	found, err := s.store.FindByID(s.ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(domain.ContentHash("Qh1"), found.ContentHash)
}
