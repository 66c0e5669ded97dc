package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"audittrail/pkg/audit"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = New()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newRecord(kind string) audit.Record {
	return audit.Record{
		ID:         uuid.New(),
		EntityKind: kind,
		Operation:  audit.OperationCreate,
	}
}

// TestAppendAndList verifies records are kept in append order.
func (s *MemoryStoreSuite) TestAppendAndList() {
	first := s.newRecord("products")
	second := s.newRecord("orders")
	s.Require().NoError(s.store.Append(s.ctx, first, second))

	records := s.store.List()
	s.Require().Len(records, 2)
	s.Equal(first.ID, records[0].ID)
	s.Equal(second.ID, records[1].ID)
}

// TestListReturnsCopy verifies callers cannot mutate stored state.
func (s *MemoryStoreSuite) TestListReturnsCopy() {
	s.Require().NoError(s.store.Append(s.ctx, s.newRecord("products")))

	records := s.store.List()
	records[0].EntityKind = "tampered"

	s.Equal("products", s.store.List()[0].EntityKind)
}

func (s *MemoryStoreSuite) TestClear() {
	s.Require().NoError(s.store.Append(s.ctx, s.newRecord("products")))
	s.store.Clear()
	s.Empty(s.store.List())
}
