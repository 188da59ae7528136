// Package storagetest holds the behavioral suite every storage.Store
// implementation must pass.
package storagetest

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mmynk/treasury/internal/models"
	"github.com/mmynk/treasury/internal/storage"
)

var (
	admin     = models.MustParseAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	recipient = models.MustParseAddress("0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
)

// StoreSuite exercises a storage.Store. NewStore is called before every test.
type StoreSuite struct {
	suite.Suite
	NewStore func(t *testing.T) storage.Store

	store storage.Store
	ctx   context.Context
}

// Run executes the suite against stores built by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	suite.Run(t, &StoreSuite{NewStore: newStore})
}

func (s *StoreSuite) SetupTest() {
	s.store = s.NewStore(s.T())
	s.ctx = context.Background()
}

func (s *StoreSuite) TearDownTest() {
	s.Require().NoError(s.store.Close())
}

// newTreasury builds a treasury plus its sealed genesis event.
func (s *StoreSuite) newTreasury() (*models.Treasury, models.Event) {
	id := uuid.New()
	now := time.Now()
	t := &models.Treasury{
		ID:        id.String(),
		Account:   models.DeriveAddress(id[:]),
		Asset:     "USDC",
		Admin:     admin,
		Balance:   new(big.Int),
		Status:    models.TreasuryStatusActive,
		CreatedAt: now.Unix(),
		UpdatedAt: now.Unix(),
	}
	genesis := models.Event{
		TreasuryID: t.ID,
		Kind:       models.EventCreated,
		At:         now,
		Data:       models.EventData{Admin: models.AddrPtr(admin), Asset: t.Asset},
	}
	s.Require().NoError(genesis.Seal(0, models.GenesisHash))
	t.Seq, t.Head = genesis.Seq, genesis.Hash
	return t, genesis
}

// next stages an event after t and returns the updated treasury.
func (s *StoreSuite) next(t *models.Treasury, kind models.EventKind, data models.EventData) (*models.Treasury, models.Event) {
	e := models.Event{TreasuryID: t.ID, Kind: kind, At: time.Now(), Data: data}
	s.Require().NoError(e.Seal(t.Seq, t.Head))
	n := t.Clone()
	n.Seq, n.Head = e.Seq, e.Hash
	return n, e
}

func (s *StoreSuite) TestCreateAndGet() {
	s.Run("round-trips every field", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

		got, err := s.store.GetTreasury(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal(t.ID, got.ID)
		s.Equal(t.Account, got.Account)
		s.Equal(t.Admin, got.Admin)
		s.Equal(t.Asset, got.Asset)
		s.Equal(0, got.Balance.Sign())
		s.Equal(uint64(1), got.Seq)
		s.Equal(genesis.Hash, got.Head)
		s.Equal(models.TreasuryStatusActive, got.Status)
	})

	s.Run("rejects duplicate ID", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))
		s.ErrorIs(s.store.CreateTreasury(s.ctx, t, genesis), storage.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown ID", func() {
		_, err := s.store.GetTreasury(s.ctx, uuid.NewString())
		s.ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("returned treasury is a copy", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

		got, err := s.store.GetTreasury(s.ctx, t.ID)
		s.Require().NoError(err)
		got.Balance.SetInt64(999)

		again, err := s.store.GetTreasury(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal(0, again.Balance.Sign())
	})
}

func (s *StoreSuite) TestCommit() {
	s.Run("saves state and appends events", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

		n, e := s.next(t, models.EventDeposited, models.EventData{Depositor: models.AddrPtr(admin), Amount: big.NewInt(1000)})
		n.Balance.SetInt64(1000)
		s.Require().NoError(s.store.Commit(s.ctx, n, e))

		got, err := s.store.GetTreasury(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal("1000", got.Balance.String())
		s.Equal(uint64(2), got.Seq)

		events, err := s.store.ListEvents(s.ctx, t.ID, 0, 0)
		s.Require().NoError(err)
		s.Require().Len(events, 2)
		s.Equal(models.EventCreated, events[0].Kind)
		s.Equal(models.EventDeposited, events[1].Kind)
		s.Equal("1000", events[1].Data.Amount.String())
		s.Equal(admin, *events[1].Data.Depositor)
		s.Equal(e.Hash, events[1].Hash)
		s.Equal(e.At.UnixNano(), events[1].At.UnixNano())
	})

	s.Run("rejects stale sequence", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

		n, e := s.next(t, models.EventDeposited, models.EventData{Depositor: models.AddrPtr(admin), Amount: big.NewInt(5)})
		s.Require().NoError(s.store.Commit(s.ctx, n, e))

		// Second commit built on the same base must lose.
		n2, e2 := s.next(t, models.EventDeposited, models.EventData{Depositor: models.AddrPtr(admin), Amount: big.NewInt(7)})
		s.ErrorIs(s.store.Commit(s.ctx, n2, e2), storage.ErrConflict)

		events, err := s.store.ListEvents(s.ctx, t.ID, 0, 0)
		s.Require().NoError(err)
		s.Len(events, 2)
	})

	s.Run("records run IDs and rejects duplicates", func() {
		t, genesis := s.newTreasury()
		s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

		runID, err := models.ParseRunID("0x01")
		s.Require().NoError(err)

		has, err := s.store.HasRun(s.ctx, t.ID, runID)
		s.Require().NoError(err)
		s.False(has)

		data := models.EventData{RunID: &runID, Amount: big.NewInt(1), RecipientCount: 1}
		n, e := s.next(t, models.EventSettled, data)
		s.Require().NoError(s.store.Commit(s.ctx, n, e))

		has, err = s.store.HasRun(s.ctx, t.ID, runID)
		s.Require().NoError(err)
		s.True(has)

		n2, e2 := s.next(n, models.EventSettled, data)
		s.ErrorIs(s.store.Commit(s.ctx, n2, e2), storage.ErrConflict)

		got, err := s.store.GetTreasury(s.ctx, t.ID)
		s.Require().NoError(err)
		s.Equal(n.Seq, got.Seq)
	})

	s.Run("unknown treasury", func() {
		t, _ := s.newTreasury()
		n, e := s.next(t, models.EventAdminChanged, models.EventData{Previous: models.AddrPtr(admin), Next: models.AddrPtr(recipient)})
		s.ErrorIs(s.store.Commit(s.ctx, n, e), storage.ErrNotFound)
	})
}

func (s *StoreSuite) TestListEvents() {
	t, genesis := s.newTreasury()
	s.Require().NoError(s.store.CreateTreasury(s.ctx, t, genesis))

	cur := t
	for i := 1; i <= 4; i++ {
		n, e := s.next(cur, models.EventDeposited, models.EventData{Depositor: models.AddrPtr(admin), Amount: big.NewInt(int64(i))})
		n.Balance.Add(n.Balance, big.NewInt(int64(i)))
		s.Require().NoError(s.store.Commit(s.ctx, n, e))
		cur = n
	}

	s.Run("pages by sequence", func() {
		page, err := s.store.ListEvents(s.ctx, t.ID, 1, 2)
		s.Require().NoError(err)
		s.Require().Len(page, 2)
		s.Equal(uint64(2), page[0].Seq)
		s.Equal(uint64(3), page[1].Seq)
	})

	s.Run("past the end is empty", func() {
		page, err := s.store.ListEvents(s.ctx, t.ID, 5, 10)
		s.Require().NoError(err)
		s.Empty(page)
	})

	s.Run("unknown treasury", func() {
		_, err := s.store.ListEvents(s.ctx, uuid.NewString(), 0, 0)
		s.ErrorIs(err, storage.ErrNotFound)
	})

	s.Run("list treasuries", func() {
		all, err := s.store.ListTreasuries(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 1)
		s.Equal(t.ID, all[0].ID)
		s.Equal("10", all[0].Balance.String())
	})
}
