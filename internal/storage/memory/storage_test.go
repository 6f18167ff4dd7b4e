package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage/storagetest"
)

type StorageSuite struct {
	storagetest.Suite
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.NewBackend = func() storagetest.Backend { return New() }
	s.Suite.SetupTest()
}

func (s *StorageSuite) TestLoadedRecordIsACopy() {
	rec := &model.RoomRecord{Code: "ABC123", Name: "ABC123", Slots: map[model.Color]model.SlotRecord{}, CreatedAt: s.Now}
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, rec))

	got, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	got.Name = "changed"

	again, err := s.Store.LoadRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal("ABC123", again.Name)
}
