package sqldb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/threestones/internal/model"
	"github.com/mcoot/threestones/internal/storage/storagetest"
	"github.com/mcoot/threestones/internal/testutil"
)

type StorageSuite struct {
	storagetest.Suite
	storage *Storage
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.NewBackend = func() storagetest.Backend {
		cfg := DefaultConfig()
		cfg.DSN = filepath.Join(s.T().TempDir(), "rooms.db")

		store, err := Open(context.Background(), cfg, testutil.TestLogger(s.T()))
		s.Require().NoError(err)
		s.storage = store
		return store
	}
	s.Suite.SetupTest()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestMigrateIsIdempotent() {
	s.NoError(Migrate(s.storage.db, DriverSQLite, testutil.TestLogger(s.T())))
}

func (s *StorageSuite) TestNullableColumnsStayNull() {
	rec := &model.RoomRecord{Code: "OPEN01", Name: "open", CreatedAt: s.Now}
	s.Require().NoError(s.Store.UpsertRoom(s.Ctx, rec))

	var hash, state *string
	err := s.storage.db.QueryRowxContext(s.Ctx,
		`SELECT password_hash, game_state FROM three_stones_rooms WHERE room_code = ?`, "OPEN01",
	).Scan(&hash, &state)
	s.Require().NoError(err)
	s.Nil(hash)
	s.Nil(state)
}

func (s *StorageSuite) TestOpenRejectsUnknownDriver() {
	cfg := DefaultConfig()
	cfg.Driver = "nope"

	_, err := Open(context.Background(), cfg, testutil.NopLogger())
	s.Error(err)
}
