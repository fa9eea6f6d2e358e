package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
	"github.com/mcoot/xrkiosk/internal/storage/storagetest"
	"github.com/mcoot/xrkiosk/internal/testutil"
)

func TestStorageContract(t *testing.T) {
	contract := &storagetest.ContractSuite{}
	contract.NewStorage = func() storage.Storage {
		mini := miniredis.RunT(contract.T())
		client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
		return NewWithClient(client, DefaultConfig(), testutil.NopLogger())
	}
	suite.Run(t, contract)
}

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.TeamTTL = time.Hour
	cfg.LogRetention = 3

	s.storage = NewWithClient(client, cfg, testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestKeyLayout() {
	s.Require().NoError(s.storage.SaveTeam(s.ctx, storagetest.NewTeam("nk1-12345", "nk1", 2)))

	s.True(s.mini.Exists("xrkiosk:team:nk1-12345"))
	s.True(s.mini.Exists("xrkiosk:team:nk1-12345:players"))
	order, err := s.mini.List("xrkiosk:team:nk1-12345:order")
	s.Require().NoError(err)
	s.Equal([]string{"player-1", "player-2"}, order)
}

func (s *StorageSuite) TestTeamTTLApplied() {
	s.Require().NoError(s.storage.SaveTeam(s.ctx, storagetest.NewTeam("nk1-12345", "nk1", 1)))

	s.Equal(time.Hour, s.mini.TTL("xrkiosk:team:nk1-12345"))
	s.Equal(time.Hour, s.mini.TTL("xrkiosk:team:nk1-12345:players"))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetTeam(s.ctx, "nk1-12345")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *StorageSuite) TestSetTeamStatusKeepsTTL() {
	s.Require().NoError(s.storage.SaveTeam(s.ctx, storagetest.NewTeam("nk1-12345", "nk1", 1)))
	s.mini.FastForward(10 * time.Minute)

	s.Require().NoError(s.storage.SetTeamStatus(s.ctx, "nk1-12345", model.TeamStatusReadyForGameplay, time.Now()))

	s.Equal(50*time.Minute, s.mini.TTL("xrkiosk:team:nk1-12345"))
}

func (s *StorageSuite) TestResaveReplacesRoster() {
	team := storagetest.NewTeam("nk1-12345", "nk1", 3)
	s.Require().NoError(s.storage.SaveTeam(s.ctx, team))

	team.Players = team.Players[:1]
	s.Require().NoError(s.storage.SaveTeam(s.ctx, team))

	got, err := s.storage.GetTeam(s.ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Len(got.Players, 1)
}

func (s *StorageSuite) TestLogRetention() {
	for i, code := range []model.SessionCode{"nk1-10001", "nk1-10002", "nk1-10003", "nk1-10004"} {
		s.Require().NoError(s.storage.AppendLog(s.ctx, storagetest.NewLog(code, "nk1", time.Duration(i)*time.Minute)))
	}

	logs, err := s.storage.RecentLogs(s.ctx, "", 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 3)
	s.Equal(model.SessionCode("nk1-10004"), logs[0].SessionCode)
	s.Equal(model.SessionCode("nk1-10002"), logs[2].SessionCode)
}

func (s *StorageSuite) TestRecentLogsSkipsCorruptEntries() {
	s.Require().NoError(s.storage.AppendLog(s.ctx, storagetest.NewLog("nk1-10001", "nk1", 0)))
	_, err := s.mini.Lpush("xrkiosk:logs", "not json")
	s.Require().NoError(err)

	logs, err := s.storage.RecentLogs(s.ctx, "", 10)
	s.Require().NoError(err)
	s.Len(logs, 1)
}
