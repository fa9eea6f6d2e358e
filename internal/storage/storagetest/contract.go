// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// ContractSuite runs the document store contract against a backend.
// NewStorage is called once per test.
type ContractSuite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *ContractSuite) SetupTest() {
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *ContractSuite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

// NewTeam builds a completed team with the given number of players
func NewTeam(code model.SessionCode, storeID string, players int) *model.Team {
	team := model.NewTeam(storeID, model.DefaultMaxPlayers, baseTime)
	team.SessionCode = code
	team.TeamName = "Team " + string(code)
	team.SelectedGame = model.DefaultGame
	team.Status = model.TeamStatusCompleted
	completed := baseTime.Add(10 * time.Minute)
	team.CompletedAt = &completed
	for i := 0; i < players; i++ {
		color, _ := model.ColorAt(i)
		team.Players = append(team.Players, model.Player{
			ID:            model.PlayerIDAt(i),
			Name:          fmt.Sprintf("Player %d", i+1),
			Email:         fmt.Sprintf("p%d@example.com", i+1),
			Phone:         "0400 000 000",
			DateOfBirth:   "1990-01-01",
			Gender:        model.GenderOther,
			Color:         color,
			Signature:     "https://blobs/sig.png",
			AgreedToTerms: true,
			ConsentFlags:  model.ConsentFlags{AgreeTerms: true, AgreeEsign: true, AgreeEmail: true},
			SignatureMeta: &model.SignatureMeta{Timestamp: baseTime, Origin: "10.0.0.1", TermsVersion: "v1"},
		})
	}
	return team
}

// NewLog builds a registration log for a team
func NewLog(code model.SessionCode, storeID string, offset time.Duration) model.RegistrationLog {
	return model.RegistrationLog{
		ID:           "log-" + string(code),
		SessionCode:  code,
		TeamName:     "Team " + string(code),
		PlayerCount:  2,
		StoreID:      storeID,
		SelectedGame: model.DefaultGame,
		Status:       model.RegistrationLogStatus,
		CompletedAt:  baseTime.Add(offset),
	}
}

func (s *ContractSuite) TestSaveAndGetTeam() {
	team := NewTeam("nk1-12345", "nk1", 3)
	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, team))

	got, err := s.Storage.GetTeam(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Equal(team.SessionCode, got.SessionCode)
	s.Equal(team.TeamName, got.TeamName)
	s.Equal(team.StoreID, got.StoreID)
	s.Equal(team.SelectedGame, got.SelectedGame)
	s.Equal(model.TeamStatusCompleted, got.Status)
	s.Equal(team.MaxPlayers, got.MaxPlayers)
	s.True(team.CreatedAt.Equal(got.CreatedAt))
	s.Require().NotNil(got.CompletedAt)
	s.True(team.CompletedAt.Equal(*got.CompletedAt))

	s.Require().Len(got.Players, 3)
	for i, p := range got.Players {
		s.Equal(model.PlayerIDAt(i), p.ID, "join order kept")
		s.Equal(team.Players[i].Color, p.Color)
		s.Equal(team.Players[i].Name, p.Name)
		s.Equal(team.Players[i].ConsentFlags, p.ConsentFlags)
		s.Require().NotNil(p.SignatureMeta)
		s.Equal("10.0.0.1", p.SignatureMeta.Origin)
	}
}

func (s *ContractSuite) TestSavedTeamIsNotAliased() {
	team := NewTeam("nk1-12345", "nk1", 1)
	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, team))

	team.Players[0].Name = "changed after save"

	got, err := s.Storage.GetTeam(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Equal("Player 1", got.Players[0].Name)
}

func (s *ContractSuite) TestGetTeamNotFound() {
	_, err := s.Storage.GetTeam(s.Ctx, "nk1-00000")
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *ContractSuite) TestTeamExists() {
	exists, err := s.Storage.TeamExists(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, NewTeam("nk1-12345", "nk1", 1)))

	exists, err = s.Storage.TeamExists(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ContractSuite) TestPatchPlayer() {
	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, NewTeam("nk1-12345", "nk1", 2)))

	s.Require().NoError(s.Storage.PatchPlayer(s.Ctx, "nk1-12345", "player-2", model.PhotoPatch("https://blobs/photo.png")))
	s.Require().NoError(s.Storage.PatchPlayer(s.Ctx, "nk1-12345", "player-2", model.WeaponPatch(model.WeaponShotgun)))

	got, err := s.Storage.GetTeam(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	p := got.GetPlayer("player-2")
	s.Require().NotNil(p)
	s.True(p.HasPhoto)
	s.Equal("https://blobs/photo.png", p.PhotoURL)
	s.True(p.HasWeapon)
	s.Equal(model.WeaponShotgun, p.SelectedWeapon)
	s.Equal("Player 2", p.Name, "identity fields untouched")

	other := got.GetPlayer("player-1")
	s.False(other.HasPhoto)
	s.False(other.HasWeapon)
}

func (s *ContractSuite) TestPatchPlayerLastWriteWins() {
	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, NewTeam("nk1-12345", "nk1", 1)))

	s.Require().NoError(s.Storage.PatchPlayer(s.Ctx, "nk1-12345", "player-1", model.WeaponPatch(model.WeaponShotgun)))
	s.Require().NoError(s.Storage.PatchPlayer(s.Ctx, "nk1-12345", "player-1", model.WeaponPatch(model.WeaponDualPistols)))

	got, err := s.Storage.GetTeam(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Equal(model.WeaponDualPistols, got.Players[0].SelectedWeapon)
}

func (s *ContractSuite) TestPatchPlayerMissing() {
	err := s.Storage.PatchPlayer(s.Ctx, "nk1-00000", "player-1", model.WeaponPatch(model.WeaponShotgun))
	s.ErrorIs(err, model.ErrTeamNotFound)

	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, NewTeam("nk1-12345", "nk1", 1)))
	err = s.Storage.PatchPlayer(s.Ctx, "nk1-12345", "player-9", model.WeaponPatch(model.WeaponShotgun))
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *ContractSuite) TestSetTeamStatus() {
	s.Require().NoError(s.Storage.SaveTeam(s.Ctx, NewTeam("nk1-12345", "nk1", 1)))

	at := baseTime.Add(time.Hour)
	s.Require().NoError(s.Storage.SetTeamStatus(s.Ctx, "nk1-12345", model.TeamStatusReadyForGameplay, at))

	got, err := s.Storage.GetTeam(s.Ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Equal(model.TeamStatusReadyForGameplay, got.Status)
	s.Require().NotNil(got.StaffCompletedAt)
	s.True(at.Equal(*got.StaffCompletedAt))
	s.Len(got.Players, 1)

	err = s.Storage.SetTeamStatus(s.Ctx, "nk1-00000", model.TeamStatusReadyForGameplay, at)
	s.ErrorIs(err, model.ErrTeamNotFound)
}

func (s *ContractSuite) TestRecentLogsNewestFirstAndScoped() {
	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("nk1-10001", "nk1", time.Minute)))
	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("sb2-10002", "sb2", 2*time.Minute)))
	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("nk1-10003", "nk1", 3*time.Minute)))

	all, err := s.Storage.RecentLogs(s.Ctx, model.DefaultStoreScope, 10)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(model.SessionCode("nk1-10003"), all[0].SessionCode)
	s.Equal(model.SessionCode("nk1-10001"), all[2].SessionCode)

	unscoped, err := s.Storage.RecentLogs(s.Ctx, "", 10)
	s.Require().NoError(err)
	s.Len(unscoped, 3)

	nk1, err := s.Storage.RecentLogs(s.Ctx, "nk1", 10)
	s.Require().NoError(err)
	s.Require().Len(nk1, 2)
	for _, l := range nk1 {
		s.Equal("nk1", l.StoreID)
	}
	s.Equal(model.RegistrationLogStatus, nk1[0].Status)
	s.True(baseTime.Add(3 * time.Minute).Equal(nk1[0].CompletedAt))

	limited, err := s.Storage.RecentLogs(s.Ctx, "", 1)
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(model.SessionCode("nk1-10003"), limited[0].SessionCode)
}

func (s *ContractSuite) TestSubscribeLogs() {
	ctx, cancel := context.WithCancel(s.Ctx)
	defer cancel()

	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("nk1-10001", "nk1", time.Minute)))

	ch, err := s.Storage.SubscribeLogs(ctx, "nk1", 2)
	s.Require().NoError(err)

	initial := s.receive(ch)
	s.Require().Len(initial, 1)
	s.Equal(model.SessionCode("nk1-10001"), initial[0].SessionCode)

	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("sb2-10002", "sb2", 2*time.Minute)))
	s.Require().NoError(s.Storage.AppendLog(s.Ctx, NewLog("nk1-10003", "nk1", 3*time.Minute)))

	update := s.receive(ch)
	s.Require().Len(update, 2, "other venues are filtered out")
	s.Equal(model.SessionCode("nk1-10003"), update[0].SessionCode)
	s.Equal(model.SessionCode("nk1-10001"), update[1].SessionCode)

	cancel()
	s.Eventually(func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *ContractSuite) receive(ch <-chan []model.RegistrationLog) []model.RegistrationLog {
	select {
	case logs, ok := <-ch:
		s.Require().True(ok, "channel closed")
		return logs
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for logs")
		return nil
	}
}
