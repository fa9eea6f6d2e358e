package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/xrkiosk/internal/dependencies/mocks"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/storage/memory"
	"github.com/mcoot/xrkiosk/internal/testutil"
)

const signature = "data:image/png;base64,iVBORw0KGgo="

var allConsent = model.ConsentFlags{AgreeTerms: true, AgreeEsign: true, AgreeEmail: true}

type ControllerSuite struct {
	suite.Suite
	storage    *mocks.FlakyStorage
	uploader   *mocks.MockUploader
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	cfg        Config
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = mocks.NewFlakyStorage(memory.New())
	s.uploader = mocks.NewMockUploader()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.cfg = Config{StoreID: "nk1", MaxPlayers: 6, TermsVersion: "2024-01"}
	s.ctx = context.Background()
	s.rebuild()
}

func (s *ControllerSuite) rebuild() {
	s.controller = NewController(s.cfg, s.storage, s.uploader, mocks.NewStaticOrigin("203.0.113.7"), s.clock, s.random, testutil.NopLogger())
}

func validDetails(name string) Details {
	return Details{
		Name:        name,
		Email:       "player@example.com",
		Phone:       "+81 (90) 1234-5678",
		DateOfBirth: "1995-04-12",
		Gender:      model.GenderFemale,
	}
}

// toUserDetails drives a new session to the first user-details step
func (s *ControllerSuite) toUserDetails() *Session {
	session := s.controller.NewSession("kiosk-1")
	s.random.QueueIntn(2345)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))
	s.Require().NoError(s.controller.Continue(session))
	return session
}

// registerPlayer takes a session at user-details through to team-name
func (s *ControllerSuite) registerPlayer(session *Session, name string) {
	s.Require().NoError(s.controller.SubmitDetails(session, validDetails(name)))
	s.Require().NoError(s.controller.Confirm(session))
	s.Require().NoError(s.controller.AcceptTerms(s.ctx, session, TermsInput{Signature: signature, Consent: allConsent}))
}

func (s *ControllerSuite) TestNewSessionStartsAtWelcome() {
	session := s.controller.NewSession("kiosk-1")

	s.Equal(model.StepWelcome, session.Step)
	s.Empty(session.Team.Players)
	s.Equal(6, session.Team.MaxPlayers)
	s.Equal("nk1", session.Team.StoreID)
	s.Empty(session.Team.SessionCode)
	s.Nil(session.Draft)
}

func (s *ControllerSuite) TestHappyPathSinglePlayer() {
	session := s.toUserDetails()
	s.Equal(model.SessionCode("nk1-12345"), session.Team.SessionCode)
	s.Equal(model.DefaultGame, session.Team.SelectedGame)
	s.Require().NotNil(session.Draft)
	s.Equal(model.PlayerID("player-1"), session.Draft.ID)
	s.Equal(model.ColorRed, session.Draft.Color)

	s.registerPlayer(session, "Aiko")
	s.Equal(model.StepTeamName, session.Step)
	s.Nil(session.Draft)
	s.Require().Len(session.Team.Players, 1)

	p := session.Team.Players[0]
	s.Equal("Aiko", p.Name)
	s.Equal("mem://signatures/nk1-12345/player-1.png", p.Signature)
	s.True(p.AgreedToTerms)
	s.Equal(allConsent, p.ConsentFlags)
	s.Require().NotNil(p.SignatureMeta)
	s.Equal("203.0.113.7", p.SignatureMeta.Origin)
	s.Equal("2024-01", p.SignatureMeta.TermsVersion)
	s.Equal(s.clock.Now(), p.SignatureMeta.Timestamp)
	s.False(p.HasPhoto)
	s.False(p.HasWeapon)

	s.Require().NoError(s.controller.Finalize(s.ctx, session, "  Night Owls "))
	s.Equal(model.StepCompletion, session.Step)
	s.Empty(session.Warning)

	saved, err := s.storage.GetTeam(s.ctx, "nk1-12345")
	s.Require().NoError(err)
	s.Equal("Night Owls", saved.TeamName)
	s.Equal(model.TeamStatusCompleted, saved.Status)
	s.Len(saved.Players, 1)

	logs, err := s.storage.RecentLogs(s.ctx, "nk1", 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 1)
	s.Equal(model.SessionCode("nk1-12345"), logs[0].SessionCode)
	s.Equal("Night Owls", logs[0].TeamName)
	s.Equal(1, logs[0].PlayerCount)
	s.Equal(model.RegistrationLogStatus, logs[0].Status)
	s.NotEmpty(logs[0].ID)
}

func (s *ControllerSuite) TestColorsFollowPaletteAndRosterIsCapped() {
	s.cfg.MaxPlayers = 4
	s.rebuild()

	session := s.toUserDetails()
	for i := 0; i < 4; i++ {
		s.Equal(model.Palette[i], session.Draft.Color)
		s.registerPlayer(session, "Player")
		if i < 3 {
			s.Require().NoError(s.controller.AddMember(session))
		}
	}

	s.Require().Len(session.Team.Players, 4)
	for i, p := range session.Team.Players {
		s.Equal(model.Palette[i], p.Color)
		s.Equal(model.PlayerIDAt(i), p.ID)
	}

	s.ErrorIs(s.controller.AddMember(session), model.ErrTeamFull)
	s.Equal(model.StepTeamName, session.Step)
	s.Len(session.Team.Players, 4)
}

func (s *ControllerSuite) TestSessionCodeGeneratedOnce() {
	session := s.controller.NewSession("kiosk-1")
	s.random.QueueIntn(1, 2)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))
	s.Equal(model.SessionCode("nk1-10001"), session.Team.SessionCode)

	// Force a second pass through game selection
	session.Step = model.StepGameSelection
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))
	s.Equal(model.SessionCode("nk1-10001"), session.Team.SessionCode)
}

func (s *ControllerSuite) TestSessionCodeSkipsStoredCodes() {
	existing := model.NewTeam("nk1", 6, s.clock.Now())
	existing.SessionCode = "nk1-10001"
	s.Require().NoError(s.storage.SaveTeam(s.ctx, existing))

	session := s.controller.NewSession("kiosk-1")
	s.random.QueueIntn(1, 2)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))

	s.Equal(model.SessionCode("nk1-10002"), session.Team.SessionCode)
	s.True(session.Team.SessionCode.Valid())
}

func (s *ControllerSuite) TestSessionCodeLookupFailureDoesNotBlock() {
	s.storage.TeamExistsErr = errors.New("store offline")

	session := s.controller.NewSession("kiosk-1")
	s.random.QueueIntn(500)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))

	s.Equal(model.SessionCode("nk1-10500"), session.Team.SessionCode)
}

func (s *ControllerSuite) TestSelectGameValidation() {
	session := s.controller.NewSession("kiosk-1")
	s.Require().NoError(s.controller.Start(session))

	s.ErrorIs(s.controller.SelectGame(s.ctx, session, " "), model.ErrGameRequired)
	s.ErrorIs(s.controller.SelectGame(s.ctx, session, "Pac-Man"), model.ErrUnknownGame)
	s.Equal(model.StepGameSelection, session.Step)
	s.Empty(session.Team.SessionCode)
}

func (s *ControllerSuite) TestInvalidStoreIDRejected() {
	s.cfg.StoreID = "bad store"
	s.rebuild()

	session := s.controller.NewSession("kiosk-1")
	s.Require().NoError(s.controller.Start(session))
	s.ErrorIs(s.controller.SelectGame(s.ctx, session, model.DefaultGame), model.ErrInvalidStoreID)
}

func (s *ControllerSuite) TestKioskVenueScopesSessionCode() {
	session, err := s.controller.NewSessionAt("kiosk-2", " sb2 ")
	s.Require().NoError(err)
	s.Equal("sb2", session.StoreID)
	s.Equal("sb2", session.Team.StoreID)

	s.random.QueueIntn(2345)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))
	s.Equal(model.SessionCode("sb2-12345"), session.Team.SessionCode)

	s.controller.Reset(session)
	s.Equal("sb2", session.StoreID)
	s.Equal("sb2", session.Team.StoreID)
	s.Empty(session.Team.SessionCode)

	fallback, err := s.controller.NewSessionAt("kiosk-3", "")
	s.Require().NoError(err)
	s.Equal("nk1", fallback.StoreID)

	_, err = s.controller.NewSessionAt("kiosk-4", "sb-2")
	s.ErrorIs(err, model.ErrInvalidStoreID)
}

func (s *ControllerSuite) TestInvalidEmailBlocksConfirmation() {
	session := s.toUserDetails()
	before := session.Team.Clone()
	draftBefore := *session.Draft

	details := validDetails("Aiko")
	details.Email = "abc"
	err := s.controller.SubmitDetails(session, details)

	s.ErrorIs(err, model.ErrValidation)
	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "email")
	s.Len(verr.Fields, 1)

	s.Equal(model.StepUserDetails, session.Step)
	s.Equal(before, session.Team)
	s.Equal(draftBefore, *session.Draft)
}

func (s *ControllerSuite) TestDetailsValidationReportsEveryField() {
	session := s.toUserDetails()

	err := s.controller.SubmitDetails(session, Details{Phone: "abc", DateOfBirth: "12/04/1995", Gender: "robot"})

	var verr *model.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"date_of_birth", "email", "gender", "name", "phone"}, sortedKeys(verr.Fields))
}

func (s *ControllerSuite) TestEditReturnsToDetails() {
	session := s.toUserDetails()
	s.Require().NoError(s.controller.SubmitDetails(session, validDetails("Aiko")))
	s.Require().NoError(s.controller.Edit(session))
	s.Equal(model.StepUserDetails, session.Step)
	s.Equal("Aiko", session.Draft.Name, "draft kept for editing")

	s.Require().NoError(s.controller.SubmitDetails(session, validDetails("Aiko S")))
	s.Equal("Aiko S", session.Draft.Name)
}

func (s *ControllerSuite) TestTermsRequireSignatureAndConsent() {
	session := s.toUserDetails()
	s.Require().NoError(s.controller.SubmitDetails(session, validDetails("Aiko")))
	s.Require().NoError(s.controller.Confirm(session))

	err := s.controller.AcceptTerms(s.ctx, session, TermsInput{Consent: allConsent})
	s.ErrorIs(err, model.ErrSignatureRequired)

	partial := allConsent
	partial.AgreeEmail = false
	err = s.controller.AcceptTerms(s.ctx, session, TermsInput{Signature: signature, Consent: partial})
	s.ErrorIs(err, model.ErrConsentRequired)

	s.Equal(model.StepTerms, session.Step)
	s.Empty(session.Team.Players)
	s.Empty(s.uploader.Uploads)
}

func (s *ControllerSuite) TestSignatureUploadFailureDoesNotBlock() {
	s.uploader.Err = errors.New("blob store unavailable")
	session := s.toUserDetails()

	s.registerPlayer(session, "Aiko")

	s.Equal(model.StepTeamName, session.Step)
	s.Require().Len(session.Team.Players, 1)
	s.Empty(session.Team.Players[0].Signature)
	s.True(session.Team.Players[0].AgreedToTerms)
}

func (s *ControllerSuite) TestSaveFailureStillCompletesWithWarning() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")

	s.storage.SaveTeamErr = errors.New("store offline")
	s.Require().NoError(s.controller.Finalize(s.ctx, session, "Night Owls"))

	s.Equal(model.StepCompletion, session.Step)
	s.True(session.SaveFailed)
	s.Equal(SaveFailedWarning, session.Warning)
	s.Equal(0, s.storage.AppendLogCalls)

	err := s.controller.RetrySave(s.ctx, session)
	s.Error(err)
	s.True(session.SaveFailed)

	s.storage.SaveTeamErr = nil
	s.Require().NoError(s.controller.RetrySave(s.ctx, session))
	s.False(session.SaveFailed)
	s.Empty(session.Warning)

	exists, err := s.storage.TeamExists(s.ctx, session.Team.SessionCode)
	s.Require().NoError(err)
	s.True(exists)
	s.Equal(1, s.storage.AppendLogCalls)
}

func (s *ControllerSuite) TestLogFailureIsSwallowed() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")

	s.storage.AppendLogErr = errors.New("log unavailable")
	s.Require().NoError(s.controller.Finalize(s.ctx, session, "Night Owls"))

	s.False(session.SaveFailed)
	s.Empty(session.Warning)
}

func (s *ControllerSuite) TestRetryWithoutFailureRejected() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")
	s.Require().NoError(s.controller.Finalize(s.ctx, session, "Night Owls"))

	s.ErrorIs(s.controller.RetrySave(s.ctx, session), model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestFinalizeRequiresTeamName() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")

	s.ErrorIs(s.controller.Finalize(s.ctx, session, "   "), model.ErrTeamNameRequired)
	s.Equal(model.StepTeamName, session.Step)
	s.Equal(0, s.storage.SaveTeamCalls)
}

func (s *ControllerSuite) TestTeamNameInputVariant() {
	s.cfg.TeamNameInputStep = true
	s.rebuild()

	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")

	s.ErrorIs(s.controller.Finalize(s.ctx, session, "Night Owls"), model.ErrInvalidTransition)
	s.Require().NoError(s.controller.ProceedToTeamNameInput(session))
	s.Equal(model.StepTeamNameInput, session.Step)
	s.Require().NoError(s.controller.Finalize(s.ctx, session, "Night Owls"))
	s.Equal(model.StepCompletion, session.Step)
}

func (s *ControllerSuite) TestTeamNameInputDisabledByDefault() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")

	s.ErrorIs(s.controller.ProceedToTeamNameInput(session), model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestOutOfOrderActionsRejected() {
	session := s.controller.NewSession("kiosk-1")

	s.ErrorIs(s.controller.Continue(session), model.ErrInvalidTransition)
	s.ErrorIs(s.controller.Confirm(session), model.ErrInvalidTransition)
	s.ErrorIs(s.controller.AddMember(session), model.ErrInvalidTransition)
	s.ErrorIs(s.controller.Finalize(s.ctx, session, "x"), model.ErrInvalidTransition)
	s.ErrorIs(s.controller.AcceptTerms(s.ctx, session, TermsInput{Signature: signature, Consent: allConsent}), model.ErrInvalidTransition)
	s.Equal(model.StepWelcome, session.Step)
}

func (s *ControllerSuite) TestResetDiscardsState() {
	session := s.toUserDetails()
	s.registerPlayer(session, "Aiko")
	s.Require().NoError(s.controller.Finalize(s.ctx, session, "Night Owls"))

	s.controller.Reset(session)

	s.Equal("kiosk-1", session.ID)
	s.Equal(model.StepWelcome, session.Step)
	s.Empty(session.Team.SessionCode)
	s.Empty(session.Team.Players)
	s.Nil(session.Draft)

	s.random.QueueIntn(7)
	s.Require().NoError(s.controller.Start(session))
	s.Require().NoError(s.controller.SelectGame(s.ctx, session, model.DefaultGame))
	s.Equal(model.SessionCode("nk1-10007"), session.Team.SessionCode)
}
