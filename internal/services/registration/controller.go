// Package registration drives the player-facing registration wizard.
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/dependencies/clock"
	"github.com/mcoot/xrkiosk/internal/dependencies/origin"
	"github.com/mcoot/xrkiosk/internal/dependencies/random"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/session"
	"github.com/mcoot/xrkiosk/internal/storage"
)

const (
	// DefaultTermsVersion is stamped into signature metadata when none is configured
	DefaultTermsVersion = "v1"
	// MaxCodeAttempts bounds the search for an unused session code
	MaxCodeAttempts = 20
	// SaveFailedWarning is shown on the completion screen when the team was not stored
	SaveFailedWarning = "registration could not be saved; ask staff to retry"
)

// Uploader stores artifacts given as data URIs and returns a public reference
type Uploader interface {
	UploadDataURI(ctx context.Context, path, dataURI string) (string, error)
}

// Ensure blob.Store can be used as an Uploader
var _ Uploader = (*blob.Store)(nil)

// Config holds the registration settings shared by every kiosk
type Config struct {
	// StoreID is the venue of kiosks that do not name their own
	StoreID      string
	MaxPlayers   int
	TermsVersion string
	// TeamNameInputStep inserts a separate team-name-input step before completion
	TeamNameInputStep bool
	Games             model.GameCatalog
}

// Session is the in-memory state of one registration kiosk
type Session struct {
	ID      string                 `json:"id"`
	StoreID string                 `json:"store_id"`
	Step    model.RegistrationStep `json:"step"`
	Team    *model.Team            `json:"team"`
	Draft   *model.PlayerDraft     `json:"draft,omitempty"`

	// Warning is set when finalization could not be persisted
	Warning    string `json:"warning,omitempty"`
	SaveFailed bool   `json:"save_failed"`
}

// TermsInput is what the terms step submits
type TermsInput struct {
	// Signature is the signature pad image as a data URI
	Signature string             `json:"signature"`
	Consent   model.ConsentFlags `json:"consent"`
}

// Controller manages the registration step machine
type Controller struct {
	cfg      Config
	storage  storage.Storage
	uploader Uploader
	origin   origin.Resolver
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new registration Controller
func NewController(
	cfg Config,
	storage storage.Storage,
	uploader Uploader,
	resolver origin.Resolver,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	if cfg.TermsVersion == "" {
		cfg.TermsVersion = DefaultTermsVersion
	}
	if cfg.MaxPlayers <= 0 {
		cfg.MaxPlayers = model.DefaultMaxPlayers
	}
	if cfg.Games == nil {
		cfg.Games = model.DefaultGameCatalog()
	}
	return &Controller{
		cfg:      cfg,
		storage:  storage,
		uploader: uploader,
		origin:   resolver,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "registration")),
	}
}

// Games returns the titles offered on the game-selection step
func (c *Controller) Games() model.GameCatalog {
	return c.cfg.Games
}

// NewSession creates a session at the welcome step with an empty team at
// the default venue
func (c *Controller) NewSession(id string) *Session {
	return c.newSession(id, c.cfg.StoreID)
}

// NewSessionAt creates a session for a kiosk at the given venue. An empty
// store ID falls back to the default venue.
func (c *Controller) NewSessionAt(id, storeID string) (*Session, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return c.NewSession(id), nil
	}
	if !model.ValidStoreID(storeID) {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidStoreID, storeID)
	}
	return c.newSession(id, storeID), nil
}

func (c *Controller) newSession(id, storeID string) *Session {
	return &Session{
		ID:      id,
		StoreID: storeID,
		Step:    model.StepWelcome,
		Team:    model.NewTeam(storeID, c.cfg.MaxPlayers, c.clock.Now()),
	}
}

// Start moves from welcome to game selection
func (c *Controller) Start(s *Session) error {
	if err := expectStep(s, model.StepWelcome, model.StepGameSelection); err != nil {
		return err
	}
	s.Step = model.StepGameSelection
	return nil
}

// SelectGame records the game and assigns the team's session code the first
// time it is called
func (c *Controller) SelectGame(ctx context.Context, s *Session, game string) error {
	if err := expectStep(s, model.StepGameSelection, model.StepSessionCode); err != nil {
		return err
	}
	game = strings.TrimSpace(game)
	if game == "" {
		return model.ErrGameRequired
	}
	if !c.cfg.Games.Contains(game) {
		return fmt.Errorf("%w: %q", model.ErrUnknownGame, game)
	}

	if s.Team.SessionCode == "" {
		code, err := c.newSessionCode(ctx, s.StoreID)
		if err != nil {
			return err
		}
		s.Team.SessionCode = code
		c.logger.Info("session code assigned",
			slog.String("store_id", s.StoreID),
			slog.String("session_code", string(code)))
	}
	s.Team.SelectedGame = game
	s.Step = model.StepSessionCode
	return nil
}

// newSessionCode draws codes until one is not already stored. A failing
// lookup is logged and the drawn code is used as is.
func (c *Controller) newSessionCode(ctx context.Context, storeID string) (model.SessionCode, error) {
	if !model.ValidStoreID(storeID) {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidStoreID, storeID)
	}
	var code model.SessionCode
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code = session.NewCode(c.random, storeID)
		exists, err := c.storage.TeamExists(ctx, code)
		if err != nil {
			c.logger.Warn("session code collision check failed",
				slog.String("session_code", string(code)),
				slog.String("error", err.Error()))
			return code, nil
		}
		if !exists {
			return code, nil
		}
	}
	c.logger.Warn("no unused session code found, reusing last draw",
		slog.String("session_code", string(code)),
		slog.Int("attempts", MaxCodeAttempts))
	return code, nil
}

// Continue moves from the session code screen to the first player's details
func (c *Controller) Continue(s *Session) error {
	if err := expectStep(s, model.StepSessionCode, model.StepUserDetails); err != nil {
		return err
	}
	if s.Draft == nil {
		draft, err := newDraft(len(s.Team.Players))
		if err != nil {
			return err
		}
		s.Draft = draft
	}
	s.Step = model.StepUserDetails
	return nil
}

// SubmitDetails validates the identity fields and moves to confirmation.
// On validation failure neither the team nor the draft change.
func (c *Controller) SubmitDetails(s *Session, details Details) error {
	if err := expectStep(s, model.StepUserDetails, model.StepConfirmation); err != nil {
		return err
	}
	if s.Draft == nil {
		return fmt.Errorf("%w: no player in progress", model.ErrInvalidTransition)
	}
	details = details.Normalize()
	if err := details.Validate(c.clock.Now()); err != nil {
		return err
	}

	s.Draft.Name = details.Name
	s.Draft.Email = details.Email
	s.Draft.Phone = details.Phone
	s.Draft.DateOfBirth = details.DateOfBirth
	s.Draft.Gender = details.Gender
	s.Step = model.StepConfirmation
	return nil
}

// Edit returns from confirmation to the details form
func (c *Controller) Edit(s *Session) error {
	if err := expectStep(s, model.StepConfirmation, model.StepUserDetails); err != nil {
		return err
	}
	s.Step = model.StepUserDetails
	return nil
}

// Confirm accepts the details and moves to the terms step
func (c *Controller) Confirm(s *Session) error {
	if err := expectStep(s, model.StepConfirmation, model.StepTerms); err != nil {
		return err
	}
	s.Step = model.StepTerms
	return nil
}

// AcceptTerms appends the current player to the team. The signature upload is
// best-effort: on failure the player is stored with an empty signature reference.
func (c *Controller) AcceptTerms(ctx context.Context, s *Session, input TermsInput) error {
	if err := expectStep(s, model.StepTerms, model.StepTeamName); err != nil {
		return err
	}
	if s.Draft == nil {
		return fmt.Errorf("%w: no player in progress", model.ErrInvalidTransition)
	}
	if strings.TrimSpace(input.Signature) == "" {
		return model.ErrSignatureRequired
	}
	if !input.Consent.All() {
		return model.ErrConsentRequired
	}
	if s.Team.IsFull() {
		return model.ErrTeamFull
	}

	draft := s.Draft
	logger := c.logger.With(
		slog.String("session_code", string(s.Team.SessionCode)),
		slog.String("player_id", string(draft.ID)))

	signatureRef, err := c.uploader.UploadDataURI(ctx, blob.SignaturePath(s.Team.SessionCode, draft.ID), input.Signature)
	if err != nil {
		logger.Warn("signature upload failed, continuing without reference", slog.String("error", err.Error()))
		signatureRef = ""
	}

	s.Team.Players = append(s.Team.Players, model.Player{
		ID:            draft.ID,
		Name:          draft.Name,
		Email:         draft.Email,
		Phone:         draft.Phone,
		DateOfBirth:   draft.DateOfBirth,
		Gender:        draft.Gender,
		Color:         draft.Color,
		Signature:     signatureRef,
		AgreedToTerms: true,
		ConsentFlags:  input.Consent,
		SignatureMeta: &model.SignatureMeta{
			Timestamp:    c.clock.Now(),
			Origin:       c.origin.Resolve(ctx),
			TermsVersion: c.cfg.TermsVersion,
		},
	})
	s.Draft = nil
	s.Step = model.StepTeamName

	logger.Info("player joined team", slog.Int("player_count", len(s.Team.Players)))
	return nil
}

// AddMember starts another player's details while the team has room
func (c *Controller) AddMember(s *Session) error {
	if err := expectStep(s, model.StepTeamName, model.StepUserDetails); err != nil {
		return err
	}
	if s.Team.IsFull() {
		return model.ErrTeamFull
	}
	draft, err := newDraft(len(s.Team.Players))
	if err != nil {
		return err
	}
	s.Draft = draft
	s.Step = model.StepUserDetails
	return nil
}

// ProceedToTeamNameInput moves to the separate team name screen. Only
// available when the kiosk runs with the team-name-input step.
func (c *Controller) ProceedToTeamNameInput(s *Session) error {
	if !c.cfg.TeamNameInputStep {
		return fmt.Errorf("%w: team-name-input step is disabled", model.ErrInvalidTransition)
	}
	if err := expectStep(s, model.StepTeamName, model.StepTeamNameInput); err != nil {
		return err
	}
	s.Step = model.StepTeamNameInput
	return nil
}

// Finalize names the team, commits it to the store and logs the completion.
// The session always reaches completion; a failed save is surfaced as a
// warning and can be retried with RetrySave.
func (c *Controller) Finalize(ctx context.Context, s *Session, teamName string) error {
	from := model.StepTeamName
	if c.cfg.TeamNameInputStep {
		from = model.StepTeamNameInput
	}
	if err := expectStep(s, from, model.StepCompletion); err != nil {
		return err
	}
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return model.ErrTeamNameRequired
	}
	if len(s.Team.Players) == 0 {
		return fmt.Errorf("%w: team has no players", model.ErrInvalidTransition)
	}

	now := c.clock.Now()
	s.Team.TeamName = teamName
	s.Team.Status = model.TeamStatusCompleted
	s.Team.CompletedAt = &now
	s.Step = model.StepCompletion

	if err := c.commit(ctx, s); err != nil {
		c.logger.Warn("team save failed",
			slog.String("session_code", string(s.Team.SessionCode)),
			slog.String("error", err.Error()))
		s.SaveFailed = true
		s.Warning = SaveFailedWarning
	}
	return nil
}

// RetrySave repeats a failed finalization save
func (c *Controller) RetrySave(ctx context.Context, s *Session) error {
	if s.Step != model.StepCompletion || !s.SaveFailed {
		return fmt.Errorf("%w: nothing to retry", model.ErrInvalidTransition)
	}
	if err := c.commit(ctx, s); err != nil {
		return fmt.Errorf("save team: %w", err)
	}
	s.SaveFailed = false
	s.Warning = ""
	return nil
}

// commit saves the whole team and appends the completion log. Only the team
// save can fail the commit.
func (c *Controller) commit(ctx context.Context, s *Session) error {
	if err := c.storage.SaveTeam(ctx, s.Team); err != nil {
		return err
	}

	log := model.RegistrationLog{
		ID:           uuid.NewString(),
		SessionCode:  s.Team.SessionCode,
		TeamName:     s.Team.TeamName,
		PlayerCount:  len(s.Team.Players),
		StoreID:      s.Team.StoreID,
		SelectedGame: s.Team.SelectedGame,
		Status:       model.RegistrationLogStatus,
		CompletedAt:  *s.Team.CompletedAt,
	}
	if err := c.storage.AppendLog(ctx, log); err != nil {
		c.logger.Warn("registration log append failed",
			slog.String("session_code", string(s.Team.SessionCode)),
			slog.String("error", err.Error()))
	}

	c.logger.Info("registration completed",
		slog.String("session_code", string(s.Team.SessionCode)),
		slog.Int("player_count", len(s.Team.Players)))
	return nil
}

// Reset discards the session state and returns to welcome. The kiosk keeps
// its venue and a new session code is drawn on the next game selection.
func (c *Controller) Reset(s *Session) {
	*s = *c.newSession(s.ID, s.StoreID)
}

func newDraft(index int) (*model.PlayerDraft, error) {
	color, err := model.ColorAt(index)
	if err != nil {
		return nil, err
	}
	return &model.PlayerDraft{ID: model.PlayerIDAt(index), Color: color}, nil
}

func expectStep(s *Session, from, to model.RegistrationStep) error {
	if s.Step != from {
		return fmt.Errorf("%w: cannot go to %s from %s", model.ErrInvalidTransition, to, s.Step)
	}
	return nil
}
