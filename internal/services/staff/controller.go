// Package staff drives the staff-facing equipping wizard: team lookup,
// per-player photo and weapon assignment, and the hand-off to gameplay.
package staff

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mcoot/xrkiosk/internal/blob"
	"github.com/mcoot/xrkiosk/internal/dependencies/clock"
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/inventory"
	"github.com/mcoot/xrkiosk/internal/storage"
)

// Uploader stores artifacts given as data URIs and returns a public reference
type Uploader interface {
	UploadDataURI(ctx context.Context, path, dataURI string) (string, error)
}

// Session is the in-memory state of one staff station
type Session struct {
	ID             string          `json:"id"`
	Step           model.StaffStep `json:"step"`
	Team           *model.Team     `json:"team,omitempty"`
	SelectedPlayer model.PlayerID  `json:"selected_player,omitempty"`

	Inventory *inventory.Inventory `json:"-"`
}

// Controller manages the staff step machine
type Controller struct {
	storage  storage.Storage
	uploader Uploader
	clock    clock.Clock
	logger   *slog.Logger
}

// NewController creates a new staff Controller
func NewController(storage storage.Storage, uploader Uploader, clock clock.Clock, logger *slog.Logger) *Controller {
	return &Controller{
		storage:  storage,
		uploader: uploader,
		clock:    clock,
		logger:   logger.With(slog.String("component", "staff")),
	}
}

// NewSession creates a session waiting for a session code, with a full inventory
func (c *Controller) NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Step:      model.StaffStepSessionInput,
		Inventory: inventory.New(),
	}
}

// LoadTeam looks up the team and moves to player selection. On any failure
// the session stays at session input without a team.
func (c *Controller) LoadTeam(ctx context.Context, s *Session, code model.SessionCode) error {
	if err := expectStep(s, model.StaffStepSessionInput, model.StaffStepPlayerSelection); err != nil {
		return err
	}
	code = model.SessionCode(strings.TrimSpace(string(code)))
	if !code.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidSessionCode, code)
	}

	team, err := c.storage.GetTeam(ctx, code)
	if err != nil {
		return err
	}

	s.Team = team
	s.SelectedPlayer = ""
	if over := s.Inventory.Rebuild(team.Players); len(over) > 0 {
		c.logger.Warn("roster holds more weapons than the inventory",
			slog.String("session_code", string(code)),
			slog.Any("weapons", over))
	}
	s.Step = model.StaffStepPlayerSelection

	c.logger.Info("team loaded",
		slog.String("session_code", string(code)),
		slog.Int("player_count", len(team.Players)))
	return nil
}

// StartPhotoCapture selects a player for the camera
func (c *Controller) StartPhotoCapture(s *Session, playerID model.PlayerID) error {
	if err := c.selectPlayer(s, playerID, model.StaffStepPhotoCapture); err != nil {
		return err
	}
	s.Step = model.StaffStepPhotoCapture
	return nil
}

// AcceptPhoto stores the captured image and records it on the selected player.
// An upload failure keeps the session at photo capture so staff can retry.
func (c *Controller) AcceptPhoto(ctx context.Context, s *Session, dataURI string) error {
	if err := expectStep(s, model.StaffStepPhotoCapture, model.StaffStepPlayerSelection); err != nil {
		return err
	}
	if strings.TrimSpace(dataURI) == "" {
		return model.ErrPhotoRequired
	}
	player := s.Team.GetPlayer(s.SelectedPlayer)
	if player == nil {
		return model.ErrNoPlayerSelected
	}

	ref, err := c.uploader.UploadDataURI(ctx, blob.PhotoPath(s.Team.SessionCode, player.ID), dataURI)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}

	patch := model.PhotoPatch(ref)
	patch.Apply(player)
	c.persist(ctx, s, player.ID, patch)

	s.SelectedPlayer = ""
	s.Step = model.StaffStepPlayerSelection
	return nil
}

// CancelPhoto leaves photo capture without changing the player. The player
// must be the one currently selected.
func (c *Controller) CancelPhoto(s *Session, playerID model.PlayerID) error {
	return c.deselect(s, model.StaffStepPhotoCapture, playerID)
}

// StartWeaponSelection selects a player for weapon assignment
func (c *Controller) StartWeaponSelection(s *Session, playerID model.PlayerID) error {
	if err := c.selectPlayer(s, playerID, model.StaffStepWeaponSelection); err != nil {
		return err
	}
	s.Step = model.StaffStepWeaponSelection
	return nil
}

// AvailableWeapons returns the counts to offer for the selected player, or
// for the next assignment when no player is selected
func (c *Controller) AvailableWeapons(s *Session) []model.Weapon {
	return s.Inventory.AvailableFor(s.Team, s.SelectedPlayer)
}

// ChooseWeapon assigns the weapon to the selected player. A type with no
// remaining capacity is rejected without changing anything.
func (c *Controller) ChooseWeapon(ctx context.Context, s *Session, weapon model.WeaponType) error {
	if err := expectStep(s, model.StaffStepWeaponSelection, model.StaffStepPlayerSelection); err != nil {
		return err
	}
	if s.SelectedPlayer == "" {
		return model.ErrNoPlayerSelected
	}
	if err := s.Inventory.Assign(s.Team, s.SelectedPlayer, weapon); err != nil {
		return err
	}
	c.persist(ctx, s, s.SelectedPlayer, model.WeaponPatch(weapon))

	s.SelectedPlayer = ""
	s.Step = model.StaffStepPlayerSelection
	return nil
}

// CancelWeapon leaves weapon selection without changing the player
func (c *Controller) CancelWeapon(s *Session, playerID model.PlayerID) error {
	return c.deselect(s, model.StaffStepWeaponSelection, playerID)
}

// Complete moves to the completion screen once every player is equipped
func (c *Controller) Complete(s *Session) error {
	if err := expectStep(s, model.StaffStepPlayerSelection, model.StaffStepCompletion); err != nil {
		return err
	}
	if !s.Team.AllReady() {
		return model.ErrTeamNotReady
	}
	s.Step = model.StaffStepCompletion
	return nil
}

// ReturnToEdit goes back to player selection keeping inventory and team state
func (c *Controller) ReturnToEdit(s *Session) error {
	if err := expectStep(s, model.StaffStepCompletion, model.StaffStepPlayerSelection); err != nil {
		return err
	}
	s.Step = model.StaffStepPlayerSelection
	return nil
}

// NextSession marks the team ready for gameplay and resets the station for
// the next team. The status write is best-effort.
func (c *Controller) NextSession(ctx context.Context, s *Session) error {
	if err := expectStep(s, model.StaffStepCompletion, model.StaffStepSessionInput); err != nil {
		return err
	}
	code := s.Team.SessionCode
	if err := c.storage.SetTeamStatus(ctx, code, model.TeamStatusReadyForGameplay, c.clock.Now()); err != nil {
		c.logger.Warn("marking team ready failed",
			slog.String("session_code", string(code)),
			slog.String("error", err.Error()))
	} else {
		c.logger.Info("team ready for gameplay", slog.String("session_code", string(code)))
	}
	c.Reset(s)
	return nil
}

// Reset clears the team, the selection and the inventory. Safe to call from any step.
func (c *Controller) Reset(s *Session) {
	s.Step = model.StaffStepSessionInput
	s.Team = nil
	s.SelectedPlayer = ""
	if s.Inventory == nil {
		s.Inventory = inventory.New()
	}
	s.Inventory.Reset()
}

func (c *Controller) selectPlayer(s *Session, playerID model.PlayerID, to model.StaffStep) error {
	if err := expectStep(s, model.StaffStepPlayerSelection, to); err != nil {
		return err
	}
	if playerID == "" {
		return model.ErrNoPlayerSelected
	}
	if s.Team.GetPlayer(playerID) == nil {
		return fmt.Errorf("%w: %s", model.ErrPlayerNotFound, playerID)
	}
	s.SelectedPlayer = playerID
	return nil
}

func (c *Controller) deselect(s *Session, from model.StaffStep, playerID model.PlayerID) error {
	if err := expectStep(s, from, model.StaffStepPlayerSelection); err != nil {
		return err
	}
	if playerID != s.SelectedPlayer {
		return fmt.Errorf("%w: %s is not the selected player", model.ErrInvalidTransition, playerID)
	}
	s.SelectedPlayer = ""
	s.Step = model.StaffStepPlayerSelection
	return nil
}

// persist writes an equipment patch. Failures are logged and the in-memory
// team keeps the change.
func (c *Controller) persist(ctx context.Context, s *Session, playerID model.PlayerID, patch model.PlayerPatch) {
	if err := c.storage.PatchPlayer(ctx, s.Team.SessionCode, playerID, patch); err != nil {
		c.logger.Warn("player update failed",
			slog.String("session_code", string(s.Team.SessionCode)),
			slog.String("player_id", string(playerID)),
			slog.String("error", err.Error()))
	}
}

func expectStep(s *Session, from, to model.StaffStep) error {
	if s.Step != from {
		return fmt.Errorf("%w: cannot go to %s from %s", model.ErrInvalidTransition, to, s.Step)
	}
	return nil
}
