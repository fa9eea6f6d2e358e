package response

import (
	"time"

	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/auth"
	"github.com/mcoot/xrkiosk/internal/services/registration"
	"github.com/mcoot/xrkiosk/internal/services/staff"
)

// Registration represents a registration kiosk session
type Registration struct {
	ID         string                 `json:"id"`
	StoreID    string                 `json:"store_id"`
	Step       model.RegistrationStep `json:"step"`
	Team       *model.Team            `json:"team"`
	Draft      *model.PlayerDraft     `json:"draft,omitempty"`
	Warning    string                 `json:"warning,omitempty"`
	SaveFailed bool                   `json:"save_failed"`
	Games      []string               `json:"games"`
	CanAdd     bool                   `json:"can_add_member"`
}

// RegistrationFromSession converts a registration session
func RegistrationFromSession(s *registration.Session, games model.GameCatalog) Registration {
	var team *model.Team
	if s.Team != nil {
		team = s.Team.Clone()
	}
	var draft *model.PlayerDraft
	if s.Draft != nil {
		d := *s.Draft
		draft = &d
	}
	return Registration{
		ID:         s.ID,
		StoreID:    s.StoreID,
		Step:       s.Step,
		Team:       team,
		Draft:      draft,
		Warning:    s.Warning,
		SaveFailed: s.SaveFailed,
		Games:      games,
		CanAdd:     team != nil && !team.IsFull(),
	}
}

// Staff represents a staff station session
type Staff struct {
	ID             string          `json:"id"`
	Step           model.StaffStep `json:"step"`
	Team           *model.Team     `json:"team"`
	SelectedPlayer model.PlayerID  `json:"selected_player,omitempty"`
	Inventory      []model.Weapon  `json:"inventory"`
	Available      []model.Weapon  `json:"available"`
	AllReady       bool            `json:"all_ready"`
}

// StaffFromSession converts a staff session
func StaffFromSession(s *staff.Session) Staff {
	var team *model.Team
	if s.Team != nil {
		team = s.Team.Clone()
	}
	return Staff{
		ID:             s.ID,
		Step:           s.Step,
		Team:           team,
		SelectedPlayer: s.SelectedPlayer,
		Inventory:      s.Inventory.Snapshot(),
		Available:      s.Inventory.AvailableFor(s.Team, s.SelectedPlayer),
		AllReady:       team != nil && team.AllReady(),
	}
}

// Weapons is the response for the weapon availability endpoint
type Weapons struct {
	SelectedPlayer model.PlayerID `json:"selected_player,omitempty"`
	Weapons        []model.Weapon `json:"weapons"`
}

// StaffLogin is the response for staff login
type StaffLogin struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// StaffLoginFromSession converts an auth session
func StaffLoginFromSession(s *auth.Session) StaffLogin {
	return StaffLogin{
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// History is the recent registration log of a venue
type History struct {
	StoreID string                  `json:"store_id"`
	Logs    []model.RegistrationLog `json:"logs"`
}

// Health is the response of the health endpoint
type Health struct {
	Status        string `json:"status"`
	Registrations int    `json:"registrations"`
	StaffSessions int    `json:"staff_sessions"`
}
