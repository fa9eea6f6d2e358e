package request

import (
	"github.com/mcoot/xrkiosk/internal/model"
	"github.com/mcoot/xrkiosk/internal/services/registration"
)

// CreateRegistrationRequest is the optional request body for opening a kiosk.
// An empty store ID uses the server's default venue.
type CreateRegistrationRequest struct {
	StoreID string `json:"store_id,omitempty"`
}

// SelectGameRequest is the request body for choosing a game
type SelectGameRequest struct {
	Game string `json:"game"`
}

// DetailsRequest is the request body for submitting a player's details
type DetailsRequest struct {
	Name        string       `json:"name"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	DateOfBirth string       `json:"date_of_birth"`
	Gender      model.Gender `json:"gender"`
}

// Details converts the request to the registration form
func (r DetailsRequest) Details() registration.Details {
	return registration.Details{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
	}
}

// TermsRequest is the request body for accepting the terms
type TermsRequest struct {
	Signature string             `json:"signature"`
	Consent   model.ConsentFlags `json:"consent"`
}

// TeamNameRequest is the request body for finalizing a team
type TeamNameRequest struct {
	TeamName string `json:"team_name"`
}

// StaffLoginRequest is the request body for staff login
type StaffLoginRequest struct {
	PIN string `json:"pin"`
}

// LoadTeamRequest is the request body for looking up a team
type LoadTeamRequest struct {
	SessionCode string `json:"session_code"`
}

// PhotoRequest is the request body for accepting a captured photo
type PhotoRequest struct {
	Image string `json:"image"`
}

// WeaponRequest is the request body for choosing a weapon
type WeaponRequest struct {
	Weapon model.WeaponType `json:"weapon"`
}
