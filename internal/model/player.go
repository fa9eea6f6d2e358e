package model

import "time"

// PlayerID identifies a player within a team (e.g. "player-1")
type PlayerID string

// Gender is the self-reported gender of a registrant
type Gender string

const (
	GenderMale           Gender = "male"
	GenderFemale         Gender = "female"
	GenderOther          Gender = "other"
	GenderPreferNotToSay Gender = "prefer-not-to-say"
)

// Valid returns true if g is one of the known genders
func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther, GenderPreferNotToSay:
		return true
	}
	return false
}

// ConsentFlags are the three independent agreements collected on the terms step
type ConsentFlags struct {
	AgreeTerms bool `json:"agree_terms"`
	AgreeEsign bool `json:"agree_esign"`
	AgreeEmail bool `json:"agree_email"`
}

// All returns true when every flag is set
func (c ConsentFlags) All() bool {
	return c.AgreeTerms && c.AgreeEsign && c.AgreeEmail
}

// SignatureMeta is stamped once when a player signs the terms
type SignatureMeta struct {
	Timestamp    time.Time `json:"timestamp"`
	Origin       string    `json:"origin"`
	TermsVersion string    `json:"terms_version"`
}

// Player is one registrant in a team
type Player struct {
	ID          PlayerID `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	DateOfBirth string   `json:"date_of_birth"` // yyyy-mm-dd
	Gender      Gender   `json:"gender"`

	Color         PlayerColor    `json:"color"`
	Signature     string         `json:"signature"` // blob reference, empty if upload failed
	AgreedToTerms bool           `json:"agreed_to_terms"`
	ConsentFlags  ConsentFlags   `json:"consent_flags"`
	SignatureMeta *SignatureMeta `json:"signature_meta,omitempty"`

	// Staff-assigned equipment
	HasPhoto       bool       `json:"has_photo"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	HasWeapon      bool       `json:"has_weapon"`
	SelectedWeapon WeaponType `json:"selected_weapon,omitempty"`
}

// IsReady returns true once the player has both a photo and a weapon
func (p *Player) IsReady() bool {
	return p.HasPhoto && p.HasWeapon
}

// PlayerPatch is an incremental update of a player's staff-assigned fields.
// Nil fields are left untouched.
type PlayerPatch struct {
	PhotoURL       *string     `json:"photo_url,omitempty"`
	SelectedWeapon *WeaponType `json:"selected_weapon,omitempty"`
}

// PhotoPatch builds a patch that records a photo reference
func PhotoPatch(ref string) PlayerPatch {
	return PlayerPatch{PhotoURL: &ref}
}

// WeaponPatch builds a patch that records a weapon assignment
func WeaponPatch(w WeaponType) PlayerPatch {
	return PlayerPatch{SelectedWeapon: &w}
}

// Apply writes the patch onto p, keeping HasPhoto/HasWeapon consistent with
// the reference fields
func (pp PlayerPatch) Apply(p *Player) {
	if pp.PhotoURL != nil {
		p.PhotoURL = *pp.PhotoURL
		p.HasPhoto = p.PhotoURL != ""
	}
	if pp.SelectedWeapon != nil {
		p.SelectedWeapon = *pp.SelectedWeapon
		p.HasWeapon = p.SelectedWeapon != ""
	}
}

// PlayerDraft is the in-progress player collected by the registration wizard
// before it is appended to the team
type PlayerDraft struct {
	ID          PlayerID    `json:"id"`
	Color       PlayerColor `json:"color"`
	Name        string      `json:"name"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone"`
	DateOfBirth string      `json:"date_of_birth"`
	Gender      Gender      `json:"gender"`
}
