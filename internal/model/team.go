package model

import (
	"regexp"
	"time"
)

// SessionCode is the venue-scoped identifier of a team, e.g. "nk1-48213"
type SessionCode string

// DefaultStoreScope selects every venue when filtering history
const DefaultStoreScope = "DEFAULT"

var (
	sessionCodePattern = regexp.MustCompile(`^[A-Za-z0-9]+-\d{5}$`)
	storeIDPattern     = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// Valid returns true if the code has the form {storeId}-{5 digits}
func (c SessionCode) Valid() bool {
	return sessionCodePattern.MatchString(string(c))
}

// ValidStoreID returns true if the store ID can prefix a session code
func ValidStoreID(storeID string) bool {
	return storeIDPattern.MatchString(storeID)
}

// TeamStatus is the persisted lifecycle status of a team
type TeamStatus string

const (
	TeamStatusRegistering      TeamStatus = "registering" // in-memory only, never persisted
	TeamStatusCompleted        TeamStatus = "completed"
	TeamStatusReadyForGameplay TeamStatus = "ready_for_gameplay"
)

// DefaultMaxPlayers is the team size of a standard session
const DefaultMaxPlayers = 6

// Team is one session's aggregate
type Team struct {
	SessionCode  SessionCode `json:"session_code"`
	TeamName     string      `json:"team_name"`
	Players      []Player    `json:"players"`
	MaxPlayers   int         `json:"max_players"`
	StoreID      string      `json:"store_id"`
	SelectedGame string      `json:"selected_game"`
	Status       TeamStatus  `json:"status"`

	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	StaffCompletedAt *time.Time `json:"staff_completed_at,omitempty"`
}

// NewTeam creates an empty team for the given venue
func NewTeam(storeID string, maxPlayers int, now time.Time) *Team {
	if maxPlayers <= 0 || maxPlayers > PaletteSize {
		maxPlayers = DefaultMaxPlayers
	}
	return &Team{
		StoreID:    storeID,
		MaxPlayers: maxPlayers,
		Players:    []Player{},
		Status:     TeamStatusRegistering,
		CreatedAt:  now,
	}
}

// IsFull returns true when no more players can join
func (t *Team) IsFull() bool {
	return len(t.Players) >= t.MaxPlayers
}

// IsFrozen returns true once the roster has been committed
func (t *Team) IsFrozen() bool {
	return t.Status == TeamStatusCompleted || t.Status == TeamStatusReadyForGameplay
}

// GetPlayer returns the player with the given ID, or nil if not found
func (t *Team) GetPlayer(id PlayerID) *Player {
	for i := range t.Players {
		if t.Players[i].ID == id {
			return &t.Players[i]
		}
	}
	return nil
}

// AllReady returns true if the team has players and every one of them has
// both a photo and a weapon
func (t *Team) AllReady() bool {
	if len(t.Players) == 0 {
		return false
	}
	for i := range t.Players {
		if !t.Players[i].IsReady() {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the team
func (t *Team) Clone() *Team {
	c := *t
	c.Players = make([]Player, len(t.Players))
	for i, p := range t.Players {
		if p.SignatureMeta != nil {
			meta := *p.SignatureMeta
			p.SignatureMeta = &meta
		}
		c.Players[i] = p
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	if t.StaffCompletedAt != nil {
		at := *t.StaffCompletedAt
		c.StaffCompletedAt = &at
	}
	return &c
}
