package model

import "time"

// RegistrationLogStatus is the only status currently written to the log
const RegistrationLogStatus = "registration_completed"

// RegistrationLog is an append-only record written when a team finishes registering.
// Staff use the recent log to find session codes.
type RegistrationLog struct {
	ID           string      `json:"id"`
	SessionCode  SessionCode `json:"session_code"`
	TeamName     string      `json:"team_name"`
	PlayerCount  int         `json:"player_count"`
	StoreID      string      `json:"store_id"`
	SelectedGame string      `json:"selected_game"`
	Status       string      `json:"status"`
	CompletedAt  time.Time   `json:"completed_at"`
}

// MatchesScope returns true if the log belongs to the given venue scope.
// An empty scope or DefaultStoreScope matches every venue.
func (l *RegistrationLog) MatchesScope(scope string) bool {
	return scope == "" || scope == DefaultStoreScope || l.StoreID == scope
}
