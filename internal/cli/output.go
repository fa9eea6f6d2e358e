package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Registration:
		o.printRegistration(v)
	case StaffStation:
		o.printStaffStation(v)
	case WeaponList:
		o.printWeapons(v.Weapons)
	case History:
		o.printHistory(v)
	case LoginResult:
		fmt.Fprintf(o.w, "Token: %s\nExpires: %s\n", v.SessionToken, v.ExpiresAt.Format(time.RFC3339))
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Color          string `json:"color"`
	HasPhoto       bool   `json:"has_photo"`
	HasWeapon      bool   `json:"has_weapon"`
	SelectedWeapon string `json:"selected_weapon,omitempty"`
}

// Team response type
type Team struct {
	SessionCode  string   `json:"session_code"`
	TeamName     string   `json:"team_name"`
	SelectedGame string   `json:"selected_game"`
	StoreID      string   `json:"store_id"`
	Status       string   `json:"status"`
	Players      []Player `json:"players"`
}

// Registration response type
type Registration struct {
	ID         string `json:"id"`
	StoreID    string `json:"store_id"`
	Step       string `json:"step"`
	Team       *Team  `json:"team"`
	Warning    string `json:"warning,omitempty"`
	SaveFailed bool   `json:"save_failed"`
}

// Weapon response type
type Weapon struct {
	Type         string `json:"type"`
	MaxCount     int    `json:"max_count"`
	CurrentCount int    `json:"current_count"`
}

// StaffStation response type
type StaffStation struct {
	ID             string   `json:"id"`
	Step           string   `json:"step"`
	Team           *Team    `json:"team"`
	SelectedPlayer string   `json:"selected_player,omitempty"`
	Available      []Weapon `json:"available"`
	AllReady       bool     `json:"all_ready"`
}

// WeaponList response type
type WeaponList struct {
	SelectedPlayer string   `json:"selected_player,omitempty"`
	Weapons        []Weapon `json:"weapons"`
}

// LogEntry response type
type LogEntry struct {
	ID           string    `json:"id"`
	SessionCode  string    `json:"session_code"`
	TeamName     string    `json:"team_name"`
	PlayerCount  int       `json:"player_count"`
	StoreID      string    `json:"store_id"`
	SelectedGame string    `json:"selected_game"`
	CompletedAt  time.Time `json:"completed_at"`
}

// History response type
type History struct {
	StoreID string     `json:"store_id"`
	Logs    []LogEntry `json:"logs"`
}

// LoginResult response type
type LoginResult struct {
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HealthResult response type
type HealthResult struct {
	Status        string `json:"status"`
	Registrations int    `json:"registrations"`
	StaffSessions int    `json:"staff_sessions"`
}

func (o *Output) printTeam(t *Team) {
	if t == nil {
		return
	}
	fmt.Fprintf(o.w, "Session Code: %s\n", t.SessionCode)
	if t.TeamName != "" {
		fmt.Fprintf(o.w, "Team: %s\n", t.TeamName)
	}
	if t.SelectedGame != "" {
		fmt.Fprintf(o.w, "Game: %s\n", t.SelectedGame)
	}
	fmt.Fprintf(o.w, "Status: %s\n", t.Status)
	fmt.Fprintf(o.w, "Players (%d):\n", len(t.Players))
	for _, p := range t.Players {
		var marks []string
		if p.HasPhoto {
			marks = append(marks, "photo")
		}
		if p.HasWeapon {
			marks = append(marks, p.SelectedWeapon)
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = " [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintf(o.w, "  - %s %s (%s)%s\n", p.ID, p.Name, p.Color, suffix)
	}
}

func (o *Output) printRegistration(r Registration) {
	fmt.Fprintf(o.w, "Kiosk: %s (%s)\n", r.ID, r.StoreID)
	fmt.Fprintf(o.w, "Step: %s\n", r.Step)
	o.printTeam(r.Team)
	if r.Warning != "" {
		fmt.Fprintf(o.w, "Warning: %s\n", r.Warning)
	}
}

func (o *Output) printStaffStation(s StaffStation) {
	fmt.Fprintf(o.w, "Station: %s\n", s.ID)
	fmt.Fprintf(o.w, "Step: %s\n", s.Step)
	if s.SelectedPlayer != "" {
		fmt.Fprintf(o.w, "Selected: %s\n", s.SelectedPlayer)
	}
	o.printTeam(s.Team)
	if s.Team != nil {
		fmt.Fprintf(o.w, "All Ready: %t\n", s.AllReady)
	}
}

func (o *Output) printWeapons(weapons []Weapon) {
	for _, w := range weapons {
		fmt.Fprintf(o.w, "%-16s %d/%d\n", w.Type, w.CurrentCount, w.MaxCount)
	}
}

func (o *Output) printHistory(h History) {
	if len(h.Logs) == 0 {
		fmt.Fprintln(o.w, "No registrations yet")
		return
	}
	for _, l := range h.Logs {
		fmt.Fprintf(o.w, "%s  %-10s %-20s %d players  %s\n",
			l.CompletedAt.Local().Format("15:04:05"), l.SessionCode, l.TeamName, l.PlayerCount, l.StoreID)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	fmt.Fprintf(o.w, "Registration kiosks: %d\n", h.Registrations)
	fmt.Fprintf(o.w, "Staff stations: %d\n", h.StaffSessions)
}
