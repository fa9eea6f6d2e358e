// Package inventory tracks the shared weapon props of one staff session and
// decides which weapon types can still be handed out.
package inventory

import (
	"fmt"

	"github.com/mcoot/xrkiosk/internal/model"
)

// FallbackThreshold is the number of players holding striker weapons after
// which only the fallback type remains selectable
const FallbackThreshold = 5

// Inventory is the capacity table for one staff session.
// It is not safe for concurrent use; the owning staff session serializes access.
type Inventory struct {
	weapons []model.Weapon
}

// New creates an inventory at full capacity
func New() *Inventory {
	inv := &Inventory{}
	inv.Reset()
	return inv
}

// Reset restores every weapon type to full capacity
func (inv *Inventory) Reset() {
	inv.weapons = make([]model.Weapon, len(model.WeaponTypes))
	for i, w := range model.WeaponTypes {
		inv.weapons[i] = model.Weapon{
			Type:         w,
			MaxCount:     model.DefaultWeaponCapacity,
			CurrentCount: model.DefaultWeaponCapacity,
			IsRequired:   w.IsFallback(),
		}
	}
}

// Rebuild derives the remaining counts from the weapons held by the roster.
// It returns the types held by more players than there are props; those are
// reported as exhausted.
func (inv *Inventory) Rebuild(players []model.Player) []model.WeaponType {
	held := make(map[model.WeaponType]int)
	for _, p := range players {
		if p.HasWeapon {
			held[p.SelectedWeapon]++
		}
	}

	inv.Reset()
	var over []model.WeaponType
	for i := range inv.weapons {
		row := &inv.weapons[i]
		n := held[row.Type]
		if n > row.MaxCount {
			over = append(over, row.Type)
			n = row.MaxCount
		}
		row.CurrentCount = row.MaxCount - n
	}
	return over
}

// Snapshot returns the tracked physical counts
func (inv *Inventory) Snapshot() []model.Weapon {
	out := make([]model.Weapon, len(inv.weapons))
	copy(out, inv.weapons)
	return out
}

// Get returns the tracked row for a weapon type
func (inv *Inventory) Get(w model.WeaponType) (model.Weapon, bool) {
	if row := inv.row(w); row != nil {
		return *row, true
	}
	return model.Weapon{}, false
}

// Available returns the selectable counts for the next assignment in the team
func (inv *Inventory) Available(team *model.Team) []model.Weapon {
	return inv.AvailableFor(team, "")
}

// AvailableFor returns the selectable counts for assigning a weapon to the given
// player. Once FallbackThreshold other players hold striker weapons, every type
// except the fallback is reported as exhausted.
func (inv *Inventory) AvailableFor(team *model.Team, playerID model.PlayerID) []model.Weapon {
	out := inv.Snapshot()
	if team == nil {
		return out
	}
	if CommittedNonFallback(team.Players, playerID) < FallbackThreshold {
		return out
	}
	for i := range out {
		if !out[i].Type.IsFallback() {
			out[i].CurrentCount = 0
		}
	}
	return out
}

// CanAssign returns true if the weapon type is selectable for the player
func (inv *Inventory) CanAssign(team *model.Team, playerID model.PlayerID, w model.WeaponType) bool {
	for _, row := range inv.AvailableFor(team, playerID) {
		if row.Type == w {
			return row.CurrentCount > 0
		}
	}
	return false
}

// Assign gives the weapon to the player and recounts the inventory from the
// roster. A player switching weapons returns the previous one.
func (inv *Inventory) Assign(team *model.Team, playerID model.PlayerID, w model.WeaponType) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %q", model.ErrUnknownWeapon, w)
	}
	player := team.GetPlayer(playerID)
	if player == nil {
		return model.ErrPlayerNotFound
	}
	if player.HasWeapon && player.SelectedWeapon == w {
		return nil
	}
	if !inv.CanAssign(team, playerID, w) {
		return fmt.Errorf("%w: %s", model.ErrWeaponUnavailable, w)
	}

	model.WeaponPatch(w).Apply(player)
	inv.Rebuild(team.Players)
	return nil
}

// CommittedNonFallback counts players holding a weapon other than the fallback,
// ignoring the excluded player
func CommittedNonFallback(players []model.Player, exclude model.PlayerID) int {
	n := 0
	for _, p := range players {
		if p.ID == exclude {
			continue
		}
		if p.HasWeapon && !p.SelectedWeapon.IsFallback() {
			n++
		}
	}
	return n
}

func (inv *Inventory) row(w model.WeaponType) *model.Weapon {
	for i := range inv.weapons {
		if inv.weapons[i].Type == w {
			return &inv.weapons[i]
		}
	}
	return nil
}
