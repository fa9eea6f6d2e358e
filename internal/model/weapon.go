package model

// WeaponType identifies one of the physical weapon props handed to players
type WeaponType string

const (
	WeaponAssaultRifle  WeaponType = "assault-rifle"
	WeaponSubmachineGun WeaponType = "submachine-gun"
	WeaponDualPistols   WeaponType = "dual-pistols"
	WeaponShotgun       WeaponType = "shotgun"
	WeaponSniperRifle   WeaponType = "sniper-rifle"
)

// WeaponTypes lists every weapon type in display order
var WeaponTypes = [...]WeaponType{
	WeaponAssaultRifle,
	WeaponSubmachineGun,
	WeaponDualPistols,
	WeaponShotgun,
	WeaponSniperRifle,
}

// DefaultWeaponCapacity is the number of physical units per weapon type
const DefaultWeaponCapacity = 2

// Valid returns true if w is a known weapon type
func (w WeaponType) Valid() bool {
	switch w {
	case WeaponAssaultRifle, WeaponSubmachineGun, WeaponDualPistols, WeaponShotgun, WeaponSniperRifle:
		return true
	}
	return false
}

// IsFallback returns true for the type that absorbs the last player once the
// striker types are committed
func (w WeaponType) IsFallback() bool {
	return w == WeaponDualPistols
}

// DisplayName returns the English label for the weapon
func (w WeaponType) DisplayName() string {
	switch w {
	case WeaponAssaultRifle:
		return "Assault Rifle"
	case WeaponSubmachineGun:
		return "Submachine Gun"
	case WeaponDualPistols:
		return "Dual Pistols"
	case WeaponShotgun:
		return "Shotgun"
	case WeaponSniperRifle:
		return "Sniper Rifle"
	default:
		return string(w)
	}
}

// Weapon is one row of a weapon inventory
type Weapon struct {
	Type         WeaponType `json:"type"`
	MaxCount     int        `json:"max_count"`
	CurrentCount int        `json:"current_count"`
	IsRequired   bool       `json:"is_required"`
}
