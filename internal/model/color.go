package model

import "fmt"

// PlayerColor is the team color a player wears, assigned by join order
type PlayerColor string

const (
	ColorRed       PlayerColor = "red"
	ColorLightBlue PlayerColor = "light-blue"
	ColorYellow    PlayerColor = "yellow"
	ColorGreen     PlayerColor = "green"
	ColorPurple    PlayerColor = "purple"
	ColorOrange    PlayerColor = "orange"
)

// Palette is the fixed join-order color sequence. Its length bounds the team size.
var Palette = [...]PlayerColor{
	ColorRed,
	ColorLightBlue,
	ColorYellow,
	ColorGreen,
	ColorPurple,
	ColorOrange,
}

// PaletteSize is the number of distinct player colors
const PaletteSize = len(Palette)

// ColorAt returns the color for the player at the given 0-indexed join position
func ColorAt(index int) (PlayerColor, error) {
	if index < 0 || index >= PaletteSize {
		return "", fmt.Errorf("%w: no color for slot %d", ErrTeamFull, index)
	}
	return Palette[index], nil
}

// PlayerIDAt returns the stable player ID for the given 0-indexed join position
func PlayerIDAt(index int) PlayerID {
	return PlayerID(fmt.Sprintf("player-%d", index+1))
}

// DisplayName returns a human-readable label for the color
func (c PlayerColor) DisplayName() string {
	switch c {
	case ColorRed:
		return "Red"
	case ColorLightBlue:
		return "Light Blue"
	case ColorYellow:
		return "Yellow"
	case ColorGreen:
		return "Green"
	case ColorPurple:
		return "Purple"
	case ColorOrange:
		return "Orange"
	default:
		return string(c)
	}
}
