package model

// DefaultGame is the title offered when no catalog is configured
const DefaultGame = "Zombie Storm"

// GameCatalog is the list of titles a team can choose from
type GameCatalog []string

// DefaultGameCatalog returns the catalog used when none is configured
func DefaultGameCatalog() GameCatalog {
	return GameCatalog{DefaultGame}
}

// Contains returns true if the title is offered. An empty catalog accepts any title.
func (c GameCatalog) Contains(game string) bool {
	if len(c) == 0 {
		return true
	}
	for _, g := range c {
		if g == game {
			return true
		}
	}
	return false
}
