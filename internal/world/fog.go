package world

// RevealAround lifts the fog from the tile at center and its existing hex
// neighbours. It returns how many tiles were newly revealed.
func (m *Map) RevealAround(center HexCoord) int {
	nb := center.Neighbors()
	revealed := 0
	for _, c := range append([]HexCoord{center}, nb[:]...) {
		t := m.tiles[c]
		if t == nil || t.Revealed {
			continue
		}
		t.Revealed = true
		revealed++
	}
	return revealed
}

// RevealedCount returns the number of tiles the player has seen.
func (m *Map) RevealedCount() int {
	n := 0
	for _, t := range m.tiles {
		if t.Revealed {
			n++
		}
	}
	return n
}
