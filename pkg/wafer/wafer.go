package wafer

import "fmt"

// Coord is an integer grid position (row/column indices, not micrometers).
type Coord struct {
	X, Y int
}

// Die is one chip-sized region on a wafer, indexed by integer (x, y).
type Die struct {
	X         int  `json:"x"`
	Y         int  `json:"y"`
	Available bool `json:"available"`
}

// Coord returns the grid coordinate of the die.
func (d Die) Coord() Coord { return Coord{X: d.X, Y: d.Y} }

// Map is a finite set of Die, uniquely keyed by (x, y), with optional
// descriptive metadata.
type Map struct {
	dies        map[Coord]Die
	WaferSize   string
	ProductType string
	LotID       string
}

// NewMap creates an empty wafer map.
func NewMap() *Map {
	return &Map{dies: make(map[Coord]Die)}
}

// AddDie inserts d, keyed by its (X, Y). Returns an error if a die already
// occupies that coordinate.
func (m *Map) AddDie(d Die) error {
	c := d.Coord()
	if _, exists := m.dies[c]; exists {
		return fmt.Errorf("wafer: die already present at (%d, %d)", c.X, c.Y)
	}
	m.dies[c] = d
	return nil
}

// Get returns the die at c and whether it exists.
func (m *Map) Get(c Coord) (Die, bool) {
	d, ok := m.dies[c]
	return d, ok
}

// Dies returns all dies in the map. The order is unspecified.
func (m *Map) Dies() []Die {
	out := make([]Die, 0, len(m.dies))
	for _, d := range m.dies {
		out = append(out, d)
	}
	return out
}

// AvailableDies returns {d in dies | d.Available}.
func (m *Map) AvailableDies() []Die {
	out := make([]Die, 0, len(m.dies))
	for _, d := range m.dies {
		if d.Available {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the total number of dies in the map.
func (m *Map) Len() int { return len(m.dies) }

// Empty reports whether the map has no dies.
func (m *Map) Empty() bool { return len(m.dies) == 0 }

// Bounds returns the integer (x, y) extent of every die in the map.
// Returns ok=false for an empty map.
func (m *Map) Bounds() (minX, minY, maxX, maxY int, ok bool) {
	if len(m.dies) == 0 {
		return 0, 0, 0, 0, false
	}
	first := true
	for c := range m.dies {
		if first {
			minX, minY, maxX, maxY = c.X, c.Y, c.X, c.Y
			first = false
			continue
		}
		if c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
		if c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
	}
	return minX, minY, maxX, maxY, true
}

// Centroid returns the mean (x, y) of the available dies. Returns (0,0,false)
// if there are no available dies.
func (m *Map) Centroid() (x, y float64, ok bool) {
	avail := m.AvailableDies()
	if len(avail) == 0 {
		return 0, 0, false
	}
	var sx, sy float64
	for _, d := range avail {
		sx += float64(d.X)
		sy += float64(d.Y)
	}
	n := float64(len(avail))
	return sx / n, sy / n, true
}
