package content

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ZoneLayout is an ASCII overview of a zone. Mapping ties grid characters to
// location IDs; a mapped character wrapped in brackets is replaced with '@'
// when the player stands there.
type ZoneLayout struct {
	Title   string            `json:"title"`
	Grid    []string          `json:"grid"`
	Mapping map[string]string `json:"mapping"` // Grid character → Location ID
}

// Render draws the layout with the player's position marked.
func (z *ZoneLayout) Render(currentLocationID string) []string {
	lines := []string{fmt.Sprintf("--- %s ---", z.Title)}
	for _, row := range z.Grid {
		cells := []rune(row)
		for i := 1; i < len(cells)-1; i++ {
			if z.Mapping[string(cells[i])] == currentLocationID && cells[i-1] == '[' && cells[i+1] == ']' {
				cells[i] = '@'
			}
		}
		lines = append(lines, string(cells))
	}
	return append(lines, "", "@ - You are here", "Other symbols represent locations.")
}

// Point is a coordinate on a city grid. Y grows southward.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CityDirections are the moves available on a city grid.
var CityDirections = []string{"north", "south", "east", "west"}

// Step moves one cell in dir. Unknown directions return p unchanged.
func (p Point) Step(dir string) Point {
	switch dir {
	case "north":
		p.Y--
	case "south":
		p.Y++
	case "east":
		p.X++
	case "west":
		p.X--
	}
	return p
}

// CityCell describes one kind of grid square.
type CityCell struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Impassable  bool   `json:"impassable,omitempty"`
}

// CityMap is a walkable grid for a city. Rows hold one legend character per
// cell; Entries ties zone locations to the grid coordinate where a player
// arriving from that location appears.
type CityMap struct {
	ID      string              `json:"id,omitempty"`
	Name    string              `json:"name"`
	Zone    string              `json:"zone"`
	Rows    []string            `json:"rows"`
	Legend  map[string]CityCell `json:"legend"`
	Entries map[string]Point    `json:"entries"` // Zone Location ID → entry coordinate
}

// Width is the length of the longest row.
func (c *CityMap) Width() int {
	w := 0
	for _, row := range c.Rows {
		w = max(w, len([]rune(row)))
	}
	return w
}

// Height is the number of rows.
func (c *CityMap) Height() int { return len(c.Rows) }

// InBounds reports whether p lies on the grid.
func (c *CityMap) InBounds(p Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.Y < c.Height() && p.X < c.Width()
}

// Cell returns the cell at p. Short rows are padded with open ground.
func (c *CityMap) Cell(p Point) (CityCell, bool) {
	if !c.InBounds(p) {
		return CityCell{}, false
	}
	row := []rune(c.Rows[p.Y])
	ch := " "
	if p.X < len(row) {
		ch = string(row[p.X])
	}
	if cell, ok := c.Legend[ch]; ok {
		return cell, true
	}
	return CityCell{Name: "Street"}, true
}

// Render draws the grid with '@' at the player's position.
func (c *CityMap) Render(at Point) []string {
	lines := []string{fmt.Sprintf("--- %s ---", c.Name)}
	for y, row := range c.Rows {
		cells := []rune(row)
		for len(cells) < c.Width() {
			cells = append(cells, ' ')
		}
		if y == at.Y && at.X >= 0 && at.X < len(cells) {
			cells[at.X] = '@'
		}
		lines = append(lines, string(cells))
	}
	lines = append(lines, "", "@ - You are here")
	for _, ch := range slices.Sorted(maps.Keys(c.Legend)) {
		if strings.TrimSpace(ch) == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s - %s", ch, c.Legend[ch].Name))
	}
	return lines
}
