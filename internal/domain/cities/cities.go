// Package cities is the static city-to-UTC-offset lookup table used when a
// user picks a location.
package cities

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// MinQueryLength is the shortest query Search answers.
const MinQueryLength = 2

// City is one row of the table.
type City struct {
	Name   string  `json:"name" yaml:"name"`
	Offset float64 `json:"offset" yaml:"offset"`
}

// Table is an ordered city list. Order is preserved in search results.
type Table struct {
	cities []City
}

// Default returns the built-in table.
func Default() *Table {
	return &Table{cities: append([]City(nil), builtin...)}
}

// New builds a table from rows in the given order.
func New(rows []City) *Table {
	return &Table{cities: append([]City(nil), rows...)}
}

// Load reads a YAML list of {name, offset} rows from path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTable, err)
	}
	var doc struct {
		Cities []City `yaml:"cities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadTable, err)
	}
	if len(doc.Cities) == 0 {
		return nil, fmt.Errorf("%w: %s has no cities", ErrLoadTable, path)
	}
	for i, c := range doc.Cities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("%w: row %d has no name", ErrLoadTable, i)
		}
		if c.Offset < -12 || c.Offset > 14 {
			return nil, fmt.Errorf("%w: %s offset %v out of range", ErrLoadTable, c.Name, c.Offset)
		}
	}
	return New(doc.Cities), nil
}

// All returns every row.
func (t *Table) All() []City {
	return append([]City(nil), t.cities...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.cities) }

// Search returns rows whose name contains query, case-insensitively, in
// table order. Queries shorter than MinQueryLength return nothing.
func (t *Table) Search(query string) []City {
	if len([]rune(query)) < MinQueryLength {
		return []City{}
	}
	q := strings.ToLower(query)
	out := make([]City, 0)
	for _, c := range t.cities {
		if strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	return out
}

// Lookup returns the row whose name matches exactly, ignoring case.
func (t *Table) Lookup(name string) (City, bool) {
	for _, c := range t.cities {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return City{}, false
}

var builtin = []City{
	// North America
	{Name: "Berkeley, USA", Offset: -8},
	{Name: "San Francisco, USA", Offset: -8},
	{Name: "Los Angeles, USA", Offset: -8},
	{Name: "New York, USA", Offset: -5},
	{Name: "Chicago, USA", Offset: -6},
	{Name: "Toronto, Canada", Offset: -5},
	{Name: "Vancouver, Canada", Offset: -8},
	{Name: "Mexico City, Mexico", Offset: -6},

	// Europe
	{Name: "London, UK", Offset: 0},
	{Name: "Paris, France", Offset: 1},
	{Name: "Berlin, Germany", Offset: 1},
	{Name: "Amsterdam, Netherlands", Offset: 1},
	{Name: "Madrid, Spain", Offset: 1},
	{Name: "Rome, Italy", Offset: 1},
	{Name: "Kyiv, Ukraine", Offset: 2},

	// Asia
	{Name: "Taipei, Taiwan", Offset: 8},
	{Name: "Tokyo, Japan", Offset: 9},
	{Name: "Seoul, South Korea", Offset: 9},
	{Name: "Beijing, China", Offset: 8},
	{Name: "Shanghai, China", Offset: 8},
	{Name: "Hong Kong", Offset: 8},
	{Name: "Singapore", Offset: 8},
	{Name: "Bangkok, Thailand", Offset: 7},
	{Name: "Mumbai, India", Offset: 5.5},
	{Name: "Delhi, India", Offset: 5.5},
	{Name: "Dubai, UAE", Offset: 4},

	// Oceania
	{Name: "Sydney, Australia", Offset: 11},
	{Name: "Melbourne, Australia", Offset: 11},
	{Name: "Auckland, New Zealand", Offset: 13},

	// South America and others
	{Name: "São Paulo, Brazil", Offset: -3},
	{Name: "Buenos Aires, Argentina", Offset: -3},
	{Name: "Johannesburg, South Africa", Offset: 2},
}
