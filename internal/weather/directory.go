package weather

import (
	"encoding/json"
	"fmt"
	"os"
)

// Directory resolves human city names to OpenWeatherMap city ids.
type Directory struct {
	cities []CityRecord
}

// NewDirectory wraps an already loaded list of records. Order is kept.
func NewDirectory(cities []CityRecord) *Directory {
	return &Directory{cities: cities}
}

// LoadDirectory reads a city.list.json style file: a JSON array of objects
// with at least "name" and "id".
func LoadDirectory(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cities []CityRecord
	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("parse city list %s: %w", path, err)
	}
	return NewDirectory(cities), nil
}

// Resolve returns the id of the first city whose name equals name exactly.
// Matching is case-sensitive.
func (d *Directory) Resolve(name string) (int64, bool) {
	for _, c := range d.cities {
		if c.Name == name {
			return c.ID, true
		}
	}
	return 0, false
}

// Len returns the number of records loaded.
func (d *Directory) Len() int {
	return len(d.cities)
}
