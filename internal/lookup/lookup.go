// Package lookup builds the id -> name maps used to render client addresses.
//
// The maps are built once from the billing API's country and state lists and
// are read-only afterwards, so a Maps value can be shared freely.
package lookup

import (
	"github.com/danutsss/invoice-xml-export/internal/types"
)

// Maps holds the country and state names keyed by id.
type Maps struct {
	countries map[int]string
	states    map[int]string
}

// New builds the maps. A later record with the same id replaces an earlier one.
func New(countries, states []types.NamedEntity) *Maps {
	return &Maps{
		countries: index(countries),
		states:    index(states),
	}
}

func index(entities []types.NamedEntity) map[int]string {
	m := make(map[int]string, len(entities))
	for _, e := range entities {
		m[e.ID] = e.Name
	}
	return m
}

// Country returns the country name for id. A nil id is never found.
func (m *Maps) Country(id *int) (string, bool) {
	return get(m.countries, id)
}

// State returns the state name for id. A nil id is never found.
func (m *Maps) State(id *int) (string, bool) {
	return get(m.states, id)
}

func get(m map[int]string, id *int) (string, bool) {
	if id == nil {
		return "", false
	}
	name, ok := m[*id]
	return name, ok
}

// Region renders the trailing region segment of an address.
//
//	no country id        -> ""
//	country and state id -> "{state}, {country}"
//	country id only      -> "{country}"
//
// Unknown ids render as the empty string.
func (m *Maps) Region(countryID, stateID *int) string {
	if countryID == nil {
		return ""
	}

	country, _ := m.Country(countryID)
	if stateID != nil {
		state, _ := m.State(stateID)
		return state + ", " + country
	}

	return country
}

// Len returns the number of countries and states loaded.
func (m *Maps) Len() (countries, states int) {
	return len(m.countries), len(m.states)
}
