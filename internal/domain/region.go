package domain

import "fmt"

// Region identifies one of the tracked geographic areas.
type Region string

const (
	RegionGaza     Region = "gaza"
	RegionWestBank Region = "westbank"
)

// RegionInfo describes how a region's figures are presented.
type RegionInfo struct {
	Name              string `json:"name"`
	HasSettlerAttacks bool   `json:"has_settler_attacks"`
	HasProfessionals  bool   `json:"has_professionals"`
}

var regionCatalog = map[Region]RegionInfo{
	RegionGaza:     {Name: "Gaza", HasProfessionals: true},
	RegionWestBank: {Name: "West Bank", HasSettlerAttacks: true},
}

// Regions returns every tracked region in display order.
func Regions() []Region {
	return []Region{RegionGaza, RegionWestBank}
}

// Valid reports whether r is a tracked region.
func (r Region) Valid() bool {
	_, ok := regionCatalog[r]
	return ok
}

// Info returns presentation metadata for r. Unknown regions get a zero value.
func (r Region) Info() RegionInfo {
	return regionCatalog[r]
}

// ParseRegion validates a region key.
func ParseRegion(s string) (Region, error) {
	r := Region(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRegion, s)
	}
	return r, nil
}
