package domain

import (
	"sort"
	"strings"
)

// DefaultBias is the feel-like temperature offset for cities without an
// explicit entry in the bias table.
const DefaultBias = 3.0

// Region labels.
const (
	RegionNorth   = "North"
	RegionCentral = "Central"
	RegionSouth   = "South"
)

// CityProfile is the resolved metadata for one city.
type CityProfile struct {
	Code   string  `json:"code,omitempty"`
	Name   string  `json:"name"`
	Region string  `json:"region"`
	Bias   float64 `json:"bias"`
}

// CityAliases maps lower-case short codes to canonical display names.
var CityAliases = map[string]string{
	"hanoi":     "Hanoi",
	"haiphong":  "Hai Phong",
	"quangninh": "Quang Ninh",
	"thanhhoa":  "Thanh Hoa",

	"vinh": "Nghe An (Vinh)",
	"hue":  "Hue (Thua Thien Hue)",

	"danang":   "Da Nang",
	"quynhon":  "Binh Dinh (Quy Nhon)",
	"nhatrang": "Nha Trang (Khanh Hoa)",
	"quangnam": "Quang Nam (Tam Ky)",

	"dalat":       "Da Lat (Lam Dong)",
	"buonmethuot": "Buon Ma Thuot (Dak Lak)",

	"hcmc":      "Ho Chi Minh City",
	"hochiminh": "Ho Chi Minh City",
	"saigon":    "Ho Chi Minh City",
	"cantho":    "Can Tho",
	"camau":     "Ca Mau",
}

// CityBias maps canonical names to the feel-like temperature offset in °C.
var CityBias = map[string]float64{
	"Hanoi":      2,
	"Hai Phong":  2,
	"Quang Ninh": 2,
	"Thanh Hoa":  2,

	"Nghe An (Vinh)":       2,
	"Hue (Thua Thien Hue)": 2,

	"Da Nang":               3,
	"Binh Dinh (Quy Nhon)":  3,
	"Nha Trang (Khanh Hoa)": 4,
	"Quang Nam (Tam Ky)":    3,

	"Da Lat (Lam Dong)":       1,
	"Buon Ma Thuot (Dak Lak)": 2,

	"Ho Chi Minh City": 4,
	"Can Tho":          3,
	"Ca Mau":           3,
}

var northCities = map[string]bool{
	"Hanoi": true, "Hai Phong": true, "Quang Ninh": true, "Thanh Hoa": true, "Nghe An (Vinh)": true,
}

var centralCities = map[string]bool{
	"Hue (Thua Thien Hue)": true, "Da Nang": true, "Binh Dinh (Quy Nhon)": true,
	"Nha Trang (Khanh Hoa)": true, "Pleiku": true,
	"Buon Ma Thuot (Dak Lak)": true, "Da Lat (Lam Dong)": true,
}

// RegionOf maps a canonical city name to its region; anything not in the
// North or Central lists is South. The lists match the region one-hot columns
// the history workbook was built with, so Quang Nam falls through to South.
func RegionOf(name string) string {
	switch {
	case northCities[name]:
		return RegionNorth
	case centralCities[name]:
		return RegionCentral
	default:
		return RegionSouth
	}
}

// DefaultRegions builds the city → region table for every city that has a
// bias entry.
func DefaultRegions() map[string]string {
	regions := make(map[string]string, len(CityBias))
	for name := range CityBias {
		regions[name] = RegionOf(name)
	}
	return regions
}

// Catalog resolves city codes and names to profiles. It is built once and
// never mutated, so concurrent reads need no locking.
type Catalog struct {
	aliases map[string]string
	bias    map[string]float64
	regions map[string]string
}

// NewCatalog copies the given tables into an immutable Catalog. regions holds
// the metadata rows; a city without one cannot be resolved.
func NewCatalog(aliases map[string]string, bias map[string]float64, regions map[string]string) *Catalog {
	c := &Catalog{
		aliases: make(map[string]string, len(aliases)),
		bias:    make(map[string]float64, len(bias)),
		regions: make(map[string]string, len(regions)),
	}
	for k, v := range aliases {
		c.aliases[strings.ToLower(k)] = v
	}
	for k, v := range bias {
		c.bias[k] = v
	}
	for k, v := range regions {
		c.regions[k] = v
	}
	return c
}

// DefaultCatalog returns a Catalog built from the built-in tables.
func DefaultCatalog() *Catalog {
	return NewCatalog(CityAliases, CityBias, DefaultRegions())
}

// CanonicalName maps a short code to its display name. Unknown codes pass
// through unchanged.
func (c *Catalog) CanonicalName(code string) string {
	if name, ok := c.aliases[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return strings.TrimSpace(code)
}

// Resolve returns the profile for a short code or display name.
func (c *Catalog) Resolve(code string) (CityProfile, error) {
	name := c.CanonicalName(code)
	region, ok := c.regions[name]
	if !ok {
		return CityProfile{}, ErrUnknownEntity(name)
	}
	profile := CityProfile{Name: name, Region: region, Bias: c.Bias(name)}
	if name != code {
		profile.Code = strings.ToLower(strings.TrimSpace(code))
	}
	return profile, nil
}

// Bias returns the feel-like offset for a display name, DefaultBias if unknown.
func (c *Catalog) Bias(name string) float64 {
	if b, ok := c.bias[name]; ok {
		return b
	}
	return DefaultBias
}

// Cities lists every resolvable city sorted by name.
func (c *Catalog) Cities() []CityProfile {
	out := make([]CityProfile, 0, len(c.regions))
	for name, region := range c.regions {
		out = append(out, CityProfile{Name: name, Region: region, Bias: c.Bias(name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
