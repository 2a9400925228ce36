package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_CanonicalName(t *testing.T) {
	c := DefaultCatalog()

	tests := []struct {
		code string
		want string
	}{
		{"hanoi", "Hanoi"},
		{"HCMC", "Ho Chi Minh City"},
		{"  saigon ", "Ho Chi Minh City"},
		{"quangnam", "Quang Nam (Tam Ky)"},
		{"Da Nang", "Da Nang"},
		{"atlantis", "atlantis"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, c.CanonicalName(tt.code))
		})
	}
}

func TestCatalog_Resolve(t *testing.T) {
	c := DefaultCatalog()

	p, err := c.Resolve("danang")
	require.NoError(t, err)
	assert.Equal(t, CityProfile{Code: "danang", Name: "Da Nang", Region: RegionCentral, Bias: 3}, p)

	p, err = c.Resolve("Hanoi")
	require.NoError(t, err)
	assert.Empty(t, p.Code)
	assert.Equal(t, RegionNorth, p.Region)
	assert.Equal(t, 2.0, p.Bias)
}

func TestCatalog_ResolveUnknown(t *testing.T) {
	_, err := DefaultCatalog().Resolve("atlantis")
	require.Error(t, err)
	assert.Equal(t, KindUnknownEntity, KindOf(err))
	assert.Contains(t, err.Error(), "atlantis")
}

func TestCatalog_BiasDefault(t *testing.T) {
	c := DefaultCatalog()
	assert.Equal(t, 4.0, c.Bias("Nha Trang (Khanh Hoa)"))
	assert.Equal(t, 1.0, c.Bias("Da Lat (Lam Dong)"))
	assert.Equal(t, DefaultBias, c.Bias("Unlisted Town"))
}

func TestCatalog_IsolatedFromSourceTables(t *testing.T) {
	aliases := map[string]string{"Foo": "Foo City"}
	bias := map[string]float64{"Foo City": 1.5}
	regions := map[string]string{"Foo City": RegionSouth}

	c := NewCatalog(aliases, bias, regions)
	aliases["foo"] = "Elsewhere"
	bias["Foo City"] = 9
	delete(regions, "Foo City")

	p, err := c.Resolve("foo")
	require.NoError(t, err)
	assert.Equal(t, "Foo City", p.Name)
	assert.Equal(t, 1.5, p.Bias)
	assert.Equal(t, RegionSouth, p.Region)
}

func TestCatalog_Cities(t *testing.T) {
	cities := DefaultCatalog().Cities()

	require.Len(t, cities, len(CityBias))
	for i := 1; i < len(cities); i++ {
		assert.Less(t, cities[i-1].Name, cities[i].Name)
	}
}

func TestRegionOf(t *testing.T) {
	assert.Equal(t, RegionNorth, RegionOf("Nghe An (Vinh)"))
	assert.Equal(t, RegionSouth, RegionOf("Quang Nam (Tam Ky)"))
	assert.Equal(t, RegionCentral, RegionOf("Pleiku"))
	assert.Equal(t, RegionCentral, RegionOf("Da Lat (Lam Dong)"))
	assert.Equal(t, RegionSouth, RegionOf("Can Tho"))
	assert.Equal(t, RegionSouth, RegionOf("Anywhere"))
}

func TestCityAliases_ResolveToKnownCities(t *testing.T) {
	c := DefaultCatalog()
	for code := range CityAliases {
		_, err := c.Resolve(code)
		assert.NoError(t, err, code)
	}
}
