package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchContextLabel(t *testing.T) {
	typed := NewTypedSearch("cafe", "Town")
	assert.Equal(t, "Typed: cafe in Town", typed.Label())

	mapped := NewMapSearch("restaurant", 52.0, 5.0, 1000)
	assert.Equal(t, "Map: restaurant in 52.00000, 5.00000 (radius 1000 m)", mapped.Label())
}

func TestSearchContextFilename(t *testing.T) {
	typed := NewTypedSearch("ice cream", "Den Bosch")
	assert.Equal(t, "ice_cream_Den_Bosch.xlsx", typed.Filename())

	mapped := NewMapSearch("cafe", 52.5, 5.25, 500)
	assert.Equal(t, "cafe_52.5_5.25.xlsx", mapped.Filename())
}

func TestSearchContextDisplayColumns(t *testing.T) {
	typed := NewTypedSearch("cafe", "Town")
	assert.Equal(t, []string{"Name", "Address", "Phone", "Website", "Email"}, typed.DisplayColumns())

	mapped := NewMapSearch("cafe", 52.0, 5.0, 1000)
	assert.Contains(t, mapped.DisplayColumns(), "Latitude")
	assert.Contains(t, mapped.DisplayColumns(), "Longitude")
}

func TestSearchContextValidate(t *testing.T) {
	tests := []struct {
		name    string
		sc      SearchContext
		wantErr string
	}{
		{name: "typed ok", sc: NewTypedSearch("cafe", "Town")},
		{name: "map ok", sc: NewMapSearch("cafe", 52, 5, 1000)},
		{name: "missing category", sc: NewTypedSearch("", "Town"), wantErr: "category"},
		{name: "typed missing place", sc: NewTypedSearch("cafe", " "), wantErr: "place"},
		{
			name:    "map missing center",
			sc:      SearchContext{Mode: ModeMap, Category: "cafe", RadiusM: 1000},
			wantErr: "no location selected",
		},
		{
			name: "map zero radius",
			sc: func() SearchContext {
				sc := NewMapSearch("cafe", 52, 5, 0)
				return sc
			}(),
			wantErr: "radius",
		},
		{name: "unknown mode", sc: SearchContext{Mode: "other", Category: "cafe"}, wantErr: "unknown mode"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.sc.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestSearchContextScopePrefix(t *testing.T) {
	sc := NewMapSearch("Restaurant", 52, 5, 1000)
	assert.Equal(t, "map: restaurant", sc.ScopePrefix())
}

func TestSearchContextReset(t *testing.T) {
	sc := NewMapSearch("cafe", 52, 5, 1000)
	require.NotNil(t, sc.Center)
	require.NotEmpty(t, sc.RunID)

	sc.Reset()
	assert.Empty(t, sc.RunID)
	assert.Empty(t, sc.Place)
	assert.Nil(t, sc.Center)
	assert.Zero(t, sc.RadiusM)
	assert.Equal(t, "cafe", sc.Category, "category survives a reset")
}
