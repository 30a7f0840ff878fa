package mappings

import (
	"errors"
	"testing"

	"npdstudio/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodesRoundTripToNames(t *testing.T) {
	tests := []struct {
		slug string
		code string
		name string
	}{
		{"biscuits", "EUBI", "Biscuits"},
		{"chocolate", "EUCO", "Chocolate"},
		{"gum-candy", "EUGC", "Gum & Candy"},
		{"cheese", "EUCH", "Cheese"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			code, err := CategoryCode(tt.slug)
			require.NoError(t, err)
			assert.Equal(t, tt.code, code)

			name, err := CategoryName(code)
			require.NoError(t, err)
			assert.Equal(t, tt.name, name)
		})
	}

	code, err := CountryCode("united-kingdom")
	require.NoError(t, err)
	name, err := CountryName(code)
	require.NoError(t, err)
	assert.Equal(t, "United Kingdom", name)
}

func TestConfigSection(t *testing.T) {
	section, err := ConfigSection("GB01", "EUCO")
	require.NoError(t, err)
	assert.Equal(t, "GB01.EUCO", section)

	section, err = SectionForSelection("united-kingdom", "gum-candy")
	require.NoError(t, err)
	assert.Equal(t, "GB01.EUGC", section)
}

func TestUnknownCodes(t *testing.T) {
	_, err := CountryCode("france")
	assert.True(t, errors.Is(err, core.ErrUnknownCountry))

	_, err = CategoryName("EUXX")
	assert.True(t, errors.Is(err, core.ErrUnknownCategory))

	_, err = ConfigSection("GB01", "biscuits")
	assert.True(t, core.IsValidationError(err))

	_, err = SectionForSelection("", "cheese")
	assert.True(t, errors.Is(err, core.ErrUnknownCountry))
}

func TestOptionsAreSorted(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 4)
	assert.Equal(t, "biscuits", cats[0].Slug)
	assert.Equal(t, "gum-candy", cats[3].Slug)
	assert.Equal(t, "Gum & Candy", cats[3].Name)
	assert.Len(t, Countries(), 1)
}
