// Package mappings translates the country and category slugs used by the dashboard
// into the market codes understood by the prediction service.
package mappings

import (
	"fmt"
	"sort"

	"npdstudio/domain/core"
)

var countryCodes = map[string]string{
	"united-kingdom": "GB01",
}

var categoryCodes = map[string]string{
	"biscuits":  "EUBI",
	"chocolate": "EUCO",
	"gum-candy": "EUGC",
	"cheese":    "EUCH",
}

var countryNames = map[string]string{
	"GB01": "United Kingdom",
}

var categoryNames = map[string]string{
	"EUBI": "Biscuits",
	"EUCO": "Chocolate",
	"EUGC": "Gum & Candy",
	"EUCH": "Cheese",
}

// Option is a selectable slug with its code and display name
type Option struct {
	Slug string `json:"slug"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// CountryCode returns the market code for a country slug
func CountryCode(slug string) (string, error) {
	code, ok := countryCodes[slug]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCountry, slug)
	}
	return code, nil
}

// CategoryCode returns the market code for a category slug
func CategoryCode(slug string) (string, error) {
	code, ok := categoryCodes[slug]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCategory, slug)
	}
	return code, nil
}

// CountryName returns the display name for a country code
func CountryName(code string) (string, error) {
	name, ok := countryNames[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCountry, code)
	}
	return name, nil
}

// CategoryName returns the display name for a category code
func CategoryName(code string) (string, error) {
	name, ok := categoryNames[code]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCategory, code)
	}
	return name, nil
}

// ConfigSection names the model configuration for a country/category code pair.
func ConfigSection(countryCode, categoryCode string) (string, error) {
	if _, ok := countryNames[countryCode]; !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCountry, countryCode)
	}
	if _, ok := categoryNames[categoryCode]; !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownCategory, categoryCode)
	}
	return countryCode + "." + categoryCode, nil
}

// SectionForSelection resolves the slugs picked in the workspace to a config section.
func SectionForSelection(country, category string) (string, error) {
	countryCode, err := CountryCode(country)
	if err != nil {
		return "", err
	}
	categoryCode, err := CategoryCode(category)
	if err != nil {
		return "", err
	}
	return ConfigSection(countryCode, categoryCode)
}

// Countries lists the selectable countries ordered by slug
func Countries() []Option {
	return options(countryCodes, countryNames)
}

// Categories lists the selectable categories ordered by slug
func Categories() []Option {
	return options(categoryCodes, categoryNames)
}

func options(codes, names map[string]string) []Option {
	out := make([]Option, 0, len(codes))
	for slug, code := range codes {
		out = append(out, Option{Slug: slug, Code: code, Name: names[code]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}
