package rangelib

import (
	"sort"
	"strings"

	"github.com/pariz/gountries"
)

var countryCodeQuery = gountries.New()

// NormalizeCountry returns a form of the country code which is used
// for comparisons. It is uppercased and trimmed. Some databases still
// use legacy codes: UK for GB, YU for Serbia, FX for France. These are
// mapped to their ISO3166 counterparts.
func NormalizeCountry(country string) string {
	country = strings.ToUpper(strings.TrimSpace(country))

	// please read comments in CSV files of software77, this is
	// applicable to most of other datasets as well.
	switch country {
	case "YU":
		return "CS"
	case "FX":
		return "FR"
	case "UK":
		return "GB"
	default:
		return country
	}
}

// CountryDetails returns ISO3166 details of the country by its 2- or
// 3-letter code.
func CountryDetails(code string) (gountries.Country, bool) {
	country, err := countryCodeQuery.FindCountryByAlpha(NormalizeCountry(code))
	if err != nil {
		return gountries.Country{}, false
	}

	return country, true
}

// CountryFilter is an allow-list of countries. A nil filter and an
// empty one both allow everything.
type CountryFilter map[string]struct{}

// Allows checks if ranges of the given country should be kept.
func (c CountryFilter) Allows(country string) bool {
	if len(c) == 0 {
		return true
	}

	_, ok := c[NormalizeCountry(country)]

	return ok
}

// Unknown returns a sorted list of filter values which are not
// ISO3166 country codes. These are not errors: datasets are free to
// use their own placeholders like "-".
func (c CountryFilter) Unknown() []string {
	rv := []string{}

	for k := range c {
		if _, ok := CountryDetails(k); !ok {
			rv = append(rv, k)
		}
	}

	sort.Strings(rv)

	return rv
}

// NewCountryFilter builds a filter from a list of country codes. nil
// slice gives nil filter, an empty one gives an empty filter.
func NewCountryFilter(countries []string) CountryFilter {
	if countries == nil {
		return nil
	}

	rv := make(CountryFilter, len(countries))

	for _, v := range countries {
		rv[NormalizeCountry(v)] = struct{}{}
	}

	return rv
}
