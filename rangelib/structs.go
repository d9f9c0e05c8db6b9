package rangelib

import (
	"net"

	cidrman "github.com/EvilSuperstars/go-cidrman"
)

// Location is a geolocation attributed to a range.
type Location struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

// IPRange is a closed interval [Start, End] of IPv4 addresses which
// are uniformly attributed to a single location. Addresses are
// big-endian numbers, see ParseIPv4.
type IPRange struct {
	Start   uint32
	End     uint32
	Country string
	Region  string
	City    string
}

// Contains checks if ip belongs to the range. Both ends are inclusive.
func (r IPRange) Contains(ip uint32) bool {
	return r.Start <= ip && ip <= r.End
}

func (r IPRange) StartIP() net.IP {
	return ipv4ToNetIP(r.Start)
}

func (r IPRange) EndIP() net.IP {
	return ipv4ToNetIP(r.End)
}

func (r IPRange) Location() Location {
	return Location{
		Country: r.Country,
		Region:  r.Region,
		City:    r.City,
	}
}

// CIDRs returns a minimal list of non-overlapping networks which cover
// the range exactly.
func (r IPRange) CIDRs() ([]*net.IPNet, error) {
	return cidrman.IPRangeToIPNets(r.StartIP(), r.EndIP())
}

// ResolveResult is a result of resolving a single address with
// a Locator. It is what HTTP API responds with.
type ResolveResult struct {
	IP      string `json:"ip"`
	Found   bool   `json:"found"`
	Country struct {
		Alpha2Code   string `json:"alpha2_code"`
		Alpha3Code   string `json:"alpha3_code"`
		CommonName   string `json:"common_name"`
		OfficialName string `json:"official_name"`
	} `json:"country"`
	Region string              `json:"region"`
	City   string              `json:"city"`
	Range  *ResolveResultRange `json:"range,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// OK tells if an address was resolved into some location.
func (r *ResolveResult) OK() bool {
	return r.Found
}

type ResolveResultRange struct {
	Start    string   `json:"start"`
	End      string   `json:"end"`
	Networks []string `json:"networks"`
}

func newResolveResult(ip string, rng IPRange, found bool, err error) ResolveResult {
	rv := ResolveResult{
		IP:    ip,
		Found: found,
	}

	if err != nil {
		rv.Error = err.Error()
	}

	if !found {
		return rv
	}

	rv.Country.Alpha2Code = rng.Country
	rv.Region = rng.Region
	rv.City = rng.City

	if details, ok := CountryDetails(rng.Country); ok {
		rv.Country.Alpha2Code = details.Alpha2
		rv.Country.Alpha3Code = details.Alpha3
		rv.Country.CommonName = details.Name.BaseLang.Common
		rv.Country.OfficialName = details.Name.BaseLang.Official
	}

	rv.Range = &ResolveResultRange{
		Start:    FormatIPv4(rng.Start),
		End:      FormatIPv4(rng.End),
		Networks: []string{},
	}

	if networks, err := rng.CIDRs(); err == nil {
		for _, v := range networks {
			rv.Range.Networks = append(rv.Range.Networks, v.String())
		}
	}

	return rv
}
