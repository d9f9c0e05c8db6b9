package rangelib

import (
	"encoding/binary"
	"net"
	"net/netip"
)

// ParseIPv4 converts a dotted-quad string into a big-endian 32-bit
// number: 12.22.104.13 is 12<<24 | 22<<16 | 104<<8 | 13.
//
// Only canonical IPv4 notation is accepted: 4 decimal octets 0..255
// without leading zeroes. IPv6 (including IPv4-mapped) addresses are
// rejected.
func ParseIPv4(ip string) (uint32, error) {
	addr, err := netip.ParseAddr(ip)

	switch {
	case err != nil:
		return 0, &ParseError{Input: ip, Err: err}
	case !addr.Is4():
		return 0, &ParseError{Input: ip, Err: errNotIPv4}
	}

	return IPv4FromBytes(addr.As4()), nil
}

// FormatIPv4 is an opposite of ParseIPv4.
func FormatIPv4(ip uint32) string {
	return netip.AddrFrom4(IPv4ToBytes(ip)).String()
}

// IPv4FromBytes packs 4 octets into a number.
func IPv4FromBytes(octets [4]byte) uint32 {
	return binary.BigEndian.Uint32(octets[:])
}

// IPv4ToBytes unpacks a number into 4 octets.
func IPv4ToBytes(ip uint32) [4]byte {
	var rv [4]byte

	binary.BigEndian.PutUint32(rv[:], ip)

	return rv
}

func ipv4ToNetIP(ip uint32) net.IP {
	octets := IPv4ToBytes(ip)

	return net.IPv4(octets[0], octets[1], octets[2], octets[3]).To4()
}
