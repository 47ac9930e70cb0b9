package types

import (
	"net"
	"strconv"
)

// Address is a network endpoint observed in captured traffic.
// A zero Address means "not set".
type Address struct {
	IP   string
	Port uint16
}

// ParseAddress parses "host:port" or a bare host into an Address.
// Malformed ports are treated as absent rather than rejected; capture
// settings historically tolerate partial endpoints.
func ParseAddress(s string) Address {
	if s == "" {
		return Address{}
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		return Address{IP: s}
	}

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Address{IP: host}
	}

	return Address{IP: host, Port: uint16(port)}
}

// Empty reports whether the address carries no endpoint information.
func (a Address) Empty() bool {
	return a.IP == "" && a.Port == 0
}

// Equals reports whether both addresses have the same IP.
func (a Address) Equals(other Address) bool {
	return a.IP == other.IP
}

// EqualsPort reports whether both addresses have the same IP and port.
func (a Address) EqualsPort(other Address) bool {
	return a.IP == other.IP && a.Port == other.Port
}

func (a Address) String() string {
	if a.Port == 0 {
		return a.IP
	}
	return net.JoinHostPort(a.IP, strconv.Itoa(int(a.Port)))
}
