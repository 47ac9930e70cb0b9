package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Address
	}{
		{"host and port", "192.0.2.10:5060", Address{IP: "192.0.2.10", Port: 5060}},
		{"bare host", "192.0.2.10", Address{IP: "192.0.2.10"}},
		{"hostname", "sip.example.com:5061", Address{IP: "sip.example.com", Port: 5061}},
		{"ipv6", "[2001:db8::1]:5060", Address{IP: "2001:db8::1", Port: 5060}},
		{"bad port kept as host only", "192.0.2.10:notaport", Address{IP: "192.0.2.10"}},
		{"empty", "", Address{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAddress(tt.input))
		})
	}
}

func TestAddressEquality(t *testing.T) {
	a := Address{IP: "10.0.0.1", Port: 5060}
	b := Address{IP: "10.0.0.1", Port: 5062}
	c := Address{IP: "10.0.0.2", Port: 5060}

	assert.True(t, a.Equals(b))
	assert.False(t, a.EqualsPort(b))
	assert.False(t, a.Equals(c))
	assert.True(t, a.EqualsPort(Address{IP: "10.0.0.1", Port: 5060}))
}

func TestAddressString(t *testing.T) {
	assert.Equal(t, "10.0.0.1:5060", Address{IP: "10.0.0.1", Port: 5060}.String())
	assert.Equal(t, "10.0.0.1", Address{IP: "10.0.0.1"}.String())
	assert.True(t, Address{}.Empty())
	assert.False(t, Address{IP: "10.0.0.1"}.Empty())
}
