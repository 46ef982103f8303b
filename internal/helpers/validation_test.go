package helpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAddressValid(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{name: "checksummed", address: "0x8626f6940E2eb28930eFb4CeF49B2d1F2C9C1199", want: true},
		{name: "lowercase", address: "0x8626f6940e2eb28930efb4cef49b2d1f2c9c1199", want: true},
		{name: "zero address", address: "0x0000000000000000000000000000000000000000", want: true},
		{name: "missing prefix", address: "8626f6940E2eb28930eFb4CeF49B2d1F2C9C1199", want: false},
		{name: "too short", address: "0x1234", want: false},
		{name: "too long", address: "0x8626f6940E2eb28930eFb4CeF49B2d1F2C9C119900", want: false},
		{name: "non-hex characters", address: "0x8626f6940E2eb28930eFb4CeF49B2d1F2C9C11zz", want: false},
		{name: "empty", address: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAddressValid(tt.address))
		})
	}
}

func TestIsZeroAddress(t *testing.T) {
	assert.True(t, IsZeroAddress("0x0000000000000000000000000000000000000000"))
	assert.True(t, IsZeroAddress("0X0000000000000000000000000000000000000000"))
	assert.False(t, IsZeroAddress("0x8626f6940E2eb28930eFb4CeF49B2d1F2C9C1199"))
}
