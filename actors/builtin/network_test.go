package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRent(t *testing.T) {
	rent := DefaultRent()
	assert.Equal(t, uint64(128*3480*2), rent.MinimumBalance(0))
	assert.Equal(t, uint64(1_454_640), rent.MinimumBalance(81))
	assert.Equal(t, uint64(2_039_280), rent.MinimumBalance(165))

	free := Rent{LamportsPerByteYear: 0, ExemptionThreshold: 2}
	assert.Zero(t, free.MinimumBalance(1000))
	assert.Equal(t, "3480 lamports/byte-year, exempt at 2 years", rent.String())
}
