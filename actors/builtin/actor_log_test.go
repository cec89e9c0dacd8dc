package builtin

import (
	"testing"

	rtt "github.com/filecoin-project/go-state-types/rt"
	"github.com/stretchr/testify/assert"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

func TestProgramLogLevel(t *testing.T) {
	program := abi.Address{0x42}

	t.Run("log with default", func(t *testing.T) {
		assert.Equal(t, rtt.DEBUG, GetProgramLogLevel(program, rtt.DEBUG))
		assert.Equal(t, rtt.INFO, GetProgramLogLevel(program, rtt.INFO))
		assert.Equal(t, rtt.WARN, GetProgramLogLevel(program, rtt.WARN))
		assert.Equal(t, rtt.ERROR, GetProgramLogLevel(program, rtt.ERROR))
	})

	t.Run("set log level overrides default", func(t *testing.T) {
		SetProgramsLogLevel(rtt.DEBUG, program)
		assert.Equal(t, rtt.DEBUG, GetProgramLogLevel(program, rtt.ERROR))

		SetProgramsLogLevel(rtt.WARN, program)
		assert.Equal(t, rtt.WARN, GetProgramLogLevel(program, rtt.DEBUG))

		SetProgramsLogLevel(rtt.ERROR, program)
		assert.Equal(t, rtt.ERROR, GetProgramLogLevel(program, rtt.INFO))
	})

	t.Run("threshold", func(t *testing.T) {
		other := abi.Address{0x43}
		SetProgramsLogLevel(rtt.WARN, other)
		assert.False(t, ShouldLog(other, rtt.DEBUG, rtt.DEBUG))
		assert.False(t, ShouldLog(other, rtt.INFO, rtt.DEBUG))
		assert.True(t, ShouldLog(other, rtt.WARN, rtt.DEBUG))
		assert.True(t, ShouldLog(other, rtt.ERROR, rtt.DEBUG))
	})
}

func TestWellKnownAddresses(t *testing.T) {
	assert.True(t, SystemProgramAddr.Empty())
	assert.Equal(t, "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA", TokenProgramAddr.String())
	assert.NotEqual(t, RentSysvarAddr, ClockSysvarAddr)
	assert.False(t, VestingProgramAddr.Empty())
}
