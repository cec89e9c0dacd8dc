package testing

import (
	"testing"

	blake2b "github.com/minio/blake2b-simd"
	"github.com/stretchr/testify/require"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// NewAddr returns an address that is a stable function of name, so tests can refer to
// parties by name.
func NewAddr(t testing.TB, name string) abi.Address {
	require.NotEmpty(t, name)
	return abi.Address(blake2b.Sum256([]byte("address/" + name)))
}

// NewSeeds returns seeds that are a stable function of name.
func NewSeeds(t testing.TB, name string) abi.Seeds {
	require.NotEmpty(t, name)
	return abi.Seeds(blake2b.Sum256([]byte("seeds/" + name)))
}
