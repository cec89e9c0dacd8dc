package mock

import (
	"fmt"

	blake2b "github.com/minio/blake2b-simd"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

type DeriveFunc func(seeds abi.Seeds, program abi.Address) (abi.Address, error)

type syscaller struct {
	AddressDeriver DeriveFunc
}

// Interface methods
func (s *syscaller) DeriveAddress(seeds abi.Seeds, program abi.Address) (abi.Address, error) {
	if s.AddressDeriver == nil {
		s.PanicOnUnsetFunc("AddressDeriver")
	}
	return s.AddressDeriver(seeds, program)
}

func (s *syscaller) PanicOnUnsetFunc(unsetFuncName string) {
	panic(fmt.Sprintf("no %s set", unsetFuncName))
}

var _ runtime.Syscalls = &syscaller{}

// DeriveAddress is the mock runtime's default address derivation, a blake2b-256 digest of the
// seeds and program address. It is deterministic and collision-resistant, which is all the
// program relies on.
func DeriveAddress(seeds abi.Seeds, program abi.Address) (abi.Address, error) {
	buf := make([]byte, 0, abi.SeedsLength+abi.AddressLength)
	buf = append(buf, seeds[:]...)
	buf = append(buf, program[:]...)
	return abi.Address(blake2b.Sum256(buf)), nil
}
