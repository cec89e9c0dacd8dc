package actors

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/builtin/vesting"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

type BuiltinProgram struct {
	program runtime.Program
	address abi.Address
}

// Program is the program's implementation.
func (b BuiltinProgram) Program() runtime.Program {
	return b.program
}

// Address is where the program is deployed.
func (b BuiltinProgram) Address() abi.Address {
	return b.address
}

func BuiltinPrograms() []BuiltinProgram {
	return []BuiltinProgram{
		{
			program: vesting.Actor{},
			address: builtin.VestingProgramAddr,
		},
	}
}

// BuiltinProgramLookup indexes BuiltinPrograms by address, ready for deployment on a host.
func BuiltinProgramLookup() map[abi.Address]runtime.Program {
	out := make(map[abi.Address]runtime.Program)
	for _, p := range BuiltinPrograms() {
		out[p.Address()] = p.Program()
	}
	return out
}
