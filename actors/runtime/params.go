package runtime

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// AccountMeta names one account an instruction expects, with the access it needs.
type AccountMeta struct {
	Address    abi.Address
	IsSigner   bool
	IsWritable bool
}

func NewAccountMeta(addr abi.Address, isSigner bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: isSigner, IsWritable: true}
}

func NewReadonlyAccountMeta(addr abi.Address, isSigner bool) AccountMeta {
	return AccountMeta{Address: addr, IsSigner: isSigner, IsWritable: false}
}

// Instruction is a program invocation as submitted to the host: the target program, the
// ordered account list and the opaque instruction data.
type Instruction struct {
	ProgramID abi.Address
	Accounts  []AccountMeta
	Data      []byte
}

// Signers returns the addresses the instruction requires authorization from, in order.
func (ix *Instruction) Signers() []abi.Address {
	var out []abi.Address
	for _, m := range ix.Accounts {
		if m.IsSigner {
			out = append(out, m.Address)
		}
	}
	return out
}
