package runtime

import (
	rtt "github.com/filecoin-project/go-state-types/rt"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// Runtime is the host's interface to a program invocation.
// It is everything a program may consult or ask for beyond its instruction data and accounts.
//
// Every method is synchronous: it either completes or returns an error, in which case the
// program must fail the instruction. The host commits or rolls back all account changes of a
// transaction as a unit, so programs never compensate for partial work.
type Runtime interface {
	// Information related to the current instruction being executed.
	Message() Message

	// The current ledger clock.
	CurrTime() (abi.UnixTime, error)

	// The minimum balance an account of `size` data bytes must hold to stay alive.
	MinimumBalance(size uint64) uint64

	// Asks the system program to create a new account.
	// If the target address is occupied the call fails; nothing is overwritten.
	CreateAccount(params *CreateAccountParams) error

	// Asks the token program to move tokens between two token accounts.
	// If the transfer fails, neither account is modified.
	Transfer(params *TransferParams) error

	// Provides the system call interface.
	Syscalls() Syscalls

	// Log writes a diagnostic message. Messages do not persist in ledger state.
	Log(level rtt.LogLevel, msg string, args ...interface{})
}

// Message contains information available to the program about the executing instruction.
type Message interface {
	// Whether the holder of `addr` authorized this instruction.
	Authorized(addr abi.Address) bool
}

// Pure functions implemented as primitives by the host.
type Syscalls interface {
	// Computes the program-derived address for a seed. The derivation is one-way and
	// deterministic; the result has no private key, so only the program can sign for it,
	// by presenting the same seed to the host.
	DeriveAddress(seeds abi.Seeds, program abi.Address) (abi.Address, error)
}

type CreateAccountParams struct {
	SystemProgram *AccountInfo
	Payer         *AccountInfo
	Target        *AccountInfo
	// Balance transferred from the payer to the new account.
	Lamports uint64
	// Size of the new account's data, zero-filled.
	Space uint64
	// Program that will own the new account.
	Owner abi.Address
	// Seed the program signs for the program-derived target with.
	SignerSeeds abi.Seeds
}

type TransferParams struct {
	TokenProgram *AccountInfo
	Source       *AccountInfo
	Destination  *AccountInfo
	Authority    *AccountInfo
	// When set, the authority is a program-derived address and the program signs for it with
	// these seeds. Otherwise the authority must have authorized the instruction itself.
	SignerSeeds *abi.Seeds
	Amount      abi.TokenAmount
}

// Program is the entry contract every program exposes to the host: the program's own address,
// the instruction's ordered accounts and its opaque data. A returned error rejects the whole
// instruction.
type Program interface {
	Process(rt Runtime, programID abi.Address, accounts []*AccountInfo, data []byte) error
}
