package mock

import (
	"testing"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

// Build for fluent initialization of a mock runtime.
type RuntimeBuilder struct {
	rt *Runtime
}

// Initializes a new builder with the address of the program under test.
func NewBuilder(programID abi.Address) *RuntimeBuilder {
	m := &Runtime{
		programID:  programID,
		now:        0,
		rent:       builtin.DefaultRent(),
		authorized: runtime.NewAuthorizationSet(),
		syscalls:   syscaller{AddressDeriver: DeriveAddress},

		t:                    nil, // Initialized at Build()
		expectCreateAccounts: make([]*expectCreateAccount, 0),
		expectTransfers:      make([]*expectTransfer, 0),
	}
	return &RuntimeBuilder{m}
}

// Builds a new runtime object with the configured values.
func (b *RuntimeBuilder) Build(t testing.TB) *Runtime {
	cpy := *b.rt

	// Deep copy the mutable values.
	cpy.authorized = runtime.NewAuthorizationSet()
	for a := range b.rt.authorized {
		cpy.authorized.Add(a)
	}

	cpy.t = t
	return &cpy
}

func (b *RuntimeBuilder) WithTime(now abi.UnixTime) *RuntimeBuilder {
	b.rt.now = now
	return b
}

func (b *RuntimeBuilder) WithRent(rent builtin.Rent) *RuntimeBuilder {
	b.rt.rent = rent
	return b
}

func (b *RuntimeBuilder) WithAuthorized(addrs ...abi.Address) *RuntimeBuilder {
	for _, a := range addrs {
		b.rt.authorized.Add(a)
	}
	return b
}

func (b *RuntimeBuilder) WithAddressDeriver(f DeriveFunc) *RuntimeBuilder {
	b.rt.syscalls.AddressDeriver = f
	return b
}
