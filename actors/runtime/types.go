package runtime

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// Concrete types associated with the runtime interface.

// AccountInfo is the host's handle on one account passed to an instruction.
// Data is the account's record, an arena the owning program reads and writes by offset.
// Writes are visible to the host when the instruction returns. Whether the holder of Key
// authorized the instruction is not recorded here; see Message.Authorized.
type AccountInfo struct {
	Key        abi.Address
	Owner      abi.Address
	Lamports   uint64
	Data       []byte
	IsWritable bool
	Executable bool
}

func (a *AccountInfo) DataLen() int {
	return len(a.Data)
}

// AuthorizationSet is the set of addresses whose holders authorized an instruction.
type AuthorizationSet map[abi.Address]struct{}

func NewAuthorizationSet(addrs ...abi.Address) AuthorizationSet {
	s := make(AuthorizationSet, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func (s AuthorizationSet) Authorized(addr abi.Address) bool {
	_, ok := s[addr]
	return ok
}

func (s AuthorizationSet) Add(addr abi.Address) {
	s[addr] = struct{}{}
}

var _ Message = AuthorizationSet{}
