package abi

import (
	"bytes"
	"strconv"

	"github.com/mr-tron/base58"
	"golang.org/x/xerrors"
)

// The abi package contains definitions of all types that cross the program boundary and are
// used within program code.
//
// Primitive types include numerics and opaque array types. All multi-byte integers are encoded
// little-endian on the wire.

// AddressLength is the size in bytes of every ledger address.
const AddressLength = 32

// SeedsLength is the size in bytes of the seed a program-derived address is computed from.
const SeedsLength = 32

// Address identifies an account on the ledger. It is either a public key or a
// program-derived address, which has no private key.
type Address [AddressLength]byte

// Undef is the zero address. It doubles as the system program's address.
var Undef = Address{}

func NewAddress(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressLength {
		return a, xerrors.Errorf("address must be %d bytes, got %d", AddressLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress decodes the base58 text form of an address.
func ParseAddress(s string) (Address, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return Undef, xerrors.Errorf("invalid address %q: %w", s, err)
	}
	return NewAddress(b)
}

// MustParseAddress is ParseAddress for well-known constants; it panics on malformed input.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) Empty() bool {
	return a == Undef
}

func (a Address) Less(o Address) bool {
	return bytes.Compare(a[:], o[:]) < 0
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Seeds is the caller-supplied input from which a program derives an address it alone can sign for.
type Seeds [SeedsLength]byte

func (s Seeds) Bytes() []byte {
	return s[:]
}

func (s Seeds) String() string {
	return base58.Encode(s[:])
}

// UnixTime is a ledger clock reading, in seconds since the Unix epoch.
type UnixTime uint64

func (t UnixTime) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// TokenAmount is a quantity of a fungible token in base units.
type TokenAmount = uint64
