package token

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// AccountLen is the size of a token account record.
const AccountLen = 165

var (
	ErrInvalidLength  = xerrors.New("token account has wrong length")
	ErrInvalidOption  = xerrors.New("token account optional field has invalid tag")
	ErrInvalidState   = xerrors.New("token account has invalid state")
	ErrNotInitialized = xerrors.New("token account is not initialized")
)

type AccountState uint8

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Account is a token-holding account as recorded by the token program.
//
// Layout, little-endian, no padding:
//
//	[0,32)    mint
//	[32,64)   owner
//	[64,72)   amount
//	[72,108)  delegate          (u32 option tag + address)
//	[108]     state
//	[109,121) is native         (u32 option tag + u64 rent-exempt reserve)
//	[121,129) delegated amount
//	[129,165) close authority   (u32 option tag + address)
type Account struct {
	Mint            abi.Address
	Owner           abi.Address
	Amount          abi.TokenAmount
	Delegate        *abi.Address
	State           AccountState
	IsNative        *uint64
	DelegatedAmount abi.TokenAmount
	CloseAuthority  *abi.Address
}

func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// Pack writes the account into dst, which must be at least AccountLen bytes.
func (a *Account) Pack(dst []byte) {
	_ = dst[AccountLen-1]
	copy(dst[0:32], a.Mint[:])
	copy(dst[32:64], a.Owner[:])
	binary.LittleEndian.PutUint64(dst[64:72], a.Amount)
	packAddressOption(dst[72:108], a.Delegate)
	dst[108] = byte(a.State)
	if a.IsNative != nil {
		binary.LittleEndian.PutUint32(dst[109:113], 1)
		binary.LittleEndian.PutUint64(dst[113:121], *a.IsNative)
	} else {
		for i := 109; i < 121; i++ {
			dst[i] = 0
		}
	}
	binary.LittleEndian.PutUint64(dst[121:129], a.DelegatedAmount)
	packAddressOption(dst[129:165], a.CloseAuthority)
}

func (a *Account) Bytes() []byte {
	out := make([]byte, AccountLen)
	a.Pack(out)
	return out
}

// UnpackUnchecked decodes a token account without requiring it to be initialized.
func UnpackUnchecked(src []byte) (*Account, error) {
	if len(src) != AccountLen {
		return nil, xerrors.Errorf("%d bytes, want %d: %w", len(src), AccountLen, ErrInvalidLength)
	}
	var a Account
	copy(a.Mint[:], src[0:32])
	copy(a.Owner[:], src[32:64])
	a.Amount = binary.LittleEndian.Uint64(src[64:72])

	var err error
	if a.Delegate, err = unpackAddressOption(src[72:108]); err != nil {
		return nil, xerrors.Errorf("delegate: %w", err)
	}

	if src[108] > byte(AccountStateFrozen) {
		return nil, xerrors.Errorf("state byte %d: %w", src[108], ErrInvalidState)
	}
	a.State = AccountState(src[108])

	switch binary.LittleEndian.Uint32(src[109:113]) {
	case 0:
	case 1:
		reserve := binary.LittleEndian.Uint64(src[113:121])
		a.IsNative = &reserve
	default:
		return nil, xerrors.Errorf("is native: %w", ErrInvalidOption)
	}

	a.DelegatedAmount = binary.LittleEndian.Uint64(src[121:129])

	if a.CloseAuthority, err = unpackAddressOption(src[129:165]); err != nil {
		return nil, xerrors.Errorf("close authority: %w", err)
	}
	return &a, nil
}

// Unpack decodes an initialized token account.
func Unpack(src []byte) (*Account, error) {
	a, err := UnpackUnchecked(src)
	if err != nil {
		return nil, err
	}
	if !a.IsInitialized() {
		return nil, ErrNotInitialized
	}
	return a, nil
}

func packAddressOption(dst []byte, a *abi.Address) {
	if a == nil {
		for i := range dst[:36] {
			dst[i] = 0
		}
		return
	}
	binary.LittleEndian.PutUint32(dst[0:4], 1)
	copy(dst[4:36], a[:])
}

func unpackAddressOption(src []byte) (*abi.Address, error) {
	switch binary.LittleEndian.Uint32(src[0:4]) {
	case 0:
		return nil, nil
	case 1:
		var a abi.Address
		copy(a[:], src[4:36])
		return &a, nil
	default:
		return nil, ErrInvalidOption
	}
}
