package ipld

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	hamt "github.com/filecoin-project/go-hamt-ipld/v3"
	cid "github.com/ipfs/go-cid"
	cbg "github.com/whyrusleeping/cbor-gen"
	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

// AccountTableBitwidth is the HAMT bitwidth of the account table.
const AccountTableBitwidth = 5

// AccountState is the stored form of an account. The key addresses it in the table.
type AccountState struct {
	Owner      abi.Address
	Lamports   uint64
	Executable bool
	Data       []byte
}

func NewAccountState(a *runtime.AccountInfo) *AccountState {
	return &AccountState{
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Executable: a.Executable,
		Data:       a.Data,
	}
}

// AccountInfo returns the account at key holding this state. Empty data loads as nil.
func (st *AccountState) AccountInfo(key abi.Address) *runtime.AccountInfo {
	return &runtime.AccountInfo{
		Key:        key,
		Owner:      st.Owner,
		Lamports:   st.Lamports,
		Executable: st.Executable,
		Data:       st.Data,
	}
}

var lengthBufAccountState = []byte{132}

func (t *AccountState) MarshalCBOR(w io.Writer) error {
	if t == nil {
		_, err := w.Write(cbg.CborNull)
		return err
	}
	if _, err := w.Write(lengthBufAccountState); err != nil {
		return err
	}

	scratch := make([]byte, 9)

	// t.Owner (abi.Address) (array)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajByteString, uint64(len(t.Owner))); err != nil {
		return err
	}
	if _, err := w.Write(t.Owner[:]); err != nil {
		return err
	}

	// t.Lamports (uint64) (uint64)
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajUnsignedInt, t.Lamports); err != nil {
		return err
	}

	// t.Executable (bool) (bool)
	if err := cbg.WriteBool(w, t.Executable); err != nil {
		return err
	}

	// t.Data ([]uint8) (slice)
	if len(t.Data) > builtin.MaxPermittedDataLength {
		return xerrors.Errorf("Byte array in field t.Data was too long")
	}
	if err := cbg.WriteMajorTypeHeaderBuf(scratch, w, cbg.MajByteString, uint64(len(t.Data))); err != nil {
		return err
	}
	if _, err := w.Write(t.Data[:]); err != nil {
		return err
	}
	return nil
}

func (t *AccountState) UnmarshalCBOR(r io.Reader) error {
	*t = AccountState{}

	br := cbg.GetPeeker(r)
	scratch := make([]byte, 8)

	maj, extra, err := cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajArray {
		return fmt.Errorf("cbor input should be of type array")
	}
	if extra != 4 {
		return fmt.Errorf("cbor input had wrong number of fields")
	}

	// t.Owner (abi.Address) (array)
	maj, extra, err = cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajByteString {
		return fmt.Errorf("expected byte array")
	}
	if extra != abi.AddressLength {
		return fmt.Errorf("expected array to have %d elements, got %d", abi.AddressLength, extra)
	}
	if _, err := io.ReadFull(br, t.Owner[:]); err != nil {
		return err
	}

	// t.Lamports (uint64) (uint64)
	{
		maj, extra, err = cbg.CborReadHeaderBuf(br, scratch)
		if err != nil {
			return err
		}
		if maj != cbg.MajUnsignedInt {
			return fmt.Errorf("wrong type for uint64 field")
		}
		t.Lamports = extra
	}

	// t.Executable (bool) (bool)
	maj, extra, err = cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if maj != cbg.MajOther {
		return fmt.Errorf("booleans must be major type 7")
	}
	switch extra {
	case 20:
		t.Executable = false
	case 21:
		t.Executable = true
	default:
		return fmt.Errorf("booleans are either major type 7, value 20 or 21 (got %d)", extra)
	}

	// t.Data ([]uint8) (slice)
	maj, extra, err = cbg.CborReadHeaderBuf(br, scratch)
	if err != nil {
		return err
	}
	if extra > builtin.MaxPermittedDataLength {
		return fmt.Errorf("t.Data: byte array too large (%d)", extra)
	}
	if maj != cbg.MajByteString {
		return fmt.Errorf("expected byte array")
	}
	if extra > 0 {
		t.Data = make([]uint8, extra)
	}
	if _, err := io.ReadFull(br, t.Data[:]); err != nil {
		return err
	}
	return nil
}

// AddrKey adapts an address as a table key.
type AddrKey abi.Address

func (k AddrKey) Key() string {
	return string(k[:])
}

// AccountTable maps addresses to account state in a HAMT.
type AccountTable struct {
	root  *hamt.Node
	store Store
}

// MakeEmptyAccountTable creates a table with no accounts.
func MakeEmptyAccountTable(s Store) (*AccountTable, error) {
	nd, err := hamt.NewNode(s, hamt.UseTreeBitWidth(AccountTableBitwidth))
	if err != nil {
		return nil, xerrors.Errorf("failed to create empty account table: %w", err)
	}
	return &AccountTable{root: nd, store: s}, nil
}

// AsAccountTable loads the table with root r.
func AsAccountTable(s Store, r cid.Cid) (*AccountTable, error) {
	nd, err := hamt.LoadNode(s.Context(), s, r, hamt.UseTreeBitWidth(AccountTableBitwidth))
	if err != nil {
		return nil, xerrors.Errorf("failed to load account table %s: %w", r, err)
	}
	return &AccountTable{root: nd, store: s}, nil
}

// Root flushes pending changes and returns the table's root identifier.
func (t *AccountTable) Root() (cid.Cid, error) {
	if err := t.root.Flush(t.store.Context()); err != nil {
		return cid.Undef, xerrors.Errorf("failed to flush account table: %w", err)
	}
	return t.store.Put(t.store.Context(), t.root)
}

// GetAccount returns the account at key, and whether it was found.
func (t *AccountTable) GetAccount(key abi.Address) (*runtime.AccountInfo, bool, error) {
	var st AccountState
	found, err := t.root.Find(t.store.Context(), AddrKey(key).Key(), &st)
	if err != nil {
		return nil, false, xerrors.Errorf("failed to get account %s: %w", key, err)
	}
	if !found {
		return nil, false, nil
	}
	return st.AccountInfo(key), true, nil
}

// SetAccount replaces the state of the account at a.Key.
func (t *AccountTable) SetAccount(a *runtime.AccountInfo) error {
	if err := t.root.Set(t.store.Context(), AddrKey(a.Key).Key(), NewAccountState(a)); err != nil {
		return xerrors.Errorf("failed to set account %s: %w", a.Key, err)
	}
	return nil
}

// ForEach calls fn with every account in the table, in no particular order.
func (t *AccountTable) ForEach(fn func(a *runtime.AccountInfo) error) error {
	return t.root.ForEach(t.store.Context(), func(k string, val *cbg.Deferred) error {
		key, err := abi.NewAddress([]byte(k))
		if err != nil {
			return xerrors.Errorf("invalid account table key: %w", err)
		}
		var st AccountState
		if err := st.UnmarshalCBOR(bytes.NewReader(val.Raw)); err != nil {
			return xerrors.Errorf("failed to decode account %s: %w", key, err)
		}
		return fn(st.AccountInfo(key))
	})
}

// PutAccounts stores the accounts as a new table and returns its root. Equal account sets
// always produce equal roots.
func PutAccounts(store Store, accounts []*runtime.AccountInfo) (cid.Cid, error) {
	t, err := MakeEmptyAccountTable(store)
	if err != nil {
		return cid.Undef, err
	}
	for _, a := range accounts {
		_, found, err := t.GetAccount(a.Key)
		if err != nil {
			return cid.Undef, err
		}
		if found {
			return cid.Undef, xerrors.Errorf("duplicate account %s", a.Key)
		}
		if err := t.SetAccount(a); err != nil {
			return cid.Undef, err
		}
	}
	return t.Root()
}

// GetAccounts loads the accounts of the table at root, in key order.
func GetAccounts(store Store, root cid.Cid) ([]*runtime.AccountInfo, error) {
	t, err := AsAccountTable(store, root)
	if err != nil {
		return nil, err
	}
	var out []*runtime.AccountInfo
	if err := t.ForEach(func(a *runtime.AccountInfo) error {
		out = append(out, a)
		return nil
	}); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}
