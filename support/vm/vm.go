package vm

import (
	"bytes"
	"context"

	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
	"github.com/filecoin-project/vesting-actors/support/ipld"
)

var log = logging.Logger("vesting-vm")

// VM holds the account table and executes instructions over it.
// Every transaction either commits all of its instructions' effects or none of them.
type VM struct {
	ctx    context.Context
	store  ipld.Store
	blocks *ipld.MetricsBlockStore

	now  abi.UnixTime
	rent builtin.Rent

	programs  ProgramLookup
	accounts  map[abi.Address]*runtime.AccountInfo
	stateRoot cid.Cid // The last committed root.

	defaultLogLevel rtt.LogLevel
	logs            []string
	invocations     []*Invocation
}

// ProgramLookup maps deployed program addresses to their implementations.
type ProgramLookup map[abi.Address]runtime.Program

// NewVM creates a ledger with the builtin system and token programs, the rent and clock
// sysvars, and the given programs deployed.
func NewVM(ctx context.Context, programs ProgramLookup) (*VM, error) {
	blocks := ipld.NewMetricsBlockStore(ipld.NewBlockStoreInMemory())
	vm := &VM{
		ctx:             ctx,
		store:           ipld.WrapBlockStore(ctx, blocks),
		blocks:          blocks,
		rent:            builtin.DefaultRent(),
		programs:        make(ProgramLookup, len(programs)),
		accounts:        make(map[abi.Address]*runtime.AccountInfo),
		defaultLogLevel: rtt.INFO,
	}
	for _, key := range []abi.Address{builtin.SystemProgramAddr, builtin.TokenProgramAddr} {
		vm.accounts[key] = &runtime.AccountInfo{Key: key, Executable: true}
	}
	for _, key := range []abi.Address{builtin.RentSysvarAddr, builtin.ClockSysvarAddr} {
		vm.accounts[key] = &runtime.AccountInfo{Key: key}
	}
	for key, p := range programs {
		vm.programs[key] = p
		vm.accounts[key] = &runtime.AccountInfo{Key: key, Executable: true}
	}

	if _, err := vm.checkpoint(); err != nil {
		return nil, err
	}
	return vm, nil
}

// StateRoot is the content identifier of the last committed account table.
func (vm *VM) StateRoot() cid.Cid {
	return vm.stateRoot
}

// StoreMetrics reports the block traffic of the ledger's state snapshots so far.
func (vm *VM) StoreMetrics() ipld.MetricsBlockStore {
	return *vm.blocks
}

func (vm *VM) Now() abi.UnixTime {
	return vm.now
}

// SetTime moves the ledger clock.
func (vm *VM) SetTime(now abi.UnixTime) {
	vm.now = now
}

func (vm *VM) SetRent(rent builtin.Rent) {
	vm.rent = rent
}

func (vm *VM) Rent() builtin.Rent {
	return vm.rent
}

// SetLogLevel sets the level below which program logs are dropped, for programs without a
// level of their own (see builtin.SetProgramsLogLevel).
func (vm *VM) SetLogLevel(level rtt.LogLevel) {
	vm.defaultLogLevel = level
}

// GetAccount returns a copy of the account at key.
func (vm *VM) GetAccount(key abi.Address) (*runtime.AccountInfo, bool) {
	a, ok := vm.accounts[key]
	if !ok {
		return nil, false
	}
	return copyAccount(a), true
}

// SetAccount installs a copy of acct and commits it.
func (vm *VM) SetAccount(acct *runtime.AccountInfo) error {
	vm.accounts[acct.Key] = copyAccount(acct)
	_, err := vm.checkpoint()
	return err
}

// Logs returns the messages logged by programs in the last transaction.
func (vm *VM) Logs() []string {
	return vm.logs
}

// Invocations returns the invocations of the last transaction, including failed ones.
func (vm *VM) Invocations() []*Invocation {
	return vm.invocations
}

// ApplyInstruction executes one instruction as a transaction of its own.
func (vm *VM) ApplyInstruction(ix *runtime.Instruction, signers ...abi.Address) error {
	return vm.ApplyTransaction([]*runtime.Instruction{ix}, signers...)
}

// ApplyTransaction executes instructions in order, with signers having authorized all of
// them. If any instruction fails the account table is restored to its state before the
// first, and the failure is returned.
func (vm *VM) ApplyTransaction(ixs []*runtime.Instruction, signers ...abi.Address) error {
	if err := vm.ctx.Err(); err != nil {
		return err
	}
	vm.logs = nil
	vm.invocations = nil

	authorized := runtime.NewAuthorizationSet(signers...)
	for i, ix := range ixs {
		if err := vm.applyInstruction(ix, authorized); err != nil {
			log.Debugw("transaction failed", "instruction", i, "program", ix.ProgramID, "exitcode", exitcode.Unwrap(err, exitcode.ErrCustom))
			if rerr := vm.rollback(); rerr != nil {
				return errors.Wrapf(rerr, "failed to roll back after %v", err)
			}
			return err
		}
	}

	if _, err := vm.checkpoint(); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

func (vm *VM) applyInstruction(ix *runtime.Instruction, authorized runtime.AuthorizationSet) (err error) {
	inv := &Invocation{ProgramID: ix.ProgramID, Data: ix.Data}
	for _, m := range ix.Accounts {
		inv.Accounts = append(inv.Accounts, m.Address)
	}
	vm.invocations = append(vm.invocations, inv)
	defer func() {
		inv.Exitcode = exitcode.Unwrap(err, exitcode.ErrCustom)
	}()

	for _, signer := range ix.Signers() {
		if !authorized.Authorized(signer) {
			return exitcode.ErrMissingRequiredSignature.Wrapf("instruction requires %s to sign", signer)
		}
	}
	program, ok := vm.programs[ix.ProgramID]
	if !ok {
		return errors.Wrapf(exitcode.ErrIncorrectProgramID, "no program deployed at %s", ix.ProgramID)
	}

	// Accounts named more than once share one handle.
	handles := make(map[abi.Address]*runtime.AccountInfo, len(ix.Accounts))
	infos := make([]*runtime.AccountInfo, len(ix.Accounts))
	for i, m := range ix.Accounts {
		h, ok := handles[m.Address]
		if !ok {
			if existing, found := vm.accounts[m.Address]; found {
				h = copyAccount(existing)
				h.IsWritable = false
			} else {
				h = &runtime.AccountInfo{Key: m.Address, Owner: builtin.SystemProgramAddr}
			}
			handles[m.Address] = h
		}
		h.IsWritable = h.IsWritable || m.IsWritable
		infos[i] = h
	}
	before := make(map[abi.Address]*runtime.AccountInfo, len(handles))
	for key, h := range handles {
		before[key] = copyAccount(h)
	}

	ic := &invocationContext{
		vm:         vm,
		programID:  ix.ProgramID,
		authorized: authorized,
		invocation: inv,
	}
	if err := program.Process(ic, ix.ProgramID, infos, ix.Data); err != nil {
		return err
	}

	for key, h := range handles {
		if h.IsWritable {
			h.IsWritable = false
			vm.accounts[key] = h
			continue
		}
		if !sameState(h, before[key]) {
			return exitcode.ErrInvalidArgument.Wrapf("instruction modified read-only account %s", key)
		}
	}
	return nil
}

// Stores the account table and records its root as the last committed state.
func (vm *VM) checkpoint() (cid.Cid, error) {
	accts := make([]*runtime.AccountInfo, 0, len(vm.accounts))
	for _, a := range vm.accounts {
		accts = append(accts, a)
	}
	root, err := ipld.PutAccounts(vm.store, accts)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "failed to store accounts")
	}
	vm.stateRoot = root
	return root, nil
}

// Restores the account table to the last committed state.
func (vm *VM) rollback() error {
	accts, err := ipld.GetAccounts(vm.store, vm.stateRoot)
	if err != nil {
		return errors.Wrapf(err, "failed to load state %s", vm.stateRoot)
	}
	vm.accounts = make(map[abi.Address]*runtime.AccountInfo, len(accts))
	for _, a := range accts {
		vm.accounts[a.Key] = a
	}
	return nil
}

func copyAccount(a *runtime.AccountInfo) *runtime.AccountInfo {
	cpy := *a
	if a.Data != nil {
		cpy.Data = make([]byte, len(a.Data))
		copy(cpy.Data, a.Data)
	}
	return &cpy
}

func sameState(a, b *runtime.AccountInfo) bool {
	return a.Owner == b.Owner && a.Lamports == b.Lamports && a.Executable == b.Executable && bytes.Equal(a.Data, b.Data)
}
