package vesting

import (
	rtt "github.com/filecoin-project/go-state-types/rt"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

// Actor is the vesting program. It escrows tokens in an account controlled by a
// program-derived address and releases them to a destination token account as the
// tranches of a schedule come due.
//
// Every handler checks all of its preconditions before it writes anything, so a failed
// instruction leaves its accounts untouched even before the host rolls the transaction back.
type Actor struct{}

var _ runtime.Program = Actor{}

// Process decodes an instruction and applies it.
func (a Actor) Process(rt runtime.Runtime, programID abi.Address, accounts []*runtime.AccountInfo, data []byte) error {
	ix, err := DecodeInstruction(data)
	if err != nil {
		rt.Log(rtt.ERROR, "failed to decode instruction: %s", err)
		return exitcode.ErrInvalidInstructionData.Wrap(err)
	}

	switch ix := ix.(type) {
	case *Empty:
		rt.Log(rtt.INFO, "empty instruction, number is %d", ix.Number)
		return nil
	case *Init:
		rt.Log(rtt.DEBUG, "instruction: init")
		err = a.Init(rt, programID, accounts, ix)
	case *Create:
		rt.Log(rtt.DEBUG, "instruction: create")
		err = a.Create(rt, programID, accounts, ix)
	case *Unlock:
		rt.Log(rtt.DEBUG, "instruction: unlock")
		err = a.Unlock(rt, programID, accounts, ix)
	case *ChangeDestination:
		rt.Log(rtt.DEBUG, "instruction: change destination")
		err = a.ChangeDestination(rt, programID, accounts, ix)
	default:
		return exitcode.ErrInvalidInstructionData.Wrapf("unhandled instruction %T", ix)
	}
	if err != nil {
		rt.Log(rtt.ERROR, "instruction %d failed: %s", ix.Tag(), err)
	}
	return err
}

// Init asks the system program to allocate a zeroed record for params.NumberOfSchedules
// tranches at the address derived from params.Seeds.
//
// Accounts: system program, rent sysvar, payer (authorizing), vesting record.
func (a Actor) Init(rt runtime.Runtime, programID abi.Address, accounts []*runtime.AccountInfo, params *Init) error {
	accts, err := runtime.NewAccountIter(accounts).NextN(4)
	if err != nil {
		return err
	}
	systemProgram, rentSysvar, payer, vestingAccount := accts[0], accts[1], accts[2], accts[3]

	if rentSysvar.Key != builtin.RentSysvarAddr {
		return reject(rt, exitcode.ErrInvalidArgument, "rent sysvar account %s is invalid", rentSysvar.Key)
	}
	size := HeaderLen + ScheduleLen*uint64(params.NumberOfSchedules)
	lamports := rt.MinimumBalance(size)

	vestingAccountKey, err := rt.Syscalls().DeriveAddress(params.Seeds, programID)
	if err != nil {
		return err
	}
	if vestingAccountKey != vestingAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "provided vesting account %s is invalid", vestingAccount.Key)
	}

	return rt.CreateAccount(&runtime.CreateAccountParams{
		SystemProgram: systemProgram,
		Payer:         payer,
		Target:        vestingAccount,
		Lamports:      lamports,
		Space:         size,
		Owner:         programID,
		SignerSeeds:   params.Seeds,
	})
}

// Create writes the record's header and schedules and moves the tranches' total from the
// source token account into escrow.
//
// Accounts: token program, vesting record, escrow token account, source token account
// owner (authorizing), source token account.
func (a Actor) Create(rt runtime.Runtime, programID abi.Address, accounts []*runtime.AccountInfo, params *Create) error {
	accts, err := runtime.NewAccountIter(accounts).NextN(5)
	if err != nil {
		return err
	}
	tokenProgram, vestingAccount, vestingTokenAccount, sourceOwner, sourceTokenAccount :=
		accts[0], accts[1], accts[2], accts[3], accts[4]

	vestingAccountKey, err := rt.Syscalls().DeriveAddress(params.Seeds, programID)
	if err != nil {
		return err
	}
	if vestingAccountKey != vestingAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "bad provided vesting account %s", vestingAccount.Key)
	}
	if !rt.Message().Authorized(sourceOwner.Key) {
		return reject(rt, exitcode.ErrMissingRequiredSignature, "source token account owner %s should be a signer", sourceOwner.Key)
	}
	if vestingAccount.Owner != programID {
		return reject(rt, exitcode.ErrInvalidArgument, "vesting account should be owned by the vesting program, owner is %s", vestingAccount.Owner)
	}
	if vestingAccount.DataLen() < HeaderLen {
		return reject(rt, exitcode.ErrInvalidAccountData, "vesting account data of %d bytes is shorter than the header", vestingAccount.DataLen())
	}
	// Only the raw flag byte is consulted; an unallocated header may hold anything else.
	if vestingAccount.Data[HeaderLen-1] == 1 {
		return reject(rt, exitcode.ErrInvalidArgument, "cannot overwrite an existing vesting contract")
	}

	escrow, err := token.Unpack(vestingTokenAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("vesting token account: %w", err)
	}
	if escrow.Owner != vestingAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "vesting token account should be owned by vesting account, owner is %s", escrow.Owner)
	}
	if escrow.Delegate != nil {
		return reject(rt, exitcode.ErrInvalidAccountData, "vesting token account should not have a delegate")
	}
	if escrow.CloseAuthority != nil {
		return reject(rt, exitcode.ErrInvalidAccountData, "vesting token account should not have a close authority")
	}

	if want := RecordLen(len(params.Schedules)); vestingAccount.DataLen() != want {
		return reject(rt, exitcode.ErrInvalidAccountData, "vesting account data is %d bytes, want %d for %d schedules",
			vestingAccount.DataLen(), want, len(params.Schedules))
	}

	total, ok := SumAmounts(params.Schedules)
	if !ok {
		return reject(rt, exitcode.ErrInvalidInstructionData, "schedule amounts overflow")
	}

	source, err := token.Unpack(sourceTokenAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("source token account: %w", err)
	}
	if source.Amount < total {
		return reject(rt, exitcode.ErrInsufficientFunds, "source token account has insufficient funds: %d < %d", source.Amount, total)
	}

	record := Record{
		Header: Header{
			DestinationAddress: params.DestinationTokenAddress,
			MintAddress:        params.MintAddress,
			IsInitialized:      true,
		},
		Schedules: params.Schedules,
	}
	staged := record.Bytes()

	if err := rt.Transfer(&runtime.TransferParams{
		TokenProgram: tokenProgram,
		Source:       sourceTokenAccount,
		Destination:  vestingTokenAccount,
		Authority:    sourceOwner,
		Amount:       total,
	}); err != nil {
		return err
	}

	copy(vestingAccount.Data, staged)
	return nil
}

// Unlock pays every tranche whose release time has passed to the record's destination
// token account and zeroes it, so no tranche pays twice.
//
// Accounts: token program, clock sysvar, vesting record, escrow token account,
// destination token account.
func (a Actor) Unlock(rt runtime.Runtime, programID abi.Address, accounts []*runtime.AccountInfo, params *Unlock) error {
	accts, err := runtime.NewAccountIter(accounts).NextN(5)
	if err != nil {
		return err
	}
	tokenProgram, clockSysvar, vestingAccount, vestingTokenAccount, destinationTokenAccount :=
		accts[0], accts[1], accts[2], accts[3], accts[4]

	vestingAccountKey, err := rt.Syscalls().DeriveAddress(params.Seeds, programID)
	if err != nil {
		return err
	}
	if vestingAccountKey != vestingAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "invalid vesting account key %s", vestingAccount.Key)
	}
	if tokenProgram.Key != builtin.TokenProgramAddr {
		return reject(rt, exitcode.ErrInvalidArgument, "the provided token program account %s is invalid", tokenProgram.Key)
	}

	header, err := UnpackHeader(vestingAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("vesting account: %w", err)
	}
	if header.DestinationAddress != destinationTokenAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "contract destination account %s does not match provided account %s",
			header.DestinationAddress, destinationTokenAccount.Key)
	}

	escrow, err := token.Unpack(vestingTokenAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("vesting token account: %w", err)
	}
	if escrow.Owner != vestingAccountKey {
		return reject(rt, exitcode.ErrInvalidArgument, "the vesting token account should be owned by the vesting account, owner is %s", escrow.Owner)
	}

	if clockSysvar.Key != builtin.ClockSysvarAddr {
		return reject(rt, exitcode.ErrInvalidArgument, "clock sysvar account %s is invalid", clockSysvar.Key)
	}
	now, err := rt.CurrTime()
	if err != nil {
		return err
	}

	schedules := UnpackSchedules(vestingAccount.Data[HeaderLen:])
	var total abi.TokenAmount
	for i := range schedules {
		s := &schedules[i]
		rt.Log(rtt.DEBUG, "unix timestamp: %d, schedule's release time: %d", now, s.ReleaseTime)
		if now < s.ReleaseTime {
			continue
		}
		if total+s.Amount < total {
			return reject(rt, exitcode.ErrInvalidAccountData, "released amounts overflow")
		}
		total += s.Amount
		s.Amount = 0
	}
	if total == 0 {
		return reject(rt, exitcode.ErrInvalidArgument, "vesting contract has not yet reached release time")
	}
	rt.Log(rtt.DEBUG, "vesting contract balance is %d, total amount to transfer is %d", escrow.Amount, total)

	seeds := params.Seeds
	if err := rt.Transfer(&runtime.TransferParams{
		TokenProgram: tokenProgram,
		Source:       vestingTokenAccount,
		Destination:  destinationTokenAccount,
		Authority:    vestingAccount,
		SignerSeeds:  &seeds,
		Amount:       total,
	}); err != nil {
		return err
	}

	return PackSchedulesInto(vestingAccount.Data[HeaderLen:], schedules)
}

// ChangeDestination redirects the record's payouts to a new token account. The owner of the
// current destination token account must authorize it.
//
// Accounts: vesting record, current destination token account, current destination token
// account owner (authorizing), new destination token account.
func (a Actor) ChangeDestination(rt runtime.Runtime, programID abi.Address, accounts []*runtime.AccountInfo, params *ChangeDestination) error {
	accts, err := runtime.NewAccountIter(accounts).NextN(4)
	if err != nil {
		return err
	}
	vestingAccount, destinationTokenAccount, destinationOwner, newDestinationTokenAccount :=
		accts[0], accts[1], accts[2], accts[3]

	if vestingAccount.DataLen() < HeaderLen {
		return reject(rt, exitcode.ErrInvalidAccountData, "vesting account data of %d bytes is shorter than the header", vestingAccount.DataLen())
	}

	vestingAccountKey, err := rt.Syscalls().DeriveAddress(params.Seeds, programID)
	if err != nil {
		return err
	}
	if vestingAccountKey != vestingAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "invalid vesting account key %s", vestingAccount.Key)
	}

	header, err := UnpackHeader(vestingAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("vesting account: %w", err)
	}
	if header.DestinationAddress != destinationTokenAccount.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "contract destination account %s does not match provided account %s",
			header.DestinationAddress, destinationTokenAccount.Key)
	}
	if !rt.Message().Authorized(destinationOwner.Key) {
		return reject(rt, exitcode.ErrInvalidArgument, "destination token account owner %s should be a signer", destinationOwner.Key)
	}

	destination, err := token.Unpack(destinationTokenAccount.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("destination token account: %w", err)
	}
	if destination.Owner != destinationOwner.Key {
		return reject(rt, exitcode.ErrInvalidArgument, "the current destination token account isn't owned by %s", destinationOwner.Key)
	}

	header.DestinationAddress = newDestinationTokenAccount.Key
	header.Pack(vestingAccount.Data[:HeaderLen])
	return nil
}

func reject(rt runtime.Runtime, code exitcode.ExitCode, msg string, args ...interface{}) error {
	rt.Log(rtt.WARN, msg, args...)
	return code.Wrapf(msg, args...)
}
