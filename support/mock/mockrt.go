package mock

import (
	"context"
	"fmt"
	"runtime/debug"
	"testing"

	rtt "github.com/filecoin-project/go-state-types/rt"
	cid "github.com/ipfs/go-cid"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	exitcode "github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
	"github.com/filecoin-project/vesting-actors/support/ipld"
)

// A mock runtime for unit testing of programs in isolation.
// The mock allows direct specification of the runtime context as observable by a program, and
// mocks out side-effect-inducing calls. Expected side effects are applied to the accounts they
// name when the expectation succeeds, so tests can inspect balances afterwards.
//
// The mock never rolls accounts back: a program that fails after writing shows the write.
type Runtime struct {
	// Execution context
	programID  abi.Address
	now        abi.UnixTime
	rent       builtin.Rent
	authorized runtime.AuthorizationSet

	syscalls syscaller

	// VM implementation
	inCall bool
	logs   []string

	// Expectations
	t                    testing.TB
	expectCreateAccounts []*expectCreateAccount
	expectTransfers      []*expectTransfer
}

type expectCreateAccount struct {
	// Expected parameters.
	payer    abi.Address
	target   abi.Address
	lamports uint64
	space    uint64
	owner    abi.Address
	seeds    abi.Seeds

	// Result.
	exitCode exitcode.ExitCode
}

func (e *expectCreateAccount) Equal(p *runtime.CreateAccountParams) bool {
	return e.payer == p.Payer.Key && e.target == p.Target.Key && e.lamports == p.Lamports &&
		e.space == p.Space && e.owner == p.Owner && e.seeds == p.SignerSeeds
}

func (e *expectCreateAccount) String() string {
	return fmt.Sprintf("payer: %v target: %v lamports: %d space: %d owner: %v seeds: %v exitCode: %v",
		e.payer, e.target, e.lamports, e.space, e.owner, e.seeds, e.exitCode)
}

type expectTransfer struct {
	// Expected parameters.
	source      abi.Address
	destination abi.Address
	authority   abi.Address
	seeds       *abi.Seeds
	amount      abi.TokenAmount

	// Result.
	exitCode exitcode.ExitCode
}

func (e *expectTransfer) Equal(p *runtime.TransferParams) bool {
	if (e.seeds == nil) != (p.SignerSeeds == nil) {
		return false
	}
	if e.seeds != nil && *e.seeds != *p.SignerSeeds {
		return false
	}
	return e.source == p.Source.Key && e.destination == p.Destination.Key &&
		e.authority == p.Authority.Key && e.amount == p.Amount
}

func (e *expectTransfer) String() string {
	return fmt.Sprintf("source: %v destination: %v authority: %v seeds: %v amount: %d exitCode: %v",
		e.source, e.destination, e.authority, e.seeds, e.amount, e.exitCode)
}

var _ runtime.Runtime = &Runtime{}

///// Implementation of the runtime API /////

func (rt *Runtime) Message() runtime.Message {
	rt.requireInCall()
	return rt.authorized
}

func (rt *Runtime) CurrTime() (abi.UnixTime, error) {
	rt.requireInCall()
	return rt.now, nil
}

func (rt *Runtime) MinimumBalance(size uint64) uint64 {
	rt.requireInCall()
	return rt.rent.MinimumBalance(size)
}

func (rt *Runtime) CreateAccount(params *runtime.CreateAccountParams) error {
	rt.requireInCall()
	if len(rt.expectCreateAccounts) == 0 {
		rt.failTestNow("unexpected create account at %v, payer: %v, space: %d", params.Target.Key, params.Payer.Key, params.Space)
	}
	expected := rt.expectCreateAccounts[0]
	defer func() {
		rt.expectCreateAccounts = rt.expectCreateAccounts[1:]
	}()

	if !expected.Equal(params) {
		rt.failTest("create account does not match expectation.\n"+
			"Call     - payer: %v target: %v lamports: %d space: %d owner: %v seeds: %v\n"+
			"Expected - %v", params.Payer.Key, params.Target.Key, params.Lamports, params.Space, params.Owner, params.SignerSeeds, expected)
	}
	if expected.exitCode != exitcode.Ok {
		return expected.exitCode.Wrapf("mock create account failed")
	}

	if params.Space > builtin.MaxPermittedDataLength {
		return exitcode.ErrInvalidArgument.Wrapf("requested %d bytes of data, limit is %d", params.Space, builtin.MaxPermittedDataLength)
	}
	if params.Payer.Lamports < params.Lamports {
		return exitcode.ErrInsufficientFunds.Wrapf("payer holds %d lamports, needs %d", params.Payer.Lamports, params.Lamports)
	}
	params.Payer.Lamports -= params.Lamports
	params.Target.Lamports += params.Lamports
	params.Target.Data = make([]byte, params.Space)
	params.Target.Owner = params.Owner
	return nil
}

func (rt *Runtime) Transfer(params *runtime.TransferParams) error {
	rt.requireInCall()
	if len(rt.expectTransfers) == 0 {
		rt.failTestNow("unexpected transfer from %v to %v, amount: %d", params.Source.Key, params.Destination.Key, params.Amount)
	}
	expected := rt.expectTransfers[0]
	defer func() {
		rt.expectTransfers = rt.expectTransfers[1:]
	}()

	if !expected.Equal(params) {
		rt.failTest("transfer does not match expectation.\n"+
			"Call     - source: %v destination: %v authority: %v seeds: %v amount: %d\n"+
			"Expected - %v", params.Source.Key, params.Destination.Key, params.Authority.Key, params.SignerSeeds, params.Amount, expected)
	}
	if expected.exitCode != exitcode.Ok {
		return expected.exitCode.Wrapf("mock transfer failed")
	}

	src, err := token.Unpack(params.Source.Data)
	if err != nil {
		rt.failTestNow("transfer source %v is not a token account: %v", params.Source.Key, err)
	}
	dst, err := token.Unpack(params.Destination.Data)
	if err != nil {
		rt.failTestNow("transfer destination %v is not a token account: %v", params.Destination.Key, err)
	}
	if src.Amount < params.Amount {
		return exitcode.ErrInsufficientFunds.Wrapf("source holds %d, transfer of %d", src.Amount, params.Amount)
	}
	src.Amount -= params.Amount
	dst.Amount += params.Amount
	src.Pack(params.Source.Data)
	dst.Pack(params.Destination.Data)
	return nil
}

func (rt *Runtime) Syscalls() runtime.Syscalls {
	rt.requireInCall()
	return &rt.syscalls
}

func (rt *Runtime) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	line := fmt.Sprintf(msg, args...)
	rt.logs = append(rt.logs, line)
	rt.t.Logf("[%d] %s", level, line)
}

///// Inspection facilities /////

func (rt *Runtime) ProgramID() abi.Address {
	return rt.programID
}

func (rt *Runtime) GetTime() abi.UnixTime {
	return rt.now
}

// Logs returns every message the program logged, oldest first.
func (rt *Runtime) Logs() []string {
	return rt.logs
}

// StateRoot is a content identifier of the accounts' keys, owners, balances and data.
// Equal roots before and after a call prove the call changed none of them.
func (rt *Runtime) StateRoot(accounts ...*runtime.AccountInfo) cid.Cid {
	root, err := ipld.PutAccounts(ipld.NewADTStore(context.Background()), accounts)
	if err != nil {
		rt.failTestNow("failed to compute state root: %v", err)
	}
	return root
}

// DeriveAddress derives an address the way the program will see it derived.
func (rt *Runtime) DeriveAddress(seeds abi.Seeds) abi.Address {
	a, err := rt.syscalls.DeriveAddress(seeds, rt.programID)
	if err != nil {
		rt.failTestNow("failed to derive address: %v", err)
	}
	return a
}

///// Mocking facilities /////

func (rt *Runtime) SetTime(now abi.UnixTime) {
	rt.now = now
}

// SetAuthorized replaces the set of addresses that authorized the next call.
func (rt *Runtime) SetAuthorized(addrs ...abi.Address) {
	rt.authorized = runtime.NewAuthorizationSet(addrs...)
}

func (rt *Runtime) ExpectCreateAccount(payer, target abi.Address, lamports, space uint64, owner abi.Address, seeds abi.Seeds, exitCode exitcode.ExitCode) {
	rt.expectCreateAccounts = append(rt.expectCreateAccounts, &expectCreateAccount{
		payer:    payer,
		target:   target,
		lamports: lamports,
		space:    space,
		owner:    owner,
		seeds:    seeds,
		exitCode: exitCode,
	})
}

func (rt *Runtime) ExpectTransfer(source, destination, authority abi.Address, seeds *abi.Seeds, amount abi.TokenAmount, exitCode exitcode.ExitCode) {
	// append to the transfer queue
	rt.expectTransfers = append(rt.expectTransfers, &expectTransfer{
		source:      source,
		destination: destination,
		authority:   authority,
		seeds:       seeds,
		amount:      amount,
		exitCode:    exitCode,
	})
}

// Verifies that expected calls were received, and resets all expectations.
func (rt *Runtime) Verify() {
	if len(rt.expectCreateAccounts) > 0 {
		rt.failTest("expected all accounts to be created, uncreated accounts %v", rt.expectCreateAccounts)
	}
	if len(rt.expectTransfers) > 0 {
		rt.failTest("expected all transfers to be made, unmade transfers %v", rt.expectTransfers)
	}

	rt.Reset()
}

// Resets expectations
func (rt *Runtime) Reset() {
	rt.expectCreateAccounts = nil
	rt.expectTransfers = nil
}

// Calls f() expecting it to fail with a specified exit code.
func (rt *Runtime) ExpectAbort(expected exitcode.ExitCode, f func() error) {
	err := f()
	if err == nil {
		rt.failTest("expected abort with code %v but call succeeded", expected)
		return
	}
	if code := exitcode.Unwrap(err, exitcode.ErrCustom); code != expected {
		rt.failTest("abort expected code %v, got %v %s", expected, code, err)
	}
}

// Call invokes program as the program under test with the given accounts and instruction data.
func (rt *Runtime) Call(program runtime.Program, accounts []*runtime.AccountInfo, data []byte) error {
	rt.inCall = true
	defer func() { rt.inCall = false }()
	return program.Process(rt, rt.programID, accounts, data)
}

func (rt *Runtime) requireInCall() {
	rt.require(rt.inCall, "invalid runtime invocation outside of method call")
}

func (rt *Runtime) require(predicate bool, msg string, args ...interface{}) {
	if !predicate {
		rt.failTestNow(msg, args...)
	}
}

func (rt *Runtime) failTest(msg string, args ...interface{}) {
	rt.t.Logf(msg, args...)
	rt.t.Logf("%s", debug.Stack())
	rt.t.Fail()
}

func (rt *Runtime) failTestNow(msg string, args ...interface{}) {
	rt.t.Logf(msg, args...)
	rt.t.Logf("%s", debug.Stack())
	rt.t.FailNow()
}
