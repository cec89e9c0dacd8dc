package vm

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

// Invocation records one program call made during a transaction, and the calls it made.
type Invocation struct {
	ProgramID abi.Address
	Accounts  []abi.Address
	Data      []byte
	// Lamports for account creation, tokens for transfers.
	Value    uint64
	Exitcode exitcode.ExitCode

	SubInvocations []*Invocation
}

//
// Genesis like setup
//

// Creates a new VM with the given programs deployed, failing the test on error.
func NewVMWithPrograms(ctx context.Context, t testing.TB, programs ProgramLookup) *VM {
	vm, err := NewVM(ctx, programs)
	require.NoError(t, err)
	return vm
}

// Creates a system-owned account at key holding lamports.
func CreateWallet(t testing.TB, vm *VM, key abi.Address, lamports uint64) {
	require.NoError(t, vm.SetAccount(&runtime.AccountInfo{
		Key:      key,
		Owner:    builtin.SystemProgramAddr,
		Lamports: lamports,
	}))
}

// Creates an initialized token account at key, funded with the rent-exempt minimum.
func CreateTokenAccount(t testing.TB, vm *VM, key, mint, owner abi.Address, amount abi.TokenAmount) {
	acct := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	require.NoError(t, vm.SetAccount(&runtime.AccountInfo{
		Key:      key,
		Owner:    builtin.TokenProgramAddr,
		Lamports: vm.Rent().MinimumBalance(token.AccountLen),
		Data:     acct.Bytes(),
	}))
}

// Reads the token account at key, failing the test if there is none.
func GetTokenAccount(t testing.TB, vm *VM, key abi.Address) *token.Account {
	a, found := vm.GetAccount(key)
	require.True(t, found, "no account at %s", key)
	acct, err := token.Unpack(a.Data)
	require.NoError(t, err)
	return acct
}

// Applies ix as a transaction of its own, failing the test unless it succeeds.
func ApplyOk(t testing.TB, vm *VM, ix *runtime.Instruction, signers ...abi.Address) {
	err := vm.ApplyInstruction(ix, signers...)
	require.NoError(t, err, "instruction to %s failed", ix.ProgramID)
}

// Applies ix as a transaction of its own, failing the test unless it fails with code.
// Returns the failure.
func ApplyCode(t testing.TB, vm *VM, ix *runtime.Instruction, code exitcode.ExitCode, signers ...abi.Address) error {
	err := vm.ApplyInstruction(ix, signers...)
	require.Error(t, err, "instruction to %s succeeded, expected %v", ix.ProgramID, code)
	assert.Equal(t, code, exitcode.Unwrap(err, exitcode.ErrCustom), "unexpected exit code: %s", err)
	return err
}

//
// Invocation expectations
//

func ExpectValue(v uint64) *uint64                          { return &v }
func ExpectAccounts(accounts ...abi.Address) *[]abi.Address { return &accounts }

type ExpectInvocation struct {
	ProgramID abi.Address
	Exitcode  exitcode.ExitCode

	Accounts       *[]abi.Address
	Value          *uint64
	SubInvocations []ExpectInvocation
}

func (ei ExpectInvocation) Matches(t *testing.T, invocation *Invocation) {
	ei.matches(t, "", invocation)
}

func (ei ExpectInvocation) matches(t *testing.T, breadcrumb string, invocation *Invocation) {
	identifier := fmt.Sprintf("%s[%s]", breadcrumb, invocation.ProgramID)

	// mismatch of program probably indicates skipped invocation or invocations out of order. halt.
	require.Equal(t, ei.ProgramID, invocation.ProgramID, "%s unexpected program", identifier)
	assert.Equal(t, ei.Exitcode, invocation.Exitcode, "%s unexpected exit code", identifier)

	// other expectations are optional
	if ei.Accounts != nil {
		assert.Equal(t, *ei.Accounts, invocation.Accounts, "%s unexpected accounts", identifier)
	}
	if ei.Value != nil {
		assert.Equal(t, *ei.Value, invocation.Value, "%s unexpected value", identifier)
	}
	if ei.SubInvocations != nil {
		for i, invk := range invocation.SubInvocations {
			subidentifier := fmt.Sprintf("%s%d:", identifier, i)
			// attempt match only if loop is within expected
			if i < len(ei.SubInvocations) {
				ei.SubInvocations[i].matches(t, subidentifier, invk)
			}
		}
		missingInvocations := len(ei.SubInvocations) - len(invocation.SubInvocations)
		if missingInvocations > 0 {
			missingIndex := len(invocation.SubInvocations)
			missingExpect := ei.SubInvocations[missingIndex]
			require.Failf(t, "missing expected invocations", "%s%d: expected invocation of %s with %d more after it",
				identifier, missingIndex, missingExpect.ProgramID, missingInvocations-1)
		}
		extraInvocations := len(invocation.SubInvocations) - len(ei.SubInvocations)
		if extraInvocations > 0 {
			extraIndex := len(ei.SubInvocations)
			extra := invocation.SubInvocations[extraIndex]
			require.Failf(t, "unexpected invocation", "%s%d: unexpected invocation of %s with %d more after it",
				identifier, extraIndex, extra.ProgramID, extraInvocations-1)
		}
	}
}
