package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filecoin-project/vesting-actors/actors"
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/builtin/vesting"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	tutil "github.com/filecoin-project/vesting-actors/support/testing"
	"github.com/filecoin-project/vesting-actors/support/vm"
)

const payerLamports = 1_000_000_000

// The parties to one vesting contract on a fresh ledger.
type contract struct {
	v *vm.VM

	seeds   abi.Seeds
	vesting abi.Address // derived record address
	mint    abi.Address

	payer       abi.Address
	sourceOwner abi.Address
	source      abi.Address
	escrow      abi.Address
	destOwner   abi.Address
	destination abi.Address
}

func newContract(t *testing.T, name string, sourceBalance abi.TokenAmount) *contract {
	ctx := context.Background()
	v := vm.NewVMWithPrograms(ctx, t, actors.BuiltinProgramLookup())

	seeds := tutil.NewSeeds(t, name)
	c := &contract{
		v:           v,
		seeds:       seeds,
		vesting:     vm.DeriveAddress(seeds, builtin.VestingProgramAddr),
		mint:        tutil.NewAddr(t, name+"/mint"),
		payer:       tutil.NewAddr(t, name+"/payer"),
		sourceOwner: tutil.NewAddr(t, name+"/source owner"),
		source:      tutil.NewAddr(t, name+"/source"),
		escrow:      tutil.NewAddr(t, name+"/escrow"),
		destOwner:   tutil.NewAddr(t, name+"/destination owner"),
		destination: tutil.NewAddr(t, name+"/destination"),
	}
	vm.CreateWallet(t, v, c.payer, payerLamports)
	vm.CreateTokenAccount(t, v, c.source, c.mint, c.sourceOwner, sourceBalance)
	vm.CreateTokenAccount(t, v, c.escrow, c.mint, c.vesting, 0)
	vm.CreateTokenAccount(t, v, c.destination, c.mint, c.destOwner, 0)
	return c
}

func (c *contract) initIx(n uint32) *runtime.Instruction {
	return vesting.InitInstruction(builtin.VestingProgramAddr, c.payer, c.vesting, c.seeds, n)
}

func (c *contract) createIx(schedules []vesting.Schedule) *runtime.Instruction {
	return vesting.CreateInstruction(builtin.VestingProgramAddr, builtin.TokenProgramAddr, c.vesting, c.escrow,
		c.sourceOwner, c.source, c.destination, c.mint, schedules, c.seeds)
}

func (c *contract) unlockIx() *runtime.Instruction {
	return c.unlockIxTo(c.destination)
}

func (c *contract) unlockIxTo(destination abi.Address) *runtime.Instruction {
	return vesting.UnlockInstruction(builtin.VestingProgramAddr, builtin.TokenProgramAddr, builtin.ClockSysvarAddr,
		c.vesting, c.escrow, destination, c.seeds)
}

// Allocates and funds the contract with schedules.
func (c *contract) setUp(t *testing.T, schedules []vesting.Schedule) {
	vm.ApplyOk(t, c.v, c.initIx(uint32(len(schedules))), c.payer)
	vm.ApplyOk(t, c.v, c.createIx(schedules), c.sourceOwner)
	c.checkState(t)
}

func (c *contract) record(t *testing.T) *vesting.Record {
	acct, found := c.v.GetAccount(c.vesting)
	require.True(t, found, "no vesting record at %s", c.vesting)
	rec, err := vesting.ReadRecord(acct.Data)
	require.NoError(t, err)
	return rec
}

func (c *contract) balance(t *testing.T, key abi.Address) abi.TokenAmount {
	return vm.GetTokenAccount(t, c.v, key).Amount
}

func (c *contract) checkState(t *testing.T) *vesting.StateSummary {
	acct, found := c.v.GetAccount(c.vesting)
	require.True(t, found)
	var escrow *token.Account
	if a, ok := c.v.GetAccount(c.escrow); ok {
		var err error
		escrow, err = token.Unpack(a.Data)
		require.NoError(t, err)
	}
	summary, msgs := vesting.CheckStateInvariants(acct.Data, escrow)
	assert.True(t, msgs.IsEmpty(), msgs.Messages())
	return summary
}
