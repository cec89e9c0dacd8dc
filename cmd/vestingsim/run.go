package main

import (
	"context"
	"strings"

	cid "github.com/ipfs/go-cid"
	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/builtin/vesting"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
	"github.com/filecoin-project/vesting-actors/support/vm"
)

type result struct {
	path      string
	steps     int
	stateRoot cid.Cid
}

// runScenario replays sc on a fresh ledger and fails at the first step whose outcome
// differs from its expectation.
func runScenario(ctx context.Context, sc *scenario) (*result, error) {
	v, err := vm.NewVM(ctx, vm.ProgramLookup{sc.programID: vesting.Actor{}})
	if err != nil {
		return nil, err
	}
	v.SetRent(sc.rent)
	v.SetTime(sc.startTime)

	for _, a := range sc.accounts {
		acct := &runtime.AccountInfo{Key: sc.address(a.Name), Owner: builtin.SystemProgramAddr, Lamports: a.Lamports}
		if a.Kind == "token" {
			t := token.Account{
				Mint:   sc.address(a.Mint),
				Owner:  sc.address(a.Owner),
				Amount: a.Balance,
				State:  token.AccountStateInitialized,
			}
			acct.Owner = builtin.TokenProgramAddr
			acct.Data = t.Bytes()
			if acct.Lamports == 0 {
				acct.Lamports = sc.rent.MinimumBalance(token.AccountLen)
			}
		}
		if err := v.SetAccount(acct); err != nil {
			return nil, xerrors.Errorf("%s: account %q: %w", sc.path, a.Name, err)
		}
	}

	for i, s := range sc.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.Op == opAdvanceClock {
			v.SetTime(v.Now() + abi.UnixTime(s.Seconds))
			log.Debugw("advanced clock", "scenario", sc.path, "step", i, "now", v.Now())
			continue
		}

		ix := sc.instruction(s)
		signers := ix.Signers()
		if s.Signers != nil {
			signers = signers[:0]
			for _, name := range *s.Signers {
				signers = append(signers, sc.address(name))
			}
		}
		err := v.ApplyInstruction(ix, signers...)
		got := exitcode.Unwrap(err, exitcode.ErrCustom)
		log.Infow("applied step", "scenario", sc.path, "step", i, "op", s.Op, "exitcode", got)
		if got != s.expect {
			return nil, xerrors.Errorf("%s: step %d (%s): exit code %d (%v), expected %d (%v): %v",
				sc.path, i, s.Op, got, got.Error(), s.expect, s.expect.Error(), err)
		}
	}

	for _, a := range sc.accounts {
		if a.ExpectBalance == nil {
			continue
		}
		acct, found := v.GetAccount(sc.address(a.Name))
		if !found {
			return nil, xerrors.Errorf("%s: account %q no longer exists", sc.path, a.Name)
		}
		var balance uint64
		if a.Kind == "token" {
			t, err := token.Unpack(acct.Data)
			if err != nil {
				return nil, xerrors.Errorf("%s: account %q: %w", sc.path, a.Name, err)
			}
			balance = t.Amount
		} else {
			balance = acct.Lamports
		}
		if balance != *a.ExpectBalance {
			return nil, xerrors.Errorf("%s: account %q holds %d, expected %d", sc.path, a.Name, balance, *a.ExpectBalance)
		}
	}

	m := v.StoreMetrics()
	log.Debugw("scenario finished", "scenario", sc.path, "blockWrites", m.Writes, "bytesWritten", m.WriteBytes, "blockReads", m.Reads)
	return &result{path: sc.path, steps: len(sc.steps), stateRoot: v.StateRoot()}, nil
}

// instruction builds the instruction for a step other than a clock change.
func (sc *scenario) instruction(s step) *runtime.Instruction {
	switch s.Op {
	case opInit:
		seeds := resolveSeeds(s.Seeds)
		return vesting.InitInstruction(sc.programID, sc.address(s.Payer), vm.DeriveAddress(seeds, sc.programID),
			seeds, s.NumberOfSchedules)
	case opCreate:
		seeds := resolveSeeds(s.Seeds)
		schedules := make([]vesting.Schedule, 0, len(s.Schedules))
		for _, c := range s.Schedules {
			schedules = append(schedules, vesting.Schedule{ReleaseTime: abi.UnixTime(c.ReleaseTime), Amount: c.Amount})
		}
		return vesting.CreateInstruction(sc.programID, builtin.TokenProgramAddr, vm.DeriveAddress(seeds, sc.programID),
			sc.address(s.Escrow), sc.address(s.SourceOwner), sc.address(s.Source),
			sc.address(s.Destination), sc.address(s.Mint), schedules, seeds)
	case opUnlock:
		seeds := resolveSeeds(s.Seeds)
		return vesting.UnlockInstruction(sc.programID, builtin.TokenProgramAddr, builtin.ClockSysvarAddr,
			vm.DeriveAddress(seeds, sc.programID), sc.address(s.Escrow), sc.address(s.Destination), seeds)
	case opChangeDestination:
		seeds := resolveSeeds(s.Seeds)
		return vesting.ChangeDestinationInstruction(sc.programID, vm.DeriveAddress(seeds, sc.programID),
			sc.address(s.DestinationOwner), sc.address(s.Destination), sc.address(s.NewDestination), seeds)
	default:
		return vesting.EmptyInstruction(sc.programID, s.Number)
	}
}

// address resolves a scenario name. "pda:<seeds>" names the program's address for seeds.
func (sc *scenario) address(name string) abi.Address {
	if seeds := strings.TrimPrefix(name, "pda:"); seeds != name {
		return vm.DeriveAddress(resolveSeeds(seeds), sc.programID)
	}
	return resolveAddress(name)
}
