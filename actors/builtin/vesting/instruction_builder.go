package vesting

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

// Builders for complete vesting instructions. Each lists its accounts in the order the
// program consumes them.

// InitInstruction allocates the record for seeds, paid for by payer.
func InitInstruction(programID, payer, vestingAccount abi.Address, seeds abi.Seeds, numberOfSchedules uint32) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.NewReadonlyAccountMeta(builtin.SystemProgramAddr, false),
			runtime.NewReadonlyAccountMeta(builtin.RentSysvarAddr, false),
			runtime.NewAccountMeta(payer, true),
			runtime.NewAccountMeta(vestingAccount, false),
		},
		Data: Encode(&Init{Seeds: seeds, NumberOfSchedules: numberOfSchedules}),
	}
}

// CreateInstruction funds the record's escrow from sourceTokenAccount, which
// sourceTokenAccountOwner must authorize.
func CreateInstruction(
	programID, tokenProgram, vestingAccount, vestingTokenAccount abi.Address,
	sourceTokenAccountOwner, sourceTokenAccount, destinationTokenAccount, mint abi.Address,
	schedules []Schedule, seeds abi.Seeds,
) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.NewReadonlyAccountMeta(tokenProgram, false),
			runtime.NewAccountMeta(vestingAccount, false),
			runtime.NewAccountMeta(vestingTokenAccount, false),
			runtime.NewReadonlyAccountMeta(sourceTokenAccountOwner, true),
			runtime.NewAccountMeta(sourceTokenAccount, false),
		},
		Data: Encode(&Create{
			Seeds:                   seeds,
			MintAddress:             mint,
			DestinationTokenAddress: destinationTokenAccount,
			Schedules:               schedules,
		}),
	}
}

func UnlockInstruction(programID, tokenProgram, clockSysvar, vestingAccount, vestingTokenAccount, destinationTokenAccount abi.Address, seeds abi.Seeds) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.NewReadonlyAccountMeta(tokenProgram, false),
			runtime.NewReadonlyAccountMeta(clockSysvar, false),
			runtime.NewAccountMeta(vestingAccount, false),
			runtime.NewAccountMeta(vestingTokenAccount, false),
			runtime.NewAccountMeta(destinationTokenAccount, false),
		},
		Data: Encode(&Unlock{Seeds: seeds}),
	}
}

// ChangeDestinationInstruction moves the record's payouts from the current destination token
// account to the target one. The current destination's owner must authorize it.
func ChangeDestinationInstruction(
	programID, vestingAccount, currentDestinationTokenAccountOwner, currentDestinationTokenAccount abi.Address,
	targetDestinationTokenAccount abi.Address, seeds abi.Seeds,
) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Accounts: []runtime.AccountMeta{
			runtime.NewAccountMeta(vestingAccount, false),
			runtime.NewReadonlyAccountMeta(currentDestinationTokenAccount, false),
			runtime.NewReadonlyAccountMeta(currentDestinationTokenAccountOwner, true),
			runtime.NewReadonlyAccountMeta(targetDestinationTokenAccount, false),
		},
		Data: Encode(&ChangeDestination{Seeds: seeds}),
	}
}

func EmptyInstruction(programID abi.Address, number uint32) *runtime.Instruction {
	return &runtime.Instruction{
		ProgramID: programID,
		Data:      Encode(&Empty{Number: number}),
	}
}
