package builtin

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	exitcode "github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

///// Code shared by the host's builtin programs. /////

// RequireProgram fails with ErrIncorrectProgramID unless account is the program at want.
func RequireProgram(account *runtime.AccountInfo, want abi.Address, role string) error {
	if account == nil || account.Key != want {
		return exitcode.ErrIncorrectProgramID.Wrapf("%s account is not %s", role, want)
	}
	return nil
}
