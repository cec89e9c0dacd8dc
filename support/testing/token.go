package testing

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
)

// NewTokenAccount returns an initialized token account at key, owned by the token program.
func NewTokenAccount(key, mint, owner abi.Address, amount abi.TokenAmount) *runtime.AccountInfo {
	acct := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}
	return &runtime.AccountInfo{
		Key:        key,
		Owner:      builtin.TokenProgramAddr,
		Data:       acct.Bytes(),
		IsWritable: true,
	}
}

// TokenBalance reads the balance of a token account, panicking if it is not one.
func TokenBalance(acct *runtime.AccountInfo) abi.TokenAmount {
	a, err := token.Unpack(acct.Data)
	if err != nil {
		panic(err)
	}
	return a.Amount
}

// NewProgramAccount returns the executable account for a program.
func NewProgramAccount(key abi.Address) *runtime.AccountInfo {
	return &runtime.AccountInfo{Key: key, Executable: true}
}
