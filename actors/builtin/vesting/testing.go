package vesting

import (
	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
)

type StateSummary struct {
	IsInitialized  bool
	ScheduleCount  int
	ReleasedCount  int
	LockedAmount   abi.TokenAmount
	EscrowedAmount abi.TokenAmount
}

// Checks internal invariants of a vesting record, and of its escrow token account if given.
func CheckStateInvariants(data []byte, escrow *token.Account) (*StateSummary, *builtin.MessageAccumulator) {
	acc := &builtin.MessageAccumulator{}

	acc.Require(len(data) >= HeaderLen, "record of %d bytes is shorter than the header", len(data))
	if len(data) < HeaderLen {
		return nil, acc
	}
	acc.Require((len(data)-HeaderLen)%ScheduleLen == 0,
		"record of %d bytes does not hold a whole number of schedules", len(data))

	rec, err := ReadRecord(data)
	acc.RequireNoError(err, "failed to read vesting record")
	if err != nil {
		return nil, acc
	}

	summary := &StateSummary{
		IsInitialized: rec.Header.IsInitialized,
		ScheduleCount: len(rec.Schedules),
	}

	if rec.Header.IsInitialized {
		acc.Require(!rec.Header.MintAddress.Empty(), "initialized record has no mint")
		acc.Require(!rec.Header.DestinationAddress.Empty(), "initialized record has no destination")
	} else {
		zero := true
		for _, b := range data {
			if b != 0 {
				zero = false
				break
			}
		}
		acc.Require(zero, "uninitialized record is not zero-filled")
	}

	for _, s := range rec.Schedules {
		if s.Amount == 0 {
			summary.ReleasedCount++
		}
	}
	locked, ok := rec.LockedAmount()
	acc.Require(ok, "locked amount overflows")
	summary.LockedAmount = locked

	if escrow != nil {
		summary.EscrowedAmount = escrow.Amount
		if rec.Header.IsInitialized {
			acc.Require(escrow.Mint == rec.Header.MintAddress, "escrow mint %s does not match record mint %s",
				escrow.Mint, rec.Header.MintAddress)
		}
		acc.Require(escrow.Amount >= locked, "escrow holds %d, less than the %d still locked", escrow.Amount, locked)
		acc.Require(escrow.Delegate == nil, "escrow has a delegate")
		acc.Require(escrow.CloseAuthority == nil, "escrow has a close authority")
	}

	return summary, acc
}
