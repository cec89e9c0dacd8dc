package exitcode_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/xerrors"

	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

func TestWithContext(t *testing.T) {
	baseErr := errors.New("base error")
	codedErr := exitcode.ErrInvalidArgument.Wrapf("coded: %w", baseErr)
	wrappedErr := xerrors.Errorf("wrapper: %w", codedErr)
	shadowedErr := exitcode.ErrInvalidAccountData.Wrapf("shadow: %w", codedErr)

	// Test default.
	assert.Equal(t, exitcode.Ok, exitcode.Unwrap(baseErr, exitcode.Ok))
	assert.Equal(t, exitcode.ErrInvalidAccountData, exitcode.Unwrap(baseErr, exitcode.ErrInvalidAccountData))
	assert.Equal(t, exitcode.Ok, exitcode.Unwrap(nil, exitcode.ErrInvalidAccountData))

	// Test coded.
	assert.Equal(t, exitcode.ErrInvalidArgument, exitcode.Unwrap(codedErr, exitcode.Ok))
	assert.True(t, errors.Is(codedErr, exitcode.ErrInvalidArgument))
	assert.True(t, errors.Is(codedErr, baseErr))
	assert.False(t, errors.Is(codedErr, exitcode.Ok))

	// Test wrapped
	assert.Equal(t, exitcode.ErrInvalidArgument, exitcode.Unwrap(wrappedErr, exitcode.Ok))
	assert.True(t, errors.Is(wrappedErr, codedErr))
	assert.True(t, errors.Is(wrappedErr, baseErr))
	assert.False(t, errors.Is(wrappedErr, exitcode.Ok))

	// Test shadowed
	assert.Equal(t, exitcode.ErrInvalidAccountData, exitcode.Unwrap(shadowedErr, exitcode.Ok))
	assert.True(t, errors.Is(shadowedErr, exitcode.ErrInvalidAccountData))
}

func TestBareCode(t *testing.T) {
	var err error = exitcode.ErrMissingAccount
	assert.Equal(t, exitcode.ErrMissingAccount, exitcode.Unwrap(err, exitcode.Ok))
	assert.Equal(t, "not enough account keys", err.Error())
	assert.Equal(t, "11", exitcode.ErrMissingAccount.String())
	assert.Equal(t, "99", exitcode.ExitCode(99).Error())

	wrapped := exitcode.ErrInsufficientFunds.Wrap(errors.New("balance 3 < 7"))
	assert.Equal(t, "balance 3 < 7", wrapped.Error())
	assert.Equal(t, exitcode.ErrInsufficientFunds, exitcode.Unwrap(wrapped, exitcode.Ok))
}

func TestSuccess(t *testing.T) {
	assert.True(t, exitcode.Ok.IsSuccess())
	assert.False(t, exitcode.Ok.IsError())
	assert.True(t, exitcode.ErrInvalidSeeds.IsError())
}

func TestLedgerNumbering(t *testing.T) {
	for code, want := range map[exitcode.ExitCode]string{
		exitcode.ErrInvalidArgument:           "2",
		exitcode.ErrInvalidInstructionData:    "3",
		exitcode.ErrInvalidAccountData:        "4",
		exitcode.ErrAccountDataTooSmall:       "5",
		exitcode.ErrInsufficientFunds:         "6",
		exitcode.ErrIncorrectProgramID:        "7",
		exitcode.ErrMissingRequiredSignature:  "8",
		exitcode.ErrAccountAlreadyInitialized: "9",
		exitcode.ErrUninitializedAccount:      "10",
		exitcode.ErrMissingAccount:            "11",
	} {
		assert.Equal(t, want, code.String(), code.Error())
	}

	// Locally numbered codes stay clear of the builtin range and of program codes.
	for _, code := range []exitcode.ExitCode{exitcode.ErrAccountAlreadyInUse, exitcode.ErrInvalidSeeds} {
		assert.Greater(t, int64(code), int64(exitcode.ErrMissingAccount))
		assert.Less(t, int64(code), int64(exitcode.FirstProgramErrorCode))
	}
}
