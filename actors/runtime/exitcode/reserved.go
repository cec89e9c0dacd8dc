package exitcode

import "strconv"

type ExitCode int64

func (x ExitCode) IsSuccess() bool {
	return x == Ok
}

func (x ExitCode) IsError() bool {
	return !x.IsSuccess()
}

// Implement error to trigger Go compiler checking of exit code return values.
func (x ExitCode) Error() string {
	if name, ok := names[x]; ok {
		return name
	}
	return strconv.FormatInt(int64(x), 10)
}

// String returns the numeric form of the code, which is what the host reports to callers.
func (x ExitCode) String() string {
	return strconv.FormatInt(int64(x), 10)
}

// Codes 2 through 11 carry the ledger's builtin program error numbers. Codes above 11 are
// assigned here and do not match the ledger's own. Code 1 stands for any program-defined error.
const (
	Ok = ExitCode(0)

	// Indicates a program-defined error without a builtin equivalent.
	ErrCustom = ExitCode(1)

	// Indicates an account or argument passed to an instruction did not satisfy a precondition.
	ErrInvalidArgument = ExitCode(2)

	// Indicates the instruction data could not be decoded, or describes an impossible request.
	ErrInvalidInstructionData = ExitCode(3)

	// Indicates account data failed to decode or has the wrong shape.
	ErrInvalidAccountData = ExitCode(4)

	// Indicates account data is shorter than required.
	ErrAccountDataTooSmall = ExitCode(5)

	// Indicates an account does not hold enough tokens for the requested movement.
	ErrInsufficientFunds = ExitCode(6)

	// Indicates an account is owned by, or names, an unexpected program.
	ErrIncorrectProgramID = ExitCode(7)

	// Indicates a party that must authorize the instruction did not.
	ErrMissingRequiredSignature = ExitCode(8)

	// Indicates an attempt to initialize an account a second time.
	ErrAccountAlreadyInitialized = ExitCode(9)

	// Indicates use of an account before it was initialized.
	ErrUninitializedAccount = ExitCode(10)

	// Indicates fewer accounts were supplied than the instruction requires.
	ErrMissingAccount = ExitCode(11)

	// Indicates an account could not be created because its address is occupied.
	ErrAccountAlreadyInUse = ExitCode(12)

	// Indicates seeds that do not produce a valid program-derived address.
	ErrInvalidSeeds = ExitCode(13)
)

// Codes at or above this value are available to programs for their own use.
const FirstProgramErrorCode = ExitCode(32)

var names = map[ExitCode]string{
	Ok:                           "ok",
	ErrCustom:                    "custom program error",
	ErrInvalidArgument:           "invalid argument",
	ErrInvalidInstructionData:    "invalid instruction data",
	ErrInvalidAccountData:        "invalid account data",
	ErrAccountDataTooSmall:       "account data too small",
	ErrInsufficientFunds:         "insufficient funds",
	ErrIncorrectProgramID:        "incorrect program id",
	ErrMissingRequiredSignature:  "missing required signature",
	ErrAccountAlreadyInitialized: "account already initialized",
	ErrUninitializedAccount:      "uninitialized account",
	ErrMissingAccount:            "not enough account keys",
	ErrAccountAlreadyInUse:       "account already in use",
	ErrInvalidSeeds:              "invalid seeds",
}
