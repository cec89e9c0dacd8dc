package vm

import (
	"fmt"

	rtt "github.com/filecoin-project/go-state-types/rt"
	sha256 "github.com/minio/sha256-simd"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	token "github.com/filecoin-project/vesting-actors/actors/builtin/token"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

// Domain separator appended to every program-derived address preimage.
const pdaMarker = "ProgramDerivedAddress"

// DeriveAddress computes the program-derived address for seeds under program.
func DeriveAddress(seeds abi.Seeds, program abi.Address) abi.Address {
	h := sha256.New()
	_, _ = h.Write(seeds[:])
	_, _ = h.Write(program[:])
	_, _ = h.Write([]byte(pdaMarker))
	var out abi.Address
	copy(out[:], h.Sum(nil))
	return out
}

// invocationContext is the runtime a program sees while processing one instruction.
type invocationContext struct {
	vm         *VM
	programID  abi.Address
	authorized runtime.AuthorizationSet
	invocation *Invocation
}

var _ runtime.Runtime = (*invocationContext)(nil)
var _ runtime.Syscalls = (*invocationContext)(nil)

func (ic *invocationContext) Message() runtime.Message {
	return ic.authorized
}

func (ic *invocationContext) CurrTime() (abi.UnixTime, error) {
	return ic.vm.now, nil
}

func (ic *invocationContext) MinimumBalance(size uint64) uint64 {
	return ic.vm.rent.MinimumBalance(size)
}

func (ic *invocationContext) Syscalls() runtime.Syscalls {
	return ic
}

func (ic *invocationContext) DeriveAddress(seeds abi.Seeds, program abi.Address) (abi.Address, error) {
	return DeriveAddress(seeds, program), nil
}

func (ic *invocationContext) Log(level rtt.LogLevel, msg string, args ...interface{}) {
	if !builtin.ShouldLog(ic.programID, level, ic.vm.defaultLogLevel) {
		return
	}
	line := fmt.Sprintf(msg, args...)
	ic.vm.logs = append(ic.vm.logs, line)
	switch {
	case level >= rtt.ERROR:
		log.Errorw(line, "program", ic.programID)
	case level >= rtt.WARN:
		log.Warnw(line, "program", ic.programID)
	case level >= rtt.INFO:
		log.Infow(line, "program", ic.programID)
	default:
		log.Debugw(line, "program", ic.programID)
	}
}

// Whether the calling program may sign for key, either because its holder authorized the
// transaction or because it is the program's address for seeds.
func (ic *invocationContext) signedBy(key abi.Address, seeds *abi.Seeds) bool {
	if seeds != nil {
		return DeriveAddress(*seeds, ic.programID) == key
	}
	return ic.authorized.Authorized(key)
}

// CreateAccount implements the system program's account creation.
func (ic *invocationContext) CreateAccount(params *runtime.CreateAccountParams) (err error) {
	sub := &Invocation{
		ProgramID: builtin.SystemProgramAddr,
		Accounts:  []abi.Address{params.Payer.Key, params.Target.Key},
		Value:     params.Lamports,
	}
	ic.invocation.SubInvocations = append(ic.invocation.SubInvocations, sub)
	defer func() { sub.Exitcode = exitcode.Unwrap(err, exitcode.ErrCustom) }()

	if err := builtin.RequireProgram(params.SystemProgram, builtin.SystemProgramAddr, "system program"); err != nil {
		return err
	}
	if !ic.authorized.Authorized(params.Payer.Key) {
		return exitcode.ErrMissingRequiredSignature.Wrapf("payer %s did not sign", params.Payer.Key)
	}
	seeds := params.SignerSeeds
	if !ic.signedBy(params.Target.Key, &seeds) {
		return exitcode.ErrMissingRequiredSignature.Wrapf("new account %s did not sign", params.Target.Key)
	}
	target := params.Target
	if target.Lamports > 0 || len(target.Data) > 0 || target.Owner != builtin.SystemProgramAddr {
		return exitcode.ErrAccountAlreadyInUse.Wrapf("account %s already in use", target.Key)
	}
	if params.Space > builtin.MaxPermittedDataLength {
		return exitcode.ErrInvalidArgument.Wrapf("requested %d bytes of data, limit is %d", params.Space, builtin.MaxPermittedDataLength)
	}
	if !params.Payer.IsWritable || !target.IsWritable {
		return exitcode.ErrInvalidArgument.Wrapf("payer and new account must be writable")
	}
	if params.Payer.Lamports < params.Lamports {
		return exitcode.ErrInsufficientFunds.Wrapf("payer %s holds %d lamports, needs %d",
			params.Payer.Key, params.Payer.Lamports, params.Lamports)
	}

	params.Payer.Lamports -= params.Lamports
	target.Lamports = params.Lamports
	target.Data = make([]byte, params.Space)
	target.Owner = params.Owner
	return nil
}

// Transfer implements the token program's transfer.
func (ic *invocationContext) Transfer(params *runtime.TransferParams) (err error) {
	sub := &Invocation{
		ProgramID: builtin.TokenProgramAddr,
		Accounts:  []abi.Address{params.Source.Key, params.Destination.Key, params.Authority.Key},
		Value:     params.Amount,
	}
	ic.invocation.SubInvocations = append(ic.invocation.SubInvocations, sub)
	defer func() { sub.Exitcode = exitcode.Unwrap(err, exitcode.ErrCustom) }()

	if err := builtin.RequireProgram(params.TokenProgram, builtin.TokenProgramAddr, "token program"); err != nil {
		return err
	}
	for _, a := range []*runtime.AccountInfo{params.Source, params.Destination} {
		if a.Owner != builtin.TokenProgramAddr {
			return exitcode.ErrIncorrectProgramID.Wrapf("token account %s is owned by %s", a.Key, a.Owner)
		}
		if !a.IsWritable {
			return exitcode.ErrInvalidArgument.Wrapf("token account %s must be writable", a.Key)
		}
	}

	src, err := token.Unpack(params.Source.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("source %s: %w", params.Source.Key, err)
	}
	dst, err := token.Unpack(params.Destination.Data)
	if err != nil {
		return exitcode.ErrInvalidAccountData.Wrapf("destination %s: %w", params.Destination.Key, err)
	}
	if src.IsFrozen() || dst.IsFrozen() {
		return exitcode.ErrInvalidAccountData.Wrapf("account frozen")
	}
	if src.Mint != dst.Mint {
		return exitcode.ErrInvalidAccountData.Wrapf("mint mismatch: %s != %s", src.Mint, dst.Mint)
	}
	if src.Owner != params.Authority.Key {
		return exitcode.ErrInvalidArgument.Wrapf("authority %s does not own %s", params.Authority.Key, params.Source.Key)
	}
	if !ic.signedBy(params.Authority.Key, params.SignerSeeds) {
		return exitcode.ErrMissingRequiredSignature.Wrapf("authority %s did not sign", params.Authority.Key)
	}
	if src.Amount < params.Amount {
		return exitcode.ErrInsufficientFunds.Wrapf("source %s holds %d, transfer of %d", params.Source.Key, src.Amount, params.Amount)
	}
	if params.Source.Key == params.Destination.Key {
		return nil
	}
	if dst.Amount+params.Amount < dst.Amount {
		return exitcode.ErrInvalidArgument.Wrapf("destination balance overflows")
	}

	src.Amount -= params.Amount
	dst.Amount += params.Amount
	src.Pack(params.Source.Data)
	dst.Pack(params.Destination.Data)
	return nil
}
