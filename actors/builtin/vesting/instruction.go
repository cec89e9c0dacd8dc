package vesting

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
)

// Instruction is one of the vesting program's operations, decoded from instruction data.
// The set of implementations is closed: *Init, *Create, *Unlock, *ChangeDestination and *Empty.
type Instruction interface {
	Tag() builtin.InstructionTag
	// Bytes encodes the instruction: the tag byte followed by the payload.
	Bytes() []byte

	isInstruction()
}

// Init allocates a zeroed vesting record with room for NumberOfSchedules tranches.
type Init struct {
	Seeds             abi.Seeds
	NumberOfSchedules uint32
}

// Create populates an allocated record and moves the schedules' total into escrow.
type Create struct {
	Seeds                   abi.Seeds
	MintAddress             abi.Address
	DestinationTokenAddress abi.Address
	Schedules               []Schedule
}

// Unlock pays out every tranche whose release time has passed.
type Unlock struct {
	Seeds abi.Seeds
}

// ChangeDestination redirects future payouts to another token account.
type ChangeDestination struct {
	Seeds abi.Seeds
}

// Empty does nothing. It exercises instruction plumbing.
type Empty struct {
	Number uint32
}

const (
	initPayloadLen   = abi.SeedsLength + 4
	createPayloadLen = abi.SeedsLength + 2*abi.AddressLength
	seedsPayloadLen  = abi.SeedsLength
	emptyPayloadLen  = 4
)

func (*Init) Tag() builtin.InstructionTag              { return builtin.MethodsVesting.Init }
func (*Create) Tag() builtin.InstructionTag            { return builtin.MethodsVesting.Create }
func (*Unlock) Tag() builtin.InstructionTag            { return builtin.MethodsVesting.Unlock }
func (*ChangeDestination) Tag() builtin.InstructionTag { return builtin.MethodsVesting.ChangeDestination }
func (*Empty) Tag() builtin.InstructionTag             { return builtin.MethodsVesting.Empty }

func (*Init) isInstruction()              {}
func (*Create) isInstruction()            {}
func (*Unlock) isInstruction()            {}
func (*ChangeDestination) isInstruction() {}
func (*Empty) isInstruction()             {}

func (ix *Init) Bytes() []byte {
	out := make([]byte, 1+initPayloadLen)
	out[0] = byte(ix.Tag())
	copy(out[1:33], ix.Seeds[:])
	binary.LittleEndian.PutUint32(out[33:37], ix.NumberOfSchedules)
	return out
}

func (ix *Create) Bytes() []byte {
	out := make([]byte, 1+createPayloadLen+ScheduleLen*len(ix.Schedules))
	out[0] = byte(ix.Tag())
	copy(out[1:33], ix.Seeds[:])
	copy(out[33:65], ix.MintAddress[:])
	copy(out[65:97], ix.DestinationTokenAddress[:])
	packSchedules(out[97:], ix.Schedules)
	return out
}

func (ix *Unlock) Bytes() []byte {
	return seedsInstructionBytes(ix.Tag(), ix.Seeds)
}

func (ix *ChangeDestination) Bytes() []byte {
	return seedsInstructionBytes(ix.Tag(), ix.Seeds)
}

func (ix *Empty) Bytes() []byte {
	out := make([]byte, 1+emptyPayloadLen)
	out[0] = byte(ix.Tag())
	binary.LittleEndian.PutUint32(out[1:5], ix.Number)
	return out
}

func seedsInstructionBytes(tag builtin.InstructionTag, seeds abi.Seeds) []byte {
	out := make([]byte, 1+seedsPayloadLen)
	out[0] = byte(tag)
	copy(out[1:], seeds[:])
	return out
}

// Encode returns the instruction data for ix.
func Encode(ix Instruction) []byte {
	return ix.Bytes()
}

// DecodeInstruction parses instruction data. Bytes after a fixed-size payload are ignored,
// as is a trailing partial schedule in a Create payload.
func DecodeInstruction(data []byte) (Instruction, error) {
	return decodeInstruction(data, false)
}

// DecodeInstructionStrict is DecodeInstruction, except that a Create payload whose schedule
// bytes are not a whole number of schedules fails with ErrTooShort.
func DecodeInstructionStrict(data []byte) (Instruction, error) {
	return decodeInstruction(data, true)
}

func decodeInstruction(data []byte, strict bool) (Instruction, error) {
	if len(data) == 0 {
		return nil, xerrors.Errorf("empty instruction data: %w", ErrTooShort)
	}
	tag, payload := builtin.InstructionTag(data[0]), data[1:]

	switch tag {
	case builtin.MethodsVesting.Init:
		if err := requirePayload("init", payload, initPayloadLen); err != nil {
			return nil, err
		}
		ix := &Init{NumberOfSchedules: binary.LittleEndian.Uint32(payload[32:36])}
		copy(ix.Seeds[:], payload[0:32])
		return ix, nil

	case builtin.MethodsVesting.Create:
		if err := requirePayload("create", payload, createPayloadLen); err != nil {
			return nil, err
		}
		rest := payload[createPayloadLen:]
		if strict && len(rest)%ScheduleLen != 0 {
			return nil, xerrors.Errorf("create schedules: %d trailing bytes of a partial schedule: %w",
				len(rest)%ScheduleLen, ErrTooShort)
		}
		ix := &Create{Schedules: UnpackSchedules(rest)}
		copy(ix.Seeds[:], payload[0:32])
		copy(ix.MintAddress[:], payload[32:64])
		copy(ix.DestinationTokenAddress[:], payload[64:96])
		return ix, nil

	case builtin.MethodsVesting.Unlock:
		if err := requirePayload("unlock", payload, seedsPayloadLen); err != nil {
			return nil, err
		}
		ix := &Unlock{}
		copy(ix.Seeds[:], payload[0:32])
		return ix, nil

	case builtin.MethodsVesting.ChangeDestination:
		if err := requirePayload("change destination", payload, seedsPayloadLen); err != nil {
			return nil, err
		}
		ix := &ChangeDestination{}
		copy(ix.Seeds[:], payload[0:32])
		return ix, nil

	case builtin.MethodsVesting.Empty:
		if err := requirePayload("empty", payload, emptyPayloadLen); err != nil {
			return nil, err
		}
		return &Empty{Number: binary.LittleEndian.Uint32(payload[0:4])}, nil

	default:
		return nil, xerrors.Errorf("tag %d: %w", tag, ErrUnknownTag)
	}
}

func requirePayload(name string, payload []byte, want int) error {
	if len(payload) < want {
		return xerrors.Errorf("%s payload of %d bytes, want at least %d: %w", name, len(payload), want, ErrTooShort)
	}
	return nil
}
