package vesting_test

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xorcare/golden"
	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
	"github.com/filecoin-project/vesting-actors/actors/builtin/vesting"
	"github.com/filecoin-project/vesting-actors/actors/runtime"
	tutil "github.com/filecoin-project/vesting-actors/support/testing"
)

func fixtureKeys() (abi.Seeds, abi.Address, abi.Address) {
	var seeds abi.Seeds
	var mint, dest abi.Address
	for i := range seeds {
		seeds[i] = byte(i)
		mint[i] = byte(0x40 + i)
		dest[i] = byte(0x80 + i)
	}
	return seeds, mint, dest
}

func TestInstructionWireFormat(t *testing.T) {
	seeds, mint, dest := fixtureKeys()
	ixs := []struct {
		name string
		ix   vesting.Instruction
	}{
		{"init", &vesting.Init{Seeds: seeds, NumberOfSchedules: 1}},
		{"create", &vesting.Create{
			Seeds:                   seeds,
			MintAddress:             mint,
			DestinationTokenAddress: dest,
			Schedules:               []vesting.Schedule{{ReleaseTime: 1, Amount: 111}, {ReleaseTime: 1700000000, Amount: 0x0102030405060708}},
		}},
		{"unlock", &vesting.Unlock{Seeds: seeds}},
		{"change_destination", &vesting.ChangeDestination{Seeds: seeds}},
		{"empty", &vesting.Empty{Number: 0xdeadbeef}},
	}

	b := &bytes.Buffer{}
	for _, tc := range ixs {
		fmt.Fprintf(b, "%s %x\n", tc.name, vesting.Encode(tc.ix))
	}
	golden.Assert(t, b.Bytes())
}

func TestRecordWireFormat(t *testing.T) {
	_, mint, dest := fixtureKeys()
	rec := vesting.Record{
		Header:    vesting.Header{DestinationAddress: dest, MintAddress: mint, IsInitialized: true},
		Schedules: []vesting.Schedule{{ReleaseTime: 1, Amount: 111}, {ReleaseTime: 1700000000, Amount: 0}},
	}

	b := &bytes.Buffer{}
	fmt.Fprintf(b, "header %x\n", rec.Header.Bytes())
	fmt.Fprintf(b, "record %x\n", rec.Bytes())
	golden.Assert(t, b.Bytes())
}

func TestInstructionRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	randBytes := func(b []byte) {
		_, _ = r.Read(b)
	}
	randInstruction := func() vesting.Instruction {
		var seeds abi.Seeds
		randBytes(seeds[:])
		switch r.Intn(5) {
		case 0:
			return &vesting.Init{Seeds: seeds, NumberOfSchedules: r.Uint32()}
		case 1:
			ix := &vesting.Create{Seeds: seeds}
			randBytes(ix.MintAddress[:])
			randBytes(ix.DestinationTokenAddress[:])
			n := r.Intn(8)
			for i := 0; i < n; i++ {
				ix.Schedules = append(ix.Schedules, vesting.Schedule{ReleaseTime: abi.UnixTime(r.Uint64()), Amount: r.Uint64()})
			}
			return ix
		case 2:
			return &vesting.Unlock{Seeds: seeds}
		case 3:
			return &vesting.ChangeDestination{Seeds: seeds}
		default:
			return &vesting.Empty{Number: r.Uint32()}
		}
	}

	for i := 0; i < 1000; i++ {
		ix := randInstruction()
		data := vesting.Encode(ix)
		require.Equal(t, byte(ix.Tag()), data[0])

		decoded, err := vesting.DecodeInstruction(data)
		require.NoError(t, err)
		require.Equal(t, ix, decoded)

		strict, err := vesting.DecodeInstructionStrict(data)
		require.NoError(t, err)
		require.Equal(t, ix, strict)
	}
}

func TestDecodeInstruction(t *testing.T) {
	seeds, mint, dest := fixtureKeys()

	t.Run("unknown tag", func(t *testing.T) {
		for _, tag := range []byte{5, 99, 0xff} {
			_, err := vesting.DecodeInstruction([]byte{tag, 1, 2, 3, 4})
			assert.True(t, xerrors.Is(err, vesting.ErrUnknownTag), "tag %d", tag)
		}
	})

	t.Run("empty buffer", func(t *testing.T) {
		_, err := vesting.DecodeInstruction(nil)
		assert.True(t, xerrors.Is(err, vesting.ErrTooShort))
	})

	t.Run("short payloads", func(t *testing.T) {
		full := map[builtin.InstructionTag][]byte{
			builtin.MethodsVesting.Init:              vesting.Encode(&vesting.Init{Seeds: seeds, NumberOfSchedules: 3}),
			builtin.MethodsVesting.Create:            vesting.Encode(&vesting.Create{Seeds: seeds, MintAddress: mint, DestinationTokenAddress: dest}),
			builtin.MethodsVesting.Unlock:            vesting.Encode(&vesting.Unlock{Seeds: seeds}),
			builtin.MethodsVesting.ChangeDestination: vesting.Encode(&vesting.ChangeDestination{Seeds: seeds}),
			builtin.MethodsVesting.Empty:             vesting.Encode(&vesting.Empty{Number: 7}),
		}
		for tag, data := range full {
			for l := 1; l < len(data); l++ {
				_, err := vesting.DecodeInstruction(data[:l])
				assert.True(t, xerrors.Is(err, vesting.ErrTooShort), "tag %d truncated to %d", tag, l)
			}
			_, err := vesting.DecodeInstruction(data)
			assert.NoError(t, err, "tag %d", tag)
		}
	})

	t.Run("init needs 36 payload bytes", func(t *testing.T) {
		data := append([]byte{0}, make([]byte, 35)...)
		_, err := vesting.DecodeInstruction(data)
		assert.True(t, xerrors.Is(err, vesting.ErrTooShort))

		ix, err := vesting.DecodeInstruction(append(data, 2))
		require.NoError(t, err)
		assert.Equal(t, &vesting.Init{NumberOfSchedules: 2 << 24}, ix)
	})

	t.Run("trailing bytes after fixed payloads are ignored", func(t *testing.T) {
		data := append(vesting.Encode(&vesting.Unlock{Seeds: seeds}), 1, 2, 3)
		ix, err := vesting.DecodeInstruction(data)
		require.NoError(t, err)
		assert.Equal(t, &vesting.Unlock{Seeds: seeds}, ix)
	})

	t.Run("partial schedule is dropped by the lenient decoder only", func(t *testing.T) {
		s := vesting.Schedule{ReleaseTime: 10, Amount: 20}
		data := vesting.Encode(&vesting.Create{Seeds: seeds, MintAddress: mint, DestinationTokenAddress: dest, Schedules: []vesting.Schedule{s}})
		data = append(data, s.Bytes()[:vesting.ScheduleLen-1]...)

		ix, err := vesting.DecodeInstruction(data)
		require.NoError(t, err)
		assert.Equal(t, []vesting.Schedule{s}, ix.(*vesting.Create).Schedules)

		_, err = vesting.DecodeInstructionStrict(data)
		assert.True(t, xerrors.Is(err, vesting.ErrTooShort))
	})

	t.Run("create without schedules", func(t *testing.T) {
		ix, err := vesting.DecodeInstruction(vesting.Encode(&vesting.Create{Seeds: seeds, MintAddress: mint, DestinationTokenAddress: dest}))
		require.NoError(t, err)
		assert.Empty(t, ix.(*vesting.Create).Schedules)
	})
}

func TestInstructionBuilders(t *testing.T) {
	program := builtin.VestingProgramAddr
	seeds := tutil.NewSeeds(t, "contract")
	payer := tutil.NewAddr(t, "payer")
	vestingAccount := tutil.NewAddr(t, "vesting")
	escrow := tutil.NewAddr(t, "escrow")
	sourceOwner := tutil.NewAddr(t, "source owner")
	source := tutil.NewAddr(t, "source")
	dest := tutil.NewAddr(t, "destination")
	destOwner := tutil.NewAddr(t, "destination owner")
	newDest := tutil.NewAddr(t, "new destination")
	mint := tutil.NewAddr(t, "mint")

	t.Run("init", func(t *testing.T) {
		ix := vesting.InitInstruction(program, payer, vestingAccount, seeds, 4)
		assert.Equal(t, program, ix.ProgramID)
		assert.Equal(t, []abi.Address{builtin.SystemProgramAddr, builtin.RentSysvarAddr, payer, vestingAccount}, metaAddrs(ix.Accounts))
		assert.Equal(t, []abi.Address{payer}, ix.Signers())
		assert.False(t, ix.Accounts[0].IsWritable)
		assert.True(t, ix.Accounts[2].IsWritable)
		assert.True(t, ix.Accounts[3].IsWritable)

		decoded, err := vesting.DecodeInstruction(ix.Data)
		require.NoError(t, err)
		assert.Equal(t, &vesting.Init{Seeds: seeds, NumberOfSchedules: 4}, decoded)
	})

	t.Run("create", func(t *testing.T) {
		schedules := []vesting.Schedule{{ReleaseTime: 1, Amount: 111}}
		ix := vesting.CreateInstruction(program, builtin.TokenProgramAddr, vestingAccount, escrow, sourceOwner, source, dest, mint, schedules, seeds)
		assert.Equal(t, []abi.Address{builtin.TokenProgramAddr, vestingAccount, escrow, sourceOwner, source}, metaAddrs(ix.Accounts))
		assert.Equal(t, []abi.Address{sourceOwner}, ix.Signers())
		assert.False(t, ix.Accounts[3].IsWritable)
		assert.True(t, ix.Accounts[4].IsWritable)

		decoded, err := vesting.DecodeInstruction(ix.Data)
		require.NoError(t, err)
		assert.Equal(t, &vesting.Create{Seeds: seeds, MintAddress: mint, DestinationTokenAddress: dest, Schedules: schedules}, decoded)
	})

	t.Run("unlock", func(t *testing.T) {
		ix := vesting.UnlockInstruction(program, builtin.TokenProgramAddr, builtin.ClockSysvarAddr, vestingAccount, escrow, dest, seeds)
		assert.Equal(t, []abi.Address{builtin.TokenProgramAddr, builtin.ClockSysvarAddr, vestingAccount, escrow, dest}, metaAddrs(ix.Accounts))
		assert.Empty(t, ix.Signers())
		assert.Equal(t, vesting.Encode(&vesting.Unlock{Seeds: seeds}), ix.Data)
	})

	t.Run("change destination", func(t *testing.T) {
		ix := vesting.ChangeDestinationInstruction(program, vestingAccount, destOwner, dest, newDest, seeds)
		assert.Equal(t, []abi.Address{vestingAccount, dest, destOwner, newDest}, metaAddrs(ix.Accounts))
		assert.Equal(t, []abi.Address{destOwner}, ix.Signers())
		assert.True(t, ix.Accounts[0].IsWritable)
		assert.Equal(t, vesting.Encode(&vesting.ChangeDestination{Seeds: seeds}), ix.Data)
	})

	t.Run("empty", func(t *testing.T) {
		ix := vesting.EmptyInstruction(program, 42)
		assert.Empty(t, ix.Accounts)
		assert.Equal(t, []byte{4, 42, 0, 0, 0}, ix.Data)
	})
}

func metaAddrs(metas []runtime.AccountMeta) []abi.Address {
	out := make([]abi.Address, len(metas))
	for i, m := range metas {
		out[i] = m.Address
	}
	return out
}
