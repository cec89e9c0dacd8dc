package vesting

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	abi "github.com/filecoin-project/vesting-actors/actors/abi"
)

// A vesting record is the data of a program-owned account at the address derived from the
// record's seeds:
//
//	[Header][Schedule 0][Schedule 1]...[Schedule n-1]
//
// Every field is fixed-width and little-endian, with no padding and no version tag.

const (
	// HeaderLen is the size of a packed Header.
	HeaderLen = 65
	// ScheduleLen is the size of a packed Schedule.
	ScheduleLen = 16
)

var (
	ErrTooShort       = xerrors.New("buffer too short")
	ErrInvalidBoolean = xerrors.New("invalid boolean")
	ErrUnknownTag     = xerrors.New("unknown instruction tag")
)

// RecordLen is the size of a vesting record holding n schedules.
func RecordLen(n int) int {
	return HeaderLen + ScheduleLen*n
}

// Schedule is one release tranche. Amount is zeroed when the tranche is paid out and the
// tranche is otherwise never modified or removed.
type Schedule struct {
	ReleaseTime abi.UnixTime
	Amount      abi.TokenAmount
}

func (s *Schedule) Pack(dst []byte) {
	binary.LittleEndian.PutUint64(dst[0:8], uint64(s.ReleaseTime))
	binary.LittleEndian.PutUint64(dst[8:16], s.Amount)
}

func (s *Schedule) Bytes() []byte {
	out := make([]byte, ScheduleLen)
	s.Pack(out)
	return out
}

func UnpackSchedule(src []byte) (Schedule, error) {
	if len(src) < ScheduleLen {
		return Schedule{}, xerrors.Errorf("schedule of %d bytes, want %d: %w", len(src), ScheduleLen, ErrTooShort)
	}
	return Schedule{
		ReleaseTime: abi.UnixTime(binary.LittleEndian.Uint64(src[0:8])),
		Amount:      binary.LittleEndian.Uint64(src[8:16]),
	}, nil
}

// UnpackSchedules decodes the back-to-back schedules in src. A trailing partial schedule is
// ignored.
func UnpackSchedules(src []byte) []Schedule {
	n := len(src) / ScheduleLen
	if n == 0 {
		return nil
	}
	out := make([]Schedule, n)
	for i := range out {
		off := i * ScheduleLen
		out[i].ReleaseTime = abi.UnixTime(binary.LittleEndian.Uint64(src[off : off+8]))
		out[i].Amount = binary.LittleEndian.Uint64(src[off+8 : off+16])
	}
	return out
}

// PackSchedulesInto writes schedules back-to-back at the start of dst.
func PackSchedulesInto(dst []byte, schedules []Schedule) error {
	if len(dst) < ScheduleLen*len(schedules) {
		return xerrors.Errorf("%d schedules need %d bytes, have %d: %w",
			len(schedules), ScheduleLen*len(schedules), len(dst), ErrTooShort)
	}
	packSchedules(dst, schedules)
	return nil
}

// dst must hold ScheduleLen bytes per schedule.
func packSchedules(dst []byte, schedules []Schedule) {
	for i := range schedules {
		schedules[i].Pack(dst[i*ScheduleLen:])
	}
}

// SumAmounts totals the tranche amounts, failing rather than wrapping on overflow.
func SumAmounts(schedules []Schedule) (abi.TokenAmount, bool) {
	var total abi.TokenAmount
	for _, s := range schedules {
		next := total + s.Amount
		if next < total {
			return 0, false
		}
		total = next
	}
	return total, true
}

// Header identifies the mint a record escrows and the token account its tranches pay to.
type Header struct {
	DestinationAddress abi.Address
	MintAddress        abi.Address
	IsInitialized      bool
}

func (h *Header) Pack(dst []byte) {
	copy(dst[0:32], h.DestinationAddress[:])
	copy(dst[32:64], h.MintAddress[:])
	if h.IsInitialized {
		dst[64] = 1
	} else {
		dst[64] = 0
	}
}

func (h *Header) Bytes() []byte {
	out := make([]byte, HeaderLen)
	h.Pack(out)
	return out
}

// UnpackHeader decodes the header at the start of src. The initialized flag must be 0 or 1.
func UnpackHeader(src []byte) (Header, error) {
	var h Header
	if len(src) < HeaderLen {
		return h, xerrors.Errorf("header of %d bytes, want %d: %w", len(src), HeaderLen, ErrTooShort)
	}
	copy(h.DestinationAddress[:], src[0:32])
	copy(h.MintAddress[:], src[32:64])
	switch src[64] {
	case 0:
	case 1:
		h.IsInitialized = true
	default:
		return h, xerrors.Errorf("initialized flag %#x: %w", src[64], ErrInvalidBoolean)
	}
	return h, nil
}

// Record is a decoded view of a vesting record.
type Record struct {
	Header    Header
	Schedules []Schedule
}

// ReadRecord decodes a vesting record from account data.
func ReadRecord(data []byte) (*Record, error) {
	h, err := UnpackHeader(data)
	if err != nil {
		return nil, err
	}
	return &Record{Header: h, Schedules: UnpackSchedules(data[HeaderLen:])}, nil
}

// Bytes packs the record into a freshly allocated buffer of RecordLen(len(Schedules)) bytes.
func (r *Record) Bytes() []byte {
	out := make([]byte, RecordLen(len(r.Schedules)))
	r.Header.Pack(out)
	packSchedules(out[HeaderLen:], r.Schedules)
	return out
}

// LockedAmount is the total of tranches not yet paid out.
func (r *Record) LockedAmount() (abi.TokenAmount, bool) {
	return SumAmounts(r.Schedules)
}
