package builtin

import "fmt"

// Ledger Parameter: Bytes charged for every account on top of its data, covering the host's
// own bookkeeping.
const AccountStorageOverhead = 128

// Ledger Parameter: Rent charged per byte of account storage per year.
const DefaultLamportsPerByteYear = 3480

// Ledger Parameter: Years of rent an account must hold up front to be exempt from rent
// collection. Accounts below the exempt balance are not allowed to be created.
const DefaultExemptionThreshold = 2

// Ledger Parameter: Largest data size the system program allocates for one account.
const MaxPermittedDataLength = 10 << 20

// Rent determines the minimum balance an account must hold to stay alive.
type Rent struct {
	LamportsPerByteYear uint64
	ExemptionThreshold  uint64
}

func DefaultRent() Rent {
	return Rent{
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
	}
}

// MinimumBalance is the rent-exempt balance for an account with size data bytes.
func (r Rent) MinimumBalance(size uint64) uint64 {
	return (AccountStorageOverhead + size) * r.LamportsPerByteYear * r.ExemptionThreshold
}

func (r Rent) String() string {
	return fmt.Sprintf("%d lamports/byte-year, exempt at %d years", r.LamportsPerByteYear, r.ExemptionThreshold)
}
