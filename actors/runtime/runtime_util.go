package runtime

import (
	"github.com/filecoin-project/vesting-actors/actors/runtime/exitcode"
)

// AccountIter hands out an instruction's accounts in order. Accounts have no names, only
// positions, so each handler pulls them in the order its instruction defines.
type AccountIter struct {
	accounts []*AccountInfo
	next     int
}

func NewAccountIter(accounts []*AccountInfo) *AccountIter {
	return &AccountIter{accounts: accounts}
}

// Next returns the next account, or ErrMissingAccount once the list is exhausted.
func (it *AccountIter) Next() (*AccountInfo, error) {
	if it.next >= len(it.accounts) {
		return nil, exitcode.ErrMissingAccount.Wrapf("expected at least %d accounts, got %d", it.next+1, len(it.accounts))
	}
	a := it.accounts[it.next]
	it.next++
	return a, nil
}

// NextN returns the next n accounts.
func (it *AccountIter) NextN(n int) ([]*AccountInfo, error) {
	out := make([]*AccountInfo, 0, n)
	for i := 0; i < n; i++ {
		a, err := it.Next()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
