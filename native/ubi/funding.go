package ubi

import "math/big"

// Contribute moves amount from the caller into platform custody and
// accumulates the caller's funding record. Preferred programs are replaced,
// not merged, on every contribution.
func (e *Engine) Contribute(caller [20]byte, amount *big.Int, targets []uint64) (*FundingSource, error) {
	if err := e.readyForTransfer(); err != nil {
		return nil, err
	}
	if caller == e.platformCustody {
		return nil, ErrNotAuthorized
	}
	if amount == nil || amount.Cmp(minFundContribution()) < 0 {
		return nil, ErrInvalidAmount
	}
	if len(targets) > MaxPreferredPrograms {
		return nil, ErrInvalidAmount
	}
	source := new(FundingSource)
	found, err := e.state.KVGet(fundingKey(caller), source)
	if err != nil {
		return nil, err
	}
	contribution := new(big.Int).Set(amount)
	if err := e.ledger.Transfer(caller, e.platformCustody, contribution); err != nil {
		return nil, transferFailed(err)
	}

	height := e.height()
	preferred := append([]uint64{}, targets...)
	if found {
		source.TotalContributed = new(big.Int).Add(cloneBigInt(source.TotalContributed), contribution)
		source.Contributions++
		source.PreferredPrograms = preferred
		source.LastContributionHeight = height
	} else {
		source = &FundingSource{
			Address:                caller,
			TotalContributed:       contribution,
			Contributions:          1,
			PreferredPrograms:      preferred,
			Recurring:              false,
			LastContributionHeight: height,
			ContributionFrequency:  0,
		}
	}
	if err := e.state.KVPut(fundingKey(caller), source); err != nil {
		return nil, err
	}
	e.emit(FundContributedEvent(caller, contribution.String(), source.TotalContributed.String(), source.Contributions))
	return source.Clone(), nil
}

// FundingSource returns the stored funding record of addr.
func (e *Engine) FundingSource(addr [20]byte) (*FundingSource, bool, error) {
	if err := e.ready(); err != nil {
		return nil, false, err
	}
	source := new(FundingSource)
	ok, err := e.state.KVGet(fundingKey(addr), source)
	if err != nil || !ok {
		return nil, false, err
	}
	return source, true, nil
}
