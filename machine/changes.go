package machine

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// changes classifies every resolved account against its resolved state.
func (v *view) changes() []resolver.AccountChange {
	current := make(map[common.Address]itypes.AccountValue)
	for _, acct := range v.store.Dump().Accounts {
		current[acct.Address] = acct
	}
	addrs := make([]common.Address, 0, len(v.base))
	for addr := range v.base {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})

	res := make([]resolver.AccountChange, 0)
	for _, addr := range addrs {
		b := v.base[addr]
		acct, ok := current[addr]
		exists := ok && !acct.Deleted
		switch {
		case !b.exists && !exists:
			continue
		case b.exists && !exists:
			res = append(res, resolver.NonexistChange{Address: addr})
		case !b.exists && exists:
			storage := make(map[common.Hash]common.Hash)
			for _, slot := range acct.Storage {
				storage[slot.Key] = slot.Value
			}
			res = append(res, resolver.CreateChange{
				Address: addr,
				Nonce:   acct.Nonce,
				Balance: acct.Balance,
				Code:    acct.Code,
				Storage: storage,
			})
		default:
			change, ok := v.diff(b, acct)
			if ok {
				res = append(res, change)
			}
		}
	}
	return res
}

// diff compares an account that exists before and after the run.
func (v *view) diff(b *baseAccount, acct itypes.AccountValue) (resolver.AccountChange, bool) {
	now := make(map[common.Hash]common.Hash)
	for _, slot := range acct.Storage {
		now[slot.Key] = slot.Value
	}
	storage := make(map[common.Hash]common.Hash)
	for key, val := range now {
		if b.slots[key] != val {
			storage[key] = val
		}
	}
	for key, val := range b.slots {
		if _, ok := now[key]; !ok && val != (common.Hash{}) {
			storage[key] = common.Hash{}
		}
	}
	sameNonce := b.nonce.Eq(acct.Nonce)
	sameCode := bytes.Equal(b.code, acct.Code)
	cmp := acct.Balance.Cmp(b.balance)
	if sameNonce && sameCode && len(storage) == 0 {
		if cmp == 0 {
			return nil, false
		}
		if cmp > 0 {
			return resolver.IncreaseBalanceChange{
				Address: acct.Address,
				Amount:  new(uint256.Int).Sub(acct.Balance, b.balance),
			}, true
		}
	}
	return resolver.FullChange{
		Address: acct.Address,
		Nonce:   acct.Nonce,
		Balance: acct.Balance,
		Code:    acct.Code,
		Storage: storage,
	}, true
}
