package resolver

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
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// Ledger is what a change set is applied to.
type Ledger interface {
	worldstate.Reader
	worldstate.Mutator
}

// Apply writes the final change set and logs of a run into the store.
// It stops at the first error, leaving the rest unapplied. Callers are
// expected to run it inside a substate.
func Apply(store Ledger, changes []AccountChange, logs []*types.Log) error {
	for _, c := range changes {
		var err error
		switch ch := c.(type) {
		case FullChange:
			err = applyFull(store, ch.Address, ch.Nonce, ch.Balance, ch.Code, ch.Storage, ch.ResetStorage)
		case CreateChange:
			if store.Exists(ch.Address) {
				err = store.ResetBalance(ch.Address)
			}
			if err == nil {
				err = applyFull(store, ch.Address, ch.Nonce, ch.Balance, ch.Code, ch.Storage, true)
			}
		case NonexistChange:
			err = store.MarkDelete(ch.Address)
		case IncreaseBalanceChange:
			err = store.Deposit(ch.Address, ch.Amount)
		default:
			err = fmt.Errorf("unsupported change %T", c)
		}
		if err != nil {
			return fmt.Errorf("fail to apply change to %v: %w", c.Addr(), err)
		}
	}
	for _, l := range logs {
		err := store.AppendLog(l)
		if err != nil {
			return fmt.Errorf("fail to apply log of %v: %w", l.Address, err)
		}
	}
	return nil
}

// applyFull brings an account to the given state.
func applyFull(store Ledger, addr common.Address, nonce *uint256.Int, balance *uint256.Int, code []byte, storage map[common.Hash]common.Hash, reset bool) error {
	current := store.Balance(addr)
	var err error
	if balance.Cmp(current) >= 0 {
		// Also materializes the shell.
		err = store.Deposit(addr, new(uint256.Int).Sub(balance, current))
	} else {
		err = store.Withdraw(addr, new(uint256.Int).Sub(current, balance))
	}
	if err != nil {
		return err
	}
	err = store.AdvanceNonce(addr, nonce)
	if err != nil {
		return err
	}
	err = store.SetCode(addr, code)
	if err != nil {
		return err
	}
	if reset {
		err = store.ResetStorage(addr)
		if err != nil {
			return err
		}
	}
	keys := make([]common.Hash, 0, len(storage))
	for k := range storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Cmp(keys[j]) < 0
	})
	for _, k := range keys {
		err = store.SetStorage(addr, k, storage[k])
		if err != nil {
			return err
		}
	}
	return nil
}
