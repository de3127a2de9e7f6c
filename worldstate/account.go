package worldstate

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
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// account is a single ledger entry.
// Every setter returns a function that undoes the change.
type account struct {
	addr    common.Address
	balance *uint256.Int
	nonce   *uint256.Int
	code    []byte
	deleted bool

	// Only non-zero values are kept
	storage map[common.Hash]common.Hash
}

func newAccount(addr common.Address) *account {
	return &account{
		addr:    addr,
		balance: uint256.NewInt(0),
		nonce:   uint256.NewInt(0),
		code:    []byte{},
		storage: make(map[common.Hash]common.Hash),
	}
}

// empty returns if this account has zero balance, zero nonce and no code.
func (acct *account) empty() bool {
	return acct.balance.IsZero() && acct.nonce.IsZero() && len(acct.code) == 0
}

// getState returns the given storage slot value of this account.
func (acct *account) getState(key common.Hash) common.Hash {
	return acct.storage[key]
}

// setBalance attempts to set the balance of this account.
func (acct *account) setBalance(balance *uint256.Int) (revert func()) {
	originalBal := new(uint256.Int).Set(acct.balance)
	acct.balance.Set(balance)
	return func() {
		acct.balance.Set(originalBal)
	}
}

// setNonce attempts to set the nonce of this account.
func (acct *account) setNonce(nonce *uint256.Int) (revert func()) {
	originalNonce := new(uint256.Int).Set(acct.nonce)
	acct.nonce.Set(nonce)
	return func() {
		acct.nonce.Set(originalNonce)
	}
}

// setCode attempts to set the code of this account.
func (acct *account) setCode(code []byte) (revert func()) {
	originalCode := acct.code
	acct.code = common.CopyBytes(code)
	if acct.code == nil {
		acct.code = []byte{}
	}
	return func() {
		acct.code = originalCode
	}
}

// setState attempts to set the storage slot value of this account.
func (acct *account) setState(key common.Hash, val common.Hash) (revert func()) {
	originalVal, ok := acct.storage[key]
	if val == (common.Hash{}) {
		delete(acct.storage, key)
	} else {
		acct.storage[key] = val
	}
	if !ok {
		return func() {
			delete(acct.storage, key)
		}
	}
	return func() {
		acct.storage[key] = originalVal
	}
}

// clearStorage attempts to remove all storage slots of this account.
func (acct *account) clearStorage() (revert func()) {
	originalStorage := acct.storage
	acct.storage = make(map[common.Hash]common.Hash)
	return func() {
		acct.storage = originalStorage
	}
}

// markDeleted attempts to flag this account as deleted, dropping its balance, code and storage.
func (acct *account) markDeleted() (revert func()) {
	if acct.deleted {
		// Account can be deleted again with no effect.
		return func() {}
	}
	revertBal := acct.setBalance(uint256.NewInt(0))
	revertCode := acct.setCode(nil)
	revertStorage := acct.clearStorage()
	acct.deleted = true
	return func() {
		acct.deleted = false
		revertStorage()
		revertCode()
		revertBal()
	}
}

// value gets the canonical value of this account.
func (acct *account) value() itypes.AccountValue {
	keys := make([]common.Hash, 0, len(acct.storage))
	for k := range acct.storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Cmp(keys[j]) < 0
	})
	slots := make([]itypes.StorageSlot, 0, len(keys))
	for _, k := range keys {
		slots = append(slots, itypes.StorageSlot{Key: k, Value: acct.storage[k]})
	}
	return itypes.AccountValue{
		Address: acct.addr,
		Nonce:   new(uint256.Int).Set(acct.nonce),
		Balance: new(uint256.Int).Set(acct.balance),
		Code:    common.CopyBytes(acct.code),
		Deleted: acct.deleted,
		Storage: slots,
	}
}
