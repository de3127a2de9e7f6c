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
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Preload installs an account fetched from an outer source. It bypasses the
// journal and the hooks, so the account survives any substate revert.
func (s *accountStoreImpl) Preload(addr common.Address, balance *uint256.Int, nonce *uint256.Int, code []byte) {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = newAccount(addr)
		s.accounts[addr] = acct
	}
	acct.balance.Set(balance)
	acct.nonce.Set(nonce)
	acct.code = common.CopyBytes(code)
	if acct.code == nil {
		acct.code = []byte{}
	}
}

// PreloadCode installs the code of an account fetched from an outer source, bypassing the journal.
func (s *accountStoreImpl) PreloadCode(addr common.Address, code []byte) {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = newAccount(addr)
		s.accounts[addr] = acct
	}
	acct.code = common.CopyBytes(code)
	if acct.code == nil {
		acct.code = []byte{}
	}
}

// PreloadStorage installs a storage slot fetched from an outer source, bypassing the journal.
// The original value of the slot is taken to be the preloaded one.
func (s *accountStoreImpl) PreloadStorage(addr common.Address, key common.Hash, val common.Hash) {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = newAccount(addr)
		s.accounts[addr] = acct
	}
	acct.setState(key, val)
	if slots, ok := s.originals[addr]; ok {
		slots[key] = val
	}
}
