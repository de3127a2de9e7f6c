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
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// accountStoreImpl implements AccountStore.
type accountStoreImpl struct {
	maxDepth int
	hooks    *Hooks

	accounts map[common.Address]*account
	logs     []*types.Log

	// Transaction scoped tracking
	warmAddrs map[common.Address]bool
	warmSlots map[common.Address]map[common.Hash]bool
	originals map[common.Address]map[common.Hash]common.Hash

	// Open substates, innermost last
	frames []*substate

	// The error that poisoned this store
	fatal error
}

// NewAccountStore creates a new empty AccountStore.
func NewAccountStore(opts Opts) AccountStore {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	hooks := opts.Hooks
	if hooks == nil {
		hooks = &Hooks{}
	}
	return &accountStoreImpl{
		maxDepth:  maxDepth,
		hooks:     hooks,
		accounts:  make(map[common.Address]*account),
		logs:      make([]*types.Log, 0),
		warmAddrs: make(map[common.Address]bool),
		warmSlots: make(map[common.Address]map[common.Hash]bool),
		originals: make(map[common.Address]map[common.Hash]common.Hash),
		frames:    make([]*substate, 0),
	}
}

// recordJournal is used to record a revert function in the innermost substate.
func (s *accountStoreImpl) recordJournal(revert func()) {
	if len(s.frames) == 0 {
		return
	}
	top := s.frames[len(s.frames)-1]
	top.journal = append(top.journal, revert)
}

// fail poisons the store if err is fatal and returns err.
func (s *accountStoreImpl) fail(err error) error {
	if IsFatal(err) && s.fatal == nil {
		log.Errorf("Account store poisoned: %v", err.Error())
		s.fatal = err
	}
	return err
}

// getOrCreate gets the account of given address, creating a zero shell if absent.
func (s *accountStoreImpl) getOrCreate(addr common.Address) *account {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = newAccount(addr)
		s.accounts[addr] = acct
		s.recordJournal(func() { delete(s.accounts, addr) })
	}
	return acct
}

// mustLoad gets the account of given address, failing if the shell does not exist.
func (s *accountStoreImpl) mustLoad(addr common.Address) (*account, error) {
	if s.fatal != nil {
		return nil, s.fatal
	}
	acct, ok := s.accounts[addr]
	if !ok {
		return nil, s.fail(fmt.Errorf("%w: %v", ErrAccountNotFound, addr))
	}
	return acct, nil
}

// recordOriginal records the transaction start value of given slot if not yet recorded.
func (s *accountStoreImpl) recordOriginal(acct *account, key common.Hash) {
	slots, ok := s.originals[acct.addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		s.originals[acct.addr] = slots
	}
	if _, ok := slots[key]; !ok {
		slots[key] = acct.getState(key)
	}
}

// recordAllOriginals records the transaction start value of every slot of given account.
func (s *accountStoreImpl) recordAllOriginals(acct *account) {
	for key := range acct.storage {
		s.recordOriginal(acct, key)
	}
}

// Exists returns if the account shell of given address exists.
func (s *accountStoreImpl) Exists(addr common.Address) bool {
	_, ok := s.accounts[addr]
	return ok
}

// IsDeleted returns if the account has been marked for deletion in this transaction.
func (s *accountStoreImpl) IsDeleted(addr common.Address) bool {
	acct, ok := s.accounts[addr]
	return ok && acct.deleted
}

// Balance returns the balance of given address, 0 if not found.
func (s *accountStoreImpl) Balance(addr common.Address) *uint256.Int {
	acct, ok := s.accounts[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(acct.balance)
}

// Nonce returns the nonce of given address, 0 if not found.
func (s *accountStoreImpl) Nonce(addr common.Address) *uint256.Int {
	acct, ok := s.accounts[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(acct.nonce)
}

// Code returns the code of given address, empty if not found.
func (s *accountStoreImpl) Code(addr common.Address) []byte {
	acct, ok := s.accounts[addr]
	if !ok {
		return []byte{}
	}
	return common.CopyBytes(acct.code)
}

// StorageAt returns the current storage value of given slot, zero if not found.
func (s *accountStoreImpl) StorageAt(addr common.Address, key common.Hash) common.Hash {
	acct, ok := s.accounts[addr]
	if !ok {
		return common.Hash{}
	}
	return acct.getState(key)
}

// OriginalStorage returns the storage value of given slot as of the start of the current transaction.
func (s *accountStoreImpl) OriginalStorage(addr common.Address, key common.Hash) common.Hash {
	if slots, ok := s.originals[addr]; ok {
		if val, ok := slots[key]; ok {
			return val
		}
	}
	// Not touched in this transaction.
	return s.StorageAt(addr, key)
}

// Deposit adds amount to the balance of given address.
func (s *accountStoreImpl) Deposit(addr common.Address, amount *uint256.Int) error {
	if s.fatal != nil {
		return s.fatal
	}
	original := s.Balance(addr)
	updated, overflow := new(uint256.Int).AddOverflow(original, amount)
	if overflow {
		return fmt.Errorf("%w: deposit %v to %v", ErrBalanceOverflow, amount, addr)
	}
	acct := s.getOrCreate(addr)
	s.recordJournal(acct.setBalance(updated))

	if s.hooks.OnBalanceChange != nil {
		s.hooks.OnBalanceChange(addr, original, updated)
	}
	return nil
}

// Withdraw subtracts amount from the balance of given address.
func (s *accountStoreImpl) Withdraw(addr common.Address, amount *uint256.Int) error {
	if s.fatal != nil {
		return s.fatal
	}
	original := s.Balance(addr)
	if amount.Gt(original) {
		return fmt.Errorf("%w: %v has %v, requires %v", ErrInsufficientFunds, addr, original, amount)
	}
	if amount.IsZero() {
		return nil
	}
	// Non-zero withdrawal implies the account exists.
	acct := s.accounts[addr]
	updated := new(uint256.Int).Sub(original, amount)
	s.recordJournal(acct.setBalance(updated))

	if s.hooks.OnBalanceChange != nil {
		s.hooks.OnBalanceChange(addr, original, updated)
	}
	return nil
}

// SetStorage sets the storage slot of an existing account.
func (s *accountStoreImpl) SetStorage(addr common.Address, key common.Hash, val common.Hash) error {
	acct, err := s.mustLoad(addr)
	if err != nil {
		return err
	}
	s.recordOriginal(acct, key)
	prev := acct.getState(key)
	s.recordJournal(acct.setState(key, val))

	if s.hooks.OnStorageChange != nil {
		s.hooks.OnStorageChange(addr, key, prev, val)
	}
	return nil
}

// SetCode sets the code of an existing account.
func (s *accountStoreImpl) SetCode(addr common.Address, code []byte) error {
	acct, err := s.mustLoad(addr)
	if err != nil {
		return err
	}
	prev := acct.code
	s.recordJournal(acct.setCode(code))

	if s.hooks.OnCodeChange != nil {
		s.hooks.OnCodeChange(addr, prev, code)
	}
	return nil
}

// IncrementNonce increases the nonce of an existing account by one.
func (s *accountStoreImpl) IncrementNonce(addr common.Address) error {
	acct, err := s.mustLoad(addr)
	if err != nil {
		return err
	}
	updated, overflow := new(uint256.Int).AddOverflow(acct.nonce, uint256.NewInt(1))
	if overflow {
		return fmt.Errorf("%w: %v", ErrNonceOverflow, addr)
	}
	return s.updateNonce(acct, updated)
}

// AdvanceNonce raises the nonce of an existing account to given value.
func (s *accountStoreImpl) AdvanceNonce(addr common.Address, nonce *uint256.Int) error {
	acct, err := s.mustLoad(addr)
	if err != nil {
		return err
	}
	if nonce.Lt(acct.nonce) {
		return fmt.Errorf("%w: %v from %v to %v", ErrNonceDecrease, addr, acct.nonce, nonce)
	}
	if nonce.Eq(acct.nonce) {
		return nil
	}
	return s.updateNonce(acct, nonce)
}

func (s *accountStoreImpl) updateNonce(acct *account, nonce *uint256.Int) error {
	prev := new(uint256.Int).Set(acct.nonce)
	s.recordJournal(acct.setNonce(nonce))

	if s.hooks.OnNonceChange != nil {
		s.hooks.OnNonceChange(acct.addr, prev, nonce)
	}
	return nil
}

// MarkDelete clears the balance, code and storage of given account and flags it as deleted.
func (s *accountStoreImpl) MarkDelete(addr common.Address) error {
	if s.fatal != nil {
		return s.fatal
	}
	acct, ok := s.accounts[addr]
	if !ok {
		// Nothing to delete.
		return nil
	}
	s.recordAllOriginals(acct)
	s.recordJournal(acct.markDeleted())

	if s.hooks.OnDelete != nil {
		s.hooks.OnDelete(addr)
	}
	return nil
}

// ResetStorage clears the storage of given account, keeping the shell.
func (s *accountStoreImpl) ResetStorage(addr common.Address) error {
	if s.fatal != nil {
		return s.fatal
	}
	acct, ok := s.accounts[addr]
	if !ok {
		return nil
	}
	s.recordAllOriginals(acct)
	s.recordJournal(acct.clearStorage())
	return nil
}

// ResetBalance sets the balance of given account to zero, keeping the shell.
func (s *accountStoreImpl) ResetBalance(addr common.Address) error {
	if s.fatal != nil {
		return s.fatal
	}
	acct, ok := s.accounts[addr]
	if !ok || acct.balance.IsZero() {
		return nil
	}
	prev := new(uint256.Int).Set(acct.balance)
	s.recordJournal(acct.setBalance(uint256.NewInt(0)))

	if s.hooks.OnBalanceChange != nil {
		s.hooks.OnBalanceChange(addr, prev, uint256.NewInt(0))
	}
	return nil
}

// AppendLog appends a log to the log list.
func (s *accountStoreImpl) AppendLog(l *types.Log) error {
	if s.fatal != nil {
		return s.fatal
	}
	if len(l.Topics) > 4 {
		return fmt.Errorf("%w: got %v", ErrTooManyTopics, len(l.Topics))
	}
	entry := &types.Log{
		Address: l.Address,
		Topics:  append([]common.Hash(nil), l.Topics...),
		Data:    common.CopyBytes(l.Data),
	}
	s.logs = append(s.logs, entry)
	s.recordJournal(func() { s.logs = s.logs[:len(s.logs)-1] })

	if s.hooks.OnLog != nil {
		s.hooks.OnLog(entry)
	}
	return nil
}

// IsCold returns if the address, or the slot if key is not nil, has not been accessed.
func (s *accountStoreImpl) IsCold(addr common.Address, key *common.Hash) bool {
	if key == nil {
		return !s.warmAddrs[addr]
	}
	slots, ok := s.warmSlots[addr]
	if !ok {
		return true
	}
	return !slots[*key]
}

// MarkHot marks the address, or the slot if key is not nil, as accessed.
func (s *accountStoreImpl) MarkHot(addr common.Address, key *common.Hash) {
	if !s.IsCold(addr, key) {
		return
	}
	if key == nil {
		s.warmAddrs[addr] = true
	} else {
		slots, ok := s.warmSlots[addr]
		if !ok {
			slots = make(map[common.Hash]bool)
			s.warmSlots[addr] = slots
		}
		slots[*key] = true
	}
	if len(s.frames) > 0 {
		top := s.frames[len(s.frames)-1]
		top.recordWarm(addr, key)
	}
}

// markCold reverts a previous MarkHot.
func (s *accountStoreImpl) markCold(addr common.Address, key *common.Hash) {
	if key == nil {
		delete(s.warmAddrs, addr)
		return
	}
	slots, ok := s.warmSlots[addr]
	if !ok {
		return
	}
	delete(slots, *key)
	if len(slots) == 0 {
		delete(s.warmSlots, addr)
	}
}

// Logs returns the logs emitted so far.
func (s *accountStoreImpl) Logs() []*types.Log {
	logs := make([]*types.Log, len(s.logs))
	copy(logs, s.logs)
	return logs
}

// Addresses returns all existing addresses in ascending order.
func (s *accountStoreImpl) Addresses() []common.Address {
	addrs := make([]common.Address, 0, len(s.accounts))
	for addr := range s.accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	return addrs
}

// BeginTransaction resets the coldness and original storage tracking.
func (s *accountStoreImpl) BeginTransaction() {
	s.warmAddrs = make(map[common.Address]bool)
	s.warmSlots = make(map[common.Address]map[common.Hash]bool)
	s.originals = make(map[common.Address]map[common.Hash]common.Hash)
}

// FinalizeTransaction removes the accounts marked for deletion and resets transaction scoped tracking.
func (s *accountStoreImpl) FinalizeTransaction() error {
	if s.fatal != nil {
		return s.fatal
	}
	if len(s.frames) > 0 {
		return s.fail(fmt.Errorf("%w: %v", ErrOpenSubstates, len(s.frames)))
	}
	for addr, acct := range s.accounts {
		if acct.deleted {
			log.Debugf("Remove deleted account %v", addr)
			delete(s.accounts, addr)
		}
	}
	s.BeginTransaction()
	return nil
}

// Err returns the fatal error that poisoned this store, if any.
func (s *accountStoreImpl) Err() error {
	return s.fatal
}
