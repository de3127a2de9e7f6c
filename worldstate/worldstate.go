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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// Logger
var log = logging.Logger("worldstate")

// Strategy decides what happens to the mutations of a substate when it is popped.
type Strategy int

const (
	// Commit merges the substate into its parent, or into the store if it is the outermost one.
	Commit Strategy = iota

	// Revert drops every mutation made inside the substate.
	Revert

	// Discard drops every mutation like Revert, but records the substate as abandoned
	// rather than failed. It is used for read-only probing.
	Discard
)

// String returns the name of the strategy.
func (s Strategy) String() string {
	switch s {
	case Commit:
		return "commit"
	case Revert:
		return "revert"
	case Discard:
		return "discard"
	}
	return "unknown"
}

// SubstateID identifies an open substate. It is the stack depth right after the push.
type SubstateID int

type Reader interface {
	// Exists returns if the account shell of given address exists.
	// A deleted account still exists until the transaction is finalized.
	Exists(addr common.Address) bool

	// IsDeleted returns if the account has been marked for deletion in this transaction.
	IsDeleted(addr common.Address) bool

	// Balance returns the balance of given address, 0 if not found.
	Balance(addr common.Address) *uint256.Int

	// Nonce returns the nonce of given address, 0 if not found.
	Nonce(addr common.Address) *uint256.Int

	// Code returns the code of given address, empty if not found.
	Code(addr common.Address) []byte

	// StorageAt returns the current storage value of given slot, zero if not found.
	StorageAt(addr common.Address, key common.Hash) common.Hash

	// OriginalStorage returns the storage value of given slot as of the start of
	// the current transaction, ignoring every mutation made since.
	OriginalStorage(addr common.Address, key common.Hash) common.Hash
}

type Mutator interface {
	// Deposit adds amount to the balance of given address.
	// The account shell is created if it does not exist.
	Deposit(addr common.Address, amount *uint256.Int) error

	// Withdraw subtracts amount from the balance of given address.
	// It fails with ErrInsufficientFunds if amount is larger than the balance.
	Withdraw(addr common.Address, amount *uint256.Int) error

	// SetStorage sets the storage slot of an existing account.
	SetStorage(addr common.Address, key common.Hash, val common.Hash) error

	// SetCode sets the code of an existing account.
	SetCode(addr common.Address, code []byte) error

	// IncrementNonce increases the nonce of an existing account by one.
	IncrementNonce(addr common.Address) error

	// AdvanceNonce raises the nonce of an existing account to given value.
	// It fails with ErrNonceDecrease if the value is lower than the current nonce.
	AdvanceNonce(addr common.Address, nonce *uint256.Int) error

	// MarkDelete clears the balance, code and storage of given account and
	// flags it as deleted. The shell is removed by FinalizeTransaction.
	MarkDelete(addr common.Address) error

	// ResetStorage clears the storage of given account, keeping the shell.
	ResetStorage(addr common.Address) error

	// ResetBalance sets the balance of given account to zero, keeping the shell.
	ResetBalance(addr common.Address) error

	// AppendLog appends a log to the log list.
	AppendLog(l *types.Log) error
}

type AccessTracker interface {
	// IsCold returns if the address, or the slot if key is not nil, has not
	// been accessed in the current transaction.
	IsCold(addr common.Address, key *common.Hash) bool

	// MarkHot marks the address, or the slot if key is not nil, as accessed.
	MarkHot(addr common.Address, key *common.Hash)
}

type Transactional interface {
	// PushSubstate opens a new nested substate.
	PushSubstate() (SubstateID, error)

	// PopSubstate closes the substate with given id using given strategy.
	// The id must be the innermost open substate.
	PopSubstate(id SubstateID, strategy Strategy) error

	// Depth returns the number of open substates.
	Depth() int

	// JournalRevert registers a function to be called if the current substate
	// is reverted or discarded. It is a no-op if there is no open substate.
	JournalRevert(revert func())
}

type Preloader interface {
	// Preload installs an account fetched from an outer source. It bypasses
	// the journal and the hooks, so no substate revert can undo it.
	Preload(addr common.Address, balance *uint256.Int, nonce *uint256.Int, code []byte)

	// PreloadCode installs the code of an account fetched from an outer source.
	PreloadCode(addr common.Address, code []byte)

	// PreloadStorage installs a storage slot fetched from an outer source.
	PreloadStorage(addr common.Address, key common.Hash, val common.Hash)
}

// AccountStore is the in-memory ledger of accounts.
type AccountStore interface {
	Reader
	Mutator
	AccessTracker
	Transactional
	Preloader

	// Logs returns the logs emitted so far.
	Logs() []*types.Log

	// Addresses returns all existing addresses in ascending order.
	Addresses() []common.Address

	// BeginTransaction resets the coldness and original storage tracking.
	BeginTransaction()

	// FinalizeTransaction removes the accounts marked for deletion and resets
	// transaction scoped tracking. All substates must have been popped.
	FinalizeTransaction() error

	// Dump returns the canonical view of all accounts and logs.
	Dump() itypes.StateDump

	// Fingerprint returns a digest of all accounts and logs.
	Fingerprint() common.Hash

	// Err returns the fatal error that poisoned this store, if any.
	Err() error
}
