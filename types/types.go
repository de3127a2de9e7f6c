package types

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

// StorageSlot is a single non-zero storage entry.
type StorageSlot struct {
	Key common.Hash

	Value common.Hash
}

// AccountValue is used to represent the state of an account.
type AccountValue struct {
	// The address of the account
	Address common.Address

	// The nonce of the account
	Nonce *uint256.Int

	// The balance of the account
	Balance *uint256.Int

	// The code of the account
	Code []byte

	// Flag indicating if this account is marked for deletion
	Deleted bool

	// Non-zero storage, sorted by key
	Storage []StorageSlot
}

// LogValue is used to represent an emitted log.
type LogValue struct {
	// The emitting address
	Address common.Address

	// Up to four topics
	Topics []common.Hash

	// The log payload
	Data []byte
}

// StateDump is the canonical view of an account store.
type StateDump struct {
	// Accounts, sorted by address
	Accounts []AccountValue

	// Logs in emission order
	Logs []LogValue
}
