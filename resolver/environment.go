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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// Environment provides the state that lives outside of accounts.
type Environment interface {
	// BlockHash gets the hash of a historical block.
	BlockHash(number *uint256.Int) (common.Hash, error)
}

// Backend is what the loop reads accounts from.
type Backend interface {
	worldstate.Reader
	worldstate.AccessTracker
}

// canonicalBlockNumbers are the only historical blocks test scenarios refer to.
var canonicalBlockNumbers = []uint64{1, 2, 256}

// CanonicalBlockHash gets the test hash of given block number, which is the
// keccak256 of its decimal text.
func CanonicalBlockHash(number uint64) common.Hash {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("%d", number)))
}

// canonicalEnv is an environment serving the canonical block hash table.
type canonicalEnv struct {
	hashes map[uint64]common.Hash
}

// NewCanonicalEnvironment creates an environment that knows the hashes of blocks 1, 2 and 256.
func NewCanonicalEnvironment() Environment {
	hashes := make(map[uint64]common.Hash)
	for _, n := range canonicalBlockNumbers {
		hashes[n] = CanonicalBlockHash(n)
	}
	return &canonicalEnv{hashes: hashes}
}

// BlockHash gets the hash of a historical block.
func (e *canonicalEnv) BlockHash(number *uint256.Int) (common.Hash, error) {
	if number.IsUint64() {
		if hash, ok := e.hashes[number.Uint64()]; ok {
			return hash, nil
		}
	}
	return common.Hash{}, fmt.Errorf("%w: %v", ErrUnknownBlockNumber, number.Dec())
}
