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
)

// Hooks is a set of optional callbacks invoked on store mutations.
// Any of the fields can be nil.
type Hooks struct {
	OnBalanceChange func(addr common.Address, prev, new *uint256.Int)
	OnNonceChange   func(addr common.Address, prev, new *uint256.Int)
	OnCodeChange    func(addr common.Address, prev, new []byte)
	OnStorageChange func(addr common.Address, key, prev, new common.Hash)
	OnDelete        func(addr common.Address)
	OnLog           func(l *types.Log)
	OnPush          func(id SubstateID)
	OnPop           func(id SubstateID, strategy Strategy)
}

// LogHooks returns hooks that emit every mutation as a structured debug entry.
func LogHooks() *Hooks {
	return &Hooks{
		OnBalanceChange: func(addr common.Address, prev, new *uint256.Int) {
			log.Debugw("balance", "addr", addr, "prev", prev, "new", new)
		},
		OnNonceChange: func(addr common.Address, prev, new *uint256.Int) {
			log.Debugw("nonce", "addr", addr, "prev", prev, "new", new)
		},
		OnCodeChange: func(addr common.Address, prev, new []byte) {
			log.Debugw("code", "addr", addr, "prevLen", len(prev), "newLen", len(new))
		},
		OnStorageChange: func(addr common.Address, key, prev, new common.Hash) {
			log.Debugw("storage", "addr", addr, "key", key, "prev", prev, "new", new)
		},
		OnDelete: func(addr common.Address) {
			log.Debugw("delete", "addr", addr)
		},
		OnLog: func(l *types.Log) {
			log.Debugw("log", "addr", l.Address, "topics", len(l.Topics), "dataLen", len(l.Data))
		},
		OnPush: func(id SubstateID) {
			log.Debugw("push", "substate", id)
		},
		OnPop: func(id SubstateID, strategy Strategy) {
			log.Debugw("pop", "substate", id, "strategy", strategy.String())
		},
	}
}
