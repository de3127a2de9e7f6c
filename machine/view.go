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
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/stateless"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/trie/utils"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

var _ vm.StateDB = (*view)(nil)

// ripemd stays touched even if the touching frame is reverted, as on mainnet.
var ripemd = common.BytesToAddress([]byte{3})

// baseAccount is an account as it was when resolved.
type baseAccount struct {
	exists  bool
	balance *uint256.Int
	nonce   *uint256.Int
	code    []byte

	// Resolved slots
	slots map[common.Hash]common.Hash
}

// snapshotFrame is a snapshot taken at given call depth.
type snapshotFrame struct {
	depth int
	id    worldstate.SubstateID
}

// view implements vm.StateDB over a local account store that is filled on demand.
type view struct {
	m     *Machine
	store worldstate.AccountStore

	// Resolved state
	base        map[common.Address]*baseAccount
	blockHashes map[uint64]common.Hash

	// Rules of the run, set by Prepare
	rules params.Rules

	// Current call depth and open snapshots
	depth  int
	frames []snapshotFrame

	// Transaction scoped state, journaled through the store
	refund       uint64
	transient    map[common.Address]map[common.Hash]common.Hash
	newContracts map[common.Address]bool
	destructed   map[common.Address]bool
	touched      map[common.Address]bool
}

func newView(m *Machine, store worldstate.AccountStore) *view {
	return &view{
		m:            m,
		store:        store,
		base:         make(map[common.Address]*baseAccount),
		blockHashes:  make(map[uint64]common.Hash),
		frames:       make([]snapshotFrame, 0),
		transient:    make(map[common.Address]map[common.Hash]common.Hash),
		newContracts: make(map[common.Address]bool),
		destructed:   make(map[common.Address]bool),
		touched:      make(map[common.Address]bool),
	}
}

// fail aborts the execution.
func (v *view) fail(err error) {
	panic(fatalError{err})
}

// loadAccount installs a resolved account.
func (v *view) loadAccount(addr common.Address, exists bool, balance *uint256.Int, nonce *uint256.Int, code []byte) {
	b := &baseAccount{
		exists:  exists,
		balance: uint256.NewInt(0),
		nonce:   uint256.NewInt(0),
		code:    []byte{},
		slots:   make(map[common.Hash]common.Hash),
	}
	if exists {
		b.balance.Set(balance)
		b.nonce.Set(nonce)
		b.code = common.CopyBytes(code)
		v.store.Preload(addr, balance, nonce, code)
	}
	v.base[addr] = b
}

// loadCode replaces the code of a resolved account, it returns false if the account is not known to exist.
func (v *view) loadCode(addr common.Address, code []byte) bool {
	b, ok := v.base[addr]
	if !ok || !b.exists {
		return false
	}
	b.code = common.CopyBytes(code)
	v.store.PreloadCode(addr, code)
	return true
}

// loadSlot installs a resolved storage slot.
func (v *view) loadSlot(addr common.Address, key common.Hash, val common.Hash) {
	v.base[addr].slots[key] = val
	v.store.PreloadStorage(addr, key, val)
}

// ensureAccount makes sure the account of given address is resolved.
func (v *view) ensureAccount(addr common.Address) *baseAccount {
	b, ok := v.base[addr]
	if ok {
		return b
	}
	v.m.suspend(resolver.NeedAccount{Address: addr})
	b, ok = v.base[addr]
	if !ok {
		v.fail(fmt.Errorf("account %v not resolved after commitment", addr))
	}
	return b
}

// ensureSlot makes sure the storage slot of given address is resolved.
func (v *view) ensureSlot(addr common.Address, key common.Hash) {
	b := v.ensureAccount(addr)
	if !b.exists {
		// Storage of an account that did not exist is empty.
		return
	}
	if _, ok := b.slots[key]; ok {
		return
	}
	v.m.suspend(resolver.NeedAccountStorage{Address: addr, Key: key})
	if _, ok := b.slots[key]; !ok {
		v.fail(fmt.Errorf("slot %v of %v not resolved after commitment", key, addr))
	}
}

// shell makes sure the account of given address has a shell.
func (v *view) shell(addr common.Address) {
	v.ensureAccount(addr)
	if !v.store.Exists(addr) {
		if err := v.store.Deposit(addr, uint256.NewInt(0)); err != nil {
			v.fail(err)
		}
	}
}

// touch records a modified account, which is cleared at the end of the run if left empty under EIP-158.
func (v *view) touch(addr common.Address) {
	if v.touched[addr] {
		return
	}
	v.touched[addr] = true
	if addr == ripemd {
		return
	}
	v.store.JournalRevert(func() { delete(v.touched, addr) })
}

// overrideCode replaces the code of given address for this run only.
func (v *view) overrideCode(addr common.Address, code []byte) {
	b := v.ensureAccount(addr)
	if !b.exists {
		b.exists = true
		v.store.Preload(addr, b.balance, b.nonce, code)
	} else {
		v.store.PreloadCode(addr, code)
	}
	b.code = common.CopyBytes(code)
}

// getHash serves the BLOCKHASH opcode.
func (v *view) getHash(n uint64) common.Hash {
	hash, ok := v.blockHashes[n]
	if ok {
		return hash
	}
	v.m.suspend(resolver.NeedBlockHash{Number: uint256.NewInt(n)})
	hash, ok = v.blockHashes[n]
	if !ok {
		v.fail(fmt.Errorf("block hash %v not resolved after commitment", n))
	}
	return hash
}

// onEnter tracks the call depth and reports the entered frame.
func (v *view) onEnter(depth int, typ byte, from common.Address, to common.Address, input []byte, gas uint64, value *big.Int) {
	v.depth = depth
	if v.m.opts.OnEnter == nil {
		return
	}
	val := uint256.NewInt(0)
	if value != nil {
		val = uint256.MustFromBig(value)
	}
	v.m.opts.OnEnter(itypes.CallFrame{
		Depth: depth,
		Type:  typ,
		From:  from,
		To:    to,
		Input: common.CopyBytes(input),
		Gas:   gas,
		Value: val,
	})
}

// onExit commits the snapshot taken in the exited frame, unless it has been reverted.
func (v *view) onExit(depth int, output []byte, gasUsed uint64, err error, reverted bool) {
	if len(v.frames) > 0 {
		top := v.frames[len(v.frames)-1]
		if top.depth == depth {
			v.frames = v.frames[:len(v.frames)-1]
			if err := v.store.PopSubstate(top.id, worldstate.Commit); err != nil {
				v.fail(err)
			}
		}
	}
	v.depth = depth - 1
}

// finalise closes the leftover snapshots and deletes self-destructed accounts,
// and under EIP-158 the touched accounts that are left empty.
func (v *view) finalise() {
	for i := len(v.frames) - 1; i >= 0; i-- {
		if err := v.store.PopSubstate(v.frames[i].id, worldstate.Commit); err != nil {
			v.fail(err)
		}
	}
	v.frames = v.frames[:0]
	addrs := make([]common.Address, 0, len(v.destructed))
	for addr := range v.destructed {
		addrs = append(addrs, addr)
	}
	if v.rules.IsEIP158 {
		for addr := range v.touched {
			if !v.destructed[addr] && v.store.Exists(addr) && v.isEmpty(addr) {
				addrs = append(addrs, addr)
			}
		}
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Cmp(addrs[j]) < 0
	})
	for _, addr := range addrs {
		if err := v.store.MarkDelete(addr); err != nil {
			v.fail(err)
		}
	}
}

// Exist reports whether the given account address exists in the state.
// Notably this also returns true for self-destructed accounts.
func (v *view) Exist(addr common.Address) bool {
	v.ensureAccount(addr)
	return v.store.Exists(addr)
}

// Empty returns whether the state object is either non-existent
// or empty according to EIP161 (balance = nonce = code = 0).
func (v *view) Empty(addr common.Address) bool {
	v.ensureAccount(addr)
	return v.isEmpty(addr)
}

func (v *view) isEmpty(addr common.Address) bool {
	return v.store.Balance(addr).IsZero() && v.store.Nonce(addr).IsZero() && len(v.store.Code(addr)) == 0
}

// GetBalance retrieves the balance from the given address or 0 if object not found.
func (v *view) GetBalance(addr common.Address) *uint256.Int {
	v.ensureAccount(addr)
	return v.store.Balance(addr)
}

// GetNonce retrieves the nonce from the given address or 0 if object not found.
func (v *view) GetNonce(addr common.Address) uint64 {
	v.ensureAccount(addr)
	return v.store.Nonce(addr).Uint64()
}

// GetCodeHash gets the code hash of the given address.
func (v *view) GetCodeHash(addr common.Address) common.Hash {
	v.ensureAccount(addr)
	if !v.store.Exists(addr) {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(v.store.Code(addr))
}

// GetCode gets the code of the given address.
func (v *view) GetCode(addr common.Address) []byte {
	v.ensureAccount(addr)
	return v.store.Code(addr)
}

// GetCodeSize gets the size of the code of the given address.
func (v *view) GetCodeSize(addr common.Address) int {
	return len(v.GetCode(addr))
}

// GetStorageRoot returns a non-empty root if any resolved slot of given address is set.
// It is only used by the EIP-7610 collision check.
func (v *view) GetStorageRoot(addr common.Address) common.Hash {
	b := v.ensureAccount(addr)
	for key := range b.slots {
		if v.store.StorageAt(addr, key) != (common.Hash{}) {
			return common.HexToHash("1")
		}
	}
	return types.EmptyRootHash
}

// GetState retrieves the value associated with the specific key.
func (v *view) GetState(addr common.Address, key common.Hash) common.Hash {
	v.ensureSlot(addr, key)
	return v.store.StorageAt(addr, key)
}

// GetCommittedState retrieves the value associated with the specific key
// without any mutations caused in the current execution.
func (v *view) GetCommittedState(addr common.Address, key common.Hash) common.Hash {
	v.ensureSlot(addr, key)
	return v.store.OriginalStorage(addr, key)
}

// Prepare handles the preparatory steps for executing a state transition with.
// This method must be invoked before state transition.
func (v *view) Prepare(rules params.Rules, sender, coinbase common.Address, dest *common.Address, precompiles []common.Address, txAccesses types.AccessList) {
	if rules.IsEIP2929 && rules.IsEIP4762 {
		v.fail(fmt.Errorf("eip2929 and eip4762 are both activated"))
	}
	v.rules = rules
	v.store.BeginTransaction()
	if rules.IsEIP2929 {
		v.AddAddressToAccessList(sender)
		if dest != nil {
			v.AddAddressToAccessList(*dest)
		}
		for _, addr := range precompiles {
			v.AddAddressToAccessList(addr)
		}
		for _, el := range txAccesses {
			v.AddAddressToAccessList(el.Address)
			for _, key := range el.StorageKeys {
				v.AddSlotToAccessList(el.Address, key)
			}
		}
		if rules.IsShanghai {
			v.AddAddressToAccessList(coinbase)
		}
	}
	v.transient = make(map[common.Address]map[common.Hash]common.Hash)
}

// CreateAccount explicitly creates a new state object.
func (v *view) CreateAccount(addr common.Address) {
	v.shell(addr)
	v.touch(addr)
}

// CreateContract is used whenever a contract is created.
func (v *view) CreateContract(addr common.Address) {
	if v.newContracts[addr] {
		return
	}
	v.newContracts[addr] = true
	v.store.JournalRevert(func() { delete(v.newContracts, addr) })
	v.touch(addr)
}

// SubBalance subtracts amount from the account associated with addr.
func (v *view) SubBalance(addr common.Address, amt *uint256.Int, reason tracing.BalanceChangeReason) {
	v.ensureAccount(addr)
	if err := v.store.Withdraw(addr, amt); err != nil {
		v.fail(err)
	}
	if !amt.IsZero() {
		v.touch(addr)
	}
}

// AddBalance adds amount to the account associated with addr.
func (v *view) AddBalance(addr common.Address, amt *uint256.Int, reason tracing.BalanceChangeReason) {
	v.ensureAccount(addr)
	if err := v.store.Deposit(addr, amt); err != nil {
		v.fail(err)
	}
	v.touch(addr)
}

// SetNonce sets the nonce of the account associated with addr.
func (v *view) SetNonce(addr common.Address, nonce uint64) {
	v.shell(addr)
	if err := v.store.AdvanceNonce(addr, uint256.NewInt(nonce)); err != nil {
		v.fail(err)
	}
	v.touch(addr)
}

// SetCode sets the code of the account associated with addr.
func (v *view) SetCode(addr common.Address, code []byte) {
	v.shell(addr)
	if err := v.store.SetCode(addr, code); err != nil {
		v.fail(err)
	}
	v.touch(addr)
}

// SetState sets the value associated with the specific key.
func (v *view) SetState(addr common.Address, key common.Hash, val common.Hash) {
	v.ensureSlot(addr, key)
	v.shell(addr)
	if err := v.store.SetStorage(addr, key, val); err != nil {
		v.fail(err)
	}
	v.touch(addr)
}

// GetTransientState gets transient storage for a given account.
func (v *view) GetTransientState(addr common.Address, key common.Hash) common.Hash {
	return v.transient[addr][key]
}

// SetTransientState sets transient storage for a given account.
func (v *view) SetTransientState(addr common.Address, key common.Hash, val common.Hash) {
	slots, ok := v.transient[addr]
	if !ok {
		slots = make(map[common.Hash]common.Hash)
		v.transient[addr] = slots
		v.store.JournalRevert(func() { delete(v.transient, addr) })
	}
	original, ok := slots[key]
	slots[key] = val
	if ok {
		v.store.JournalRevert(func() { slots[key] = original })
		return
	}
	v.store.JournalRevert(func() { delete(slots, key) })
}

// GetRefund returns the current value of the refund counter.
func (v *view) GetRefund() uint64 {
	return v.refund
}

// AddRefund adds gas to the refund counter.
func (v *view) AddRefund(gas uint64) {
	original := v.refund
	v.refund += gas
	v.store.JournalRevert(func() { v.refund = original })
}

// SubRefund removes gas from the refund counter.
func (v *view) SubRefund(gas uint64) {
	if v.refund < gas {
		v.fail(fmt.Errorf("refund counter below zero: %v - %v", v.refund, gas))
	}
	original := v.refund
	v.refund -= gas
	v.store.JournalRevert(func() { v.refund = original })
}

// HasSelfDestructed checks if given account was marked as self-destructed.
func (v *view) HasSelfDestructed(addr common.Address) bool {
	return v.destructed[addr]
}

// SelfDestruct marks the given account as self-destructed and clears its balance.
// The account is deleted once execution finishes.
func (v *view) SelfDestruct(addr common.Address) {
	v.ensureAccount(addr)
	if err := v.store.ResetBalance(addr); err != nil {
		v.fail(err)
	}
	if v.destructed[addr] {
		return
	}
	v.destructed[addr] = true
	v.store.JournalRevert(func() { delete(v.destructed, addr) })
}

// Selfdestruct6780 self-destructs given account according to EIP-6780.
func (v *view) Selfdestruct6780(addr common.Address) {
	if v.newContracts[addr] {
		v.SelfDestruct(addr)
	}
}

// AddressInAccessList returns true if the given address is in the access list.
func (v *view) AddressInAccessList(addr common.Address) bool {
	return !v.store.IsCold(addr, nil)
}

// AddAddressToAccessList adds the given address to the access list.
func (v *view) AddAddressToAccessList(addr common.Address) {
	v.store.MarkHot(addr, nil)
}

// SlotInAccessList returns true if the given (address, slot)-tuple is in the access list.
func (v *view) SlotInAccessList(addr common.Address, slot common.Hash) (addressOk bool, slotOk bool) {
	return !v.store.IsCold(addr, nil), !v.store.IsCold(addr, &slot)
}

// AddSlotToAccessList adds the given (address, slot)-tuple to the access list.
func (v *view) AddSlotToAccessList(addr common.Address, slot common.Hash) {
	v.store.MarkHot(addr, nil)
	v.store.MarkHot(addr, &slot)
}

// PointCache returns the point cache used in computations.
func (v *view) PointCache() *utils.PointCache {
	// Only needed by EIP-4762.
	log.Panicf("Not implemented.")
	return nil
}

// AddLog adds a log to the log list.
func (v *view) AddLog(l *types.Log) {
	if err := v.store.AppendLog(l); err != nil {
		v.fail(err)
	}
}

// AddPreimage records a SHA3 preimage seen by the VM.
func (v *view) AddPreimage(key common.Hash, val []byte) {
	// Not supported.
}

// Witness retrieves the current state witness being collected.
func (v *view) Witness() *stateless.Witness {
	// Not supported.
	return nil
}

// Snapshot returns an identifier for the current revision of the state.
func (v *view) Snapshot() int {
	id, err := v.store.PushSubstate()
	if err != nil {
		v.fail(err)
	}
	v.frames = append(v.frames, snapshotFrame{depth: v.depth, id: id})
	return int(id)
}

// RevertToSnapshot reverts all state changes made since the given revision.
func (v *view) RevertToSnapshot(revid int) {
	for i := len(v.frames) - 1; i >= 0; i-- {
		if v.frames[i].id != worldstate.SubstateID(revid) {
			continue
		}
		// Inner snapshots are folded into the reverted one.
		for j := len(v.frames) - 1; j > i; j-- {
			if err := v.store.PopSubstate(v.frames[j].id, worldstate.Commit); err != nil {
				v.fail(err)
			}
		}
		if err := v.store.PopSubstate(v.frames[i].id, worldstate.Revert); err != nil {
			v.fail(err)
		}
		v.frames = v.frames[:i]
		return
	}
	v.fail(fmt.Errorf("cannot revert to snapshot %v", revid))
}
