package oracle

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
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// compare checks the outcome of a run against the expectation of the scenario.
func compare(s *Scenario, store worldstate.AccountStore, interp resolver.Interpreter, history *History) []Mismatch {
	d := &differ{res: make([]Mismatch, 0)}
	d.bytes("out", s.Expect.Out, interp.Out())
	if s.Expect.Gas != nil {
		d.number("gas", s.Expect.Gas, interp.AvailableGas())
	}
	if s.Expect.Post != nil {
		d.post(s.Expect.Post, store)
	}
	if s.Expect.CallCreates != nil {
		d.calls(s.Expect.CallCreates, history)
	}
	if s.Expect.LogsHash != nil {
		actual := LogsHash(store.Logs())
		if actual != *s.Expect.LogsHash {
			d.add("logs", s.Expect.LogsHash.Hex(), actual.Hex())
		}
	}
	return d.res
}

// differ accumulates mismatches.
type differ struct {
	res []Mismatch
}

func (d *differ) add(field string, expected string, actual string) {
	d.res = append(d.res, Mismatch{Field: field, Expected: expected, Actual: actual})
}

func (d *differ) bytes(field string, expected []byte, actual []byte) {
	if !bytes.Equal(expected, actual) {
		d.add(field, hexutil.Encode(expected), hexutil.Encode(actual))
	}
}

func (d *differ) number(field string, expected *uint256.Int, actual *uint256.Int) {
	if !expected.Eq(actual) {
		d.add(field, expected.Dec(), actual.Dec())
	}
}

func (d *differ) post(post []Account, store worldstate.AccountStore) {
	expected := make(map[common.Address]bool)
	for _, acct := range post {
		expected[acct.Address] = true
		field := "post." + acct.Address.Hex()
		if !store.Exists(acct.Address) {
			d.add(field, "exists", "absent")
			continue
		}
		d.number(field+".balance", acct.Balance, store.Balance(acct.Address))
		d.number(field+".nonce", acct.Nonce, store.Nonce(acct.Address))
		d.bytes(field+".code", acct.Code, store.Code(acct.Address))
		for _, key := range sortedKeys(acct.Storage) {
			actual := store.StorageAt(acct.Address, key)
			if actual != acct.Storage[key] {
				d.add(field+".storage."+key.Hex(), acct.Storage[key].Hex(), actual.Hex())
			}
		}
		// Slots set but not expected.
		for _, slot := range storageOf(store, acct.Address) {
			if _, ok := acct.Storage[slot.Key]; !ok {
				d.add(field+".storage."+slot.Key.Hex(), common.Hash{}.Hex(), slot.Value.Hex())
			}
		}
	}
	for _, addr := range store.Addresses() {
		if !expected[addr] && store.Exists(addr) {
			d.add("post."+addr.Hex(), "absent", "exists")
		}
	}
}

func (d *differ) calls(expected []CallCreate, history *History) {
	actual := history.Calls()
	if len(expected) != len(actual) {
		d.add("callcreates.length", fmt.Sprint(len(expected)), fmt.Sprint(len(actual)))
	}
	for i := 0; i < len(expected) && i < len(actual); i++ {
		field := fmt.Sprintf("callcreates[%v]", i)
		exp, act := expected[i], actual[i]
		if exp.Destination != nil && *exp.Destination != act.To {
			d.add(field+".destination", exp.Destination.Hex(), act.To.Hex())
		}
		d.number(field+".gasLimit", exp.GasLimit, uint256.NewInt(act.Gas))
		d.number(field+".value", exp.Value, act.Value)
		d.bytes(field+".data", exp.Data, act.Input)
	}
}

func storageOf(store worldstate.AccountStore, addr common.Address) []itypes.StorageSlot {
	for _, acct := range store.Dump().Accounts {
		if acct.Address == addr {
			return acct.Storage
		}
	}
	return nil
}

func sortedKeys(storage map[common.Hash]common.Hash) []common.Hash {
	keys := make([]common.Hash, 0, len(storage))
	for k := range storage {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].Cmp(keys[j]) < 0
	})
	return keys
}
