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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// LogsHash gets the canonical digest of an ordered log list, the keccak256 of
// the rlp encoding of [address, topics, data] of every log.
func LogsHash(logs []*types.Log) common.Hash {
	if logs == nil {
		logs = []*types.Log{}
	}
	enc, err := rlp.EncodeToBytes(logs)
	if err != nil {
		log.Panicf("Fail to encode logs: %v", err.Error())
	}
	return crypto.Keccak256Hash(enc)
}
