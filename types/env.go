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

// Env is the block environment a transaction executes in.
type Env struct {
	Coinbase   common.Address
	Difficulty *uint256.Int
	GasLimit   *uint256.Int
	Number     *uint256.Int
	Timestamp  *uint256.Int
}

// Exec is the message being executed.
type Exec struct {
	// The called address
	Address common.Address

	// The direct caller
	Caller common.Address

	// Code to run at the called address, the account code if empty
	Code []byte

	Data     []byte
	Gas      *uint256.Int
	GasPrice *uint256.Int
	Origin   common.Address
	Value    *uint256.Int
}

// CallFrame is an execution context entered during a run.
type CallFrame struct {
	// 0 for the outermost frame
	Depth int

	// The opcode that opened the frame, e.g. CALL or CREATE
	Type byte

	From  common.Address
	To    common.Address
	Input []byte
	Gas   uint64
	Value *uint256.Int
}
