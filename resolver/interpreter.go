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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

//go:generate mockgen -source interpreter.go -destination mock_interpreter.go -package resolver

// Interpreter is a bytecode interpreter driven by pulling.
// It never performs I/O itself; it reports what it needs and waits to be fed.
type Interpreter interface {
	// Status gets the current status of the run.
	Status() RunStatus

	// Step advances the run until it either needs a piece of state or terminates.
	// It returns the requirement, or done set to true on termination.
	Step() (req Requirement, done bool)

	// Out gets the output of a terminated run.
	Out() []byte

	// AvailableGas gets the gas left.
	AvailableGas() *uint256.Int

	// CommitAccount feeds an account related requirement.
	CommitAccount(commitment AccountCommitment) error

	// CommitBlockhash feeds a block hash requirement.
	CommitBlockhash(number *uint256.Int, hash common.Hash) error

	// Accounts gets the final account change set of a terminated run.
	Accounts() []AccountChange

	// Logs gets the logs emitted by a terminated run.
	Logs() []*types.Log
}
