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
	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log"
)

// Logger
var log = logging.Logger("resolver")

// StatusKind is the phase an interpreter run is in.
type StatusKind int

const (
	Running StatusKind = iota
	Succeeded
	Reverted
	Failed
	Fatal
)

// String returns the name of the status kind.
func (k StatusKind) String() string {
	switch k {
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Reverted:
		return "reverted"
	case Failed:
		return "failed"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// RunStatus is the status of an interpreter run.
type RunStatus struct {
	Kind StatusKind

	// Cause of a Reverted, Failed or Fatal run
	Err error
}

// Done returns if the run has terminated.
func (s RunStatus) Done() bool {
	return s.Kind != Running
}

// Success returns if the run has terminated successfully.
func (s RunStatus) Success() bool {
	return s.Kind == Succeeded
}

// String returns the text form of the status.
func (s RunStatus) String() string {
	if s.Err == nil {
		return s.Kind.String()
	}
	return fmt.Sprintf("%v: %v", s.Kind, s.Err)
}

// Requirement is a piece of state the interpreter needs before it can continue.
type Requirement interface {
	requirement()

	String() string
}

// NeedAccount requests the nonce, balance and code of an account.
type NeedAccount struct {
	Address common.Address
}

// NeedAccountCode requests the code of an account.
type NeedAccountCode struct {
	Address common.Address
}

// NeedAccountStorage requests a storage slot of an account.
type NeedAccountStorage struct {
	Address common.Address
	Key     common.Hash
}

// NeedBlockHash requests the hash of a historical block.
type NeedBlockHash struct {
	Number *uint256.Int
}

func (NeedAccount) requirement()        {}
func (NeedAccountCode) requirement()    {}
func (NeedAccountStorage) requirement() {}
func (NeedBlockHash) requirement()      {}

func (r NeedAccount) String() string {
	return "account " + r.Address.Hex()
}

func (r NeedAccountCode) String() string {
	return "code " + r.Address.Hex()
}

func (r NeedAccountStorage) String() string {
	return "storage " + r.Address.Hex() + " " + r.Key.Hex()
}

func (r NeedBlockHash) String() string {
	return "blockhash " + r.Number.Dec()
}

// AccountCommitment is the answer to an account related requirement.
type AccountCommitment interface {
	commitment()

	Addr() common.Address
}

// FullCommitment answers NeedAccount for an existing account.
type FullCommitment struct {
	Address common.Address
	Nonce   *uint256.Int
	Balance *uint256.Int
	Code    []byte
}

// CodeCommitment answers NeedAccountCode.
type CodeCommitment struct {
	Address common.Address
	Code    []byte
}

// StorageCommitment answers NeedAccountStorage.
type StorageCommitment struct {
	Address common.Address
	Key     common.Hash
	Value   common.Hash
}

// NonexistCommitment answers NeedAccount for an absent account.
type NonexistCommitment struct {
	Address common.Address
}

func (FullCommitment) commitment()     {}
func (CodeCommitment) commitment()     {}
func (StorageCommitment) commitment()  {}
func (NonexistCommitment) commitment() {}

func (c FullCommitment) Addr() common.Address     { return c.Address }
func (c CodeCommitment) Addr() common.Address     { return c.Address }
func (c StorageCommitment) Addr() common.Address  { return c.Address }
func (c NonexistCommitment) Addr() common.Address { return c.Address }

// AccountChange is an entry of the final change set of a run.
type AccountChange interface {
	change()

	Addr() common.Address
}

// FullChange is the complete new state of an account that existed before the run.
type FullChange struct {
	Address common.Address
	Nonce   *uint256.Int
	Balance *uint256.Int
	Code    []byte

	// Changed slots only
	Storage map[common.Hash]common.Hash

	// Flag indicating if storage is wiped before applying the changed slots
	ResetStorage bool
}

// CreateChange is the state of an account created during the run.
type CreateChange struct {
	Address common.Address
	Nonce   *uint256.Int
	Balance *uint256.Int
	Code    []byte
	Storage map[common.Hash]common.Hash
}

// NonexistChange is an account that no longer exists after the run.
type NonexistChange struct {
	Address common.Address
}

// IncreaseBalanceChange is a plain credit to an account.
type IncreaseBalanceChange struct {
	Address common.Address
	Amount  *uint256.Int
}

func (FullChange) change()            {}
func (CreateChange) change()          {}
func (NonexistChange) change()        {}
func (IncreaseBalanceChange) change() {}

func (c FullChange) Addr() common.Address            { return c.Address }
func (c CreateChange) Addr() common.Address          { return c.Address }
func (c NonexistChange) Addr() common.Address        { return c.Address }
func (c IncreaseBalanceChange) Addr() common.Address { return c.Address }
