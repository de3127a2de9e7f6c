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
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"
	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// Logger
var log = logging.Logger("machine")

var (
	ErrAborted          = errors.New("machine aborted")
	ErrUnexpectedCommit = errors.New("commitment does not answer the pending requirement")
	ErrOutOfRange       = errors.New("value exceeds 64 bits")
)

// fatalError carries an unrecoverable error out of the execution goroutine.
type fatalError struct {
	err error
}

// Machine runs a go-ethereum EVM as a pull based interpreter.
// Execution happens on its own goroutine, which is parked whenever a piece of
// state is missing until the state is committed.
type Machine struct {
	env  itypes.Env
	exec itypes.Exec
	opts Opts

	view *view

	// Synchronisation with the execution goroutine
	reqs      chan resolver.Requirement
	resume    chan struct{}
	done      chan struct{}
	abort     chan struct{}
	closeLock sync.Mutex
	started   bool
	aborted   bool

	// Requirement reported by the last Step
	pending   resolver.Requirement
	committed bool

	// Result of the run, written by the execution goroutine before done is closed
	status  resolver.RunStatus
	out     []byte
	gasLeft uint64
}

// New creates a new machine for given environment and message.
func New(env itypes.Env, exec itypes.Exec, opts Opts) (*Machine, error) {
	if !exec.Gas.IsUint64() {
		return nil, fmt.Errorf("%w: gas %v", ErrOutOfRange, exec.Gas)
	}
	if !env.GasLimit.IsUint64() || !env.Number.IsUint64() || !env.Timestamp.IsUint64() {
		return nil, fmt.Errorf("%w: block gas limit %v, number %v, timestamp %v", ErrOutOfRange, env.GasLimit, env.Number, env.Timestamp)
	}
	if opts.ChainConfig == nil {
		opts.ChainConfig = params.MainnetChainConfig
	}
	if opts.CallDepthLimit <= 0 {
		opts.CallDepthLimit = int(params.CallCreateDepth)
	}
	m := &Machine{
		env:    env,
		exec:   exec,
		opts:   opts,
		reqs:   make(chan resolver.Requirement),
		resume: make(chan struct{}),
		done:   make(chan struct{}),
		abort:  make(chan struct{}),
		status: resolver.RunStatus{Kind: resolver.Running},
	}
	m.view = newView(m, worldstate.NewAccountStore(worldstate.Opts{
		// Snapshots are taken at every depth from 0 to the limit.
		MaxDepth: opts.CallDepthLimit + 1,
		Hooks:    opts.Hooks,
	}))
	return m, nil
}

// Status gets the current status of the run.
func (m *Machine) Status() resolver.RunStatus {
	return m.status
}

// Step advances the run until it either needs a piece of state or terminates.
func (m *Machine) Step() (resolver.Requirement, bool) {
	if m.status.Done() {
		return nil, true
	}
	if !m.started {
		m.started = true
		go m.run()
	} else if m.pending != nil {
		if !m.committed {
			// Not answered, ask again.
			return m.pending, false
		}
		m.pending = nil
		m.resume <- struct{}{}
	}
	select {
	case req := <-m.reqs:
		m.pending = req
		m.committed = false
		return req, false
	case <-m.done:
		return nil, true
	}
}

// CommitAccount feeds an account related requirement.
func (m *Machine) CommitAccount(commitment resolver.AccountCommitment) error {
	if m.pending == nil || m.committed {
		return fmt.Errorf("%w: nothing pending", ErrUnexpectedCommit)
	}
	switch req := m.pending.(type) {
	case resolver.NeedAccount:
		if commitment.Addr() != req.Address {
			break
		}
		switch c := commitment.(type) {
		case resolver.FullCommitment:
			if !c.Nonce.IsUint64() {
				return fmt.Errorf("%w: nonce %v of %v", ErrOutOfRange, c.Nonce, c.Address)
			}
			m.view.loadAccount(c.Address, true, c.Balance, c.Nonce, c.Code)
			m.committed = true
			return nil
		case resolver.NonexistCommitment:
			m.view.loadAccount(c.Address, false, nil, nil, nil)
			m.committed = true
			return nil
		}
	case resolver.NeedAccountCode:
		c, ok := commitment.(resolver.CodeCommitment)
		if ok && c.Address == req.Address && m.view.loadCode(c.Address, c.Code) {
			m.committed = true
			return nil
		}
	case resolver.NeedAccountStorage:
		c, ok := commitment.(resolver.StorageCommitment)
		if ok && c.Address == req.Address && c.Key == req.Key {
			m.view.loadSlot(c.Address, c.Key, c.Value)
			m.committed = true
			return nil
		}
	}
	return fmt.Errorf("%w: %v for %v", ErrUnexpectedCommit, commitment.Addr(), m.pending)
}

// CommitBlockhash feeds a block hash requirement.
func (m *Machine) CommitBlockhash(number *uint256.Int, hash common.Hash) error {
	req, ok := m.pending.(resolver.NeedBlockHash)
	if !ok || m.committed || !req.Number.Eq(number) {
		return fmt.Errorf("%w: block hash %v for %v", ErrUnexpectedCommit, number, m.pending)
	}
	m.view.blockHashes[number.Uint64()] = hash
	m.committed = true
	return nil
}

// Out gets the output of a terminated run.
func (m *Machine) Out() []byte {
	return common.CopyBytes(m.out)
}

// AvailableGas gets the gas left.
func (m *Machine) AvailableGas() *uint256.Int {
	return uint256.NewInt(m.gasLeft)
}

// Accounts gets the final account change set of a terminated run.
func (m *Machine) Accounts() []resolver.AccountChange {
	if !m.status.Done() {
		return nil
	}
	return m.view.changes()
}

// Logs gets the logs emitted by a terminated run.
func (m *Machine) Logs() []*types.Log {
	if !m.status.Done() {
		return nil
	}
	return m.view.store.Logs()
}

// Close aborts a suspended run and waits for the execution goroutine to exit.
func (m *Machine) Close() error {
	m.closeLock.Lock()
	defer m.closeLock.Unlock()
	if !m.started || m.aborted {
		return nil
	}
	m.aborted = true
	close(m.abort)
	<-m.done
	return nil
}

// suspend reports a requirement and parks the execution goroutine until it is answered.
func (m *Machine) suspend(req resolver.Requirement) {
	select {
	case m.reqs <- req:
	case <-m.abort:
		panic(fatalError{ErrAborted})
	}
	select {
	case <-m.resume:
	case <-m.abort:
		panic(fatalError{ErrAborted})
	}
}

// run executes the message, it is the body of the execution goroutine.
func (m *Machine) run() {
	defer close(m.done)
	defer func() {
		if r := recover(); r != nil {
			var err error
			if fe, ok := r.(fatalError); ok {
				err = fe.err
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
			log.Errorf("Execution of %v aborted: %v", m.exec.Address, err.Error())
			m.out = nil
			m.gasLeft = 0
			m.status = resolver.RunStatus{Kind: resolver.Fatal, Err: err}
		}
	}()

	v := m.view
	blockCtx := vm.BlockContext{
		CanTransfer: core.CanTransfer,
		Transfer:    core.Transfer,
		GetHash:     v.getHash,
		Coinbase:    m.env.Coinbase,
		GasLimit:    m.env.GasLimit.Uint64(),
		BlockNumber: m.env.Number.ToBig(),
		Time:        m.env.Timestamp.Uint64(),
		Difficulty:  m.env.Difficulty.ToBig(),
		BaseFee:     big.NewInt(0),
		BlobBaseFee: big.NewInt(0),
	}
	txCtx := vm.TxContext{
		Origin:   m.exec.Origin,
		GasPrice: m.exec.GasPrice.ToBig(),
	}
	evm := vm.NewEVM(blockCtx, txCtx, v, m.opts.ChainConfig, vm.Config{
		Tracer: &tracing.Hooks{
			OnEnter: v.onEnter,
			OnExit:  v.onExit,
		},
	})

	if len(m.exec.Code) > 0 {
		v.overrideCode(m.exec.Address, m.exec.Code)
	}
	rules := m.opts.ChainConfig.Rules(blockCtx.BlockNumber, blockCtx.Random != nil, blockCtx.Time)
	dest := m.exec.Address
	v.Prepare(rules, m.exec.Caller, m.env.Coinbase, &dest, vm.ActivePrecompiles(rules), nil)

	ret, gasLeft, err := evm.Call(vm.AccountRef(m.exec.Caller), m.exec.Address, m.exec.Data, m.exec.Gas.Uint64(), m.exec.Value)
	v.finalise()

	m.out = ret
	m.gasLeft = gasLeft
	switch {
	case err == nil:
		m.status = resolver.RunStatus{Kind: resolver.Succeeded}
	case errors.Is(err, vm.ErrExecutionReverted):
		m.status = resolver.RunStatus{Kind: resolver.Reverted, Err: err}
	case errors.Is(err, vm.ErrInsufficientBalance):
		m.status = resolver.RunStatus{Kind: resolver.Failed, Err: fmt.Errorf("%w: %v", worldstate.ErrInsufficientFunds, err.Error())}
	default:
		m.status = resolver.RunStatus{Kind: resolver.Failed, Err: err}
	}
	log.Debugf("Execution of %v finished with %v, gas left %v", m.exec.Address, m.status, gasLeft)
}
