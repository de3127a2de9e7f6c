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
	"errors"
	"fmt"
	"io"
	"time"

	logging "github.com/ipfs/go-log"
	"github.com/wcgcyx/ledgervm/machine"
	"github.com/wcgcyx/ledgervm/resolver"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

var log = logging.Logger("oracle")

// InterpreterFactory constructs an interpreter for given environment and message.
// onEnter must be called for every execution context the interpreter enters.
type InterpreterFactory func(env itypes.Env, exec itypes.Exec, onEnter func(itypes.CallFrame)) (resolver.Interpreter, error)

// NewMachineFactory returns a factory of go-ethereum backed interpreters.
func NewMachineFactory(opts machine.Opts) InterpreterFactory {
	return func(env itypes.Env, exec itypes.Exec, onEnter func(itypes.CallFrame)) (resolver.Interpreter, error) {
		o := opts
		o.OnEnter = onEnter
		m, err := machine.New(env, exec, o)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

// Opts is the options for the oracle.
type Opts struct {
	// Block hash environment, canonical test table if nil
	Env resolver.Environment

	// Hooks of every scenario store, nil to disable
	Hooks *worldstate.Hooks

	// Metrics, nil to disable
	Metrics *Metrics
}

// Oracle replays scenarios and verifies their outcome.
type Oracle struct {
	factory InterpreterFactory
	opts    Opts
}

// Result is the outcome of a scenario.
type Result struct {
	Name   string
	Passed bool

	// Terminal status of the interpreter
	Status resolver.RunStatus

	// Every field that did not match
	Diffs []Mismatch

	// Not nil if the scenario did not pass
	Err error

	// Resolution counters
	Stats resolver.Stats

	// Calls entered by the run
	Calls []itypes.CallFrame

	// Post-state, nil if the run could not be trusted
	Store worldstate.AccountStore
}

// Kind gets the result category.
func (r *Result) Kind() string {
	var mismatch *AssertionMismatch
	switch {
	case r.Passed:
		return "passed"
	case errors.Is(r.Err, ErrMalformedScenario):
		return "malformed"
	case errors.As(r.Err, &mismatch):
		return "mismatch"
	default:
		return "fatal"
	}
}

// NewOracle creates a new oracle.
func NewOracle(factory InterpreterFactory, opts Opts) *Oracle {
	if opts.Env == nil {
		opts.Env = resolver.NewCanonicalEnvironment()
	}
	return &Oracle{
		factory: factory,
		opts:    opts,
	}
}

// Run runs the given scenario.
func (o *Oracle) Run(s *Scenario) *Result {
	start := time.Now()
	res := o.run(s)
	if res.Err != nil {
		log.Infof("Scenario %v failed: %v", s.Name, res.Err.Error())
	} else {
		log.Debugf("Scenario %v passed", s.Name)
	}
	o.opts.Metrics.observe(res, time.Since(start))
	return res
}

func (o *Oracle) run(s *Scenario) *Result {
	res := &Result{
		Name:  s.Name,
		Diffs: make([]Mismatch, 0),
	}
	if s.Err != nil {
		res.Err = s.Err
		return res
	}

	// Build pre-state.
	store, err := buildPre(s.Pre, o.opts.Hooks)
	if err != nil {
		res.Err = err
		return res
	}

	// Run the interpreter.
	history := NewHistory()
	interp, err := o.factory(s.Env, s.Exec, history.Append)
	if errors.Is(err, machine.ErrOutOfRange) {
		res.Err = fmt.Errorf("%w: %v", ErrMalformedScenario, err.Error())
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("fail to create interpreter: %w", err)
		return res
	}
	if closer, ok := interp.(io.Closer); ok {
		defer closer.Close()
	}
	loop := resolver.NewLoop(store, o.opts.Env)
	status, err := loop.Run(interp)
	res.Stats = loop.Stats()
	res.Calls = history.Calls()
	if err != nil {
		res.Status = resolver.RunStatus{Kind: resolver.Fatal, Err: err}
		res.Err = err
		return res
	}

	// Apply the changes.
	status, err = apply(store, interp, status)
	res.Status = status
	if err != nil {
		res.Err = err
		return res
	}
	res.Store = store

	// Compare.
	if s.Expect.Out == nil {
		if status.Success() {
			res.Diffs = append(res.Diffs, Mismatch{Field: "status", Expected: "failure", Actual: status.String()})
		}
	} else {
		res.Diffs = compare(s, store, interp, history)
	}
	if len(res.Diffs) > 0 {
		res.Err = &AssertionMismatch{Scenario: s.Name, Mismatches: res.Diffs}
		return res
	}
	res.Passed = true
	return res
}

// buildPre creates a fresh store holding the given accounts.
func buildPre(pre []Account, hooks *worldstate.Hooks) (worldstate.AccountStore, error) {
	store := worldstate.NewAccountStore(worldstate.Opts{Hooks: hooks})
	for _, acct := range pre {
		err := store.Deposit(acct.Address, acct.Balance)
		if err == nil {
			err = store.AdvanceNonce(acct.Address, acct.Nonce)
		}
		if err == nil {
			err = store.SetCode(acct.Address, acct.Code)
		}
		for _, key := range sortedKeys(acct.Storage) {
			if err != nil {
				break
			}
			err = store.SetStorage(acct.Address, key, acct.Storage[key])
		}
		if err != nil {
			return nil, fmt.Errorf("fail to build pre-state of %v: %w", acct.Address, err)
		}
	}
	store.BeginTransaction()
	return store, nil
}

// apply applies the change set of a terminated run inside a substate.
// The substate is reverted if the run did not succeed or the changes cannot be applied.
func apply(store worldstate.AccountStore, interp resolver.Interpreter, status resolver.RunStatus) (resolver.RunStatus, error) {
	id, err := store.PushSubstate()
	if err != nil {
		return status, err
	}
	strategy := worldstate.Commit
	if !status.Success() {
		strategy = worldstate.Revert
	}
	err = resolver.Apply(store, interp.Accounts(), interp.Logs())
	if err != nil {
		if worldstate.IsFatal(err) {
			return status, err
		}
		log.Debugf("Fail to apply changes, revert: %v", err.Error())
		status = resolver.RunStatus{Kind: resolver.Failed, Err: err}
		strategy = worldstate.Revert
	}
	err = store.PopSubstate(id, strategy)
	if err != nil {
		return status, err
	}
	err = store.FinalizeTransaction()
	if err != nil {
		return status, err
	}
	return status, nil
}
