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
)

// Stats counts the requirements resolved by a loop.
type Stats struct {
	Steps       int
	Accounts    int
	Codes       int
	Storages    int
	BlockHashes int
}

// Loop drives an interpreter to termination, answering every requirement
// it reports from the backend.
type Loop struct {
	backend Backend
	env     Environment

	stats Stats
}

// NewLoop creates a new loop.
func NewLoop(backend Backend, env Environment) *Loop {
	if env == nil {
		env = NewCanonicalEnvironment()
	}
	return &Loop{
		backend: backend,
		env:     env,
	}
}

// Stats gets the resolution counters accumulated so far.
func (l *Loop) Stats() Stats {
	return l.stats
}

// Run steps the interpreter until it terminates.
// A returned error is always fatal, the run status is then Fatal.
func (l *Loop) Run(interp Interpreter) (RunStatus, error) {
	var last Requirement
	for {
		req, done := interp.Step()
		l.stats.Steps++
		if done {
			status := interp.Status()
			if status.Kind == Fatal {
				err := fmt.Errorf("%w: %v", ErrInterpreterFatal, status.Err)
				return status, err
			}
			log.Debugf("Run terminated with %v after %v steps", status, l.stats.Steps)
			return status, nil
		}
		if req == nil {
			return l.abort(fmt.Errorf("%w: no requirement reported while running", ErrInterpreterFatal))
		}
		if last != nil && last.String() == req.String() {
			// The interpreter did not take the answer.
			return l.abort(fmt.Errorf("%w: requirement %v repeated", ErrInterpreterFatal, req))
		}
		log.Debugf("Resolve %v", req)
		err := l.resolve(interp, req)
		if err != nil {
			return l.abort(err)
		}
		last = req
	}
}

func (l *Loop) abort(err error) (RunStatus, error) {
	log.Errorf("Abort run: %v", err.Error())
	return RunStatus{Kind: Fatal, Err: err}, err
}

// resolve answers a single requirement.
func (l *Loop) resolve(interp Interpreter, req Requirement) error {
	var err error
	switch r := req.(type) {
	case NeedAccount:
		l.stats.Accounts++
		err = interp.CommitAccount(l.account(r.Address))
		l.backend.MarkHot(r.Address, nil)
	case NeedAccountCode:
		l.stats.Codes++
		err = interp.CommitAccount(CodeCommitment{
			Address: r.Address,
			Code:    l.backend.Code(r.Address),
		})
	case NeedAccountStorage:
		l.stats.Storages++
		err = interp.CommitAccount(StorageCommitment{
			Address: r.Address,
			Key:     r.Key,
			Value:   l.backend.StorageAt(r.Address, r.Key),
		})
		key := r.Key
		l.backend.MarkHot(r.Address, &key)
	case NeedBlockHash:
		l.stats.BlockHashes++
		hash, err := l.env.BlockHash(r.Number)
		if err != nil {
			return err
		}
		err = interp.CommitBlockhash(r.Number, hash)
		if err != nil {
			return fmt.Errorf("%w: commit %v: %v", ErrInterpreterFatal, req, err.Error())
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported requirement %T", ErrInterpreterFatal, req)
	}
	if err != nil {
		return fmt.Errorf("%w: commit %v: %v", ErrInterpreterFatal, req, err.Error())
	}
	return nil
}

// account gets the commitment answering NeedAccount.
func (l *Loop) account(addr common.Address) AccountCommitment {
	if !l.backend.Exists(addr) || l.backend.IsDeleted(addr) {
		return NonexistCommitment{Address: addr}
	}
	return FullCommitment{
		Address: addr,
		Nonce:   l.backend.Nonce(addr),
		Balance: l.backend.Balance(addr),
		Code:    l.backend.Code(addr),
	}
}
