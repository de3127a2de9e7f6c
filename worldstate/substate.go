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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// accessKey is an address, or a slot if key is not nil.
type accessKey struct {
	addr common.Address
	key  *common.Hash
}

// substate is a frame of the substate stack.
type substate struct {
	// Revert functions in the order the mutations happened
	journal []func()

	// Addresses and slots warmed inside this frame, kept apart from the journal
	warmed []accessKey
}

func newSubstate() *substate {
	return &substate{
		journal: make([]func(), 0),
		warmed:  make([]accessKey, 0),
	}
}

// recordWarm records a cold to warm transition.
func (f *substate) recordWarm(addr common.Address, key *common.Hash) {
	var k *common.Hash
	if key != nil {
		kc := *key
		k = &kc
	}
	f.warmed = append(f.warmed, accessKey{addr: addr, key: k})
}

// mergeInto hands the mutations of this frame over to the parent frame.
func (f *substate) mergeInto(parent *substate) {
	parent.journal = append(parent.journal, f.journal...)
	parent.warmed = append(parent.warmed, f.warmed...)
}

// PushSubstate opens a new nested substate.
func (s *accountStoreImpl) PushSubstate() (SubstateID, error) {
	if s.fatal != nil {
		return 0, s.fatal
	}
	if len(s.frames) >= s.maxDepth {
		return 0, s.fail(fmt.Errorf("%w: %v", ErrDepthLimit, s.maxDepth))
	}
	s.frames = append(s.frames, newSubstate())
	id := SubstateID(len(s.frames))

	if s.hooks.OnPush != nil {
		s.hooks.OnPush(id)
	}
	return id, nil
}

// PopSubstate closes the substate with given id using given strategy.
func (s *accountStoreImpl) PopSubstate(id SubstateID, strategy Strategy) error {
	if s.fatal != nil {
		return s.fatal
	}
	if len(s.frames) == 0 {
		return s.fail(fmt.Errorf("%w: pop %v", ErrSubstateUnderflow, id))
	}
	if int(id) != len(s.frames) {
		return s.fail(fmt.Errorf("%w: pop %v while %v is innermost", ErrSubstateOrder, id, len(s.frames)))
	}
	top := s.frames[len(s.frames)-1]
	switch strategy {
	case Commit:
		s.frames = s.frames[:len(s.frames)-1]
		if len(s.frames) > 0 {
			top.mergeInto(s.frames[len(s.frames)-1])
		}
	case Revert, Discard:
		s.frames = s.frames[:len(s.frames)-1]
		for i := len(top.journal) - 1; i >= 0; i-- {
			top.journal[i]()
		}
		for i := len(top.warmed) - 1; i >= 0; i-- {
			s.markCold(top.warmed[i].addr, top.warmed[i].key)
		}
	default:
		return s.fail(fmt.Errorf("%w: %v", ErrUnknownStrategy, int(strategy)))
	}

	if s.hooks.OnPop != nil {
		s.hooks.OnPop(id, strategy)
	}
	return nil
}

// Depth returns the number of open substates.
func (s *accountStoreImpl) Depth() int {
	return len(s.frames)
}

// JournalRevert registers a function to be called if the current substate is reverted.
func (s *accountStoreImpl) JournalRevert(revert func()) {
	s.recordJournal(revert)
}
