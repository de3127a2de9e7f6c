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
	"sync"

	"github.com/ethereum/go-ethereum/core/vm"
	itypes "github.com/wcgcyx/ledgervm/types"
)

// History is an ordered, append-only record of the execution contexts entered in a run.
// It is safe for concurrent use.
type History struct {
	lock   sync.Mutex
	frames []itypes.CallFrame
}

// NewHistory creates a new empty history.
func NewHistory() *History {
	return &History{
		lock:   sync.Mutex{},
		frames: make([]itypes.CallFrame, 0),
	}
}

// Append records an entered execution context.
func (h *History) Append(frame itypes.CallFrame) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.frames = append(h.frames, frame)
}

// Frames gets a copy of all the recorded contexts.
func (h *History) Frames() []itypes.CallFrame {
	h.lock.Lock()
	defer h.lock.Unlock()
	res := make([]itypes.CallFrame, len(h.frames))
	copy(res, h.frames)
	return res
}

// Calls gets the nested calls and creations, in the order they were entered.
func (h *History) Calls() []itypes.CallFrame {
	h.lock.Lock()
	defer h.lock.Unlock()
	res := make([]itypes.CallFrame, 0)
	for _, frame := range h.frames {
		// Self-destructs are reported as frames too.
		if frame.Depth == 0 || frame.Type == byte(vm.SELFDESTRUCT) {
			continue
		}
		res = append(res, frame)
	}
	return res
}
