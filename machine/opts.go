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
	"github.com/ethereum/go-ethereum/params"
	itypes "github.com/wcgcyx/ledgervm/types"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// Opts is the options for machine.
type Opts struct {
	// Chain rules to execute under, mainnet if nil
	ChainConfig *params.ChainConfig

	// Max call depth, params.CallCreateDepth if not positive
	CallDepthLimit int

	// Called for every execution context entered, can be nil
	OnEnter func(frame itypes.CallFrame)

	// Hooks of the local state, can be nil
	Hooks *worldstate.Hooks
}
