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

// DefaultMaxDepth is the default substate depth limit, matching the interpreter call depth limit.
const DefaultMaxDepth = 1024

// Opts is the options for account store.
type Opts struct {
	// Max number of nested substates, DefaultMaxDepth if not positive
	MaxDepth int

	// Observability hooks, nil to disable
	Hooks *Hooks
}
