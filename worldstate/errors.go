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
	"errors"
	"fmt"
)

// ErrFatal is wrapped by every error after which no state of the run can be trusted.
var ErrFatal = errors.New("fatal")

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrNonceDecrease     = errors.New("nonce cannot decrease")
	ErrNonceOverflow     = errors.New("nonce overflow")
	ErrTooManyTopics     = errors.New("log has more than 4 topics")

	ErrAccountNotFound   = fmt.Errorf("%w: account not found", ErrFatal)
	ErrSubstateUnderflow = fmt.Errorf("%w: no open substate", ErrFatal)
	ErrSubstateOrder     = fmt.Errorf("%w: substate popped out of order", ErrFatal)
	ErrDepthLimit        = fmt.Errorf("%w: substate depth limit reached", ErrFatal)
	ErrOpenSubstates     = fmt.Errorf("%w: substates still open", ErrFatal)
	ErrUnknownStrategy   = fmt.Errorf("%w: unknown pop strategy", ErrFatal)
)

// IsFatal returns if given error is a fatal error.
func IsFatal(err error) bool {
	return errors.Is(err, ErrFatal)
}
