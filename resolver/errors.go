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

	"github.com/wcgcyx/ledgervm/worldstate"
)

var (
	ErrUnknownBlockNumber = fmt.Errorf("%w: unknown block number", worldstate.ErrFatal)
	ErrInterpreterFatal   = fmt.Errorf("%w: interpreter failure", worldstate.ErrFatal)
)
