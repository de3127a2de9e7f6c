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
	"strings"
)

// ErrMalformedScenario is returned when a scenario cannot be parsed.
var ErrMalformedScenario = errors.New("malformed scenario")

// Mismatch is a single field whose actual value differs from the expected one.
type Mismatch struct {
	// Field path, like post.0x0f57...6ec6.storage.0x01
	Field    string
	Expected string
	Actual   string
}

// String returns the string representation of the mismatch.
func (m Mismatch) String() string {
	return fmt.Sprintf("%v: expected %v, got %v", m.Field, m.Expected, m.Actual)
}

// AssertionMismatch is the error of a scenario whose outcome differs from the expectation.
type AssertionMismatch struct {
	Scenario   string
	Mismatches []Mismatch
}

// Error implements error.
func (e *AssertionMismatch) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.String())
	}
	return fmt.Sprintf("scenario %v has %v mismatch(es): %v", e.Scenario, len(e.Mismatches), strings.Join(parts, "; "))
}
