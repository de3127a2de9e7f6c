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
	"golang.org/x/sync/errgroup"
)

// Summary counts the results of a batch.
type Summary struct {
	Passed    int
	Mismatch  int
	Malformed int
	Fatal     int
}

// RunBatch runs independent scenarios with up to parallelism of them at a time.
// Results are in the order of the given scenarios. A failing scenario never stops the batch.
func (o *Oracle) RunBatch(scenarios []*Scenario, parallelism int) []*Result {
	if parallelism <= 0 {
		parallelism = 1
	}
	res := make([]*Result, len(scenarios))
	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, s := range scenarios {
		i, s := i, s
		g.Go(func() error {
			res[i] = o.Run(s)
			return nil
		})
	}
	g.Wait()
	return res
}

// Summarize counts the given results by kind.
func Summarize(results []*Result) Summary {
	var sum Summary
	for _, r := range results {
		switch r.Kind() {
		case "passed":
			sum.Passed++
		case "mismatch":
			sum.Mismatch++
		case "malformed":
			sum.Malformed++
		default:
			sum.Fatal++
		}
	}
	return sum
}
