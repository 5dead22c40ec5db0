// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"

	"golang.org/x/sync/errgroup"

	dErrors "entangledu/pkg/domain-errors"
)

// Outcomes counts how a burst of concurrent calls ended. Failures are keyed
// by domain code; foreign errors count as CodeInternal.
type Outcomes struct {
	Successes int
	ByCode    map[dErrors.Code]int
}

// Conflicts is the number of calls that failed with CodeConflict.
func (o Outcomes) Conflicts() int { return o.ByCode[dErrors.CodeConflict] }

// Failures is the number of calls that failed for any reason other than a
// conflict.
func (o Outcomes) Failures() int {
	n := 0
	for code, count := range o.ByCode {
		if code != dErrors.CodeConflict {
			n += count
		}
	}
	return n
}

func (o Outcomes) Total() int { return o.Successes + o.Conflicts() + o.Failures() }

// RunConcurrent starts n goroutines, releases them at once and tallies what
// fn returned in each.
func RunConcurrent(n int, fn func(idx int) error) Outcomes {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		out  = Outcomes{ByCode: make(map[dErrors.Code]int)}
		gate = make(chan struct{})
	)
	for i := range n {
		g.Go(func() error {
			<-gate
			err := fn(i)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				out.Successes++
			} else {
				out.ByCode[dErrors.CodeOf(err)]++
			}
			return nil
		})
	}
	close(gate)
	_ = g.Wait()
	return out
}
