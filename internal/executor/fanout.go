// internal/executor/fanout.go
package executor

import (
	"context"
	"sync"
)

// Outcome is the result of one display's part in a fan-out.
type Outcome struct {
	DisplayID uint8
	Err       error
}

// Each runs fn against every executor concurrently and waits for all of them.
// Outcomes are returned in the order of exs.
func Each(ctx context.Context, exs []*Executor, fn func(ctx context.Context, ex *Executor) error) []Outcome {
	out := make([]Outcome, len(exs))

	var wg sync.WaitGroup
	for i, ex := range exs {
		wg.Add(1)
		go func(i int, ex *Executor) {
			defer wg.Done()
			out[i] = Outcome{DisplayID: ex.Endpoint().ID, Err: fn(ctx, ex)}
		}(i, ex)
	}
	wg.Wait()

	return out
}

// Failed counts outcomes carrying an error.
func Failed(outs []Outcome) int {
	n := 0
	for _, o := range outs {
		if o.Err != nil {
			n++
		}
	}
	return n
}
