// internal/health/all.go
package health

import (
	"context"
	"sync"

	"github.com/tamzrod/mdc-controller/internal/executor"
)

// CheckHealthAll checks every display concurrently, one goroutine per display.
// Completion order is not defined; the result is keyed by display id.
func CheckHealthAll(ctx context.Context, executors []*executor.Executor) map[uint8]Report {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[uint8]Report, len(executors))
	)

	for _, ex := range executors {
		wg.Add(1)
		go func(ex *executor.Executor) {
			defer wg.Done()
			rep := CheckHealth(ctx, ex)

			mu.Lock()
			out[rep.DisplayID] = rep
			mu.Unlock()
		}(ex)
	}

	wg.Wait()
	return out
}

// Summary counts reports per overall classification.
type Summary struct {
	Total    int `json:"total"`
	Healthy  int `json:"healthy"`
	Warning  int `json:"warning"`
	Critical int `json:"critical"`
	Error    int `json:"error"`
}

// Summarize tallies reports.
func Summarize(reports map[uint8]Report) Summary {
	s := Summary{Total: len(reports)}
	for _, r := range reports {
		switch r.Overall {
		case Healthy:
			s.Healthy++
		case Warning:
			s.Warning++
		case Critical:
			s.Critical++
		case Errored:
			s.Error++
		}
	}
	return s
}
