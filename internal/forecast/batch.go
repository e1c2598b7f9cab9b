package forecast

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/cashflowcast/internal/calendar"
	"github.com/theirongolddev/cashflowcast/internal/model"
)

// ProjectForecast pairs a project with its forecast and summary.
type ProjectForecast struct {
	Project model.Project
	Result  Result
	Summary model.ForecastSummary
}

// ProgressFunc is called as projects finish. current is the number done so
// far, total the number requested.
type ProgressFunc func(current, total int)

// GenerateAll forecasts every project on a bounded worker pool. Output order
// matches input order. If ctx is canceled, unprocessed projects are skipped
// and ctx.Err() is returned alongside the partial results.
func GenerateAll(ctx context.Context, projects []model.Project, today calendar.Date, progressFn ProgressFunc) ([]ProjectForecast, error) {
	if len(projects) == 0 {
		return nil, nil
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(projects) {
		numWorkers = len(projects)
	}

	work := make(chan int, len(projects))
	for i := range projects {
		work <- i
	}
	close(work)

	results := make([]ProjectForecast, len(projects))
	var wg sync.WaitGroup
	var processed atomic.Int64

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					return
				}
				p := projects[idx]
				res := Generate(p, today)
				results[idx] = ProjectForecast{
					Project: p,
					Result:  res,
					Summary: Summarise(res.Rows, p.OpeningBalance),
				}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n), len(projects))
				}
			}
		}()
	}

	wg.Wait()
	return results, ctx.Err()
}
