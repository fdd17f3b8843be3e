package screening

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

// BatchResult is the outcome for one input name of a batch screening run.
// Unlike single search there is no result limit: compliance review needs
// every surviving category-reduced match.
type BatchResult struct {
	InputName string             `json:"input_name"`
	Status    models.MatchStatus `json:"status"`
	Matches   []Match            `json:"matches,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// BatchSearch screens many names against the state captured at call start.
// Queries are processed in fixed-size chunks to bound the peak working set;
// chunks run data-parallel over the read-only snapshot. A failure scoring
// one name is isolated into an ERROR entry for that name. Cancellation is
// cooperative: it is honored between chunks, already scheduled chunks run to
// completion and keep their results, and every query past the cancellation
// point is marked ERROR.
func (e *Engine) BatchSearch(ctx context.Context, queries []string, kind EntityKind, threshold int) ([]BatchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = e.opts.DefaultThreshold
	}

	results := make([]BatchResult, len(queries))

	st := e.state.Load()
	if st == nil || st.snap == nil {
		for i, q := range queries {
			results[i] = BatchResult{InputName: q, Status: models.MatchStatusNoMatch}
		}
		return results, nil
	}

	g := new(errgroup.Group)
	g.SetLimit(e.opts.BatchWorkers)

	chunk := e.opts.BatchChunkSize
	cancelled := error(nil)
	scheduled := len(queries) // first index not covered by a scheduled chunk
	for start := 0; start < len(queries); start += chunk {
		if err := ctx.Err(); err != nil {
			cancelled = err
			scheduled = start
			break
		}
		start := start
		end := min(start+chunk, len(queries))
		g.Go(func() error {
			for i := start; i < end; i++ {
				results[i] = e.screenOne(queries[i], kind, float64(threshold), st)
			}
			return nil
		})
	}
	_ = g.Wait()

	if cancelled != nil {
		for i := scheduled; i < len(results); i++ {
			results[i] = BatchResult{
				InputName: queries[i],
				Status:    models.MatchStatusError,
				Error:     cancelled.Error(),
			}
		}
		return results, cancelled
	}
	return results, nil
}

// screenOne runs the single-query state machine without a result limit and
// converts panics from one bad input into an ERROR entry.
func (e *Engine) screenOne(query string, kind EntityKind, threshold float64, st *state) (res BatchResult) {
	res = BatchResult{InputName: query, Status: models.MatchStatusNoMatch}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("batch item failed",
				zap.String("input_name", query),
				zap.Any("panic", r))
			res = BatchResult{
				InputName: query,
				Status:    models.MatchStatusError,
				Error:     fmt.Sprintf("%v", r),
			}
		}
	}()

	qForms := prepareForms(query)
	if qForms.norm == "" {
		return res
	}

	if m, cleared := e.resolveDecision(qForms.norm, st); cleared {
		return res
	} else if m != nil {
		res.Status = models.MatchStatusTrueMatch
		res.Matches = []Match{*m}
		return res
	}

	matches := e.scan(qForms, st.snap, kind, threshold)
	if len(matches) == 0 {
		return res
	}
	res.Status = models.MatchStatusPending
	res.Matches = matches
	return res
}

// BatchTask is a handle on an asynchronously running batch screening job.
// Callers await the result directly instead of polling a persisted mailbox.
type BatchTask struct {
	ID string

	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
	results []BatchResult
	err     error
}

// SubmitBatch starts a batch screening run in the background and returns a
// handle to await or cancel it.
func (e *Engine) SubmitBatch(ctx context.Context, id string, queries []string, kind EntityKind, threshold int) *BatchTask {
	ctx, cancel := context.WithCancel(ctx)
	task := &BatchTask{
		ID:     id,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer cancel()
		results, err := e.BatchSearch(ctx, queries, kind, threshold)
		task.results = results
		task.err = err
		close(task.done)
	}()

	return task
}

// Await blocks until the task finishes or ctx expires.
func (t *BatchTask) Await(ctx context.Context) ([]BatchResult, error) {
	select {
	case <-t.done:
		return t.results, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests cooperative cancellation; the running job stops at the
// next chunk boundary.
func (t *BatchTask) Cancel() {
	t.once.Do(t.cancel)
}

// Done reports completion without blocking.
func (t *BatchTask) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}
