package classifier

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/xaenox/mailtime/internal/models"
)

// Result is the outcome for one message of a batch. Exactly one of Finding
// and Err is meaningful.
type Result struct {
	Finding models.Finding
	Err     error
}

// ExtractAll runs c over msgs with at most workers concurrent calls and
// returns results in input order. A failing message only affects its own
// slot. Messages not started before ctx is done get ctx's error.
func ExtractAll(ctx context.Context, c Classifier, msgs []*models.Message, workers int) []Result {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(msgs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}
		i, msg := i, msg
		g.Go(func() error {
			results[i] = extractOne(ctx, c, msg)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func extractOne(ctx context.Context, c Classifier, msg *models.Message) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("extract message %q: panic: %v", messageID(msg), r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}
	f, err := c.Extract(ctx, msg)
	if err != nil {
		return Result{Err: err}
	}
	return Result{Finding: f}
}
