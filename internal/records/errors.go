package records

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// classify maps a storage failure into the scheduling error taxonomy.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if scheduling.KindOf(err) != scheduling.KindUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Err: err}
	}
	return &scheduling.Error{Kind: scheduling.KindDependencyUnavailable, Op: op, Err: err}
}

// observe records the dependency metrics of one store call.
func observe(ctx context.Context, metrics *instrumentation.Metrics, dependency, operation string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = scheduling.KindOf(err).String()
	}
	metrics.RecordDependencyOperation(ctx, dependency, operation, status, time.Since(start))
}

// sortNewestFirst orders records by CreatedAt descending, keeping the
// input order for ties.
func sortNewestFirst(records []booking.BookingRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
