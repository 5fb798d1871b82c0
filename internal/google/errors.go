package google

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// ReasonForbiddenForServiceAccounts is returned by the Calendar API when a
// service account without domain-wide delegation tries to invite attendees.
const ReasonForbiddenForServiceAccounts = "forbiddenForServiceAccounts"

// ClassifyError maps a Google API failure into the scheduling error
// taxonomy. Already classified errors are returned unchanged.
func ClassifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if scheduling.KindOf(err) != scheduling.KindUnknown {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Err: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusForbidden && hasReason(apiErr, ReasonForbiddenForServiceAccounts) {
			return &scheduling.Error{
				Kind:   scheduling.KindPermissionDenied,
				Op:     op,
				Detail: "service account may not invite attendees without domain-wide delegation",
				Err:    err,
			}
		}
		if apiErr.Code == http.StatusGatewayTimeout || apiErr.Code == http.StatusRequestTimeout {
			return &scheduling.Error{Kind: scheduling.KindDependencyTimeout, Op: op, Err: err}
		}
	}
	return &scheduling.Error{Kind: scheduling.KindDependencyUnavailable, Op: op, Err: err}
}

func hasReason(apiErr *googleapi.Error, reason string) bool {
	for _, item := range apiErr.Errors {
		if item.Reason == reason {
			return true
		}
	}
	return false
}

// Call runs one Google API operation inside a dependency span, classifies
// its error and records the dependency metrics. metrics may be nil.
func Call(ctx context.Context, metrics *instrumentation.Metrics, dependency, operation string, fn func(ctx context.Context) error) error {
	ctx, span := instrumentation.StartDependencySpan(ctx, dependency, operation)
	defer span.End()

	start := time.Now()
	err := ClassifyError(dependency+"."+operation, fn(ctx))

	status := instrumentation.StatusSuccess
	if err != nil {
		status = scheduling.KindOf(err).String()
		span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithErrorKind(status).Build()...)
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	metrics.RecordDependencyOperation(ctx, dependency, operation, status, time.Since(start))
	return err
}
