package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lllllllleong/submissionwall/internal/models"
)

type fakeRelay struct {
	fail    bool
	calls   []string
	onRelay func()
}

func (f *fakeRelay) Relay(ctx context.Context, sourceURL string) (string, error) {
	f.calls = append(f.calls, sourceURL)
	if f.onRelay != nil {
		f.onRelay()
	}
	if f.fail {
		return "", fmt.Errorf("%w: status 403", models.ErrDownloadFailed)
	}
	return strings.Replace(sourceURL, "http://x/", "https://host/", 1), nil
}

type reconcileCall struct {
	offset, limit int
}

type fakeReconciler struct {
	summaries []*models.ReconcileSummary
	err       error
	calls     []reconcileCall
}

func (f *fakeReconciler) Reconcile(ctx context.Context, offset, limit int) (*models.ReconcileSummary, error) {
	f.calls = append(f.calls, reconcileCall{offset, limit})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.summaries) == 0 {
		return &models.ReconcileSummary{Success: true, Errors: []string{}}, nil
	}
	s := f.summaries[0]
	f.summaries = f.summaries[1:]
	return s, nil
}

type fakeWorkflow struct {
	err  error
	args []any
}

func (f *fakeWorkflow) Trigger(ctx context.Context, argument any) (string, error) {
	f.args = append(f.args, argument)
	if f.err != nil {
		return "", f.err
	}
	return "executions/1", nil
}
