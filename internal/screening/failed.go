package screening

import (
	"context"

	"go.uber.org/zap"
)

type failedFilter struct {
	toggle
}

// NewFailed creates a filter that removes documents whose analysis failed.
func NewFailed() Filter {
	return &failedFilter{}
}

func (f *failedFilter) Name() string { return "failed" }

func (f *failedFilter) Validate(*Config) error { return nil }

func (f *failedFilter) Apply(_ context.Context, deps Deps, r *Results) (*Results, Step, error) {
	initial := r.Len()

	removed := r.RemoveIf(func(e *Entry) bool {
		if !e.Failed() {
			return false
		}
		deps.Logger.Info("excluding document that could not be analyzed",
			zap.String("id", e.ID),
			zap.String("name", e.Name),
			zap.String("category", string(e.Category)),
			zap.String("reason", e.Error),
		)
		return true
	})

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *failedFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
