package screening

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

type excludePathsFilter struct {
	toggle
	paths []string
}

// NewExcludePaths creates a filter that removes documents read from the given paths.
func NewExcludePaths() Filter {
	return &excludePathsFilter{}
}

func (f *excludePathsFilter) Name() string { return "exclude_paths" }

func (f *excludePathsFilter) Validate(cfg *Config) error {
	f.paths = f.paths[:0]
	for _, p := range cfg.ExcludePaths {
		if p = strings.TrimSpace(p); p != "" {
			f.paths = append(f.paths, filepath.Clean(p))
		}
	}
	return nil
}

func (f *excludePathsFilter) Apply(_ context.Context, deps Deps, r *Results) (*Results, Step, error) {
	initial := r.Len()
	if len(f.paths) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	removed := r.Exclude(EntryPathField, f.paths)
	if len(removed) > 0 {
		deps.Logger.Info("excluding documents by path",
			zap.Strings("excluded_documents", removed),
			zap.Int("documents_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *excludePathsFilter) Status() Status {
	details := map[string]string{}
	if len(f.paths) > 0 {
		details["paths"] = strings.Join(f.paths, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
