package screening

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type skillsFilter struct {
	toggle
	required []string
}

// NewSkills creates a filter that keeps only documents showing every
// configured skill.
func NewSkills() Filter {
	return &skillsFilter{}
}

func (f *skillsFilter) Name() string { return "skills" }

func (f *skillsFilter) Validate(cfg *Config) error {
	f.required = f.required[:0]
	for _, skill := range cfg.Skills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill == "" {
			return fmt.Errorf("empty skill name")
		}
		f.required = append(f.required, skill)
	}
	return nil
}

func (f *skillsFilter) Apply(_ context.Context, deps Deps, r *Results) (*Results, Step, error) {
	initial := r.Len()
	if len(f.required) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	removed := r.RemoveIf(func(e *Entry) bool {
		return !e.Failed() && !hasSkills(e.Result.Skills, f.required)
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding documents missing required skills",
			zap.Strings("required_skills", f.required),
			zap.Strings("excluded_documents", removed),
			zap.Int("documents_left", r.Len()),
		)
	}

	return r, Step{Initial: initial, Dropped: len(removed), Left: r.Len()}, nil
}

func (f *skillsFilter) Status() Status {
	details := map[string]string{}
	if len(f.required) > 0 {
		details["skills"] = strings.Join(f.required, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func hasSkills(have, required []string) bool {
	set := make(map[string]struct{}, len(have))
	for _, s := range have {
		set[strings.ToLower(s)] = struct{}{}
	}
	for _, s := range required {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
