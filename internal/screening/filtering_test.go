package screening

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-scorer/internal/pipeline"
)

func sample() *Results {
	return &Results{Items: []*Entry{
		scored("a", "Backend Developer", 90, "Python", "Go", "Docker"),
		failed("b", pipeline.CategoryNotResumeLike),
		scored("c", "Frontend Developer", 75, "React", "Css"),
		scored("d", "Backend Developer", 55, "Python"),
		scored("e", "Data Scientist", 85, "Python", "Machine Learning"),
	}}
}

func TestFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter Filter
		cfg    *Config
		want   string
	}{
		{name: "failed", filter: NewFailed(), cfg: &Config{}, want: "a,c,d,e"},
		{name: "minimum score unset", filter: NewMinimumScore(), cfg: &Config{}, want: "a,b,c,d,e"},
		{name: "minimum score", filter: NewMinimumScore(), cfg: &Config{MinimumScore: 80}, want: "a,b,e"},
		{name: "minimum score boundary", filter: NewMinimumScore(), cfg: &Config{MinimumScore: 75}, want: "a,b,c,e"},
		{name: "roles", filter: NewRoles(), cfg: &Config{Roles: []string{"backend developer", "Data Scientist"}}, want: "a,b,d,e"},
		{name: "skills", filter: NewSkills(), cfg: &Config{Skills: []string{"python", " GO "}}, want: "a,b"},
		{name: "multi word skill", filter: NewSkills(), cfg: &Config{Skills: []string{"machine learning"}}, want: "b,e"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := tt.filter.Validate(tt.cfg); err != nil {
				t.Fatalf("validate: %v", err)
			}

			r := sample()
			initial := r.Len()

			out, step, err := tt.filter.Apply(context.Background(), Deps{Logger: zap.NewNop()}, r)
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if ids(out) != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, ids(out))
			}
			if step.Initial != initial || step.Left != out.Len() || step.Dropped != initial-out.Len() {
				t.Fatalf("inconsistent step %+v", step)
			}
		})
	}
}

func TestFilterValidation(t *testing.T) {
	cases := []struct {
		filter Filter
		cfg    *Config
	}{
		{NewMinimumScore(), &Config{MinimumScore: -1}},
		{NewMinimumScore(), &Config{MinimumScore: 101}},
		{NewRoles(), &Config{Roles: []string{" "}}},
		{NewSkills(), &Config{Skills: []string{""}}},
	}

	for _, c := range cases {
		if err := c.filter.Validate(c.cfg); err == nil {
			t.Fatalf("%s: expected validation error for %+v", c.filter.Name(), c.cfg)
		}
	}
}

func TestExcludeFileFilter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.json")

	seen := &Results{Items: []*Entry{scored("c", "", 0), scored("a", "", 0)}}
	if err := seen.ToExcluded().ToFile(path); err != nil {
		t.Fatalf("write exclude file: %v", err)
	}

	f := NewExcludeFile()
	if err := f.Validate(&Config{ExcludeFile: path}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	out, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ids(out) != "b,d,e" || step.Dropped != 2 {
		t.Fatalf("unexpected result %q %+v", ids(out), step)
	}

	if Describe([]Filter{f})[0].Details["path"] != path {
		t.Fatalf("status does not report the path")
	}
}

func TestExcludePathsFilter(t *testing.T) {
	f := NewExcludePaths()
	if err := f.Validate(&Config{ExcludePaths: []string{" /resumes/d.pdf ", "/resumes/../resumes/a.pdf", ""}}); err != nil {
		t.Fatalf("validate: %v", err)
	}

	out, step, err := f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ids(out) != "b,c,e" || step.Dropped != 2 || step.Left != 3 {
		t.Fatalf("unexpected result %q %+v", ids(out), step)
	}

	if got := Describe([]Filter{f})[0].Details["paths"]; got != "/resumes/d.pdf,/resumes/a.pdf" {
		t.Fatalf("unexpected status paths %q", got)
	}

	if err := f.Validate(&Config{}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	out, step, _ = f.Apply(context.Background(), Deps{Logger: zap.NewNop()}, sample())
	if out.Len() != 5 || step.Dropped != 0 {
		t.Fatalf("filter without paths must keep everything, got %q", ids(out))
	}
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	steps := Default()
	cfg := &Config{MinimumScore: 60, Skills: []string{"python"}}

	out, err := Run(context.Background(), cfg, Deps{Logger: zap.New(core)}, steps, sample())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ids(out) != "a,e" {
		t.Fatalf("unexpected result %q", ids(out))
	}

	if n := logs.FilterMessage("filter step").Len(); n != len(steps) {
		t.Fatalf("expected %d filter step logs, got %d", len(steps), n)
	}
	if logs.FilterMessage("excluding document that could not be analyzed").Len() != 1 {
		t.Fatalf("expected the failed document to be logged")
	}
}

func TestRunWithDisabledFilter(t *testing.T) {
	steps := Default()
	DisableByName(steps, "failed", "show failures")

	out, err := Run(context.Background(), &Config{MinimumScore: 80}, Deps{}, steps, sample())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if ids(out) != "a,b,e" {
		t.Fatalf("unexpected result %q", ids(out))
	}

	for _, status := range Describe(steps) {
		if status.Name == "failed" {
			if status.Enabled || status.Reason != "show failures" {
				t.Fatalf("unexpected status %+v", status)
			}
		} else if !status.Enabled {
			t.Fatalf("filter %s should stay enabled", status.Name)
		}
	}
}

func TestRunValidationError(t *testing.T) {
	_, err := Run(context.Background(), &Config{MinimumScore: 500}, Deps{}, Default(), sample())
	if err == nil {
		t.Fatalf("expected validation error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, nil, Deps{}, Default(), sample()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
