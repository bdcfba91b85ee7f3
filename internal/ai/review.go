// Package ai defines the optional AI review of an analysed resume. The
// review is advisory: it never changes the deterministic scores.
package ai

import (
	"context"

	"github.com/spigell/resume-scorer/internal/pipeline"
)

type Review struct {
	Summary      string   `json:"summary"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Raw          string   `json:"-"`
}

type Reviewer interface {
	Review(ctx context.Context, text string, result *pipeline.Result) (*Review, error)
}
