// Package pipeline runs one uploaded document through extraction,
// validation and analysis and assembles the result record.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/resume-scorer/internal/analysis"
	"github.com/spigell/resume-scorer/internal/extract"
	"github.com/spigell/resume-scorer/internal/knowledge"
	"github.com/spigell/resume-scorer/internal/logger"
)

// State is a step of a single analysis.
type State int

const (
	StateAwaitingUpload State = iota
	StateExtracting
	StateValidating
	StateAnalyzing
	StateComplete
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateAwaitingUpload:
		return "awaiting_upload"
	case StateExtracting:
		return "extracting"
	case StateValidating:
		return "validating"
	case StateAnalyzing:
		return "analyzing"
	case StateComplete:
		return "complete"
	case StateErrored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Document is an uploaded file. Filename is informational only.
type Document struct {
	Content   []byte
	MediaType string
	Filename  string
}

// Result is the outcome of a successful analysis.
type Result struct {
	Role         string           `json:"role"`
	ATSScore     int              `json:"atsScore"`
	MatchScore   int              `json:"matchScore"`
	MarketDemand knowledge.Demand `json:"marketDemand"`
	Skills       []string         `json:"skills"`
	SalaryRange  string           `json:"salary_range"`
}

// TextExtractor produces plain text from document bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, mediaType string) (string, error)
}

type Pipeline struct {
	extractor TextExtractor
	analyzer  *analysis.Analyzer
	logger    *zap.Logger
}

// New builds a pipeline over a knowledge base. The base is only read, so one
// Pipeline may serve any number of concurrent Analyze calls.
func New(kb *knowledge.Base, extractor TextExtractor, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		extractor: extractor,
		analyzer:  analysis.New(kb),
		logger:    log,
	}
}

// Analyze runs the document through every stage. On failure the returned
// error is a *Error, or the context error when ctx ends first.
func (p *Pipeline) Analyze(ctx context.Context, doc *Document) (*Result, error) {
	result, _, err := p.AnalyzeWithText(ctx, doc)
	return result, err
}

// AnalyzeWithText is Analyze that also returns the extracted text of a
// successfully analysed document.
func (p *Pipeline) AnalyzeWithText(ctx context.Context, doc *Document) (result *Result, text string, err error) {
	run := &run{logger: p.logger, state: StateAwaitingUpload}
	if doc != nil {
		run.logger = logger.WithFields(p.logger, logger.DocumentFields(doc.Filename, doc.MediaType, len(doc.Content))...)
	}

	defer func() {
		if r := recover(); r != nil {
			run.logger.Error("analysis failed unexpectedly",
				zap.String("state", run.state.String()),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result, text = nil, ""
			err = run.fail(newError(CategoryInternalFailure, msgInternalFailure, fmt.Errorf("panic: %v", r)))
		}
	}()

	if doc == nil || len(doc.Content) == 0 {
		return nil, "", run.fail(newError(CategoryNoFileProvided, msgNoFile, nil))
	}

	run.logger.Info("received document")

	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	run.enter(StateExtracting)
	text, err = p.extractor.Extract(ctx, doc.Content, doc.MediaType)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, "", err
		}
		return nil, "", run.fail(extractionError(err))
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", run.fail(newError(CategoryEmptyExtraction, msgUploadProperly, nil))
	}

	run.enter(StateValidating)
	if !analysis.IsResumeLike(text) {
		return nil, "", run.fail(newError(CategoryNotResumeLike, msgUploadProperly,
			fmt.Errorf("content validation failed, text length %d", utf8.RuneCountInString(text))))
	}

	run.enter(StateAnalyzing)
	result = p.analyze(text)

	run.enter(StateComplete)
	run.logger.Info("analysis completed",
		zap.String("role", result.Role),
		zap.Int("ats_score", result.ATSScore),
		zap.Int("match_score", result.MatchScore),
		zap.Int("skills", len(result.Skills)),
	)

	return result, text, nil
}

func (p *Pipeline) analyze(text string) *Result {
	skills := p.analyzer.ExtractSkills(text)
	role := p.analyzer.ClassifyRole(text)
	ats := analysis.ATSScore(text, skills)

	return &Result{
		Role:         role.Name,
		ATSScore:     ats,
		MatchScore:   analysis.MatchScore(ats),
		MarketDemand: role.Demand,
		Skills:       skills,
		SalaryRange:  role.SalaryRange,
	}
}

func extractionError(err error) *Error {
	var decodeErr *extract.DecodeError

	switch {
	case errors.Is(err, extract.ErrUnsupportedLegacyFormat):
		return newError(CategoryUnsupportedLegacyFormat, err.Error(), err)
	case errors.Is(err, extract.ErrEmptyOrUnreadable):
		return newError(CategoryEmptyOrUnreadableDocument, err.Error(), err)
	case errors.As(err, &decodeErr):
		return newError(CategoryExtractionError, decodeErr.Error(), err)
	default:
		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = msgReadFailure
		}
		return newError(CategoryExtractionError, msg, err)
	}
}

// run tracks the state of one Analyze call.
type run struct {
	logger *zap.Logger
	state  State
}

func (r *run) enter(next State) {
	r.logger.Debug("state transition",
		zap.String("from", r.state.String()),
		zap.String("to", next.String()),
	)
	r.state = next
}

func (r *run) fail(e *Error) *Error {
	e.State = r.state
	r.enter(StateErrored)

	fields := []zap.Field{
		zap.String("category", string(e.Category)),
		zap.String("failed_state", e.State.String()),
	}
	if e.Err != nil {
		fields = append(fields, zap.Error(e.Err))
	}

	if e.Expected() {
		r.logger.Warn("document rejected", fields...)
	} else {
		r.logger.Error("document analysis failed", fields...)
	}
	return e
}
