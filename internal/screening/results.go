// Package screening holds the outcome of a batch analysis and the filters
// that narrow it down.
package screening

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spigell/resume-scorer/internal/pipeline"
	"github.com/spigell/resume-scorer/internal/utils"
)

const (
	EntryIDField   = "ID"
	EntryPathField = "Path"
	EntryRoleField = "Role"
)

// ReportFailedKey groups failed entries in ReportByRole.
const ReportFailedKey = "Not analyzed"

type Results struct {
	Items []*Entry `json:"items"`
}

// Entry is one analyzed document. Result is nil when the analysis failed, in
// which case Category and Error describe the failure.
type Entry struct {
	ID        string            `json:"id"`
	Path      string            `json:"path,omitempty"`
	Name      string            `json:"name"`
	MediaType string            `json:"media_type"`
	Result    *pipeline.Result  `json:"result,omitempty"`
	Category  pipeline.Category `json:"category,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type ExcludedDocuments struct {
	Items []*ExcludedDocument
}

type ExcludedDocument struct {
	ID         string
	Path       string
	Role       string
	ExcludedAt time.Time
}

// NewEntry records the outcome of analysing doc read from path.
func NewEntry(path string, doc *pipeline.Document, res *pipeline.Result, err error) *Entry {
	e := &Entry{Path: path}
	if doc != nil {
		e.ID = utils.ShortHash(doc.Content)
		e.Name = doc.Filename
		e.MediaType = doc.MediaType
	}
	if e.Name == "" && path != "" {
		e.Name = filepath.Base(path)
	}

	if err != nil {
		e.Category = pipeline.CategoryOf(err)
		if e.Category == "" {
			e.Category = pipeline.CategoryInternalFailure
		}
		e.Error = pipeline.MessageOf(err)
		return e
	}

	e.Result = res
	return e
}

func (e *Entry) Failed() bool {
	return e.Result == nil
}

func (e *Entry) GetStringField(name string) string {
	switch name {
	case EntryIDField:
		return e.ID
	case EntryPathField:
		return e.Path
	case EntryRoleField:
		if e.Result == nil {
			return ""
		}
		return e.Result.Role
	default:
		return ""
	}
}

func (r *Results) Len() int {
	return len(r.Items)
}

func (r *Results) FindByID(id string) *Entry {
	for _, entry := range r.Items {
		if entry.ID == id {
			return entry
		}
	}
	return nil
}

// Exclude removes every entry whose field matches one of targets and returns
// the removed IDs. The order of the remaining entries is kept.
func (r *Results) Exclude(name string, targets []string) []string {
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}

	return r.RemoveIf(func(e *Entry) bool {
		_, ok := set[e.GetStringField(name)]
		return ok
	})
}

// RemoveIf removes the entries matching drop and returns their IDs.
func (r *Results) RemoveIf(drop func(*Entry) bool) []string {
	var removed []string
	kept := r.Items[:0]
	for _, entry := range r.Items {
		if drop(entry) {
			removed = append(removed, entry.ID)
			continue
		}
		kept = append(kept, entry)
	}

	for i := len(kept); i < len(r.Items); i++ {
		r.Items[i] = nil
	}
	r.Items = kept

	return removed
}

// ReportByRole groups entries by detected role. Failed entries are listed
// under ReportFailedKey.
func (r *Results) ReportByRole() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, entry := range r.Items {
		if entry.Failed() {
			report[ReportFailedKey] = append(report[ReportFailedKey], map[string]string{
				"id":       entry.ID,
				"name":     entry.Name,
				"category": string(entry.Category),
				"error":    entry.Error,
			})
			continue
		}

		res := entry.Result
		report[res.Role] = append(report[res.Role], map[string]string{
			"id":            entry.ID,
			"name":          entry.Name,
			"ats score":     fmt.Sprintf("%d", res.ATSScore),
			"match score":   fmt.Sprintf("%d", res.MatchScore),
			"market demand": res.MarketDemand.String(),
			"salary range":  res.SalaryRange,
			"skills":        strings.Join(res.Skills, ", "),
		})
	}
	return report
}

func (r *Results) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "resumes_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (r *Results) ToExcluded() *ExcludedDocuments {
	now := time.Now().UTC()
	excluded := &ExcludedDocuments{}
	for _, entry := range r.Items {
		excluded.Items = append(excluded.Items, &ExcludedDocument{
			ID:         entry.ID,
			Path:       entry.Path,
			Role:       entry.GetStringField(EntryRoleField),
			ExcludedAt: now,
		})
	}
	return excluded
}

// LoadExcluded reads an exclude file. A missing or empty file yields an
// empty list.
func LoadExcluded(path string) (*ExcludedDocuments, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedDocuments{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedDocuments{}, nil
	}

	var excluded ExcludedDocuments
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &excluded, nil
}

func (d *ExcludedDocuments) Append(s *ExcludedDocuments) {
	d.Items = append(d.Items, s.Items...)
}

func (d *ExcludedDocuments) IDs() []string {
	ids := make([]string, 0, len(d.Items))
	for _, doc := range d.Items {
		ids = append(ids, doc.ID)
	}
	return ids
}

func (d *ExcludedDocuments) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}
