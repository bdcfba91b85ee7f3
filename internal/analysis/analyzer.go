// Package analysis derives skills, a role and ATS scores from resume text
// using plain substring matching against a knowledge base.
package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spigell/resume-scorer/internal/knowledge"
)

// MaxSkills caps the number of skills reported for one document.
const MaxSkills = 8

// Skill phrases whose display form is not plain title case.
var displayOverrides = map[string]string{
	"node.js": "Node.js",
}

type Analyzer struct {
	kb *knowledge.Base
}

func New(kb *knowledge.Base) *Analyzer {
	return &Analyzer{kb: kb}
}

// ExtractSkills returns up to MaxSkills vocabulary phrases found in text, in
// vocabulary order and formatted for display.
func (a *Analyzer) ExtractSkills(text string) []string {
	lower := strings.ToLower(text)

	found := make([]string, 0, MaxSkills)
	for _, skill := range a.kb.Skills() {
		if len(found) == MaxSkills {
			break
		}
		if strings.Contains(lower, skill) {
			found = append(found, displaySkill(skill))
		}
	}
	return found
}

// ClassifyRole picks the role with the most distinct keyword hits. Earlier
// roles win ties; with no hits at all the default role is returned.
func (a *Analyzer) ClassifyRole(text string) knowledge.Role {
	lower := strings.ToLower(text)

	best := a.kb.DefaultRole()
	maxHits := 0
	for _, role := range a.kb.Roles() {
		hits := 0
		for _, kw := range role.Keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > maxHits {
			maxHits = hits
			best = role
		}
	}
	return best
}

func displaySkill(skill string) string {
	if display, ok := displayOverrides[skill]; ok {
		return display
	}

	words := strings.Split(skill, " ")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
