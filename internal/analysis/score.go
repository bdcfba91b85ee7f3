package analysis

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	baseScore       = 50
	sectionBonus    = 10
	contactBonus    = 5
	skillWeight     = 2
	maxSkillBonus   = 20
	lengthBonus     = 10
	minWellFormed   = 500
	maxWellFormed   = 5000
	minATSScore     = 40
	maxATSScore     = 98
	maxMatchScore   = 99
	matchScoreBoost = 5
	matchScoreRatio = 0.9
)

var (
	experienceSection = regexp.MustCompile(`(?i)experience|employment`)
	educationSection  = regexp.MustCompile(`(?i)education|academic`)
	phoneNumber       = regexp.MustCompile(`\d{10}|\d{3}[-.]\d{3}[-.]\d{4}`)
)

// ATSScore estimates applicant-tracking-system compatibility. The result is
// always within [40, 98].
func ATSScore(text string, skills []string) int {
	score := baseScore

	if experienceSection.MatchString(text) {
		score += sectionBonus
	}
	if educationSection.MatchString(text) {
		score += sectionBonus
	}
	if strings.Contains(text, "@") {
		score += contactBonus
	}
	if phoneNumber.MatchString(text) {
		score += contactBonus
	}

	score += min(skillWeight*len(skills), maxSkillBonus)

	// Runes, like MinResumeLength.
	if n := utf8.RuneCountInString(text); n > minWellFormed && n < maxWellFormed {
		score += lengthBonus
	}

	return max(minATSScore, min(score, maxATSScore))
}

// MatchScore derives the role match score from an ATS score:
// floor(ats*0.9)+5, capped at 99.
func MatchScore(ats int) int {
	return min(int(math.Floor(float64(ats)*matchScoreRatio))+matchScoreBoost, maxMatchScore)
}
