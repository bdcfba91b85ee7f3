package analysis

import (
	"strings"
	"unicode/utf8"
)

// MinResumeLength is the shortest text worth analysing. Length is counted in
// runes, so a character outside the BMP counts once, not as a UTF-16 pair.
const MinResumeLength = 100

var resumeMarkers = []string{
	"experience", "employment", "work",
	"education", "university", "college", "school",
	"skills", "projects", "summary", "profile", "objective",
	"resume", "cv",
	"@", "phone", "mail",
}

// IsResumeLike reports whether text is long enough and mentions at least one
// resume section or contact marker. A single marker is sufficient.
func IsResumeLike(text string) bool {
	if utf8.RuneCountInString(text) < MinResumeLength {
		return false
	}

	lower := strings.ToLower(text)
	for _, marker := range resumeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
