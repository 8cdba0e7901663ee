package service

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	multilangPattern  = regexp.MustCompile(`(?is)<(?:span|lang)\b[^>]*\blang\s*=[^>]*>.*?</(?:span|lang)>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	controlPattern    = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

// StandardiseName cleans a category name the way the legacy importer does:
// control characters and markup are stripped, but well-formed language-tagged
// span/lang pairs are preserved so multilingual names keep working. Whitespace
// is collapsed and trimmed.
func StandardiseName(name string) string {
	s := controlPattern.ReplaceAllString(name, "")

	// Pull multilang pairs out before the general tag strip, then put them
	// back. The \x00 placeholder cannot occur in the input, control
	// characters are already gone.
	var kept []string
	s = multilangPattern.ReplaceAllStringFunc(s, func(pair string) string {
		kept = append(kept, pair)
		return fmt.Sprintf("\x00%d\x00", len(kept)-1)
	})
	s = tagPattern.ReplaceAllString(s, "")
	for i, pair := range kept {
		s = strings.Replace(s, fmt.Sprintf("\x00%d\x00", i), pair, 1)
	}

	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
