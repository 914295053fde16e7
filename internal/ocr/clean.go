package ocr

import (
	"regexp"
	"strings"
)

var (
	crlfRe       = regexp.MustCompile(`\r\n?`)
	blankLinesRe = regexp.MustCompile(`\n{2,}`)
	spacesRe     = regexp.MustCompile(`\s+`)
	headerRe     = regexp.MustCompile(`(?i)^(Patient Name|Date|Report|Page \d+|Confidential)`)
	noiseRe      = regexp.MustCompile(`[^\x20-\x7E\n%±<>/(),.:;\-]`)
)

// CleanText normalizes raw OCR output for summarization: collapses
// whitespace, strips common report headers and footers, deduplicates lines
// and removes non-printable noise while keeping medical symbols.
func CleanText(text string) string {
	cleaned := crlfRe.ReplaceAllString(text, "\n")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n")

	seen := make(map[string]struct{})
	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line == "" || headerRe.MatchString(line) {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		lines = append(lines, line)
	}

	cleaned = strings.Join(lines, "\n")
	cleaned = noiseRe.ReplaceAllString(cleaned, "")

	return strings.TrimSpace(cleaned)
}
