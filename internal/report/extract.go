// Package report extracts structured findings (lab values, report dates)
// from raw OCR text of medical documents.
package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mediqr-dev/mediqr/domain"
)

var (
	hemoglobinRe = regexp.MustCompile(`(?i)(?:hemoglobin|haemoglobin|hgb|hb)\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z/%]+)?`)
	wbcRe        = regexp.MustCompile(`(?i)(?:wbc|white blood cells?|leukocytes?)\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z/%]+)?`)
	plateletsRe  = regexp.MustCompile(`(?i)(?:platelets?|plt)\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z/%]+)?`)
	glucoseRe    = regexp.MustCompile(`(?i)(?:glucose|blood sugar|fbs|rbs)\s*[:\-]?\s*([0-9]+(?:\.[0-9]+)?)\s*([a-zA-Z/%]+)?`)
)

func extractLabValue(text string, re *regexp.Regexp) *domain.LabValue {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	return &domain.LabValue{Value: value, Unit: m[2]}
}

// ExtractLabResults pulls the common CBC/glucose metrics out of report text.
// Returns nil when nothing was found.
func ExtractLabResults(text string) *domain.LabResults {
	results := &domain.LabResults{
		Hemoglobin: extractLabValue(text, hemoglobinRe),
		WBC:        extractLabValue(text, wbcRe),
		Platelets:  extractLabValue(text, plateletsRe),
		Glucose:    extractLabValue(text, glucoseRe),
	}
	if results.Hemoglobin == nil && results.WBC == nil && results.Platelets == nil && results.Glucose == nil {
		return nil
	}
	return results
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

const monthNames = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`

var datePatterns = []struct {
	re    *regexp.Regexp
	parse func(m []string) *time.Time
}{
	// ISO: 2025-11-03
	{
		re: regexp.MustCompile(`\b(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`),
		parse: func(m []string) *time.Time {
			return tryDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		},
	},
	// DD/MM/YYYY or DD-MM-YYYY; day > 12 disambiguates a swapped order,
	// otherwise DD/MM is assumed (medical convention).
	{
		re: regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})\b`),
		parse: func(m []string) *time.Time {
			day, mon, yr := atoi(m[1]), atoi(m[2]), atoi(m[3])
			if mon > 12 {
				return tryDate(yr, day, mon)
			}
			return tryDate(yr, mon, day)
		},
	},
	// 15 Jan 2025
	{
		re: regexp.MustCompile(`(?i)\b(\d{1,2})\s+(` + monthNames + `)\s+(\d{4})\b`),
		parse: func(m []string) *time.Time {
			mon, ok := monthsByPrefix[strings.ToLower(m[2])[:3]]
			if !ok {
				return nil
			}
			return tryDate(atoi(m[3]), int(mon), atoi(m[1]))
		},
	},
	// Jan 15, 2025
	{
		re: regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{1,2})[,\s]+(\d{4})\b`),
		parse: func(m []string) *time.Time {
			mon, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
			if !ok {
				return nil
			}
			return tryDate(atoi(m[3]), int(mon), atoi(m[2]))
		},
	},
	// Mar 2025 (no day, use the 1st)
	{
		re: regexp.MustCompile(`(?i)\b(` + monthNames + `)\s+(\d{4})\b`),
		parse: func(m []string) *time.Time {
			mon, ok := monthsByPrefix[strings.ToLower(m[1])[:3]]
			if !ok {
				return nil
			}
			return tryDate(atoi(m[2]), int(mon), 1)
		},
	},
}

// ExtractReportDate parses the report's own date from raw OCR text. Tries
// common medical formats; returns nil when nothing plausible is found.
func ExtractReportDate(text string) *time.Time {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			if dt := p.parse(m); dt != nil {
				return dt
			}
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func tryDate(year, month, day int) *time.Time {
	if year < 1990 || year > 2100 || month < 1 || month > 12 || day < 1 || day > 31 {
		return nil
	}
	dt := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflows (e.g. Feb 30); reject those.
	if dt.Day() != day || dt.Month() != time.Month(month) {
		return nil
	}
	return &dt
}
