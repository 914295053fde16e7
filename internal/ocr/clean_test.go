package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextNormalizesWhitespace(t *testing.T) {
	in := "Line one\r\n\r\n\r\nLine   two\twith\ttabs\n"
	got := CleanText(in)
	assert.Equal(t, "Line one\nLine two with tabs", got)
}

func TestCleanTextStripsHeaders(t *testing.T) {
	in := `Patient Name: Asha Rao
Date: 2025-01-15
Confidential
Page 2
Hemoglobin: 13.5 g/dL`
	got := CleanText(in)
	assert.Equal(t, "Hemoglobin: 13.5 g/dL", got)
}

func TestCleanTextDeduplicatesLines(t *testing.T) {
	in := "Glucose: 92 mg/dL\nGLUCOSE: 92 MG/DL\nGlucose: 92 mg/dL"
	got := CleanText(in)
	assert.Equal(t, "Glucose: 92 mg/dL", got)
}

func TestCleanTextRemovesNoiseKeepsMedicalSymbols(t *testing.T) {
	in := "Hemoglobin: 13.5 g/dL©☃ (range 12-16), <5% ±variance"
	got := CleanText(in)
	assert.Equal(t, "Hemoglobin: 13.5 g/dL (range 12-16), <5% ±variance", got)
}

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
	assert.Equal(t, "", CleanText("  \n\n  "))
}
