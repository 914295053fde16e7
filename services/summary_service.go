package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/internal/llm"
	"github.com/mediqr-dev/mediqr/internal/metrics"
	"github.com/mediqr-dev/mediqr/internal/ocr"
	"github.com/mediqr-dev/mediqr/internal/report"
)

// noTextSummary is stored when OCR yields nothing usable; it also marks the
// document for re-summarization during aggregate runs.
const noTextSummary = "No extractable text found in the document."

// badSummaryMarkers are placeholder summaries from earlier failed runs that
// should be retried rather than trusted.
var badSummaryMarkers = []string{
	"no extractable text found",
	"no significant findings",
	"no meaningful findings",
	"no information available",
}

// ErrSummarizationFailed signals that the pipeline could not produce any
// summary for the request.
var ErrSummarizationFailed = errors.New("failed to summarize document")

// TextExtractor is the OCR collaborator.
type TextExtractor interface {
	ExtractText(ctx context.Context, documentURL string) (string, error)
}

// Summarizer is the LLM collaborator.
type Summarizer interface {
	GenerateSummary(ctx context.Context, text string) (string, error)
	GenerateAggregateSummary(ctx context.Context, sections []llm.Section) (string, error)
}

// AggregateSummary is the result of summarizing all of a patient's
// documents. FailedDocumentIDs lists documents whose individual
// summarization failed; the run continues past them.
type AggregateSummary struct {
	PatientID         string    `json:"patientId"`
	DocumentCount     int       `json:"documentCount"`
	SummarizedCount   int       `json:"summarizedCount"`
	FailedDocumentIDs []string  `json:"failedDocumentIds"`
	Summary           string    `json:"summary"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// SummaryService orchestrates the OCR and LLM collaborators to produce and
// persist document summaries, lab results and report dates.
type SummaryService struct {
	docs domain.DocumentRepository
	ocr  TextExtractor
	llm  Summarizer
}

// NewSummaryService creates a new SummaryService instance.
func NewSummaryService(docs domain.DocumentRepository, extractor TextExtractor, summarizer Summarizer) *SummaryService {
	return &SummaryService{docs: docs, ocr: extractor, llm: summarizer}
}

// SummarizeDocument runs the pipeline for one document. Patients may only
// summarize their own documents; doctors may summarize any.
func (s *SummaryService) SummarizeDocument(ctx context.Context, documentID string, caller *domain.Identity) (*domain.Document, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	if caller.IsPatient() && caller.UserID != doc.PatientID {
		return nil, fmt.Errorf("%w: cannot summarize another patient's document", domain.ErrForbidden)
	}

	if _, err := s.summarize(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// SummarizePatientDocuments generates a unified summary across all of a
// patient's documents, oldest first. Per-document failures are collected and
// skipped; only a run that produces nothing at all fails.
func (s *SummaryService) SummarizePatientDocuments(ctx context.Context, patientID string, caller *domain.Identity) (*AggregateSummary, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if caller.IsPatient() && caller.UserID != patientID {
		return nil, fmt.Errorf("%w: cannot summarize another patient's documents", domain.ErrForbidden)
	}

	docs, err := s.docs.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents found for patient", domain.ErrNotFound)
	}

	// ListByPatient is newest-first; the aggregate reads better in
	// chronological order.
	sections := make([]llm.Section, 0, len(docs))
	var failedIDs []string
	for i := len(docs) - 1; i >= 0; i-- {
		doc := docs[i]

		summary := strings.TrimSpace(doc.Summary)
		if summary == "" || isBadSummary(summary) {
			summary, err = s.summarize(ctx, doc)
			if err != nil {
				failedIDs = append(failedIDs, doc.ID)
				metrics.SummaryFailuresTotal.Inc()
				log.Error().Err(err).
					Str("document_id", doc.ID).
					Msg("aggregate summary: per-document summarization failed")
				continue
			}
		}

		if summary != "" {
			title := string(doc.Type)
			if title == "" {
				title = fmt.Sprintf("Document %d", len(sections)+1)
			}
			sections = append(sections, llm.Section{Title: title, Summary: summary})
		}
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("%w: no documents could be summarized", ErrSummarizationFailed)
	}

	aggregate, err := s.llm.GenerateAggregateSummary(ctx, sections)
	if err != nil {
		return nil, fmt.Errorf("failed to generate aggregate summary: %w", err)
	}

	return &AggregateSummary{
		PatientID:         patientID,
		DocumentCount:     len(docs),
		SummarizedCount:   len(sections),
		FailedDocumentIDs: failedIDs,
		Summary:           aggregate,
		GeneratedAt:       time.Now().UTC(),
	}, nil
}

// summarize runs OCR, structured extraction and the LLM for one document,
// persisting results as they become available. Returns the summary text.
func (s *SummaryService) summarize(ctx context.Context, doc *domain.Document) (string, error) {
	rawText, err := s.ocr.ExtractText(ctx, doc.URL)
	if err != nil {
		return "", fmt.Errorf("%w: text extraction failed: %w", ErrSummarizationFailed, err)
	}

	cleaned := ocr.CleanText(rawText)
	if len(cleaned) < 20 {
		doc.Summary = noTextSummary
		if err := s.persist(ctx, doc); err != nil {
			return "", fmt.Errorf("failed to persist summary: %w", err)
		}
		return doc.Summary, nil
	}

	// Lab metrics and the report date come from extraction, not the LLM, so
	// persist them even if the model call below fails.
	labResults := report.ExtractLabResults(cleaned)
	reportDate := report.ExtractReportDate(rawText)
	if labResults != nil || reportDate != nil {
		doc.LabResults = labResults
		doc.ReportDate = reportDate
		if err := s.persist(ctx, doc); err != nil {
			return "", fmt.Errorf("failed to persist extracted metrics: %w", err)
		}
	}

	summary, err := s.llm.GenerateSummary(ctx, cleaned)
	if err != nil {
		return "", fmt.Errorf("%w: summary generation failed: %w", ErrSummarizationFailed, err)
	}

	doc.Summary = summary
	if err := s.persist(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to persist summary: %w", err)
	}

	metrics.SummariesGeneratedTotal.Inc()
	log.Info().Str("document_id", doc.ID).Msg("document summarized")

	return summary, nil
}

// persist stamps the modification time and writes the summarization fields.
func (s *SummaryService) persist(ctx context.Context, doc *domain.Document) error {
	doc.UpdatedAt = time.Now()
	return s.docs.UpdateSummary(ctx, doc)
}

func isBadSummary(summary string) bool {
	lower := strings.ToLower(summary)
	for _, marker := range badSummaryMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
